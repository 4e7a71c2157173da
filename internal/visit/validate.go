package visit

import (
	"fmt"
	"strings"
	"time"
)

// timeLayouts are the timestamp forms mobile clients send for mulai/selesai.
// Layouts without a zone are read in the server's local time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// dateLayouts are accepted for tanggal, which may also carry a time part.
var dateLayouts = append([]string{"2006-01-02"}, timeLayouts...)

// Validate checks the payload and returns the header row it describes.
// It performs no I/O.
func (p *Payload) Validate() (*Header, error) {
	required := []struct {
		name  string
		value string
	}{
		{"id_visit", string(p.VisitID)},
		{"tanggal", p.Date},
		{"id_spv", string(p.SupervisorID)},
		{"id_pelanggan", string(p.CustomerID)},
		{"mulai", p.Start},
		{"selesai", p.End},
		{"id_sales", string(p.SalesID)},
		{"nocall", string(p.CallNumber)},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, newError(KindValidation, "incomplete payload",
			fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}

	date, err := parseTime(p.Date, dateLayouts)
	if err != nil {
		return nil, newError(KindValidation, "invalid payload", fmt.Errorf("tanggal: %w", err))
	}
	start, err := parseTime(p.Start, timeLayouts)
	if err != nil {
		return nil, newError(KindValidation, "invalid payload", fmt.Errorf("mulai: %w", err))
	}
	end, err := parseTime(p.End, timeLayouts)
	if err != nil {
		return nil, newError(KindValidation, "invalid payload", fmt.Errorf("selesai: %w", err))
	}
	if end.Before(start) {
		return nil, newError(KindValidation, "invalid payload",
			fmt.Errorf("selesai %s is before mulai %s", p.End, p.Start))
	}

	return &Header{
		VisitID:      string(p.VisitID),
		Date:         date,
		SupervisorID: string(p.SupervisorID),
		CustomerID:   string(p.CustomerID),
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Start:        start,
		End:          end,
		Notes:        p.Notes,
		SalesID:      string(p.SalesID),
		CallNumber:   string(p.CallNumber),
	}, nil
}

func parseTime(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
