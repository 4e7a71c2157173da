// Package visit provides store visit submission: payload validation, checklist
// flattening, and the transactional replace of a visit header and its entries.
package visit

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ID is an identifier that mobile clients send either as a JSON string or a number.
type ID string

// UnmarshalJSON accepts "V1", 42 and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", b)
	}
	*id = ID(n.String())
	return nil
}

// Flag is a checklist answer. Clients send booleans, numbers, or their string forms.
type Flag bool

// UnmarshalJSON accepts true/false, numbers (any non-zero is checked), their
// quoted forms, and null.
func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(strings.Trim(string(b), `"`)))
	switch s {
	case "true":
		*f = true
		return nil
	case "false", "", "null":
		*f = false
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid checklist flag %s", b)
	}
	*f = Flag(n != 0 && !math.IsNaN(n))
	return nil
}

// Int returns the stored form of the flag: 1 when checked, otherwise 0.
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}

// Payload is the JSON body of a visit submission.
type Payload struct {
	VisitID      ID       `json:"id_visit"`
	Date         string   `json:"tanggal"`
	SupervisorID ID       `json:"id_spv"`
	CustomerID   ID       `json:"id_pelanggan"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Start        string   `json:"mulai"`
	End          string   `json:"selesai"`
	Notes        string   `json:"catatan"`
	FeatureID    ID       `json:"id_feature"`
	SalesID      ID       `json:"id_sales"`
	CallNumber   ID       `json:"nocall"`
	Details      []Detail `json:"details"`
}

// Detail is one answered checklist detail node.
type Detail struct {
	DetailID   ID          `json:"id_feature_detail"`
	SubDetails []SubDetail `json:"sub_details"`
}

// SubDetail is a leaf checklist item.
type SubDetail struct {
	SubDetailID ID   `json:"id_feature_sub_detail"`
	Checked     Flag `json:"is_checked"`
}

// Header is a validated visit header row (sfa_visit).
type Header struct {
	VisitID      string    `json:"id_visit"`
	Date         time.Time `json:"tanggal"`
	SupervisorID string    `json:"id_spv"`
	CustomerID   string    `json:"id_pelanggan"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Start        time.Time `json:"mulai"`
	End          time.Time `json:"selesai"`
	Notes        string    `json:"catatan"`
	SalesID      string    `json:"id_sales"`
	CallNumber   string    `json:"nocall"`
}

// ChecklistEntry is one persisted checklist answer (sfa_visitdet).
type ChecklistEntry struct {
	VisitID     string `json:"id_visit"`
	FeatureID   string `json:"id_feature"`
	DetailID    string `json:"id_feature_detail"`
	SubDetailID string `json:"id_feature_sub_detail"`
	Checked     int    `json:"checklist"`
}

// Visit is a stored header with its checklist entries.
type Visit struct {
	Header
	Entries []ChecklistEntry `json:"details"`
}

// Result reports a committed submission.
type Result struct {
	VisitID string `json:"id_visit"`
	Entries int    `json:"entries"`
}
