package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evcraddock/sfa-backend/internal/visit"
)

// printJSON marshals v as indented JSON and writes it to out.
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printVisit prints a visit header and its checklist in text format.
func printVisit(out io.Writer, v *visit.Visit) error {
	fmt.Fprintf(out, "Visit %s\n", v.VisitID)
	fmt.Fprintf(out, "  Date:      %s\n", v.Date.Format("2006-01-02"))
	fmt.Fprintf(out, "  Customer:  %s\n", v.CustomerID)
	fmt.Fprintf(out, "  Sales:     %s (supervisor %s)\n", v.SalesID, v.SupervisorID)
	fmt.Fprintf(out, "  Call:      %s\n", v.CallNumber)
	fmt.Fprintf(out, "  Time:      %s - %s\n", v.Start.Format("15:04"), v.End.Format("15:04"))
	if v.Latitude != nil && v.Longitude != nil {
		fmt.Fprintf(out, "  Location:  %g, %g\n", *v.Latitude, *v.Longitude)
	}
	if v.Notes != "" {
		fmt.Fprintf(out, "  Notes:     %s\n", truncate(v.Notes, 60))
	}

	if len(v.Entries) == 0 {
		fmt.Fprintln(out, "\nNo checklist entries.")
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "DETAIL\tSUB-DETAIL\tCHECKED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "------\t----------\t-------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, e := range v.Entries {
		checked := "no"
		if e.Checked == 1 {
			checked = "yes"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", e.DetailID, e.SubDetailID, checked); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d entries\n", len(v.Entries))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
