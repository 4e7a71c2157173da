package visit

// Flatten walks the checklist tree and returns one entry per sub-detail, in
// input order. Details without sub-details produce nothing, and repeated
// (detail, sub-detail) pairs are kept. VisitID is left for the caller to set.
func Flatten(details []Detail, featureID string) []ChecklistEntry {
	var entries []ChecklistEntry
	for _, d := range details {
		for _, sub := range d.SubDetails {
			entries = append(entries, ChecklistEntry{
				FeatureID:   featureID,
				DetailID:    string(d.DetailID),
				SubDetailID: string(sub.SubDetailID),
				Checked:     sub.Checked.Int(),
			})
		}
	}
	return entries
}

// Entries returns the flattened checklist entries of the payload, stamped
// with its visit id.
func (p *Payload) Entries() []ChecklistEntry {
	entries := Flatten(p.Details, string(p.FeatureID))
	for i := range entries {
		entries[i].VisitID = string(p.VisitID)
	}
	return entries
}
