// Package catalog reads the checklist catalog (features, their details and
// sub-details) that mobile clients render before a visit, and seeds it from YAML.
package catalog

// Feature is a top-level checklist category.
type Feature struct {
	ID       string `json:"ID_FEATURE"`
	Name     string `json:"NAMA"`
	IsActive int    `json:"IS_ACTIVE"`
}

// Detail is a checklist section within a feature.
type Detail struct {
	ID        string `json:"ID_FEATUREDETAIL"`
	FeatureID string `json:"ID_FEATURE"`
	Name      string `json:"NAMA"`
	Order     int    `json:"URUTAN"`
	IsActive  int    `json:"IS_ACTIVE"`
}

// SubDetail is a single checkable item within a detail.
type SubDetail struct {
	ID       string `json:"ID_FEATURESUBDETAIL"`
	DetailID string `json:"ID_FEATUREDETAIL"`
	Name     string `json:"NAMA"`
	Order    int    `json:"URUTAN"`
	IsActive int    `json:"IS_ACTIVE"`
}

// DetailWithSubs is a detail with its sub-details nested under SUBDETAIL.
type DetailWithSubs struct {
	Detail
	SubDetails []SubDetail `json:"SUBDETAIL"`
}
