package models

// RecordKind tags an ownership record as a regular part or a minifigure part.
type RecordKind string

const (
	KindPart           RecordKind = "part"
	KindMinifigurePart RecordKind = "minifigure_part"
)

// DefaultLocation is reported for parts without a storage location.
const DefaultLocation = "Not Specified"

// OwnershipRecord is one required/owned line of a user set.
type OwnershipRecord struct {
	Kind        RecordKind `json:"kind"`
	InternalID  int        `json:"internal_id"` // user set id
	SetNumber   string     `json:"set_number,omitempty"`
	ItemRef     string     `json:"item_ref"`
	ColorRef    string     `json:"color_ref"`
	RequiredQty int        `json:"required_qty"`
	OwnedQty    int        `json:"owned_qty"`
	IsSpare     bool       `json:"is_spare"`
}

// Shortfall returns max(required - owned, 0).
func (r OwnershipRecord) Shortfall() int {
	if r.RequiredQty > r.OwnedQty {
		return r.RequiredQty - r.OwnedQty
	}
	return 0
}

// CatalogEntry is the reference data for one item ref.
type CatalogEntry struct {
	ItemRef      string `json:"item_ref"`
	DisplayName  string `json:"display_name"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	ImageURL     string `json:"image_url"`
	Location     string `json:"location,omitempty"`
}

// MissingPartRecord is a single shortfall joined with its catalog entry.
type MissingPartRecord struct {
	Kind          RecordKind `json:"kind"`
	InternalID    int        `json:"internal_id"`
	SetNumber     string     `json:"set_number,omitempty"`
	ItemRef       string     `json:"item_ref"`
	DisplayName   string     `json:"display_name"`
	ColorRef      string     `json:"color_ref"`
	MissingQty    int        `json:"missing_qty"`
	CategoryID    int        `json:"category_id"`
	CategoryName  string     `json:"category_name"`
	ImageURL      string     `json:"image_url,omitempty"`
	ImageLocalRef string     `json:"image_local_ref,omitempty"`
	Location      string     `json:"location"`
	IsSpare       bool       `json:"is_spare"`
}

// Summary holds totals for a result or a dashboard. MissingQty and
// MissingSpareQty count regular parts only (spares are a subset of
// MissingQty); minifigure parts are counted in MissingMinifigQty.
type Summary struct {
	Records             int `json:"records"`
	OwnedQty            int `json:"owned_qty"`
	MissingQty          int `json:"missing_qty"`
	MissingSpareQty     int `json:"missing_spare_qty"`
	MissingMinifigQty   int `json:"missing_minifig_qty"`
	UnresolvedRecords   int `json:"unresolved_records"`
	InvalidFilterTokens int `json:"invalid_filter_tokens,omitempty"`
}

// Result is the output of one aggregation.
type Result struct {
	// Categorized groups Flat by category id, keeping Flat's order within each group.
	Categorized map[int][]MissingPartRecord `json:"categorized"`
	Flat        []MissingPartRecord         `json:"flat"`
	// CategoryOrder lists Categorized's keys in first-appearance order.
	CategoryOrder []int `json:"category_order"`
	// Unresolved lists the sorted distinct refs that had no catalog entry.
	Unresolved []string `json:"unresolved"`
	Summary    Summary  `json:"summary"`
}
