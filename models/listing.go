package models

// Dataset column names.
const (
	ColPrice       = "price"
	ColArea        = "area"
	ColPricePerM2  = "price_per_m2"
	ColDistrict    = "district"
	ColProjectName = "project_name"
	ColRooms       = "rooms"
	ColBathrooms   = "bathrooms"
	ColDistanceKm  = "distance_to_center_km"
	ColLegalStatus = "legal_status_code"
	ColFurnishing  = "furnishing_code"
)

// RawListing holds one unprocessed row of the listing dataset.
// Missing numeric cells are NaN; missing category codes are nil.
type RawListing struct {
	Price           float64
	Area            float64
	PricePerM2      float64
	District        string
	ProjectName     string
	Rooms           float64
	Bathrooms       float64
	DistanceKm      float64
	LegalStatusCode *int
	FurnishingCode  *int

	// Extra carries every column the model does not read, keyed by header name.
	Extra map[string]string
}

// Dataset is the raw table as read from disk: its header plus the parsed rows.
type Dataset struct {
	Columns []string
	Rows    []*RawListing
}

// HasColumn reports whether the dataset header contains name.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Listing is a cleaned record: categories resolved to labels, gaps imputed,
// outliers removed.
type Listing struct {
	Price       float64
	Area        float64
	PricePerM2  float64
	District    string
	ProjectName string
	Rooms       float64
	Bathrooms   float64
	DistanceKm  float64
	LegalStatus string
	Furnishing  string

	Extra map[string]string
}
