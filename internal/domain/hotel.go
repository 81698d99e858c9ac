package domain

// HotelEntry is one hotel option as submitted by the back office form.
// Images is the candidate list produced by the extraction service; order is
// display priority.
type HotelEntry struct {
	Name   string   `json:"name,omitempty" yaml:"name"`
	Link   string   `json:"link" yaml:"link"`
	Price  string   `json:"price,omitempty" yaml:"price"`
	Notes  string   `json:"notes,omitempty" yaml:"notes"`
	Images []string `json:"images,omitempty" yaml:"images"`
}

// BuildRequest is the input of one document build.
type BuildRequest struct {
	Hotels        []HotelEntry `json:"hotels" yaml:"hotels"`
	ExecutiveName string       `json:"executiveName,omitempty" yaml:"executiveName"`
	ClientName    string       `json:"clientName,omitempty" yaml:"clientName"`
	Destination   string       `json:"destination,omitempty" yaml:"destination"`
	CheckInDate   string       `json:"checkInDate,omitempty" yaml:"checkInDate"`  // YYYY-MM-DD
	CheckOutDate  string       `json:"checkOutDate,omitempty" yaml:"checkOutDate"` // YYYY-MM-DD
	CoverImageURL string       `json:"coverImageUrl,omitempty" yaml:"coverImageUrl"`
}

// Metadata returns the document-level fields of the request.
func (r BuildRequest) Metadata() Metadata {
	return Metadata{
		ExecutiveName: r.ExecutiveName,
		ClientName:    r.ClientName,
		Destination:   r.Destination,
		CheckInDate:   r.CheckInDate,
		CheckOutDate:  r.CheckOutDate,
	}
}
