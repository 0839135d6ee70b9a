package duffel

// Wire types for the Duffel air API. Only the fields the service reads are
// declared; the provider payloads carry much more.

// SliceInput is one directional leg of an offer request.
type SliceInput struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

// PassengerInput is a single passenger entry.
type PassengerInput struct {
	Type string `json:"type"`
}

// OfferRequestInput is the body of POST /air/offer_requests.
type OfferRequestInput struct {
	Slices     []SliceInput     `json:"slices"`
	Passengers []PassengerInput `json:"passengers"`
	CabinClass string           `json:"cabin_class"`
}

// Place is an airport or city reference.
type Place struct {
	IATACode string `json:"iata_code"`
}

// Carrier is an airline reference.
type Carrier struct {
	Name string `json:"name"`
}

// Segment is one flown leg within a slice.
type Segment struct {
	Origin           Place   `json:"origin"`
	Destination      Place   `json:"destination"`
	DepartingAt      string  `json:"departing_at"`
	ArrivingAt       string  `json:"arriving_at"`
	OperatingCarrier Carrier `json:"operating_carrier"`
}

// Slice is one directional leg of a returned offer.
type Slice struct {
	Segments []Segment `json:"segments"`
}

// Offer is a returned flight offer.
type Offer struct {
	ID          string  `json:"id"`
	Slices      []Slice `json:"slices"`
	TotalAmount string  `json:"total_amount"`
}
