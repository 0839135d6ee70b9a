package domain

// FlightOffer is a normalized flight offer. Produced only by the offer
// retriever and immutable once returned.
type FlightOffer struct {
	ID            string  `json:"id"`
	Departure     string  `json:"departure"`
	Arrival       string  `json:"arrival"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Airline       string  `json:"airline"`
	Price         float64 `json:"price"`
}
