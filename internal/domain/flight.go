package domain

import (
	"fmt"
	"regexp"
	"time"
)

// CabinClass is a booking-service cabin class.
type CabinClass string

// Cabin class constants accepted by the booking service.
const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// DefaultPassengers is used when a query does not state a passenger count.
const DefaultPassengers = 2

var iataRe = regexp.MustCompile(`^[A-Z]{3}$`)

// IsIATACode reports whether s is a three-letter uppercase IATA code.
func IsIATACode(s string) bool {
	return iataRe.MatchString(s)
}

// FlightRequest is a structured flight-search request extracted from free text.
type FlightRequest struct {
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	Date        string     `json:"date"` // ISO 8601 calendar date (2006-01-02)
	Passengers  int        `json:"passengers"`
	CabinClass  CabinClass `json:"cabin_class"`
}

// ApplyDefaults fills zero-valued passengers and cabin class.
func (r *FlightRequest) ApplyDefaults() {
	if r.Passengers <= 0 {
		r.Passengers = DefaultPassengers
	}
	if r.CabinClass == "" {
		r.CabinClass = CabinEconomy
	}
}

// Validate checks the request invariants: IATA codes, a concrete calendar
// date, a positive passenger count and a known cabin class.
func (r *FlightRequest) Validate() error {
	if !IsIATACode(r.Origin) {
		return fmt.Errorf("origin %q is not an IATA code: %w", r.Origin, ErrInvalidRequest)
	}
	if !IsIATACode(r.Destination) {
		return fmt.Errorf("destination %q is not an IATA code: %w", r.Destination, ErrInvalidRequest)
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("date %q is not a calendar date: %w", r.Date, ErrInvalidRequest)
	}
	if r.Passengers <= 0 {
		return fmt.Errorf("passengers must be positive, got %d: %w", r.Passengers, ErrInvalidRequest)
	}
	switch r.CabinClass {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
	default:
		return fmt.Errorf("unknown cabin class %q: %w", r.CabinClass, ErrInvalidRequest)
	}
	return nil
}
