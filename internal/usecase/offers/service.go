// Package offers searches flight offers through the booking API and
// normalizes them into domain offers, degrading to a static mock result
// when the upstream is unavailable.
package offers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/farepath/internal/domain"
	"github.com/kailas-cloud/farepath/internal/metrics"
	"github.com/kailas-cloud/farepath/internal/transport/duffel"
)

// maxOffers caps how many upstream offers are normalized per search.
const maxOffers = 5

// Service searches and normalizes flight offers.
type Service struct {
	booking BookingClient
	logger  *zap.Logger
}

// New creates an offer search service.
func New(booking BookingClient, logger *zap.Logger) *Service {
	return &Service{booking: booking, logger: logger}
}

// Search runs an offer request for req and returns up to maxOffers
// normalized offers.
//
// A missing credential propagates to the caller. Any other upstream failure
// on the offer request degrades to mock offers so the pipeline stays
// serviceable. Failures listing offers after a successful request yield an
// empty result rather than an error.
func (s *Service) Search(ctx context.Context, req domain.FlightRequest) ([]domain.FlightOffer, error) {
	requestID, err := s.booking.CreateOfferRequest(ctx, buildInput(req))
	if err != nil {
		if errors.Is(err, domain.ErrBookingUnavailable) {
			s.logger.Warn("booking API unavailable, returning mock offers",
				zap.String("origin", req.Origin),
				zap.String("destination", req.Destination),
				zap.Error(err))
			metrics.MockOffersTotal.Inc()
			return mockOffers(req), nil
		}
		return nil, fmt.Errorf("create offer request: %w", err)
	}
	if requestID == "" {
		return []domain.FlightOffer{}, nil
	}

	raw, err := s.booking.ListOffers(ctx, requestID)
	if err != nil {
		s.logger.Warn("listing offers failed",
			zap.String("offer_request_id", requestID),
			zap.Error(err))
		return []domain.FlightOffer{}, nil
	}

	return s.normalize(raw), nil
}

// buildInput maps the domain request onto the booking API shape. Each
// passenger becomes one adult entry.
func buildInput(req domain.FlightRequest) duffel.OfferRequestInput {
	passengers := make([]duffel.PassengerInput, 0, req.Passengers)
	for i := 0; i < req.Passengers; i++ {
		passengers = append(passengers, duffel.PassengerInput{Type: "adult"})
	}
	return duffel.OfferRequestInput{
		Slices: []duffel.SliceInput{{
			Origin:        req.Origin,
			Destination:   req.Destination,
			DepartureDate: req.Date,
		}},
		Passengers: passengers,
		CabinClass: string(req.CabinClass),
	}
}

// normalize converts raw offers into domain offers, skipping entries that
// lack segments or carry an unparsable amount.
func (s *Service) normalize(raw []duffel.Offer) []domain.FlightOffer {
	out := make([]domain.FlightOffer, 0, maxOffers)
	for _, offer := range raw {
		if len(out) == maxOffers {
			break
		}
		normalized, err := normalizeOffer(offer)
		if err != nil {
			s.logger.Warn("skipping malformed offer",
				zap.String("offer_id", offer.ID),
				zap.Error(err))
			metrics.OffersSkippedTotal.Inc()
			continue
		}
		out = append(out, normalized)
	}
	return out
}

func normalizeOffer(offer duffel.Offer) (domain.FlightOffer, error) {
	if len(offer.Slices) == 0 || len(offer.Slices[0].Segments) == 0 {
		return domain.FlightOffer{}, errors.New("offer has no segments")
	}
	seg := offer.Slices[0].Segments[0]

	price, err := strconv.ParseFloat(offer.TotalAmount, 64)
	if err != nil {
		return domain.FlightOffer{}, fmt.Errorf("parse total_amount %q: %w", offer.TotalAmount, err)
	}

	return domain.FlightOffer{
		ID:            offer.ID,
		Departure:     seg.Origin.IATACode,
		Arrival:       seg.Destination.IATACode,
		DepartureTime: seg.DepartingAt,
		ArrivalTime:   seg.ArrivingAt,
		Airline:       seg.OperatingCarrier.Name,
		Price:         price,
	}, nil
}

// mockOffers is the degraded result returned when the booking API cannot be
// reached. The schedule is fixed relative to the requested date.
func mockOffers(req domain.FlightRequest) []domain.FlightOffer {
	return []domain.FlightOffer{
		{
			ID:            "mock1",
			Departure:     req.Origin,
			Arrival:       req.Destination,
			DepartureTime: req.Date + "T10:00:00Z",
			ArrivalTime:   req.Date + "T12:00:00Z",
			Airline:       "Test Airlines",
			Price:         12500,
		},
		{
			ID:            "mock2",
			Departure:     req.Origin,
			Arrival:       req.Destination,
			DepartureTime: req.Date + "T14:00:00Z",
			ArrivalTime:   req.Date + "T16:00:00Z",
			Airline:       "Test Airways",
			Price:         14500,
		},
	}
}
