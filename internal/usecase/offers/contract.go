package offers

import (
	"context"

	"github.com/kailas-cloud/farepath/internal/transport/duffel"
)

// BookingClient is the slice of the booking API this service needs.
type BookingClient interface {
	CreateOfferRequest(ctx context.Context, input duffel.OfferRequestInput) (string, error)
	ListOffers(ctx context.Context, offerRequestID string) ([]duffel.Offer, error)
}
