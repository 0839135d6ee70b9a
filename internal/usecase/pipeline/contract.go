package pipeline

import (
	"context"

	"github.com/kailas-cloud/farepath/internal/domain"
)

// Normalizer converts free text into a structured flight request.
type Normalizer interface {
	Normalize(ctx context.Context, text string) (domain.FlightRequest, error)
}

// OfferSearcher finds flight offers for a structured request.
type OfferSearcher interface {
	Search(ctx context.Context, req domain.FlightRequest) ([]domain.FlightOffer, error)
}

// Memory is the slice of the semantic memory the pipeline drives.
type Memory interface {
	StoreQuery(ctx context.Context, text string, metadata map[string]string) (string, error)
	StoreResponse(ctx context.Context, response any, originQuery string) (string, error)
	QuerySimilar(ctx context.Context, text string, k int) ([]domain.SimilarityResult, error)
}
