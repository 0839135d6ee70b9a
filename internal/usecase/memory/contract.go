package memory

import (
	"context"

	"github.com/kailas-cloud/farepath/internal/domain"
)

// Repository is the slice of the record store this service needs.
type Repository interface {
	EnsureIndex(ctx context.Context, collection string) error
	Insert(ctx context.Context, collection string, rec domain.EmbeddingRecord) error
	SearchKNN(ctx context.Context, collection string, vector []float32, k int) ([]domain.RecordHit, error)
}
