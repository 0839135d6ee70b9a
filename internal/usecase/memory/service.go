// Package memory persists embedded queries and responses and answers
// similarity lookups over the stored responses.
package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/farepath/internal/domain"
)

// DefaultTopK is the neighbor count used when the caller passes k <= 0.
const DefaultTopK = 5

// Service is the semantic memory over the two embedding collections.
type Service struct {
	embedder domain.Embedder
	repo     Repository
	newID    func() string
	logger   *zap.Logger
}

// New creates a memory service.
func New(embedder domain.Embedder, repo Repository, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		repo:     repo,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// WithIDGenerator overrides record id generation (test-only).
func (s *Service) WithIDGenerator(newID func() string) *Service {
	s.newID = newID
	return s
}

// EnsureCollections creates the vector indexes for both collections if they
// do not exist yet.
func (s *Service) EnsureCollections(ctx context.Context) error {
	for _, collection := range []string{domain.CollectionQueries, domain.CollectionResponses} {
		if err := s.repo.EnsureIndex(ctx, collection); err != nil {
			return fmt.Errorf("ensure index %s: %w", collection, err)
		}
	}
	return nil
}

// StoreQuery embeds and persists a raw query text and returns the new
// record id. Records are append-only.
func (s *Service) StoreQuery(ctx context.Context, text string, metadata map[string]string) (string, error) {
	return s.store(ctx, domain.CollectionQueries, text, metadata)
}

// StoreResponse serializes response to canonical JSON, embeds it, and
// persists it tagged with the query that produced it.
func (s *Service) StoreResponse(ctx context.Context, response any, originQuery string) (string, error) {
	doc, err := json.Marshal(response)
	if err != nil {
		return "", fmt.Errorf("marshal response: %w", err)
	}
	metadata := map[string]string{"original_query": originQuery}
	return s.store(ctx, domain.CollectionResponses, string(doc), metadata)
}

// QuerySimilar embeds text and returns up to k nearest stored responses,
// closest first. Documents that are valid JSON come back decoded; anything
// else is wrapped as a JSON string.
func (s *Service) QuerySimilar(ctx context.Context, text string, k int) ([]domain.SimilarityResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.repo.SearchKNN(ctx, domain.CollectionResponses, emb.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search responses: %w", err)
	}

	results := make([]domain.SimilarityResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.SimilarityResult{
			Response: documentToJSON(hit.Document),
			Metadata: hit.Metadata,
			Score:    hit.Score,
		})
	}
	return results, nil
}

func (s *Service) store(ctx context.Context, collection, document string, metadata map[string]string) (string, error) {
	emb, err := s.embedder.Embed(ctx, document)
	if err != nil {
		return "", fmt.Errorf("embed document: %w", err)
	}

	rec := domain.EmbeddingRecord{
		ID:       s.newID(),
		Vector:   emb.Embedding,
		Document: document,
		Metadata: metadata,
	}
	if err := s.repo.Insert(ctx, collection, rec); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}

	s.logger.Debug("record stored",
		zap.String("collection", collection),
		zap.String("id", rec.ID))
	return rec.ID, nil
}

// documentToJSON returns the stored document as raw JSON, quoting it as a
// JSON string when it is not valid JSON on its own.
func documentToJSON(document string) json.RawMessage {
	if json.Valid([]byte(document)) {
		return json.RawMessage(document)
	}
	quoted, _ := json.Marshal(document)
	return quoted
}
