// Package pipeline orchestrates a flight search end to end: persist the raw
// query, normalize it, fetch offers, persist the response, and surface
// similar past responses.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/farepath/internal/domain"
	"github.com/kailas-cloud/farepath/internal/metrics"
)

// similarTopK is how many past responses each search surfaces.
const similarTopK = 5

// Result is the full outcome of one processed query.
type Result struct {
	QueryID        string                    `json:"query_id"`
	ResponseID     string                    `json:"response_id"`
	SimilarResults []domain.SimilarityResult `json:"similar_results"`
	Offers         []domain.FlightOffer      `json:"offers"`
}

// Service runs the search pipeline.
type Service struct {
	normalizer Normalizer
	offers     OfferSearcher
	memory     Memory
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a pipeline service.
func New(normalizer Normalizer, offers OfferSearcher, memory Memory, logger *zap.Logger) *Service {
	return &Service{
		normalizer: normalizer,
		offers:     offers,
		memory:     memory,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock overrides the time source (test-only).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Process runs the pipeline for one free-text query. Stages run in order
// and the first failure aborts the run; records written by earlier stages
// stay put, the store is append-only.
func (s *Service) Process(ctx context.Context, query string) (*Result, error) {
	result, err := s.process(ctx, query)
	if err != nil {
		metrics.PipelineQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PipelineQueriesTotal.WithLabelValues("ok").Inc()
	return result, nil
}

func (s *Service) process(ctx context.Context, query string) (*Result, error) {
	queryID, err := s.memory.StoreQuery(ctx, query, map[string]string{
		"type":      "flight_search",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("store query: %w", err)
	}

	req, err := s.normalizer.Normalize(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("normalize query: %w", err)
	}
	s.logger.Info("query normalized",
		zap.String("origin", req.Origin),
		zap.String("destination", req.Destination),
		zap.String("date", req.Date))

	flightOffers, err := s.offers.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search offers: %w", err)
	}

	responseID, err := s.memory.StoreResponse(ctx, map[string]any{"flights": flightOffers}, query)
	if err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}

	similar, err := s.memory.QuerySimilar(ctx, query, similarTopK)
	if err != nil {
		return nil, fmt.Errorf("query similar: %w", err)
	}

	return &Result{
		QueryID:        queryID,
		ResponseID:     responseID,
		SimilarResults: similar,
		Offers:         flightOffers,
	}, nil
}
