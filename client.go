// Package farepath is the embeddable SDK for the flight-search pipeline:
// query normalization, offer retrieval, and a semantic memory of past
// queries and responses backed by Redis vector search.
package farepath

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/farepath/internal/db/redis"
	"github.com/kailas-cloud/farepath/internal/domain"
	"github.com/kailas-cloud/farepath/internal/embedding/meanpool"
	"github.com/kailas-cloud/farepath/internal/repository/records"
	"github.com/kailas-cloud/farepath/internal/transport/duffel"
	"github.com/kailas-cloud/farepath/internal/transport/groq"
	"github.com/kailas-cloud/farepath/internal/usecase/destinfo"
	memoryuc "github.com/kailas-cloud/farepath/internal/usecase/memory"
	"github.com/kailas-cloud/farepath/internal/usecase/normalize"
	"github.com/kailas-cloud/farepath/internal/usecase/offers"
	"github.com/kailas-cloud/farepath/internal/usecase/pipeline"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultVectorDimensions = 384
	defaultMaxTokens        = 256
)

// Embedder converts text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is an embedding with provider token accounting.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Re-exported result types.
type (
	// FlightRequest is a normalized flight search request.
	FlightRequest = domain.FlightRequest
	// FlightOffer is a normalized flight offer.
	FlightOffer = domain.FlightOffer
	// SimilarityResult is a nearest-neighbor match from the response memory.
	SimilarityResult = domain.SimilarityResult
	// Result is the full outcome of one processed query.
	Result = pipeline.Result
)

// Client is the farepath SDK entry point.
type Client struct {
	store       *dbRedis.Store
	pipelineSvc *pipeline.Service
	memorySvc   *memoryuc.Service
	guideSvc    *destinfo.Service
}

// New creates a farepath Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: defaultVectorDimensions,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("farepath: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("farepath: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("farepath: database not ready: %w", err)
	}

	return wireClient(ctx, store, cfg)
}

func wireClient(ctx context.Context, store *dbRedis.Store, cfg *clientConfig) (*Client, error) {
	embedder, err := resolveEmbedder(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	recordsRepo := records.New(store, cfg.vectorDimensions)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		recordsRepo = recordsRepo.WithHNSW(records.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}

	memorySvc := memoryuc.New(embedder, recordsRepo, cfg.logger)
	if err := memorySvc.EnsureCollections(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("farepath: create vector indexes: %w", err)
	}

	completer := groq.NewCompleter(groq.Config{
		APIKey: cfg.groqAPIKey,
		Model:  cfg.groqModel,
	})
	booking := duffel.NewClient(duffel.Config{
		APIKey: cfg.duffelAPIKey,
	})

	normalizeSvc := normalize.New(completer, cfg.logger)
	offersSvc := offers.New(booking, cfg.logger)

	return &Client{
		store:       store,
		pipelineSvc: pipeline.New(normalizeSvc, offersSvc, memorySvc, cfg.logger),
		memorySvc:   memorySvc,
		guideSvc:    destinfo.New(completer, cfg.logger),
	}, nil
}

func resolveEmbedder(cfg *clientConfig) (domain.Embedder, error) {
	if cfg.embedder != nil {
		return &embedderAdapter{inner: cfg.embedder}, nil
	}
	local, err := meanpool.New(meanpool.Config{
		Dimensions: cfg.vectorDimensions,
		MaxTokens:  defaultMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("farepath: create local embedder: %w", err)
	}
	return local, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ProcessQuery runs the full flight-search pipeline for a free-text query.
func (c *Client) ProcessQuery(ctx context.Context, query string) (*Result, error) {
	return c.pipelineSvc.Process(ctx, query)
}

// StoreQuery embeds and persists a raw query text. Returns the record id.
func (c *Client) StoreQuery(ctx context.Context, text string, metadata map[string]string) (string, error) {
	return c.memorySvc.StoreQuery(ctx, text, metadata)
}

// QuerySimilar returns up to k stored responses nearest to text, closest
// first. k <= 0 uses the default of 5.
func (c *Client) QuerySimilar(ctx context.Context, text string, k int) ([]SimilarityResult, error) {
	return c.memorySvc.QuerySimilar(ctx, text, k)
}

// DestinationInfo answers an open-ended destination question.
func (c *Client) DestinationInfo(ctx context.Context, query string) (string, error) {
	return c.guideSvc.Answer(ctx, query)
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
