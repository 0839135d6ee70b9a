// Package records persists embedding records as Redis hashes covered by
// per-collection FT vector indexes.
package records

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/kailas-cloud/farepath/internal/db"
	"github.com/kailas-cloud/farepath/internal/domain"
)

// Hash field names. Double-underscore names are reserved for the service so
// they can never collide with user metadata keys.
const (
	fieldDocument = "__document"
	fieldMetadata = "__metadata"
	fieldVector   = "__vector"
)

// store is the consumer interface for record storage (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig tunes the vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements usecase/memory.Repository.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a record repository.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim}
}

// WithHNSW overrides HNSW build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the FT vector index for a collection if it does not
// exist yet. Safe to call on every startup.
func (r *Repo) EnsureIndex(ctx context.Context, collection string) error {
	def := &db.IndexDefinition{
		Name:     indexName(collection),
		Prefixes: []string{recordPrefix(collection)},
		Fields: []db.IndexField{
			{
				Name:              fieldVector,
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", collection, err)
	}
	return nil
}

// Insert writes a record. Records are append-only; an id is never reused, so
// an existing key is not checked for.
func (r *Repo) Insert(ctx context.Context, collection string, rec domain.EmbeddingRecord) error {
	if len(rec.Vector) != r.vectorDim {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(rec.Vector), r.vectorDim)
	}

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	key := recordPrefix(collection) + rec.ID
	fields := map[string]string{
		fieldDocument: rec.Document,
		fieldMetadata: string(meta),
		fieldVector:   vectorToBytes(rec.Vector),
	}

	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("insert record %s: %w", key, err)
	}
	return nil
}

// Get returns a stored record by id, without its vector.
func (r *Repo) Get(ctx context.Context, collection, id string) (domain.EmbeddingRecord, error) {
	key := recordPrefix(collection) + id
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.EmbeddingRecord{}, domain.ErrNotFound
	}

	rec := domain.EmbeddingRecord{
		ID:       id,
		Document: fields[fieldDocument],
		Metadata: parseMetadata(fields[fieldMetadata]),
	}
	return rec, nil
}

// SearchKNN returns up to k nearest records ordered by ascending distance.
// A missing index means the collection has never been written: empty result.
func (r *Repo) SearchKNN(
	ctx context.Context, collection string, vector []float32, k int,
) ([]domain.RecordHit, error) {
	q := &db.KNNQuery{
		IndexName:    indexName(collection),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldDocument, fieldMetadata, "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search knn %s: %w", collection, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	prefix := recordPrefix(collection)
	hits := make([]domain.RecordHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, domain.RecordHit{
			ID:       trimPrefix(entry.Key, prefix),
			Score:    entry.Score,
			Document: entry.Fields[fieldDocument],
			Metadata: parseMetadata(entry.Fields[fieldMetadata]),
		})
	}
	return hits, nil
}

func indexName(collection string) string {
	return domain.KeyPrefix + collection + ":idx"
}

func recordPrefix(collection string) string {
	return domain.KeyPrefix + collection + ":"
}

func trimPrefix(key, prefix string) string {
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}

func parseMetadata(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
