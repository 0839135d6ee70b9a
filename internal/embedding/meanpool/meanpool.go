// Package meanpool implements a deterministic local embedding model: tokens
// are encoded by a seeded hash projection and pooled into a fixed-length
// vector. Identical input always yields an identical vector, which makes the
// semantic memory reproducible without a remote provider.
package meanpool

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/kailas-cloud/farepath/internal/domain"
)

// poolEpsilon floors the unmasked-token count to avoid division by zero on
// empty input.
const poolEpsilon = 1e-9

// Config holds the local model settings.
type Config struct {
	Dimensions int
	MaxTokens  int    // sequence length; longer inputs are truncated
	Seed       uint64 // token projection seed, part of the model identity
}

// Embedder is a deterministic local embedding model.
type Embedder struct {
	dimensions int
	maxTokens  int
	seed       uint64
	tokenRe    *regexp.Regexp
}

var _ domain.Embedder = (*Embedder)(nil)

// New creates the local model. A non-positive dimension or sequence length is
// a startup failure, reported as ErrModelUnavailable.
func New(cfg Config) (*Embedder, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d: %w",
			cfg.Dimensions, domain.ErrModelUnavailable)
	}
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d: %w",
			cfg.MaxTokens, domain.ErrModelUnavailable)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &Embedder{
		dimensions: cfg.Dimensions,
		maxTokens:  cfg.MaxTokens,
		seed:       seed,
		tokenRe:    regexp.MustCompile(`\p{L}+|\p{N}+`),
	}, nil
}

// Dimensions returns the length of produced vectors.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed implements domain.Embedder. Token vectors are mean-pooled under the
// attention mask: padding positions carry mask=0 and contribute nothing.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	tokens, mask := e.tokenize(text)

	sum := make([]float64, e.dimensions)
	var masked float64
	for i, tok := range tokens {
		if mask[i] == 0 {
			continue
		}
		masked++
		vec := e.encodeToken(tok)
		for d, v := range vec {
			sum[d] += v
		}
	}

	denom := math.Max(masked, poolEpsilon)
	pooled := make([]float32, e.dimensions)
	var norm float64
	for d := range sum {
		v := sum[d] / denom
		pooled[d] = float32(v)
		norm += v * v
	}

	// L2 normalize so cosine distance behaves across input lengths.
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for d := range pooled {
			pooled[d] *= inv
		}
	}

	return domain.EmbeddingResult{Embedding: pooled}, nil
}

// HealthCheck implements domain.HealthChecker. The local model has no
// external dependency, so a constructed model is always healthy.
func (e *Embedder) HealthCheck(_ context.Context) error { return nil }

// tokenize lowercases the input and returns a fixed-length token sequence
// with its attention mask. Positions past the real tokens are padding.
func (e *Embedder) tokenize(text string) ([]string, []byte) {
	raw := e.tokenRe.FindAllString(strings.ToLower(text), -1)
	if len(raw) > e.maxTokens {
		raw = raw[:e.maxTokens]
	}

	tokens := make([]string, e.maxTokens)
	mask := make([]byte, e.maxTokens)
	for i, tok := range raw {
		tokens[i] = tok
		mask[i] = 1
	}
	return tokens, mask
}

// encodeToken projects a token into a dense vector via an FNV-seeded
// splitmix64 stream, mapped into [-1, 1].
func (e *Embedder) encodeToken(tok string) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tok))
	state := h.Sum64() ^ e.seed

	vec := make([]float64, e.dimensions)
	for d := range vec {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
		vec[d] = float64(z)/float64(math.MaxUint64)*2 - 1
	}
	return vec
}
