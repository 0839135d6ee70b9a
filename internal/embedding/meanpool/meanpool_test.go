package meanpool

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/farepath/internal/domain"
)

func newTestEmbedder(t *testing.T) *Embedder {
	t.Helper()
	e, err := New(Config{Dimensions: 16, MaxTokens: 8})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Dimensions: 0, MaxTokens: 8}); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("zero dimensions: err = %v, want ErrModelUnavailable", err)
	}
	if _, err := New(Config{Dimensions: 16, MaxTokens: 0}); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("zero max tokens: err = %v, want ErrModelUnavailable", err)
	}
}

func TestEmbed_Deterministic(t *testing.T) {
	e := newTestEmbedder(t)
	ctx := context.Background()

	a, err := e.Embed(ctx, "cheap flight from Delhi to Mumbai")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, err := e.Embed(ctx, "cheap flight from Delhi to Mumbai")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			t.Fatalf("embedding differs at index %d: %v vs %v", i, a.Embedding[i], b.Embedding[i])
		}
	}
}

func TestEmbed_FixedLength(t *testing.T) {
	e := newTestEmbedder(t)
	ctx := context.Background()

	for _, text := range []string{"", "delhi", "a much longer query with many more tokens than the sequence length allows at all"} {
		r, err := e.Embed(ctx, text)
		if err != nil {
			t.Fatalf("Embed(%q) error = %v", text, err)
		}
		if len(r.Embedding) != 16 {
			t.Errorf("Embed(%q) length = %d, want 16", text, len(r.Embedding))
		}
	}
}

func TestEmbed_L2Normalized(t *testing.T) {
	e := newTestEmbedder(t)

	r, err := e.Embed(context.Background(), "flight to ahmedabad")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	var norm float64
	for _, v := range r.Embedding {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm^2 = %v, want 1", norm)
	}
}

func TestEmbed_CaseInsensitiveTokens(t *testing.T) {
	e := newTestEmbedder(t)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "Flight To DELHI")
	b, _ := e.Embed(ctx, "flight to delhi")

	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			t.Fatalf("case variants differ at index %d", i)
		}
	}
}

func TestEmbed_EmptyInputIsZeroVector(t *testing.T) {
	e := newTestEmbedder(t)

	r, err := e.Embed(context.Background(), "  !!  ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	for i, v := range r.Embedding {
		if v != 0 {
			t.Fatalf("empty input: nonzero component at %d: %v", i, v)
		}
	}
}

func TestEmbed_DistinguishesText(t *testing.T) {
	e := newTestEmbedder(t)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "flight to delhi")
	b, _ := e.Embed(ctx, "flight to mumbai")

	same := true
	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different inputs produced identical embeddings")
	}
}

func TestSeedChangesModelIdentity(t *testing.T) {
	ctx := context.Background()
	e1, _ := New(Config{Dimensions: 16, MaxTokens: 8, Seed: 1})
	e2, _ := New(Config{Dimensions: 16, MaxTokens: 8, Seed: 2})

	a, _ := e1.Embed(ctx, "delhi")
	b, _ := e2.Embed(ctx, "delhi")

	same := true
	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical embeddings")
	}
}

func TestHealthCheck(t *testing.T) {
	e := newTestEmbedder(t)
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
