package normalize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/farepath/internal/domain"
)

type stubCompleter struct {
	completeFunc func(ctx context.Context, system, user string) (string, error)
	lastSystem   string
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	s.lastSystem = system
	return s.completeFunc(ctx, system, user)
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestService(c *stubCompleter) *Service {
	return New(c, zap.NewNop()).WithClock(fixedClock)
}

func TestNormalizeStructuredOutput(t *testing.T) {
	c := &stubCompleter{
		completeFunc: func(_ context.Context, _, _ string) (string, error) {
			return `Here is the request: {"origin": "DEL", "destination": "BOM", "date": "2025-04-01", "passengers": 3, "cabin_class": "business"} hope that helps`, nil
		},
	}

	req, err := newTestService(c).Normalize(context.Background(), "flight from Delhi to Mumbai")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := domain.FlightRequest{
		Origin:      "DEL",
		Destination: "BOM",
		Date:        "2025-04-01",
		Passengers:  3,
		CabinClass:  domain.CabinBusiness,
	}
	if req != want {
		t.Errorf("Normalize() = %+v, want %+v", req, want)
	}
}

func TestNormalizeExplicitDateInPrompt(t *testing.T) {
	c := &stubCompleter{
		completeFunc: func(_ context.Context, _, _ string) (string, error) {
			return "no json here", nil
		},
	}

	req, err := newTestService(c).Normalize(context.Background(), "flight from Delhi to Ahmedabad on 5 April 2025")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if req.Date != "2025-04-05" {
		t.Errorf("Date = %q, want 2025-04-05", req.Date)
	}
	if !strings.Contains(c.lastSystem, "2025-04-05") {
		t.Errorf("system prompt missing resolved date:\n%s", c.lastSystem)
	}
}

func TestNormalizeDefaultDate(t *testing.T) {
	c := &stubCompleter{
		completeFunc: func(_ context.Context, _, _ string) (string, error) {
			return "{}", nil
		},
	}

	req, err := newTestService(c).Normalize(context.Background(), "flight from Mumbai to Delhi")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if req.Date != "2025-03-17" {
		t.Errorf("Date = %q, want 2025-03-17 (now+7d)", req.Date)
	}
}

func TestNormalizeFallbackKeywords(t *testing.T) {
	tests := []struct {
		name            string
		query           string
		wantOrigin      string
		wantDestination string
	}{
		{"delhi to ahmedabad", "cheap flight from Delhi to Ahmedabad", "DEL", "AMD"},
		{"mumbai default", "flight to somewhere nice", "BOM", "DEL"},
		// The keyword rules can produce an identical pair for Delhi
		// queries without an Ahmedabad mention.
		{"delhi only yields identical pair", "flight from Delhi please", "DEL", "DEL"},
		{"delhi to mumbai collides too",
			"find me flights between new delhi to mumbai next week", "DEL", "DEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &stubCompleter{
				completeFunc: func(_ context.Context, _, _ string) (string, error) {
					return "I cannot help with that.", nil
				},
			}

			req, err := newTestService(c).Normalize(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if req.Origin != tt.wantOrigin || req.Destination != tt.wantDestination {
				t.Errorf("got %s->%s, want %s->%s",
					req.Origin, req.Destination, tt.wantOrigin, tt.wantDestination)
			}
			if req.Passengers != domain.DefaultPassengers {
				t.Errorf("Passengers = %d, want %d", req.Passengers, domain.DefaultPassengers)
			}
			if req.CabinClass != domain.CabinEconomy {
				t.Errorf("CabinClass = %q, want economy", req.CabinClass)
			}
		})
	}
}

func TestNormalizeInvalidStructuredFallsBack(t *testing.T) {
	c := &stubCompleter{
		completeFunc: func(_ context.Context, _, _ string) (string, error) {
			// Lowercase codes fail validation.
			return `{"origin": "del", "destination": "bom", "date": "2025-04-01"}`, nil
		},
	}

	req, err := newTestService(c).Normalize(context.Background(), "delhi to ahmedabad")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if req.Origin != "DEL" || req.Destination != "AMD" {
		t.Errorf("got %s->%s, want fallback DEL->AMD", req.Origin, req.Destination)
	}
}

func TestNormalizeCompleterErrorPropagates(t *testing.T) {
	c := &stubCompleter{
		completeFunc: func(_ context.Context, _, _ string) (string, error) {
			return "", domain.ErrCompletionUpstream
		},
	}

	_, err := newTestService(c).Normalize(context.Background(), "delhi to mumbai")
	if !errors.Is(err, domain.ErrCompletionUpstream) {
		t.Fatalf("err = %v, want ErrCompletionUpstream", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"surrounded", `text {"a":{"b":2}} tail`, `{"a":{"b":2}}`, true},
		{"brace in string", `{"a":"}{"} end`, `{"a":"}{"}`, true},
		{"no object", "nothing here", "", false},
		{"unterminated", `{"a":1`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractJSONObject(%q) = %q, %v; want %q, %v",
					tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}
