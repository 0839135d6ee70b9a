package destinfo

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/farepath/internal/domain"
)

type stubCompleter struct {
	completeFunc func(ctx context.Context, system, user string) (string, error)
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return s.completeFunc(ctx, system, user)
}

func TestIsDestinationQuestion(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"tell me about Dubai", true},
		{"Tell Me About Goa", true},
		{"what should I know about Chennai", true},
		{"any info available about Kolkata", true},
		{"travel guide to Mumbai", true},
		{"flight from Delhi to Ahmedabad", false},
		{"cheap tickets to BOM", false},
	}

	for _, tt := range tests {
		if got := IsDestinationQuestion(tt.query); got != tt.want {
			t.Errorf("IsDestinationQuestion(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestAnswer(t *testing.T) {
	c := &stubCompleter{
		completeFunc: func(_ context.Context, system, user string) (string, error) {
			if user != "tell me about Dubai" {
				t.Errorf("user prompt = %q", user)
			}
			if system == "" {
				t.Error("system prompt is empty")
			}
			return "Dubai is best visited November through March.", nil
		},
	}

	got, err := New(c, zap.NewNop()).Answer(context.Background(), "tell me about Dubai")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got == "" {
		t.Error("Answer() returned empty string")
	}
}

func TestAnswerErrorPropagates(t *testing.T) {
	c := &stubCompleter{
		completeFunc: func(_ context.Context, _, _ string) (string, error) {
			return "", domain.ErrCompletionUpstream
		},
	}

	_, err := New(c, zap.NewNop()).Answer(context.Background(), "tell me about Dubai")
	if !errors.Is(err, domain.ErrCompletionUpstream) {
		t.Fatalf("err = %v, want ErrCompletionUpstream", err)
	}
}
