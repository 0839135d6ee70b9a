// Package destinfo answers open-ended destination questions with a short
// travel-guide style completion.
package destinfo

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

const systemPrompt = "You are a helpful travel guide. Give a concise, " +
	"practical answer about the destination: best time to visit, top " +
	"sights, and local transport. Keep it under 150 words."

// questionRe identifies queries asking about a place rather than for flights.
var questionRe = regexp.MustCompile(`(?i)tell me about|what.*about|info.*about|guide.*to`)

// Completer produces a chat completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Service answers destination questions.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates a destination info service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

// IsDestinationQuestion reports whether query asks about a destination
// instead of requesting a flight search.
func IsDestinationQuestion(query string) bool {
	return questionRe.MatchString(query)
}

// Answer returns a travel-guide style answer for query.
func (s *Service) Answer(ctx context.Context, query string) (string, error) {
	answer, err := s.completer.Complete(ctx, systemPrompt, query)
	if err != nil {
		return "", fmt.Errorf("complete destination question: %w", err)
	}
	s.logger.Debug("destination question answered", zap.Int("answer_len", len(answer)))
	return answer, nil
}
