// Package groq calls the Groq chat-completion API through its
// OpenAI-compatible endpoint.
package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/farepath/internal/domain"
)

// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Config holds the completion provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Completer is a chat-completion client for the Groq API.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	hasKey      bool
}

// NewCompleter creates a Groq completion client. A missing credential is not
// an error here: it surfaces as ErrMissingCredential on the first Complete
// call, before any network traffic.
func NewCompleter(cfg Config) *Completer {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Completer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		hasKey:      cfg.APIKey != "",
	}
}

// Complete sends a system instruction and user text, returning the raw
// free-text completion. Non-success responses wrap ErrCompletionUpstream with
// the provider message preserved for diagnostics.
func (c *Completer) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.hasKey {
		return "", fmt.Errorf("completion API key not configured: %w", domain.ErrMissingCredential)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrCompletionUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

func parseAPIError(err error) error {
	wrap := domain.ErrCompletionUpstream

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %v: %w", err, wrap)
}
