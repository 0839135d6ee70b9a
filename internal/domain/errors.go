package domain

import "errors"

var (
	// ErrMissingCredential signals an absent API credential. Checked before any
	// network call; never retried.
	ErrMissingCredential = errors.New("missing credential")
	// ErrCompletionUpstream signals a non-success response from the completion service.
	ErrCompletionUpstream = errors.New("completion service error")
	// ErrBookingUnavailable signals a non-success response from the booking service.
	// Absorbed by the offer retriever, which degrades to mock offers.
	ErrBookingUnavailable = errors.New("booking service unavailable")
	// ErrModelUnavailable signals that the embedding model could not be initialized.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInvalidRequest signals a malformed structured flight request.
	ErrInvalidRequest = errors.New("invalid flight request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)
