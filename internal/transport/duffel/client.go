// Package duffel is a thin HTTP client for the Duffel air API: create an
// offer request, then list the offers it produced.
package duffel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kailas-cloud/farepath/internal/domain"
)

// DefaultBaseURL is the production Duffel endpoint.
const DefaultBaseURL = "https://api.duffel.com"

// apiVersion is sent on every request; Duffel rejects unversioned calls.
const apiVersion = "v1"

// Config holds the booking provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client calls the Duffel air API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Duffel client. A missing credential surfaces as
// ErrMissingCredential on first use, before any network traffic.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

// CreateOfferRequest submits an offer request and returns the request id the
// provider assigned. An empty id with nil error means the provider accepted
// the request but returned no data id.
func (c *Client) CreateOfferRequest(ctx context.Context, in OfferRequestInput) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("booking API key not configured: %w", domain.ErrMissingCredential)
	}

	payload := struct {
		Data OfferRequestInput `json:"data"`
	}{Data: in}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal offer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/air/offer_requests", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build offer request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit offer request: %v: %w", err, domain.ErrBookingUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("offer request status %d: %s: %w",
			resp.StatusCode, readSnippet(resp.Body), domain.ErrBookingUnavailable)
	}

	var decoded struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode offer request response: %w", err)
	}
	return decoded.Data.ID, nil
}

// ListOffers fetches the offers produced by an offer request.
func (c *Client) ListOffers(ctx context.Context, offerRequestID string) ([]Offer, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("booking API key not configured: %w", domain.ErrMissingCredential)
	}

	u := c.baseURL + "/air/offers?offer_request_id=" + url.QueryEscape(offerRequestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build offers request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list offers: %v: %w", err, domain.ErrBookingUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list offers status %d: %s: %w",
			resp.StatusCode, readSnippet(resp.Body), domain.ErrBookingUnavailable)
	}

	var decoded struct {
		Data []Offer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode offers response: %w", err)
	}
	return decoded.Data, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Duffel-Version", apiVersion)
}

// readSnippet returns up to 512 bytes of the body for error context.
func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
