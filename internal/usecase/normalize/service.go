// Package normalize converts a free-text travel query into a structured
// flight-search request, using the completion service with a deterministic
// local fallback when the model output is unusable.
package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/farepath/internal/domain"
	"github.com/kailas-cloud/farepath/internal/metrics"
)

// defaultDateOffset is applied when the query carries no parseable date.
const defaultDateOffset = 7 * 24 * time.Hour

// dateRe matches "on 14 March 2025" style explicit dates.
var dateRe = regexp.MustCompile(`on\s+(\d{1,2}\s+[A-Za-z]+\s+\d{4})`)

// gazetteer maps the city names the prompt teaches the model about.
// Keep in sync with the fallback keyword rule below.
var gazetteer = []struct {
	City string
	Code string
}{
	{"New Delhi", "DEL"},
	{"Mumbai", "BOM"},
	{"Dubai", "DXB"},
	{"Ahmedabad", "AMD"},
	{"Bangalore", "BLR"},
	{"Chennai", "MAA"},
	{"Kolkata", "CCU"},
}

// Service is the query normalizer.
type Service struct {
	completer Completer
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a normalizer service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{
		completer: completer,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock overrides the time source (test-only).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Normalize converts free text into a structured flight request.
//
// A credential error or a non-success completion response propagates to the
// caller; the local fallback only covers a successful response whose content
// cannot be parsed into a valid request.
func (s *Service) Normalize(ctx context.Context, text string) (domain.FlightRequest, error) {
	date := s.resolveDate(text)

	content, err := s.completer.Complete(ctx, systemPrompt(date), text)
	if err != nil {
		return domain.FlightRequest{}, fmt.Errorf("complete query: %w", err)
	}

	if req, ok := parseStructured(content, date); ok {
		return req, nil
	}

	s.logger.Warn("model output unparsable, using fallback request",
		zap.String("query", text))
	metrics.NormalizeFallbacksTotal.Inc()

	return fallbackRequest(text, date), nil
}

// resolveDate extracts an explicit "on D Month YYYY" date from the query.
// Both a missing pattern and a malformed date default to now+7d.
func (s *Service) resolveDate(text string) string {
	if m := dateRe.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("2 January 2006", m[1]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s.now().Add(defaultDateOffset).Format("2006-01-02")
}

// parseStructured extracts the first balanced JSON object from the model's
// free-text answer and validates it. Partial or invalid objects are rejected
// so the caller falls back deterministically instead of trusting raw fields.
func parseStructured(content, date string) (domain.FlightRequest, bool) {
	obj, ok := extractJSONObject(content)
	if !ok {
		return domain.FlightRequest{}, false
	}

	var req domain.FlightRequest
	if err := json.Unmarshal([]byte(obj), &req); err != nil {
		return domain.FlightRequest{}, false
	}

	if req.Date == "" {
		req.Date = date
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return domain.FlightRequest{}, false
	}
	return req, true
}

// fallbackRequest builds the deterministic local request from city keywords.
// The destination rule can collide with the origin (a Delhi query with no
// "ahmedabad" token yields DEL→DEL); preserved as observed behavior.
func fallbackRequest(text, date string) domain.FlightRequest {
	lower := strings.ToLower(text)

	origin := "BOM"
	if strings.Contains(lower, "delhi") {
		origin = "DEL"
	}
	destination := "DEL"
	if strings.Contains(lower, "ahmedabad") {
		destination = "AMD"
	}

	return domain.FlightRequest{
		Origin:      origin,
		Destination: destination,
		Date:        date,
		Passengers:  domain.DefaultPassengers,
		CabinClass:  domain.CabinEconomy,
	}
}

// systemPrompt builds the conversion instruction with the IATA gazetteer and
// the resolved date baked in.
func systemPrompt(date string) string {
	var b strings.Builder
	b.WriteString("Convert the flight query into a JSON object. ")
	b.WriteString("Extract city pairs and convert to IATA codes.\n")
	b.WriteString("Common IATA codes:\n")
	for _, g := range gazetteer {
		fmt.Fprintf(&b, "- %s (%s)\n", g.City, g.Code)
	}
	b.WriteString("\nConvert the following query into this exact JSON format:\n")
	fmt.Fprintf(&b, `{
    "origin": "IATA_CODE",
    "destination": "IATA_CODE",
    "date": %q,
    "passengers": 2,
    "cabin_class": "economy"
}`, date)
	return b.String()
}
