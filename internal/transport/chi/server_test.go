package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/farepath/internal/domain"
	healthuc "github.com/kailas-cloud/farepath/internal/usecase/health"
	"github.com/kailas-cloud/farepath/internal/usecase/pipeline"
)

type stubPipeline struct {
	processFunc func(ctx context.Context, query string) (*pipeline.Result, error)
}

func (s *stubPipeline) Process(ctx context.Context, query string) (*pipeline.Result, error) {
	return s.processFunc(ctx, query)
}

type stubGuide struct {
	answerFunc func(ctx context.Context, query string) (string, error)
}

func (s *stubGuide) Answer(ctx context.Context, query string) (string, error) {
	return s.answerFunc(ctx, query)
}

type okPinger struct{}

func (okPinger) Ping(_ context.Context) error { return nil }

func newTestRouter(p Pipeline, g DestinationGuide) http.Handler {
	srv := NewServer(p, g, healthuc.New(okPinger{}, nil), "", zap.NewNop())
	r := gochi.NewRouter()
	srv.Routes(r)
	return r
}

func postSearch(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/search", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSearch_FlightQuery(t *testing.T) {
	p := &stubPipeline{
		processFunc: func(_ context.Context, query string) (*pipeline.Result, error) {
			if query != "flight from Delhi to Ahmedabad" {
				t.Errorf("query = %q", query)
			}
			return &pipeline.Result{QueryID: "q-1", ResponseID: "r-1"}, nil
		},
	}
	g := &stubGuide{
		answerFunc: func(_ context.Context, _ string) (string, error) {
			t.Fatal("guide should not run for a flight query")
			return "", nil
		},
	}

	rr := postSearch(t, newTestRouter(p, g), `{"query":"flight from Delhi to Ahmedabad"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Type != "flight_search" {
		t.Errorf("type = %q, want flight_search", resp.Type)
	}
	if resp.Result == nil || resp.Result.QueryID != "q-1" {
		t.Errorf("result = %+v", resp.Result)
	}
}

func TestSearch_DestinationQuestion(t *testing.T) {
	p := &stubPipeline{
		processFunc: func(_ context.Context, _ string) (*pipeline.Result, error) {
			t.Fatal("pipeline should not run for a destination question")
			return nil, nil
		},
	}
	g := &stubGuide{
		answerFunc: func(_ context.Context, query string) (string, error) {
			if query != "tell me about Dubai" {
				t.Errorf("query = %q", query)
			}
			return "Dubai is warm year-round.", nil
		},
	}

	rr := postSearch(t, newTestRouter(p, g), `{"query":"tell me about Dubai"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Type != "destination_info" || resp.Answer == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearch_BadBody(t *testing.T) {
	rr := postSearch(t, newTestRouter(&stubPipeline{}, &stubGuide{}), `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	rr := postSearch(t, newTestRouter(&stubPipeline{}, &stubGuide{}), `{"query":"   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSearch_QueryTooLong(t *testing.T) {
	body := `{"query":"` + strings.Repeat("x", maxQueryLen+1) + `"}`
	rr := postSearch(t, newTestRouter(&stubPipeline{}, &stubGuide{}), body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing credential", domain.ErrMissingCredential, http.StatusInternalServerError, CodeMissingCredential},
		{"upstream failure", domain.ErrCompletionUpstream, http.StatusBadGateway, CodeUpstreamError},
		{"embedding failure", domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingError},
		{"model unavailable", domain.ErrModelUnavailable, http.StatusServiceUnavailable, CodeModelUnavailable},
		{"invalid request", domain.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPipeline{
				processFunc: func(_ context.Context, _ string) (*pipeline.Result, error) {
					return nil, tt.err
				},
			}
			rr := postSearch(t, newTestRouter(p, &stubGuide{}), `{"query":"flight to BOM"}`)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", errResp.Code, tt.wantCode)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", http.NoBody)
	newTestRouter(&stubPipeline{}, &stubGuide{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}
