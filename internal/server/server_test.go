package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
	pkgio "github.com/matzehuels/cartogram/pkg/io"
	"github.com/matzehuels/cartogram/pkg/observability"
	"github.com/matzehuels/cartogram/pkg/pipeline"
)

const twoSquares = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"pop":1},"geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
 {"type":"Feature","properties":{"pop":3},"geometry":{"type":"Polygon","coordinates":[[[10,0],[20,0],[20,10],[10,10],[10,0]]]}}
]}`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Defaults.MaxIterations == 0 {
		cfg.Defaults = pipeline.DefaultOptions()
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(pipeline.NewRunner(nil, nil, logger), logger, cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, query, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/cartograms?"+query, "application/geo+json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
	if body["version"] == "" || body["go"] == "" {
		t.Errorf("health body %v should carry build info", body)
	}
}

func TestCreateCartogram(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts, "attribute=pop&max_average_error=0.01", twoSquares)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, decodeError(t, resp))
	}

	if got := resp.Header.Get("Content-Type"); got != "application/geo+json" {
		t.Errorf("Content-Type = %q, want application/geo+json", got)
	}
	if _, err := uuid.Parse(resp.Header.Get(HeaderRunID)); err != nil {
		t.Errorf("%s = %q, want a UUID", HeaderRunID, resp.Header.Get(HeaderRunID))
	}
	if resp.Header.Get(HeaderIterations) == "" || resp.Header.Get(HeaderIterations) == "0" {
		t.Errorf("%s = %q, want at least one iteration", HeaderIterations, resp.Header.Get(HeaderIterations))
	}
	if resp.Header.Get(HeaderAverageError) == "" {
		t.Errorf("%s should be set", HeaderAverageError)
	}
	if s := resp.Header.Get(HeaderStatus); s != "converged" && s != "exhausted" {
		t.Errorf("%s = %q, want converged or exhausted", HeaderStatus, s)
	}

	c, err := pkgio.ReadGeoJSON(resp.Body, "pop")
	if err != nil {
		t.Fatalf("response is not a valid collection: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCreateCartogramFormats(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"svg", "image/svg+xml", "<svg"},
		{"png", "image/png", "\x89PNG"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := post(t, ts, "attribute=pop&width=100&height=80&palette=greys&format="+tt.format, twoSquares)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			data, _ := io.ReadAll(resp.Body)
			if !bytes.HasPrefix(data, []byte(tt.prefix)) {
				t.Errorf("body should start with %q", tt.prefix)
			}
		})
	}
}

func TestCreateCartogramErrors(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 1 << 10})
	negative := strings.Replace(twoSquares, `"pop":1`, `"pop":-1`, 1)
	big := twoSquares + strings.Repeat(" ", 2<<10)

	tests := []struct {
		name       string
		query      string
		body       string
		wantStatus int
		wantCode   cerrors.Code
	}{
		{"missing attribute", "", twoSquares, http.StatusBadRequest, cerrors.ErrCodeInvalidAttribute},
		{"unknown attribute", "attribute=gdp", twoSquares, http.StatusBadRequest, cerrors.ErrCodeInvalidAttribute},
		{"negative value", "attribute=pop", negative, http.StatusBadRequest, cerrors.ErrCodeInvalidAttribute},
		{"bad iterations", "attribute=pop&max_iterations=ten", twoSquares, http.StatusBadRequest, cerrors.ErrCodeInvalidInput},
		{"negative iterations", "attribute=pop&max_iterations=-2", twoSquares, http.StatusBadRequest, cerrors.ErrCodeInvalidInput},
		{"bad format", "attribute=pop&format=pdf", twoSquares, http.StatusBadRequest, cerrors.ErrCodeInvalidFormat},
		{"bad palette", "attribute=pop&format=svg&palette=rainbow", twoSquares, http.StatusBadRequest, cerrors.ErrCodeInvalidPalette},
		{"malformed body", "attribute=pop", `{"type":`, http.StatusBadRequest, cerrors.ErrCodeInvalidFormat},
		{"oversized body", "attribute=pop", big, http.StatusRequestEntityTooLarge, cerrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.query, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := decodeError(t, resp); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (message %q)", got.Code, tt.wantCode, got.Message)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewPrometheusHooks(reg).Register()
	defer observability.Reset()

	ts := newTestServer(t, Config{Gatherer: reg})
	post(t, ts, "attribute=pop", twoSquares)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"cartogram_runs_total", "cartogram_http_requests_total"} {
		if !bytes.Contains(data, []byte(name)) {
			t.Errorf("/metrics should expose %s", name)
		}
	}
}
