package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iedon/wikimarkup-go/config"
	"github.com/iedon/wikimarkup-go/metrics"
	"github.com/iedon/wikimarkup-go/pagestore"
	"github.com/iedon/wikimarkup-go/site"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg, err := config.Parse([]byte(`{"serverHeader": "wiki-test", "render": {"useHtmlWhitelist": false}}`))
	require.NoError(t, err)
	store, err := pagestore.Open(filepath.Join(t.TempDir(), "pages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	svc, err := site.NewService(cfg, store, logger, metrics.NewPrometheusRecorder(reg))
	require.NoError(t, err)
	return New(cfg, svc, logger, cfg.ServerHeader, metrics.HTTPHandler(reg)).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
	return rec
}

func TestHealthSetsHeaders(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wiki-test", rec.Header().Get("Server"))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
	assert.Contains(t, rec.Body.String(), `"dialect":"markdown"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "6f1c7a4e-3b7d-4a57-9a86-0c1f2b3d4e5f")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "6f1c7a4e-3b7d-4a57-9a86-0c1f2b3d4e5f", rec.Header().Get(requestIDHeader))

	req.Header.Set(requestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}

func TestErrorBodyCarriesRequestID(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/pages/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body struct {
		Error     string `json:"error"`
		Status    int    `json:"status"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "page not found", body.Error)
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, rec.Header().Get(requestIDHeader), body.RequestID)
	assert.NotEmpty(t, body.RequestID)
}

func TestPreview(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/preview", `{"content": "**bold**"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		HTML        string `json:"html"`
		IsCacheable bool   `json:"isCacheable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.HTML, "<strong>bold</strong>")
	assert.True(t, body.IsCacheable)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/preview", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/preview", "{").Code)
}

func TestCreateAndFetchPage(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/pages", `{"title": "Start", "content": "see [other](Other)"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Page struct {
			ID int `json:"id"`
		} `json:"page"`
		Rendered struct {
			HTML string `json:"html"`
		} `json:"rendered"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Contains(t, created.Rendered.HTML, "missing-page-link")

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/pages", `{"title": "start"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/pages", `{"title": " "}`).Code)

	rec = do(t, h, http.MethodGet, "/api/pages/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cached":true`)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/pages/99", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/pages/abc", "").Code)
}

func TestMenu(t *testing.T) {
	h := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/menu", "").Code)

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/pages", `{"title": "Menu", "content": "{TOC}\n# Guides"}`).Code)
	rec := do(t, h, http.MethodGet, "/api/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 Guides")
}

func TestSyntaxAndMetrics(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/syntax", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Dialect":"markdown"`)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/preview", `{"content": "x"}`).Code)
	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wikimarkup_render_outcomes_total")
}
