package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveRenderDuration("markdown", time.Millisecond)
	r.IncRenderOutcome(OutcomeSuccess)
	r.IncPluginFailure("toc", "AfterParse")
	r.IncTokenFailure("box")
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRenderDuration("markdown", 3*time.Millisecond)
	pr.IncRenderOutcome(OutcomeSuccess)
	pr.IncRenderOutcome(OutcomeSuccess)
	pr.IncPluginFailure("toc", "AfterParse")
	pr.IncTokenFailure("box")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 4)
	assert.Equal(t, 2.0, testutil.ToFloat64(pr.renderOutcome.WithLabelValues(string(OutcomeSuccess))))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.pluginFailures.WithLabelValues("toc", "AfterParse")))
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncRenderOutcome(OutcomeParseError)
	pr.ObserveRenderDuration("markdown", time.Second)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncTokenFailure("box")

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `wikimarkup_token_failures_total{token="box"} 1`)
}
