package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wikimarkup"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renderDuration *prom.HistogramVec
	renderOutcome  *prom.CounterVec
	pluginFailures *prom.CounterVec
	tokenFailures  *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of markup renders",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"dialect"}),
		renderOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "render_outcomes_total",
			Help:      "Render results by outcome",
		}, []string{"outcome"}),
		pluginFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_failures_total",
			Help:      "Plugin hook calls that failed and were skipped",
		}, []string{"plugin", "hook"}),
		tokenFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "token_failures_total",
			Help:      "Token replacements that failed and were skipped",
		}, []string{"token"}),
	}
	reg.MustRegister(pr.renderDuration, pr.renderOutcome, pr.pluginFailures, pr.tokenFailures)
	return pr
}

func (p *PrometheusRecorder) ObserveRenderDuration(dialect string, d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.WithLabelValues(dialect).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderOutcome(outcome Outcome) {
	if p == nil || p.renderOutcome == nil {
		return
	}
	p.renderOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPluginFailure(plugin, hook string) {
	if p == nil || p.pluginFailures == nil {
		return
	}
	p.pluginFailures.WithLabelValues(plugin, hook).Inc()
}

func (p *PrometheusRecorder) IncTokenFailure(token string) {
	if p == nil || p.tokenFailures == nil {
		return
	}
	p.tokenFailures.WithLabelValues(token).Inc()
}

// HTTPHandler returns an http.Handler that serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
