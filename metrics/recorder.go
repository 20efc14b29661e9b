// Package metrics records render pipeline observations.
package metrics

import "time"

// Outcome enumerates render results for counters.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeNotCacheable Outcome = "not_cacheable"
	OutcomeParseError   Outcome = "parse_error"
)

// Recorder receives render observations. Implementations must be safe
// for concurrent use.
type Recorder interface {
	ObserveRenderDuration(dialect string, d time.Duration)
	IncRenderOutcome(outcome Outcome)
	IncPluginFailure(plugin, hook string)
	IncTokenFailure(token string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(string, time.Duration) {}
func (NoopRecorder) IncRenderOutcome(Outcome)                     {}
func (NoopRecorder) IncPluginFailure(string, string)              {}
func (NoopRecorder) IncTokenFailure(string)                       {}
