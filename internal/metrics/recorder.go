package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultNotFound ResultLabel = "not_found"
	ResultError    ResultLabel = "error"
)

// Recorder defines observability hooks for CMS traffic and page building.
// NoopRecorder is the default so callers never need nil checks.
type Recorder interface {
	ObserveCMSRequest(op string, d time.Duration, result ResultLabel)
	IncFallbackResolution(status string)
	ObservePageBuild(d time.Duration, success bool)
	SetPagesBuilt(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCMSRequest(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncFallbackResolution(string)                         {}
func (NoopRecorder) ObservePageBuild(time.Duration, bool)                 {}
func (NoopRecorder) SetPagesBuilt(int)                                    {}
