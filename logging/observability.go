package logging

// MetricsSink records counters and durations for long-running analyses.
// The pipeline's built-in no-op satisfies every caller that doesn't wire
// a real metrics backend; SPEC_FULL.md's domain stack does not mandate
// one, so no concrete implementation ships here.
type MetricsSink interface {
	IncCounter(name string, tags map[string]string)
	ObserveDuration(name string, seconds float64, tags map[string]string)
}

type noopMetrics struct{}

func (noopMetrics) IncCounter(string, map[string]string)             {}
func (noopMetrics) ObserveDuration(string, float64, map[string]string) {}

// NoOpMetrics is a MetricsSink that records nothing.
var NoOpMetrics MetricsSink = noopMetrics{}

// Observability bundles the logger and metrics sink passed into every
// analysis (validator exploration, simulator run, executor dispatch) so
// components never reach for globals.
type Observability struct {
	Log     *Logger
	Metrics MetricsSink
}

// NoOpObservability returns an Observability value that logs and records nothing,
// suitable for unit tests.
func NoOpObservability() Observability {
	return Observability{Log: NoOp(), Metrics: NoOpMetrics}
}
