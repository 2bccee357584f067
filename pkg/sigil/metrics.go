package sigil

import "sync"

// MetricsRecorder defines metrics hooks for dispatch operations. The
// target label is "signal", "link" or "list".
type MetricsRecorder interface {
	RecordFired(target string, listeners int)
	RecordSkipped(target string, reason string)
	RecordPanic(target string)
}

type nopMetrics struct{}

func (n *nopMetrics) RecordFired(target string, listeners int)   {}
func (n *nopMetrics) RecordSkipped(target string, reason string) {}
func (n *nopMetrics) RecordPanic(target string)                  {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = &nopMetrics{}
)

// SetMetricsRecorder sets the package-level dispatch metrics recorder.
// Passing nil restores the no-op recorder.
func SetMetricsRecorder(recorder MetricsRecorder) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if recorder == nil {
		metrics = &nopMetrics{}
		return
	}
	metrics = recorder
}

func metricsRecorder() MetricsRecorder {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return metrics
}
