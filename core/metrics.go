package core

import "context"

// nopMetrics drops every measurement. It backs the service when no recorder
// is configured so the emit helpers never nil-check mid-operation.
type nopMetrics struct{}

func (nopMetrics) IncCounter(context.Context, string, int64, map[string]string) {}

func (nopMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// NopMetricsRecorder returns a recorder that discards all measurements.
func NopMetricsRecorder() MetricsRecorder {
	return nopMetrics{}
}
