package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Field keys that must never reach logs or metric tags. Call sites only pass
// identifying fields; this is the backstop.
var redactedLogFields = map[string]struct{}{
	"secret":            {},
	"token_secret":      {},
	"consumer_secret":   {},
	"verification_code": {},
	"credentials":       {},
	"password":          {},
}

// observeOperation emits the log line and metrics for one finished manager
// call. It runs deferred over the operation's named error, so the outcome is
// whatever the caller ultimately returned.
func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	rec := opRecord{
		name:    opName(operation),
		elapsed: time.Since(startedAt),
		err:     err,
		fields:  scrubFields(fields),
	}
	s.emitMetrics(ctx, rec)
	s.emitLog(ctx, rec)
}

type opRecord struct {
	name    string
	elapsed time.Duration
	err     error
	fields  map[string]any
}

func (r opRecord) outcome() string {
	if r.err != nil {
		return "failure"
	}
	return "success"
}

func (s *Service) emitMetrics(ctx context.Context, rec opRecord) {
	if s.metricsRecorder == nil {
		return
	}
	tags := map[string]string{
		"operation": rec.name,
		"outcome":   rec.outcome(),
	}
	if key, ok := rec.fields["consumer_key"].(string); ok && strings.TrimSpace(key) != "" {
		tags["consumer_key"] = key
	}
	s.metricsRecorder.IncCounter(ctx, "authflow.operations.total", 1, tags)
	s.metricsRecorder.ObserveHistogram(ctx, "authflow.operation.duration_ms", float64(rec.elapsed.Milliseconds()), tags)
}

func (s *Service) emitLog(ctx context.Context, rec opRecord) {
	if s.logger == nil {
		return
	}
	fields := rec.fields
	fields["operation"] = rec.name
	fields["outcome"] = rec.outcome()
	fields["duration_ms"] = rec.elapsed.Milliseconds()
	if rec.err != nil {
		fields["error"] = rec.err.Error()
	}

	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	if rec.err != nil {
		logger.Error(rec.name+" failed", sortedPairs(fields)...)
		return
	}
	logger.Info(rec.name+" completed", sortedPairs(fields)...)
}

// scrubFields copies the caller's fields, dropping secret-shaped keys and
// nil values. The copy is what emitLog decorates, so callers keep their map.
func scrubFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+4)
	for key, value := range fields {
		name := strings.TrimSpace(strings.ToLower(key))
		if _, secret := redactedLogFields[name]; secret {
			continue
		}
		if value == nil {
			continue
		}
		out[key] = value
	}
	return out
}

func sortedPairs(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, key, fields[key])
	}
	return pairs
}

func opName(operation string) string {
	name := strings.TrimSpace(strings.ToLower(operation))
	if name == "" {
		return "unknown"
	}
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}
