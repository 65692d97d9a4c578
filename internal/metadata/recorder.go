package metadata

import (
	"time"

	"go.uber.org/zap"
)

/*
Recorder turns cache events into structured log entries.
It must not:
- perform I/O decisions
- affect control flow
Events are written synchronously in call order.
*/
type Recorder struct {
	logger *zap.Logger
}

// NewRecorder wraps logger. A nil logger discards everything.
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logger: logger.Named("filecache"),
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	fields := []zap.Field{
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.Stringer("cause", cause),
		zap.String("details", details),
	}
	r.logger.Error("cache operation failed", append(fields, attrFields(attrs)...)...)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("path", path),
	}
	r.logger.Debug("artifact written", append(fields, attrFields(attrs)...)...)
}

func (r *Recorder) RecordSweep(stats SweepStats) {
	r.logger.Info("cache sweep finished",
		zap.String(string(AttrCacheDir), stats.CacheDir()),
		zap.Int("scanned", stats.Scanned()),
		zap.Int("removed", stats.Removed()),
		zap.Int("retained", stats.Retained()),
		zap.Int("skipped", stats.Skipped()),
		zap.Duration("duration", stats.Duration()),
	)
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, attr := range attrs {
		fields = append(fields, zap.String(string(attr.Key), attr.Value))
	}
	return fields
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
	RecordSweep(stats SweepStats)
}

// NoopSink implements MetadataSink and drops every event.
// Callers (or tests) choose between Recorder and NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordSweep(stats SweepStats) {}
