package metadata

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

/*
Metadata collected
- Fetch timestamps, HTTP status codes, retry counts
- Search outcomes (link counts, record counts, source)
- Cache and rate-limit activity
- Classified errors

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder batch output
 - Output is stable given identical inputs

Metadata is write-only. No component may read metadata to influence
scraping or serving decisions.
*/

// Sink captures structured events from every pipeline stage.
// Components receive a Sink by injection and never log directly.
type Sink interface {
	RecordFetch(
		fetchURL string,
		httpStatus int,
		duration time.Duration,
		retryCount int,
	)

	RecordSearch(
		query string,
		page int,
		linksFound int,
		recordsProduced int,
		duration time.Duration,
		source string,
	)

	RecordCache(event CacheEvent, key string, entries int)

	RecordRateLimit(clientKey string, count int, limited bool)

	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
}

// CacheEvent names the cache transitions worth observing.
type CacheEvent string

const (
	CacheHit     CacheEvent = "hit"
	CacheMiss    CacheEvent = "miss"
	CacheStore   CacheEvent = "store"
	CacheEvict   CacheEvent = "evict"
	CacheSweep   CacheEvent = "sweep"
	CacheExpired CacheEvent = "expired"
)

// Recorder is the production Sink. It emits structured log lines through
// charmbracelet/log and keeps no state of its own.
type Recorder struct {
	logger *log.Logger
}

func NewRecorder() *Recorder {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "memescout",
	})
	return &Recorder{logger: logger}
}

// NewRecorderWithLogger allows callers to supply a configured logger,
// e.g. with a different level or output.
func NewRecorderWithLogger(logger *log.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// Logger exposes the underlying logger so callers at the boundary can
// emit their own lines through the same output.
func (r *Recorder) Logger() *log.Logger {
	return r.logger
}

func (r *Recorder) RecordFetch(
	fetchURL string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
) {
	r.logger.Debug("fetch",
		"url", fetchURL,
		"status", httpStatus,
		"duration", duration,
		"retries", retryCount,
	)
}

func (r *Recorder) RecordSearch(
	query string,
	page int,
	linksFound int,
	recordsProduced int,
	duration time.Duration,
	source string,
) {
	r.logger.Info("search",
		"query", query,
		"page", page,
		"links", linksFound,
		"records", recordsProduced,
		"duration", duration,
		"source", source,
	)
}

func (r *Recorder) RecordCache(event CacheEvent, key string, entries int) {
	r.logger.Debug("cache",
		"event", string(event),
		"key", key,
		"entries", entries,
	)
}

func (r *Recorder) RecordRateLimit(clientKey string, count int, limited bool) {
	if limited {
		r.logger.Warn("rate limit exceeded", "client", clientKey, "count", count)
		return
	}
	r.logger.Debug("rate limit", "client", clientKey, "count", count)
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	keyvals := []interface{}{
		"observed_at", observedAt,
		"package", packageName,
		"action", action,
		"cause", cause.String(),
		"details", details,
	}
	for _, attr := range attrs {
		keyvals = append(keyvals, string(attr.Key), attr.Value)
	}
	r.logger.Error("pipeline error", keyvals...)
}

// NoopSink implements Sink but does nothing. Tests and callers that want
// metadata fully orthogonal inject this instead of a Recorder.
type NoopSink struct{}

func (n *NoopSink) RecordFetch(string, int, time.Duration, int) {}

func (n *NoopSink) RecordSearch(string, int, int, int, time.Duration, string) {}

func (n *NoopSink) RecordCache(CacheEvent, string, int) {}

func (n *NoopSink) RecordRateLimit(string, int, bool) {}

func (n *NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}
