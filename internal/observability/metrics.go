package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricWalksTotal     = "icepack.walks.total"
	metricWalkDuration   = "icepack.walk.duration.seconds"
	metricFilesParsed    = "icepack.files.parsed.total"
	metricCacheHits      = "icepack.cache.hits.total"
	metricParseErrors    = "icepack.parse.errors.total"
	metricBytesScanned   = "icepack.bytes.scanned.total"
	metricModulesByState = "icepack.modules.total"

	attrState  = "state"
	attrStatus = "status"

	statusError = "error"
	statusOK    = "ok"
)

// durationBucketBoundaries covers 10ms to 300s; walks range from small
// scripts to full application trees on cold caches.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// WalkOutcome summarizes one completed import walk for metric recording.
type WalkOutcome struct {
	FilesParsed  int
	CacheHits    int
	ParseErrors  int
	BytesScanned int64
	Resolved     int
	Missing      int
	Excluded     int
	Err          error
}

// WalkMetrics holds the OTel instruments for import walk telemetry.
type WalkMetrics struct {
	walksTotal   metric.Int64Counter
	walkDuration metric.Float64Histogram
	filesParsed  metric.Int64Counter
	cacheHits    metric.Int64Counter
	parseErrors  metric.Int64Counter
	bytesScanned metric.Int64Counter
	modulesByRes metric.Int64Counter
}

// NewWalkMetrics creates walk metric instruments from the given meter.
func NewWalkMetrics(mt metric.Meter) (*WalkMetrics, error) {
	b := newMetricBuilder(mt)

	wm := &WalkMetrics{
		walksTotal:   b.counter(metricWalksTotal, "Total number of import walks", "{walk}"),
		walkDuration: b.histogram(metricWalkDuration, "Import walk duration in seconds", "s", durationBucketBoundaries...),
		filesParsed:  b.counter(metricFilesParsed, "Total number of source files parsed", "{file}"),
		cacheHits:    b.counter(metricCacheHits, "Total number of scan cache hits", "{file}"),
		parseErrors:  b.counter(metricParseErrors, "Total number of unparseable or unreadable files", "{file}"),
		bytesScanned: b.counter(metricBytesScanned, "Total bytes of source scanned", "By"),
		modulesByRes: b.counter(metricModulesByState, "Total modules by resolution state", "{module}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return wm, nil
}

// RecordWalk records one completed walk with its outcome and duration.
func (wm *WalkMetrics) RecordWalk(ctx context.Context, outcome WalkOutcome, duration time.Duration) {
	status := statusOK
	if outcome.Err != nil {
		status = statusError
	}

	wm.walksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
	wm.walkDuration.Record(ctx, duration.Seconds())

	if outcome.Err != nil {
		return
	}

	wm.filesParsed.Add(ctx, int64(outcome.FilesParsed))
	wm.cacheHits.Add(ctx, int64(outcome.CacheHits))
	wm.parseErrors.Add(ctx, int64(outcome.ParseErrors))
	wm.bytesScanned.Add(ctx, outcome.BytesScanned)

	wm.modulesByRes.Add(ctx, int64(outcome.Resolved), metric.WithAttributes(attribute.String(attrState, "resolved")))
	wm.modulesByRes.Add(ctx, int64(outcome.Missing), metric.WithAttributes(attribute.String(attrState, "missing")))
	wm.modulesByRes.Add(ctx, int64(outcome.Excluded), metric.WithAttributes(attribute.String(attrState, "excluded")))
}
