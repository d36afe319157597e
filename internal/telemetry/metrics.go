package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds all the metric instruments for the studio site
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// content
	ContentFetchesTotal metric.Int64Counter
	ContentErrorsTotal  metric.Int64Counter
	// forms
	SubmissionsTotal     metric.Int64Counter
	RejectedUploadsTotal metric.Int64Counter
	ClientErrorsTotal    metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
	// assets
	AssetRequestsTotal metric.Int64Counter
	CacheHitsTotal     metric.Int64Counter
	CacheMissesTotal   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	counters := []struct {
		dst        *metric.Int64Counter
		name, desc string
		unit       string
	}{
		{&m.HTTPRequestsTotal, "http_requests", "Total number of HTTP requests", "{request}"},
		{&m.ContentFetchesTotal, "content_fetches", "CMS collection reads by collection", "{fetch}"},
		{&m.ContentErrorsTotal, "content_errors", "Content reads that failed, by error code", "{error}"},
		{&m.SubmissionsTotal, "form_submissions", "Accepted contact forms and job applications", "{submission}"},
		{&m.RejectedUploadsTotal, "rejected_uploads", "Attachments rejected for size or type", "{upload}"},
		{&m.ClientErrorsTotal, "client_errors", "Error reports received from browsers", "{report}"},
		{&m.RateLimitHitsTotal, "rate_limit_hits", "Number of rate limiter blocked requests", "{request}"},
		{&m.AssetRequestsTotal, "asset_requests", "Total number of assets requested", "{request}"},
		{&m.CacheHitsTotal, "cache_hits", "Number of asset variant cache hits", "{hit}"},
		{&m.CacheMissesTotal, "cache_misses", "Number of asset variant cache misses", "{miss}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", c.name, err)
		}
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request latency in ms"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration: %w", err)
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	return &m, nil
}

// NoopMetrics returns instruments that record nothing, for tests and tools.
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(""))
	return m
}
