package metrics

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	PlanRequestsTotal       metric.Int64Counter
	PlanDurationSeconds     metric.Float64Histogram
	PlanEntriesTotal        metric.Int64Counter
	UpstreamRequestsTotal   metric.Int64Counter
	UpstreamDurationSeconds metric.Float64Histogram
	CacheLookupsTotal       metric.Int64Counter
	BreakerTransitionsTotal metric.Int64Counter
	ExtractionFallbackTotal metric.Int64Counter
	DbQueryDurationSeconds  metric.Float64Histogram
	DbQueryErrorsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments once,
// using the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("DayPlanner")
		var err error
		m := &AppMetrics{}

		m.PlanRequestsTotal, err = meter.Int64Counter(
			"plan_requests_total",
			metric.WithDescription("Total number of plan requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_requests_total: %v", err)
		}

		m.PlanDurationSeconds, err = meter.Float64Histogram(
			"plan_duration_seconds",
			metric.WithDescription("Duration of plan creation in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_duration_seconds: %v", err)
		}

		m.PlanEntriesTotal, err = meter.Int64Counter(
			"plan_entries_total",
			metric.WithDescription("Total number of itinerary entries produced"),
			metric.WithUnit("{entry}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_entries_total: %v", err)
		}

		m.UpstreamRequestsTotal, err = meter.Int64Counter(
			"upstream_requests_total",
			metric.WithDescription("Calls to external APIs by upstream and outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_requests_total: %v", err)
		}

		m.UpstreamDurationSeconds, err = meter.Float64Histogram(
			"upstream_duration_seconds",
			metric.WithDescription("Latency of external API calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_duration_seconds: %v", err)
		}

		m.CacheLookupsTotal, err = meter.Int64Counter(
			"venue_cache_lookups_total",
			metric.WithDescription("Venue cache lookups by result"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create venue_cache_lookups_total: %v", err)
		}

		m.BreakerTransitionsTotal, err = meter.Int64Counter(
			"circuit_breaker_transitions_total",
			metric.WithDescription("Circuit breaker state transitions"),
			metric.WithUnit("{transition}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create circuit_breaker_transitions_total: %v", err)
		}

		m.ExtractionFallbackTotal, err = meter.Int64Counter(
			"extraction_fallback_total",
			metric.WithDescription("Activity extractions that used a fallback stage"),
			metric.WithUnit("{extraction}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create extraction_fallback_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it against the current
// MeterProvider (a no-op one in tests) if nobody did so yet.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// RecordUpstream counts one external call and its latency.
func RecordUpstream(ctx context.Context, upstream, outcome string, seconds float64) {
	m := Get()
	attrs := metric.WithAttributes(
		attribute.String("upstream", upstream),
		attribute.String("outcome", outcome),
	)
	m.UpstreamRequestsTotal.Add(ctx, 1, attrs)
	m.UpstreamDurationSeconds.Record(ctx, seconds, metric.WithAttributes(attribute.String("upstream", upstream)))
}

func RecordCacheLookup(ctx context.Context, namespace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	Get().CacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("result", result),
	))
}
