// Package metrics holds the Prometheus instruments of the ranking service.
// Everything registers on the default registry and is served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engagement metrics
	EngagementEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penportal_engagement_events_total",
			Help: "Engagement mutations applied to the ledger",
		},
		[]string{"kind", "result"}, // result: "ok", "not_found", "invalid", "error"
	)

	LedgerItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "penportal_ledger_items",
			Help: "Published items held by the engagement ledger",
		},
	)

	LedgerDirtyItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "penportal_ledger_dirty_items",
			Help: "Items with engagement not yet written to the store",
		},
	)

	// Write-behind flush metrics
	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "penportal_flush_duration_seconds",
			Help:    "Duration of a write-behind flush cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlushedItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "penportal_flushed_items_total",
			Help: "Snapshots written to the store by the write-behind flush",
		},
	)

	FlushErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "penportal_flush_errors_total",
			Help: "Failed write-behind batches",
		},
	)

	// Re-rank sweep metrics
	RescoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "penportal_rescore_duration_seconds",
			Help:    "Duration of a full re-rank sweep",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	RescoredItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "penportal_rescored_items_total",
			Help: "Items rescored by the re-rank sweep",
		},
	)

	// Feed metrics
	FeedComposeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "penportal_feed_compose_duration_seconds",
			Help:    "Time spent composing a feed or trending list",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"feed"}, // "personalized", "trending"
	)

	FeedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penportal_feed_items_total",
			Help: "Items served in feeds by origin",
		},
		[]string{"source"}, // "personalized", "padded"
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penportal_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "penportal_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordEngagement counts one ledger mutation by outcome
func RecordEngagement(kind, result string) {
	EngagementEvents.WithLabelValues(kind, result).Inc()
}

// RecordFlush records one write-behind cycle
func RecordFlush(duration time.Duration, flushed int, failedBatches int) {
	FlushDuration.Observe(duration.Seconds())
	FlushedItems.Add(float64(flushed))
	if failedBatches > 0 {
		FlushErrors.Add(float64(failedBatches))
	}
}

// RecordRescore records one re-rank sweep
func RecordRescore(duration time.Duration, rescored int) {
	RescoreDuration.Observe(duration.Seconds())
	RescoredItems.Add(float64(rescored))
}

// RecordFeed records a composed feed
func RecordFeed(feed string, duration time.Duration, personalized, padded int) {
	FeedComposeDuration.WithLabelValues(feed).Observe(duration.Seconds())
	if personalized > 0 {
		FeedItems.WithLabelValues("personalized").Add(float64(personalized))
	}
	if padded > 0 {
		FeedItems.WithLabelValues("padded").Add(float64(padded))
	}
}

// UpdateLedgerGauges publishes the ledger size and backlog
func UpdateLedgerGauges(items, dirty int) {
	LedgerItems.Set(float64(items))
	LedgerDirtyItems.Set(float64(dirty))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
