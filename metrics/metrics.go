// Package metrics exposes Prometheus metrics for the refresh cycle and the
// catalog.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cine_catalog_refresh_runs_total",
		Help: "Refresh cycles by outcome",
	}, []string{"outcome"}) // outcome=success|failure|skipped

	refreshAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cine_catalog_refresh_attempts_total",
		Help: "Individual refresh attempts, including retries",
	})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cine_catalog_refresh_duration_seconds",
		Help:    "Duration of refresh cycles",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	itemsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cine_catalog_items_skipped_total",
		Help: "Titles dropped during refresh by reason",
	}, []string{"reason"}) // reason=detail_error|missing_title|unknown_kind|duplicate

	catalogItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cine_catalog_items",
		Help: "Titles in the catalog after the last refresh",
	})

	catalogItemsByKind = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cine_catalog_items_by_kind",
		Help: "Titles in the catalog by media kind",
	}, []string{"kind"})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cine_catalog_last_refresh_success_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	})
)

// RecordRefresh records the outcome and duration of one refresh cycle.
func RecordRefresh(outcome string, d time.Duration) {
	refreshRuns.WithLabelValues(outcome).Inc()
	if outcome == "skipped" {
		return
	}
	refreshDuration.Observe(d.Seconds())
	if outcome == "success" {
		lastSuccess.SetToCurrentTime()
	}
}

// IncRefreshAttempt counts one attempt inside a cycle.
func IncRefreshAttempt() {
	refreshAttempts.Inc()
}

// IncItemSkipped counts a title dropped for reason.
func IncItemSkipped(reason string) {
	itemsSkipped.WithLabelValues(reason).Inc()
}

// SetCatalogSize publishes the current catalog size per kind.
func SetCatalogSize(byKind map[string]int) {
	total := 0
	for kind, n := range byKind {
		catalogItemsByKind.WithLabelValues(kind).Set(float64(n))
		total += n
	}
	catalogItems.Set(float64(total))
}
