// Package observability registers the prometheus collectors for wellness.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	categoryFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Subsystem: "provider",
		Name:      "category_fetches_total",
		Help:      "Provider category fetches by category and outcome.",
	}, []string{"category", "outcome"})
	ledgerWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Subsystem: "ledger",
		Name:      "writes_total",
		Help:      "Ledger rewrites by outcome (ok, failed, conflict).",
	}, []string{"outcome"})
	ledgerReadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wellness",
		Subsystem: "ledger",
		Name:      "read_failures_total",
		Help:      "Ledger reads that degraded to an empty ledger.",
	})
	ledgerRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellness",
		Subsystem: "ledger",
		Name:      "rows",
		Help:      "Rows in the most recently written ledger.",
	})
	ledgerUpsertGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellness",
		Subsystem: "ledger",
		Name:      "last_upsert_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful ledger upsert.",
	})
	httpRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wellness",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(categoryFetches, ledgerWrites, ledgerReadFailures, ledgerRows, ledgerUpsertGauge, httpRequests)
}

// RecordFetch counts one provider category fetch.
func RecordFetch(category string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	categoryFetches.WithLabelValues(category, outcome).Inc()
}

// RecordLedgerWrite counts one ledger rewrite attempt.
func RecordLedgerWrite(outcome string) {
	ledgerWrites.WithLabelValues(outcome).Inc()
}

// RecordLedgerReadFailure counts a degraded ledger read.
func RecordLedgerReadFailure() {
	ledgerReadFailures.Inc()
}

// RecordLedgerUpsert updates the row gauge and upsert watermark.
func RecordLedgerUpsert(rows int, ts time.Time) {
	ledgerRows.Set(float64(rows))
	if ts.IsZero() {
		return
	}
	ledgerUpsertGauge.Set(float64(ts.Unix()))
}

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
