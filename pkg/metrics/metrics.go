// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload kinds used as the "kind" label.
const (
	KindPayout = "payout"
	KindAOP    = "aop"
	KindRoster = "roster"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// UploadsTotal counts spreadsheet uploads by kind and outcome.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sip_uploads_total",
			Help: "Total number of spreadsheet uploads processed",
		},
		[]string{"kind", "outcome"}, // outcome: success, rejected, error
	)

	// UploadRows counts data rows accepted from uploads.
	UploadRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sip_upload_rows_total",
			Help: "Total number of data rows accepted from uploads",
		},
		[]string{"kind"},
	)

	// ConsolidationDuration measures how long building the consolidated view takes.
	ConsolidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sip_consolidation_duration_seconds",
			Help:    "Time taken to read and consolidate active payout tables",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
	)

	// ConsolidatedRecords tracks the size of the last consolidated view.
	ConsolidatedRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sip_consolidated_records",
			Help: "Number of employee records in the last consolidated view",
		},
	)

	// SkippedTables counts active tables that could not be read during consolidation.
	SkippedTables = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sip_consolidation_skipped_tables_total",
			Help: "Total number of active payout tables skipped because they could not be read",
		},
	)

	// TableCacheLookups counts parsed-upload cache lookups by result (hit, miss).
	TableCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sip_table_cache_lookups_total",
			Help: "Total number of parsed payout table cache lookups",
		},
		[]string{"result"},
	)

	// LoginsTotal counts login attempts by result.
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sip_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // result: success, invalid_credentials, error
	)

	// SlipsRendered counts payout slips rendered.
	SlipsRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sip_slips_rendered_total",
			Help: "Total number of payout slips rendered",
		},
	)

	// HTTPRequestDuration measures HTTP request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sip_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
)
