// Package metrics provides Prometheus metrics for the store
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

// Metrics holds all Prometheus metrics of one store. A nil *Metrics records nothing.
type Metrics struct {
	// Write path
	OperationsTotal *prometheus.CounterVec
	MergeDuration   *prometheus.HistogramVec
	RecordsWritten  prometheus.Counter

	// Read path
	QueriesTotal   *prometheus.CounterVec
	BucketsScanned prometheus.Counter
	RecordsMatched prometheus.Counter

	TempFilesSwept prometheus.Counter
}

// New creates the metrics and registers them with reg. A nil reg gets a private registry,
// so several stores can live in one process.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{}

	m.OperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savannah_operations_total",
			Help: "Total number of applied write batches",
		},
		[]string{"status"},
	)

	m.MergeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "savannah_merge_duration_seconds",
			Help:    "Duration of bucket merge passes in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	m.RecordsWritten = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "savannah_merge_records_written_total",
			Help: "Total number of records written by merge passes",
		},
	)

	m.QueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savannah_queries_total",
			Help: "Total number of queries",
		},
		[]string{"status"},
	)

	m.BucketsScanned = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "savannah_buckets_scanned_total",
			Help: "Total number of bucket files scanned by queries",
		},
	)

	m.RecordsMatched = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "savannah_records_matched_total",
			Help: "Total number of records matching a query filter",
		},
	)

	m.TempFilesSwept = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "savannah_temp_files_swept_total",
			Help: "Total number of stale temporary files removed at start",
		},
	)

	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveMerge records a finished merge pass.
func (m *Metrics) ObserveMerge(start time.Time, written int, err error) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(status(err)).Inc()
	m.MergeDuration.WithLabelValues(status(err)).Observe(time.Since(start).Seconds())
	if err == nil {
		m.RecordsWritten.Add(float64(written))
	}
}

// ObserveQuery records a finished query. matched counts every record passing the filter,
// including those a Take limit left out of the result.
func (m *Metrics) ObserveQuery(buckets, matched int, err error) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(status(err)).Inc()
	m.BucketsScanned.Add(float64(buckets))
	m.RecordsMatched.Add(float64(matched))
}

// ObserveSweep records removed temporary files.
func (m *Metrics) ObserveSweep(n int) {
	if m == nil {
		return
	}
	m.TempFilesSwept.Add(float64(n))
}
