package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "aquarium_"

	// IngestResultSuccess labels a successful ingest request.
	IngestResultSuccess = "success"
	// IngestResultError labels a failed ingest request.
	IngestResultError = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	alertEvents    *prometheus.CounterVec
	notifyFailures prometheus.Counter

	exportRequests *prometheus.CounterVec

	maintenanceDueTasks prometheus.Gauge
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		alertEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_events_total",
				Help: "Total alert lifecycle events by type",
			},
			[]string{"event"},
		)
		notifyFailures = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "notify_failures_total",
				Help: "Total failed notification deliveries",
			},
		)

		exportRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_requests_total",
				Help: "Total export requests by format and result",
			},
			[]string{"format", "result"},
		)

		maintenanceDueTasks = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "maintenance_due_tasks",
				Help: "Maintenance tasks currently due",
			},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			alertEvents,
			notifyFailures,
			exportRequests,
			maintenanceDueTasks,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = IngestResultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// IncAlertEvent increments alert event counter.
func IncAlertEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if alertEvents != nil {
		alertEvents.WithLabelValues(event).Inc()
	}
}

// IncNotifyFailure increments the notification failure counter.
func IncNotifyFailure() {
	if notifyFailures != nil {
		notifyFailures.Inc()
	}
}

// IncExport increments export counter by format and result.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = IngestResultSuccess
	}
	if exportRequests != nil {
		exportRequests.WithLabelValues(format, result).Inc()
	}
}

// SetMaintenanceDue sets the due maintenance task gauge.
func SetMaintenanceDue(count int) {
	if count < 0 {
		count = 0
	}
	if maintenanceDueTasks != nil {
		maintenanceDueTasks.Set(float64(count))
	}
}
