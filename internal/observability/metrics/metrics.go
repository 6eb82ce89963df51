package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "registry_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	recalcTotal   *prometheus.CounterVec
	recalcLatency *prometheus.HistogramVec

	paymentsRecorded prometheus.Counter

	feeExportTotal   *prometheus.CounterVec
	feeExportLatency *prometheus.HistogramVec

	consumerLag *prometheus.GaugeVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status",
			},
			[]string{"method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		recalcTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fee_recalculations_total",
				Help: "Total fee ledger recalculations by trigger and result",
			},
			[]string{"trigger", "result"},
		)
		recalcLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fee_recalculation_latency_seconds",
				Help:    "Fee ledger recalculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		)

		paymentsRecorded = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "fee_payments_recorded_total",
				Help: "Total manual fee payments recorded",
			},
		)

		feeExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fee_export_total",
				Help: "Total fee report exports by format and result",
			},
			[]string{"format", "result"},
		)
		feeExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fee_export_latency_seconds",
				Help:    "Fee report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		consumerLag = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "event_consumer_lag_seconds",
				Help: "Consumer processing lag in seconds",
			},
			[]string{"consumer"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			recalcTotal,
			recalcLatency,
			paymentsRecorded,
			feeExportTotal,
			feeExportLatency,
			consumerLag,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveHTTP records an HTTP request.
func ObserveHTTP(method, status string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// ObserveRecalculation records one ledger recalculation.
func ObserveRecalculation(trigger string, err error, duration time.Duration) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if trigger == "" {
		trigger = "unknown"
	}
	if recalcTotal != nil {
		recalcTotal.WithLabelValues(trigger, result).Inc()
	}
	if recalcLatency != nil {
		recalcLatency.WithLabelValues(trigger).Observe(duration.Seconds())
	}
}

// IncPaymentRecorded increments the manual payment counter.
func IncPaymentRecorded() {
	if paymentsRecorded != nil {
		paymentsRecorded.Inc()
	}
}

// ObserveFeeExport records a report export by format.
func ObserveFeeExport(format string, err error, duration time.Duration) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if format == "" {
		format = "unknown"
	}
	if feeExportTotal != nil {
		feeExportTotal.WithLabelValues(format, result).Inc()
	}
	if feeExportLatency != nil {
		feeExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveConsumerLag sets consumer lag in seconds.
func ObserveConsumerLag(consumer string, lag time.Duration) {
	if consumer == "" {
		consumer = "unknown"
	}
	if lag < 0 {
		lag = 0
	}
	if consumerLag != nil {
		consumerLag.WithLabelValues(consumer).Set(lag.Seconds())
	}
}
