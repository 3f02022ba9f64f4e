// Package metrics provides Prometheus metrics for the conversation and alert engines.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Conversation metrics
	MessagesTotal    *prometheus.CounterVec
	PredictionsTotal *prometheus.CounterVec

	// Alert metrics
	AlertEvaluationsTotal *prometheus.CounterVec
	AlertsFiredTotal      *prometheus.CounterVec
	NotificationsTotal    *prometheus.CounterVec

	// Scheduler metrics
	JobRunsTotal     *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	JobLastSuccess   *prometheus.GaugeVec
	CircuitOpenGauge *prometheus.GaugeVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.MessagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneybot_messages_total",
			Help: "Total number of inbound messages by classified intent",
		},
		[]string{"intent"},
	)

	m.PredictionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneybot_category_predictions_total",
			Help: "Total number of category predictions by source and confidence",
		},
		[]string{"source", "confidence"},
	)

	m.AlertEvaluationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneybot_alert_evaluations_total",
			Help: "Total number of alert evaluations by outcome",
		},
		[]string{"outcome"},
	)

	m.AlertsFiredTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneybot_alerts_fired_total",
			Help: "Total number of fired alerts by type",
		},
		[]string{"type"},
	)

	m.NotificationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneybot_notifications_total",
			Help: "Total number of push deliveries by kind and status",
		},
		[]string{"kind", "status"},
	)

	m.JobRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneybot_job_runs_total",
			Help: "Total number of scheduled job runs by job and status",
		},
		[]string{"job", "status"},
	)

	m.JobDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moneybot_job_duration_seconds",
			Help:    "Duration of scheduled job runs in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"job"},
	)

	m.JobLastSuccess = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moneybot_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run of each job",
		},
		[]string{"job"},
	)

	m.CircuitOpenGauge = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moneybot_circuit_open",
			Help: "1 when the named circuit breaker is not closed",
		},
		[]string{"name"},
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordMessage counts one processed message.
func (m *Metrics) RecordMessage(intent string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(intent).Inc()
}

// RecordPrediction counts one category prediction.
func (m *Metrics) RecordPrediction(source, confidence string) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(source, confidence).Inc()
}

// RecordEvaluation counts one alert evaluation outcome.
func (m *Metrics) RecordEvaluation(outcome string) {
	if m == nil {
		return
	}
	m.AlertEvaluationsTotal.WithLabelValues(outcome).Inc()
}

// RecordFired counts one fired alert.
func (m *Metrics) RecordFired(alertType string) {
	if m == nil {
		return
	}
	m.AlertsFiredTotal.WithLabelValues(alertType).Inc()
}

// RecordDelivery counts one push delivery attempt.
func (m *Metrics) RecordDelivery(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.NotificationsTotal.WithLabelValues(kind, status).Inc()
}

// RecordJob records one scheduled run.
func (m *Metrics) RecordJob(job string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	} else {
		m.JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// SetCircuitOpen records whether a breaker is open.
func (m *Metrics) SetCircuitOpen(name string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitOpenGauge.WithLabelValues(name).Set(v)
}
