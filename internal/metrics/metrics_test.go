package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordMessage("expense_amount")
	m.RecordMessage("expense_amount")
	m.RecordFired("TARGET_PRICE")
	m.RecordJob("alerts", time.Second, nil)
	m.RecordJob("alerts", time.Second, errors.New("boom"))
	m.RecordDelivery("alert", errors.New("down"))
	m.SetCircuitOpen("market", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesTotal.WithLabelValues("expense_amount")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsFiredTotal.WithLabelValues("TARGET_PRICE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("alerts", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("alert", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitOpenGauge.WithLabelValues("market")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordMessage("help")
		m.RecordJob("digest", time.Second, nil)
		m.SetCircuitOpen("market", false)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordEvaluation("fired")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `moneybot_alert_evaluations_total{outcome="fired"} 1`)
}
