package resilience

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moneybot/internal/errors"
)

func TestCircuitBreaker_OpensAfterThresholdAndRecovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var transitions []CircuitState

	cb := NewCircuitBreaker("quotes", CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Cooldown:         time.Minute,
		OnStateChange:    func(_ string, s CircuitState) { transitions = append(transitions, s) },
	})
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	fail := func(ctx context.Context) error { return boom }
	ok := func(ctx context.Context) error { return nil }

	ctx := context.Background()
	assert.ErrorIs(t, cb.Execute(ctx, fail), boom)
	assert.ErrorIs(t, cb.Execute(ctx, fail), boom)
	assert.Equal(t, CircuitOpen, cb.State())

	calls := 0
	err := cb.Execute(ctx, func(ctx context.Context) error { calls++; return nil })
	assert.ErrorIs(t, err, apperrors.ErrCircuitOpen)
	assert.Zero(t, calls)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, []CircuitState{CircuitOpen, CircuitHalfOpen, CircuitClosed}, transitions)

	requests, rejected := cb.Stats()
	assert.Equal(t, int64(4), requests)
	assert.Equal(t, int64(1), rejected)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker("quotes", CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return boom })
	require.Equal(t, CircuitOpen, cb.State())

	now = now.Add(2 * time.Second)
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return boom })
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestHealthMonitor_AggregatesWorstStatus(t *testing.T) {
	m := NewHealthMonitor(time.Second)
	m.RegisterComponent("database", DatabaseHealthCheck(func(ctx context.Context) error { return nil }))

	cb := NewCircuitBreaker("quotes", CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Hour})
	m.RegisterComponent("market", CircuitHealthCheck(cb))

	assert.Equal(t, HealthStatusHealthy, m.Check(context.Background()).Status)

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("down") })
	assert.Equal(t, HealthStatusDegraded, m.Check(context.Background()).Status)

	m.RegisterComponent("database", DatabaseHealthCheck(func(ctx context.Context) error { return errors.New("locked") }))
	rec := httptest.NewRecorder()
	m.HealthHTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "locked")
}
