package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/models"
	"moneybot/internal/resilience"
	"moneybot/pkg/utils"
)

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "TSLA", NormalizeSymbol(" tsla "))
	assert.Equal(t, "INFY", NormalizeSymbol("NSE:INFY"))
}

func TestKiteGateway_Instrument(t *testing.T) {
	k := NewKiteGateway(KiteConfig{APIKey: "key", Exchange: "bse"})
	assert.Equal(t, "BSE:INFY", k.instrument("infy"))
	assert.Equal(t, "NSE:TCS", k.instrument("NSE:TCS"))
}

func TestStaticGateway_Quote(t *testing.T) {
	g := NewStaticGateway()
	g.SetQuote("tsla", "Tesla", decimal.RequireFromString("105"), decimal.RequireFromString("100"))

	q, err := g.Quote(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "Tesla", q.DisplayName())
	assert.True(t, q.ChangePercent.Equal(decimal.NewFromInt(5)))

	_, err = g.Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	assert.True(t, apperrors.IsCollaborator(err))

	g.Fail("TSLA", apperrors.ErrQuoteUnavailable)
	_, err = g.Quote(context.Background(), "TSLA")
	assert.ErrorIs(t, err, apperrors.ErrQuoteUnavailable)
	assert.Equal(t, 3, g.Calls("tsla"))
}

type slowGateway struct{}

func (slowGateway) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGuarded_TimesOut(t *testing.T) {
	g := NewGuarded(slowGateway{}, GuardConfig{
		Timeout: 20 * time.Millisecond,
		Retry:   utils.RetryConfig{MaxAttempts: 1},
		Breaker: resilience.DefaultCircuitBreakerConfig(),
	}, zerolog.Nop())

	start := time.Now()
	_, err := g.Quote(context.Background(), "TSLA")
	require.Error(t, err)
	assert.True(t, apperrors.IsCollaborator(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuarded_OpensBreakerAndStopsCalling(t *testing.T) {
	inner := NewStaticGateway()
	inner.Fail("TSLA", errors.New("502 bad gateway"))

	g := NewGuarded(inner, GuardConfig{
		Timeout: time.Second,
		Retry:   utils.RetryConfig{MaxAttempts: 1},
		Breaker: resilience.CircuitBreakerConfig{FailureThreshold: 2, Cooldown: time.Hour},
	}, zerolog.Nop())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := g.Quote(ctx, "TSLA")
		require.Error(t, err)
	}
	assert.Equal(t, resilience.CircuitOpen, g.Breaker().State())

	_, err := g.Quote(ctx, "TSLA")
	assert.ErrorIs(t, err, apperrors.ErrCircuitOpen)
	assert.True(t, apperrors.IsCollaborator(err))
	assert.Equal(t, 2, inner.Calls("TSLA"))
}

func TestGuarded_RetriesTransientFailures(t *testing.T) {
	inner := &flakyGateway{failures: 2, quote: models.Quote{Symbol: "TSLA", Price: decimal.NewFromInt(250)}}

	g := NewGuarded(inner, GuardConfig{
		Timeout: time.Second,
		Retry:   utils.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1},
		Breaker: resilience.DefaultCircuitBreakerConfig(),
	}, zerolog.Nop())

	q, err := g.Quote(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "250", q.Price.String())
	assert.Equal(t, 3, inner.calls)
}

type flakyGateway struct {
	failures int
	calls    int
	quote    models.Quote
}

func (f *flakyGateway) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	q := f.quote
	return &q, nil
}
