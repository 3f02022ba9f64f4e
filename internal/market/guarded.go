package market

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/models"
	"moneybot/internal/resilience"
	"moneybot/pkg/utils"
)

// GuardConfig configures the protection around a gateway.
type GuardConfig struct {
	Timeout time.Duration
	Retry   utils.RetryConfig
	Breaker resilience.CircuitBreakerConfig
}

// Guarded wraps a Gateway with a per-call timeout, retries and a circuit breaker.
type Guarded struct {
	inner   Gateway
	timeout time.Duration
	retry   utils.RetryConfig
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// NewGuarded wraps inner.
func NewGuarded(inner Gateway, cfg GuardConfig, logger zerolog.Logger) *Guarded {
	retry := cfg.Retry
	if retry.Retryable == nil {
		// Unknown symbols and an open breaker will not get better by retrying.
		retry.Retryable = func(err error) bool {
			return !apperrors.Is(err, apperrors.ErrSymbolNotFound) && !apperrors.Is(err, apperrors.ErrCircuitOpen)
		}
	}

	return &Guarded{
		inner:   inner,
		timeout: cfg.Timeout,
		retry:   retry,
		breaker: resilience.NewCircuitBreaker("market", cfg.Breaker),
		logger:  logger.With().Str("component", "market").Logger(),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (g *Guarded) Breaker() *resilience.CircuitBreaker {
	return g.breaker
}

// Quote implements Gateway.
func (g *Guarded) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	q, err := utils.RetryWithResult(ctx, g.retry, func(ctx context.Context) (*models.Quote, error) {
		return resilience.ExecuteWithResult(g.breaker, ctx, func(ctx context.Context) (*models.Quote, error) {
			return g.inner.Quote(ctx, symbol)
		})
	})

	if err != nil {
		g.logger.Debug().Err(err).Str("symbol", symbol).Dur("duration", time.Since(start)).Msg("Quote failed")
		if apperrors.IsCollaborator(err) {
			return nil, err
		}
		return nil, apperrors.NewCollaboratorError("market", "quote", err)
	}
	return q, nil
}
