// Package alerts evaluates price alerts against live quotes and records the ones that fire.
package alerts

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"moneybot/internal/logging"
	"moneybot/internal/market"
	"moneybot/internal/metrics"
	"moneybot/internal/models"
	"moneybot/internal/notify"
	"moneybot/internal/store"
)

// Store is the persistence the trigger engine needs.
type Store interface {
	store.AlertStore
	store.NotificationStore
	store.Transactor
}

// Config configures an Engine.
type Config struct {
	Concurrency  int
	QuoteTimeout time.Duration
}

// Engine runs alert ticks.
type Engine struct {
	store    Store
	market   market.Gateway
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	concurrency  int
	quoteTimeout time.Duration
	now          func() time.Time
}

// NewEngine creates an alert trigger engine. A nil notifier disables push delivery.
func NewEngine(st Store, gw market.Gateway, n notify.Notifier, cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Engine {
	if n == nil {
		n = notify.NewNoOpNotifier()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	timeout := cfg.QuoteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Engine{
		store:        st,
		market:       gw,
		notifier:     n,
		metrics:      m,
		logger:       logger.With().Str("component", "alerts").Logger(),
		concurrency:  concurrency,
		quoteTimeout: timeout,
		now:          time.Now,
	}
}

// quoteMemo fetches each symbol at most once per tick.
type quoteMemo struct {
	group   singleflight.Group
	mu      sync.Mutex
	results map[string]quoteResult
}

type quoteResult struct {
	quote *models.Quote
	err   error
}

func (m *quoteMemo) get(ctx context.Context, symbol string, fetch func(context.Context, string) (*models.Quote, error)) (*models.Quote, error) {
	m.mu.Lock()
	if r, ok := m.results[symbol]; ok {
		m.mu.Unlock()
		return r.quote, r.err
	}
	m.mu.Unlock()

	v, _, _ := m.group.Do(symbol, func() (interface{}, error) {
		m.mu.Lock()
		if r, ok := m.results[symbol]; ok {
			m.mu.Unlock()
			return r, nil
		}
		m.mu.Unlock()

		q, err := fetch(ctx, symbol)
		r := quoteResult{quote: q, err: err}

		m.mu.Lock()
		m.results[symbol] = r
		m.mu.Unlock()
		return r, nil
	})
	r := v.(quoteResult)
	return r.quote, r.err
}

// RunTick evaluates every active alert once. Alerts are independent: a quote
// failure skips only that alert. The first persistence error is returned
// after all alerts have been attempted.
func (e *Engine) RunTick(ctx context.Context) (int, error) {
	active, err := e.store.ListActiveAlerts(ctx)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, nil
	}

	ctx = logging.WithLogger(ctx, e.logger)
	memo := &quoteMemo{results: make(map[string]quoteResult, len(active))}
	var fired atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range active {
		a := &active[i]
		g.Go(func() error {
			ok, err := e.evaluate(ctx, memo, a)
			if ok {
				fired.Add(1)
			}
			return err
		})
	}
	err = g.Wait()

	return int(fired.Load()), err
}

func (e *Engine) evaluate(ctx context.Context, memo *quoteMemo, a *models.PriceAlert) (bool, error) {
	logger := logging.WithSymbol(logging.FromContext(ctx), a.Symbol).With().Str("alert_id", a.ID).Logger()

	q, err := memo.get(ctx, a.Symbol, e.fetch)
	if err != nil {
		e.metrics.RecordEvaluation("skipped")
		logger.Warn().Err(err).Msg("Quote unavailable, skipping alert this tick")
		return false, nil
	}

	ev := Evaluate(a, q)
	if !ev.Fired {
		e.metrics.RecordEvaluation("quiet")
		return false, nil
	}

	if err := e.fire(ctx, a, q, ev); err != nil {
		e.metrics.RecordEvaluation("error")
		logger.Error().Err(err).Msg("Failed to record fired alert")
		return false, err
	}
	e.metrics.RecordEvaluation("fired")
	e.metrics.RecordFired(string(a.Type))
	logging.LogAlert(logger, a.ID, a.UserID, a.Symbol, string(a.Type), q.Price.InexactFloat64())
	return true, nil
}

func (e *Engine) fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, e.quoteTimeout)
	defer cancel()
	return e.market.Quote(ctx, symbol)
}

// fire records the notification and trigger bookkeeping atomically, then
// pushes the notification. Push failure does not undo the record.
func (e *Engine) fire(ctx context.Context, a *models.PriceAlert, q *models.Quote, ev Evaluation) error {
	now := e.now()
	title, body := BuildMessage(a, q, ev.Value)
	n := &models.Notification{
		UserID:    a.UserID,
		Kind:      models.NotificationAlert,
		Title:     title,
		Message:   body,
		AlertID:   a.ID,
		CreatedAt: now,
	}

	err := e.store.InTx(ctx, func(ctx context.Context) error {
		if err := e.store.SaveNotification(ctx, n); err != nil {
			return err
		}
		return e.store.RecordTrigger(ctx, a.ID, now)
	})
	if err != nil {
		return err
	}

	a.LastTriggered = &now
	a.TriggerCount++

	err = e.notifier.Send(ctx, *n)
	e.metrics.RecordDelivery(string(models.NotificationAlert), err)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Str("alert_id", a.ID).Str("user_id", a.UserID).Msg("Alert push failed")
	}
	return nil
}
