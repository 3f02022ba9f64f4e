package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"moneybot/internal/alerts"
	"moneybot/internal/config"
	"moneybot/internal/conversation"
	"moneybot/internal/digest"
	"moneybot/internal/market"
	"moneybot/internal/metrics"
	"moneybot/internal/notify"
	"moneybot/internal/predict"
	"moneybot/internal/resilience"
	"moneybot/internal/store"
	"moneybot/pkg/utils"
)

// App holds the application dependencies. Collaborators are opened on first use.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	store    *store.SQLiteStore
	gateway  market.Gateway
	breaker  *resilience.CircuitBreaker
	notifier *notify.MultiNotifier
}

// Store opens the SQLite store.
func (a *App) Store() (*store.SQLiteStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.NewSQLiteStore(a.Config.Storage.Path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", a.Config.Storage.Path).Msg("SQLite store initialized")
	a.store = st
	return st, nil
}

// Gateway returns the quote gateway selected by market.provider.
func (a *App) Gateway() market.Gateway {
	if a.gateway != nil {
		return a.gateway
	}

	cfg := a.Config.Market
	if cfg.Provider == "static" {
		a.Logger.Warn().Msg("Using static quote provider, no live prices")
		a.gateway = market.NewStaticGateway()
		return a.gateway
	}

	kite := market.NewKiteGateway(market.KiteConfig{
		APIKey:      a.Config.Credentials.Kite.APIKey,
		AccessToken: a.Config.Credentials.Kite.AccessToken,
		Exchange:    cfg.Exchange,
		Timeout:     a.Config.Engine.QuoteTimeout,
		Logger:      a.Logger,
	})
	guarded := market.NewGuarded(kite, market.GuardConfig{
		Timeout: a.Config.Engine.QuoteTimeout,
		Retry: utils.RetryConfig{
			MaxAttempts:   cfg.Retries + 1,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2,
		},
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			SuccessThreshold: 1,
			Cooldown:         cfg.Cooldown,
			OnStateChange: func(name string, state resilience.CircuitState) {
				a.Metrics.SetCircuitOpen(name, state == resilience.CircuitOpen)
				a.Logger.Warn().Str("breaker", name).Str("state", string(state)).Msg("Circuit breaker state changed")
			},
		},
	}, a.Logger)

	a.breaker = guarded.Breaker()
	a.gateway = guarded
	return a.gateway
}

// Notifier returns the push delivery fan-out.
func (a *App) Notifier() *notify.MultiNotifier {
	if a.notifier == nil {
		a.notifier = notify.NewMultiNotifier(&a.Config.Notifications, a.Config.Credentials.Telegram)
	}
	return a.notifier
}

// Conversation builds the chat engine.
func (a *App) Conversation() (*conversation.Engine, error) {
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	p := predict.New(st, st, predict.Config{
		HistoryWindow: a.Config.Engine.HistoryWindow,
		Location:      a.Config.Location(),
	}, a.Logger)

	return conversation.New(st, a.Gateway(), p, conversation.Config{
		QuoteTimeout: a.Config.Engine.QuoteTimeout,
		WebsiteURL:   a.Config.Engine.WebsiteURL,
		Location:     a.Config.Location(),
	}, a.Metrics, a.Logger), nil
}

// AlertEngine builds the alert trigger engine.
func (a *App) AlertEngine() (*alerts.Engine, error) {
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	return alerts.NewEngine(st, a.Gateway(), a.Notifier(), alerts.Config{
		Concurrency:  a.Config.Alerts.Concurrency,
		QuoteTimeout: a.Config.Engine.QuoteTimeout,
	}, a.Metrics, a.Logger), nil
}

// AlertService builds the alert management service.
func (a *App) AlertService() (*alerts.Service, error) {
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	return alerts.NewService(st, alerts.Defaults{
		DailyChange: decimal.NewFromFloat(a.Config.Alerts.DefaultDailyChange),
		StopProfit:  decimal.NewFromFloat(a.Config.Alerts.DefaultStopProfit),
		StopLoss:    decimal.NewFromFloat(a.Config.Alerts.DefaultStopLoss),
	}, a.Logger), nil
}

// DigestJob builds the daily digest job.
func (a *App) DigestJob() (*digest.Job, error) {
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	return digest.NewJob(st, a.Gateway(), a.Notifier(), digest.Config{
		Location:     a.Config.Location(),
		QuoteTimeout: a.Config.Engine.QuoteTimeout,
	}, a.Metrics, a.Logger), nil
}

// Health builds the health monitor over the store and the quote breaker.
func (a *App) Health() (*resilience.HealthMonitor, error) {
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	a.Gateway()

	hm := resilience.NewHealthMonitor(3 * time.Second)
	hm.RegisterComponent("database", resilience.DatabaseHealthCheck(st.Ping))
	if a.breaker != nil {
		hm.RegisterComponent("market", resilience.CircuitHealthCheck(a.breaker))
	}
	return hm, nil
}

// Close releases opened collaborators.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
