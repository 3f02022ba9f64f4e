// Package conversation drives the per-user multi-turn chat flows.
package conversation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/intent"
	"moneybot/internal/logging"
	"moneybot/internal/market"
	"moneybot/internal/metrics"
	"moneybot/internal/models"
	"moneybot/internal/predict"
	"moneybot/internal/store"
)

// Store is the persistence the engine needs.
type Store interface {
	store.SessionStore
	store.KeywordStore
	store.LedgerStore
	store.PortfolioStore
	store.Transactor
}

// Config configures an Engine.
type Config struct {
	QuoteTimeout time.Duration
	WebsiteURL   string
	Location     *time.Location
}

// Engine routes inbound text through the user's session to replies and side effects.
type Engine struct {
	store     Store
	market    market.Gateway
	predictor *predict.Predictor
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	locks     *keyedMutex

	quoteTimeout time.Duration
	websiteURL   string
	loc          *time.Location
	now          func() time.Time
}

// New creates an Engine.
func New(st Store, gw market.Gateway, predictor *predict.Predictor, cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Engine {
	timeout := cfg.QuoteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		store:        st,
		market:       gw,
		predictor:    predictor,
		metrics:      m,
		logger:       logger.With().Str("component", "conversation").Logger(),
		locks:        newKeyedMutex(),
		quoteTimeout: timeout,
		websiteURL:   cfg.WebsiteURL,
		loc:          loc,
		now:          time.Now,
	}
}

// Process handles one inbound message. Messages from the same user are
// processed one at a time; different users never wait on each other.
// A returned error means session or ledger persistence failed and the
// transition must be treated as not having happened.
func (e *Engine) Process(ctx context.Context, userID, text string) ([]models.Message, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	logger := logging.WithUser(e.logger, userID)
	ctx = logging.WithLogger(ctx, logger)

	sess, err := e.store.GetSession(ctx, userID)
	if apperrors.Is(err, apperrors.ErrCorruptSession) {
		logger.Warn().Err(err).Msg("Session row unreadable, resetting to idle")
		e.metrics.RecordMessage("reset")
		return e.discard(ctx, models.NewSession(userID))
	}
	if err != nil {
		return nil, err
	}
	from := sess.State

	normalized := intent.Normalize(text)
	if intent.IsCancel(normalized) {
		e.metrics.RecordMessage("cancel")
		sess.Reset()
		if err := e.store.SetSession(ctx, sess); err != nil {
			return nil, err
		}
		if from != models.StateIdle {
			logging.LogTransition(logger, userID, string(from), string(models.StateIdle))
		}
		return []models.Message{models.Text(msgCancelled)}, nil
	}

	var msgs []models.Message
	if sess.IsIdle() {
		in := intent.Classify(text)
		logging.LogIntent(logger, userID, string(sess.State), string(in.Kind))
		e.metrics.RecordMessage(string(in.Kind))
		msgs, err = e.handleIdle(ctx, sess, in)
	} else {
		e.metrics.RecordMessage("reply")
		msgs, err = e.handleAwaiting(ctx, sess, normalized)
	}
	if err != nil {
		logger.Error().Err(err).Str("state", string(from)).Msg("Failed to process message")
		return nil, err
	}

	if sess.State != from {
		logging.LogTransition(logger, userID, string(from), string(sess.State))
	}
	return msgs, nil
}

// enter moves the session into the state owned by c and persists it.
func (e *Engine) enter(ctx context.Context, sess *models.Session, c models.SessionContext) error {
	sess.Enter(c)
	return e.store.SetSession(ctx, sess)
}

// finish runs fn and resets the session to IDLE in one transaction.
// On error the in-memory session is left as it was.
func (e *Engine) finish(ctx context.Context, sess *models.Session, fn func(ctx context.Context) error) error {
	next := *sess
	next.Reset()

	err := e.store.InTx(ctx, func(ctx context.Context) error {
		if fn != nil {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return e.store.SetSession(ctx, &next)
	})
	if err != nil {
		return err
	}

	*sess = next
	return nil
}

// discard drops a flow the engine cannot continue and replies as for a cancel.
func (e *Engine) discard(ctx context.Context, sess *models.Session) ([]models.Message, error) {
	if err := e.finish(ctx, sess, nil); err != nil {
		return nil, err
	}
	return []models.Message{models.Text(msgCancelled)}, nil
}

func (e *Engine) quote(ctx context.Context, symbol string) (*models.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, e.quoteTimeout)
	defer cancel()
	return e.market.Quote(ctx, symbol)
}
