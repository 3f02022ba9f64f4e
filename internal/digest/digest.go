// Package digest builds the end-of-day summary sent to each active user.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/market"
	"moneybot/internal/metrics"
	"moneybot/internal/models"
	"moneybot/internal/notify"
	"moneybot/internal/portfolio"
	"moneybot/internal/store"
	"moneybot/pkg/utils"
)

// Store is the persistence the digest needs.
type Store interface {
	store.LedgerStore
	store.PortfolioStore
	store.NotificationStore
}

// Config configures a Job.
type Config struct {
	Location     *time.Location
	QuoteTimeout time.Duration
}

// Job sends one digest per user with holdings or ledger activity today.
type Job struct {
	store    Store
	market   market.Gateway
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	loc          *time.Location
	quoteTimeout time.Duration
	now          func() time.Time
}

// NewJob creates a digest Job.
func NewJob(st Store, gw market.Gateway, n notify.Notifier, cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Job {
	if n == nil {
		n = notify.NewNoOpNotifier()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := cfg.QuoteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Job{
		store:        st,
		market:       gw,
		notifier:     n,
		metrics:      m,
		logger:       logger.With().Str("component", "digest").Logger(),
		loc:          loc,
		quoteTimeout: timeout,
		now:          time.Now,
	}
}

// Summary is one user's day.
type Summary struct {
	UserID    string
	Day       time.Time
	Income    decimal.Decimal
	Expense   decimal.Decimal
	Entries   int
	Valuation *portfolio.Valuation
}

// Run sends today's digest and returns how many users received one.
// A failure for one user does not stop the others.
func (j *Job) Run(ctx context.Context) (int, error) {
	now := j.now().In(j.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc)
	to := from.AddDate(0, 0, 1)

	users, err := j.recipients(ctx, from, to)
	if err != nil {
		return 0, err
	}

	quotes := make(map[string]*models.Quote)
	var (
		sent int
		errs []error
	)
	for _, userID := range users {
		s, err := j.summarize(ctx, userID, from, to, quotes)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := j.deliver(ctx, s); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, apperrors.Join(errs...)
}

func (j *Job) recipients(ctx context.Context, from, to time.Time) ([]string, error) {
	holders, err := j.store.ListHolders(ctx)
	if err != nil {
		return nil, err
	}
	active, err := j.store.LedgerUsersBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(holders)+len(active))
	var users []string
	for _, u := range append(holders, active...) {
		if !seen[u] {
			seen[u] = true
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users, nil
}

// summarize totals the day's entries and values holdings. Quotes are shared
// across users in one run; a missing quote values the position at cost.
func (j *Job) summarize(ctx context.Context, userID string, from, to time.Time, quotes map[string]*models.Quote) (*Summary, error) {
	s := &Summary{UserID: userID, Day: from}

	entries, err := j.store.EntriesBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Kind == models.EntryIncome {
			s.Income = s.Income.Add(e.Amount)
		} else {
			s.Expense = s.Expense.Add(e.Amount)
		}
	}
	s.Entries = len(entries)

	holdings, err := j.store.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) > 0 {
		for _, h := range holdings {
			if _, ok := quotes[h.Symbol]; ok {
				continue
			}
			q, err := j.quote(ctx, h.Symbol)
			if err != nil {
				j.logger.Warn().Err(err).Str("symbol", h.Symbol).Msg("Quote unavailable for digest")
			}
			quotes[h.Symbol] = q
		}
		v := portfolio.Value(holdings, quotes, j.now())
		s.Valuation = &v
	}
	return s, nil
}

func (j *Job) quote(ctx context.Context, symbol string) (*models.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, j.quoteTimeout)
	defer cancel()
	return j.market.Quote(ctx, symbol)
}

func (j *Job) deliver(ctx context.Context, s *Summary) error {
	n := &models.Notification{
		UserID:    s.UserID,
		Kind:      models.NotificationDigest,
		Title:     "Daily summary " + s.Day.Format("2006-01-02"),
		Message:   Render(s),
		CreatedAt: j.now(),
	}
	if err := j.store.SaveNotification(ctx, n); err != nil {
		return err
	}

	err := j.notifier.Send(ctx, *n)
	j.metrics.RecordDelivery(string(models.NotificationDigest), err)
	if err != nil {
		j.logger.Warn().Err(err).Str("user_id", s.UserID).Msg("Digest push failed")
	}
	return nil
}

// Render formats a summary as message text.
func Render(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today (%s)", s.Day.Format("Mon 2 Jan"))
	if s.Entries == 0 {
		b.WriteString("\nNo income or expenses recorded.")
	} else {
		fmt.Fprintf(&b, "\nIncome %s  Expense %s  Net %s",
			utils.FormatGrouped(s.Income), utils.FormatGrouped(s.Expense), utils.FormatPnL(s.Income.Sub(s.Expense)))
	}

	if v := s.Valuation; v != nil {
		fmt.Fprintf(&b, "\nPortfolio value %s  Cost %s  P/L %s",
			utils.FormatGrouped(v.Value), utils.FormatGrouped(v.Cost), utils.FormatPnL(v.PnL))
		if v.Missing > 0 {
			fmt.Fprintf(&b, " (%d without a quote, valued at cost)", v.Missing)
		}
	}
	return b.String()
}
