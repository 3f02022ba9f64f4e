package conversation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/intent"
	"moneybot/internal/logging"
	"moneybot/internal/models"
	"moneybot/internal/portfolio"
	"moneybot/pkg/utils"
)

var (
	acceptWords = map[string]bool{"y": true, "yes": true, "ok": true, "是": true, "好": true}
	rejectWords = map[string]bool{"n": true, "no": true, "否": true, "不": true}
)

// handleAwaiting interprets input only as the value the current state waits for.
func (e *Engine) handleAwaiting(ctx context.Context, sess *models.Session, input string) ([]models.Message, error) {
	switch c := sess.Context.(type) {
	case models.ExpenseCategoryContext:
		return e.completeCategory(ctx, sess, models.EntryExpense, c.PendingAmount, input)
	case models.IncomeCategoryContext:
		return e.completeCategory(ctx, sess, models.EntryIncome, c.PendingAmount, input)
	case models.BuyQuantityContext:
		return e.completeBuy(ctx, sess, c.TradeQuote, input)
	case models.SellQuantityContext:
		return e.completeSell(ctx, sess, c.TradeQuote, input)
	case models.ConfirmationContext:
		return e.completeConfirmation(ctx, sess, c, input)
	case models.SelectionContext:
		return e.completeSelection(ctx, sess, c.DescribedEntry, input)
	}

	logger := logging.FromContext(ctx)
	logger.Warn().Str("state", string(sess.State)).Msg("Session has no usable context, resetting")
	return e.discard(ctx, sess)
}

// resolveCategory maps input to a category by name, 1-based index into
// options, or an accept word when a suggestion exists.
func resolveCategory(kind models.EntryKind, options []string, suggested, input string) (string, bool) {
	if acceptWords[input] && suggested != "" {
		return suggested, true
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		return "", false
	}
	return models.MatchCategory(kind, input)
}

func (e *Engine) completeCategory(ctx context.Context, sess *models.Session, kind models.EntryKind, p models.PendingAmount, input string) ([]models.Message, error) {
	category, ok := resolveCategory(kind, categoryOptions(kind, p.Suggested), p.Suggested, input)
	if !ok {
		return []models.Message{models.Text(msgPickCategory), categoryPrompt(kind, p.Amount, p.Suggested)}, nil
	}

	entry := &models.LedgerEntry{UserID: sess.UserID, Kind: kind, Amount: p.Amount, Category: category}
	err := e.finish(ctx, sess, func(ctx context.Context) error {
		return e.store.AddEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return []models.Message{models.Text(recordedText(entry))}, nil
}

func (e *Engine) completeBuy(ctx context.Context, sess *models.Session, tq models.TradeQuote, input string) ([]models.Message, error) {
	qty, ok := intent.ParseQuantity(input)
	if !ok {
		return []models.Message{models.Text(fmt.Sprintf(msgBadQuantity, "bought"))}, nil
	}

	var updated *models.Holding
	err := e.finish(ctx, sess, func(ctx context.Context) error {
		h, err := e.store.GetHolding(ctx, sess.UserID, tq.Symbol)
		if err != nil {
			return err
		}
		updated, err = portfolio.Buy(h, sess.UserID, tq.Symbol, tq.Name, qty, tq.Price)
		if err != nil {
			return err
		}
		return e.store.SaveHolding(ctx, updated)
	})
	if err != nil {
		return nil, err
	}

	total := qty.Mul(tq.Price)
	return []models.Message{models.Text(fmt.Sprintf("Bought %s %s at %s, total %s. Position: %s @ avg %s.",
		utils.FormatQuantity(qty), tq.Symbol, utils.FormatAmount(tq.Price), utils.FormatAmount(total),
		utils.FormatQuantity(updated.Quantity), utils.FormatAmount(updated.AvgPrice)))}, nil
}

func (e *Engine) completeSell(ctx context.Context, sess *models.Session, tq models.TradeQuote, input string) ([]models.Message, error) {
	qty, ok := intent.ParseQuantity(input)
	if !ok {
		return []models.Message{models.Text(fmt.Sprintf(msgBadQuantity, "sold"))}, nil
	}

	var (
		result   portfolio.SellResult
		held     decimal.Decimal
		oversell bool
	)
	err := e.finish(ctx, sess, func(ctx context.Context) error {
		h, err := e.store.GetHolding(ctx, sess.UserID, tq.Symbol)
		if err != nil {
			return err
		}
		if h != nil {
			held = h.Quantity
		}
		result, err = portfolio.Sell(h, qty, tq.Price)
		if apperrors.Is(err, apperrors.ErrInsufficientHolding) {
			oversell = true
			return err
		}
		if err != nil {
			return err
		}
		if result.Remaining == nil {
			return e.store.DeleteHolding(ctx, sess.UserID, tq.Symbol)
		}
		return e.store.SaveHolding(ctx, result.Remaining)
	})
	if oversell {
		if held.IsZero() {
			return e.abandon(ctx, sess, fmt.Sprintf("You no longer hold any %s.", tq.Symbol))
		}
		return []models.Message{models.Text(fmt.Sprintf("You only hold %s %s. How many shares did you sell?",
			utils.FormatQuantity(held), tq.Symbol))}, nil
	}
	if err != nil {
		return nil, err
	}

	remaining := "Position closed."
	if result.Remaining != nil {
		remaining = fmt.Sprintf("Remaining: %s.", utils.FormatQuantity(result.Remaining.Quantity))
	}
	return []models.Message{models.Text(fmt.Sprintf("Sold %s %s at %s, total %s. Realized P/L %s. %s",
		utils.FormatQuantity(qty), tq.Symbol, utils.FormatAmount(tq.Price), utils.FormatAmount(qty.Mul(tq.Price)),
		utils.FormatPnL(result.Realized), remaining))}, nil
}

func (e *Engine) completeConfirmation(ctx context.Context, sess *models.Session, c models.ConfirmationContext, input string) ([]models.Message, error) {
	switch {
	case acceptWords[input]:
		return e.recordDescribed(ctx, sess, c.DescribedEntry, c.Category, c.Subcategory)
	case rejectWords[input]:
		if err := e.enter(ctx, sess, models.SelectionContext{DescribedEntry: c.DescribedEntry}); err != nil {
			return nil, err
		}
		return []models.Message{selectionPrompt(c.DescribedEntry)}, nil
	}

	if category, ok := models.MatchCategory(c.Kind, input); ok {
		sub := ""
		if category == c.Category {
			sub = c.Subcategory
		}
		return e.recordDescribed(ctx, sess, c.DescribedEntry, category, sub)
	}
	return []models.Message{confirmPrompt(c)}, nil
}

func (e *Engine) completeSelection(ctx context.Context, sess *models.Session, d models.DescribedEntry, input string) ([]models.Message, error) {
	category, ok := resolveCategory(d.Kind, models.Categories(d.Kind), "", input)
	if !ok {
		return []models.Message{models.Text(msgPickCategory), selectionPrompt(d)}, nil
	}
	return e.recordDescribed(ctx, sess, d, category, "")
}

// recordDescribed writes the entry, returns to IDLE, then teaches the keyword
// store the confirmed mapping. Learning is best effort.
func (e *Engine) recordDescribed(ctx context.Context, sess *models.Session, d models.DescribedEntry, category, subcategory string) ([]models.Message, error) {
	entry := &models.LedgerEntry{
		UserID:      sess.UserID,
		Kind:        d.Kind,
		Amount:      d.Amount,
		Category:    category,
		Subcategory: subcategory,
		Note:        d.Note,
	}
	err := e.finish(ctx, sess, func(ctx context.Context) error {
		return e.store.AddEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if d.Keyword != "" {
		if err := e.store.UpsertKeyword(ctx, sess.UserID, d.Keyword, category, subcategory); err != nil {
			logger := logging.FromContext(ctx)
			logger.Warn().Err(err).Str("keyword", d.Keyword).Msg("Failed to learn keyword")
		}
	}
	return []models.Message{models.Text(recordedText(entry))}, nil
}

// abandon ends the flow without a side effect.
func (e *Engine) abandon(ctx context.Context, sess *models.Session, text string) ([]models.Message, error) {
	if err := e.finish(ctx, sess, nil); err != nil {
		return nil, err
	}
	return []models.Message{models.Text(text)}, nil
}
