package conversation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"moneybot/internal/logging"
	"moneybot/internal/models"
	"moneybot/pkg/utils"
)

// handleIdle dispatches purely on the classified intent.
func (e *Engine) handleIdle(ctx context.Context, sess *models.Session, in models.Intent) ([]models.Message, error) {
	switch in.Kind {
	case models.IntentExpenseAmount, models.IntentIncomeAmount:
		return e.startCategoryPrompt(ctx, sess, in.EntryKind, in.Amount)

	case models.IntentExpenseCategoryLabel, models.IntentIncomeCategoryLabel:
		entry := &models.LedgerEntry{
			UserID:   sess.UserID,
			Kind:     in.EntryKind,
			Amount:   in.Amount,
			Category: in.Category,
		}
		if err := e.store.AddEntry(ctx, entry); err != nil {
			return nil, err
		}
		return []models.Message{models.Text(recordedText(entry))}, nil

	case models.IntentDescribedAmount:
		return e.startDescribedEntry(ctx, sess, in)

	case models.IntentStockQuery:
		q, err := e.quote(ctx, in.Symbol)
		if err != nil {
			logger := logging.FromContext(ctx)
			logger.Warn().Err(err).Str("symbol", in.Symbol).Msg("Quote unavailable")
			return []models.Message{models.Text(fmt.Sprintf(msgQuoteUnavailable, in.Symbol))}, nil
		}
		return []models.Message{models.Text(quoteText(q))}, nil

	case models.IntentBuyAction:
		return e.startBuy(ctx, sess, in.Symbol)

	case models.IntentSellAction:
		return e.startSell(ctx, sess, in.Symbol)

	case models.IntentHelp:
		return []models.Message{models.Text(helpText)}, nil

	case models.IntentPortfolioQuery:
		return e.portfolioReply(ctx, sess.UserID)

	case models.IntentWebsiteLink:
		if e.websiteURL == "" {
			return []models.Message{models.Text(msgNoWebsite)}, nil
		}
		return []models.Message{models.Text("Open your dashboard: " + e.websiteURL)}, nil
	}

	return []models.Message{models.Text(msgUnrecognized)}, nil
}

func (e *Engine) startCategoryPrompt(ctx context.Context, sess *models.Session, kind models.EntryKind, amount decimal.Decimal) ([]models.Message, error) {
	pred := e.predictor.PredictAmount(ctx, sess.UserID, kind, amount, e.now())
	e.metrics.RecordPrediction(pred.Source, string(pred.Confidence))

	pending := models.PendingAmount{Amount: amount, Suggested: pred.Category}
	var c models.SessionContext = models.ExpenseCategoryContext{PendingAmount: pending}
	if kind == models.EntryIncome {
		c = models.IncomeCategoryContext{PendingAmount: pending}
	}
	if err := e.enter(ctx, sess, c); err != nil {
		return nil, err
	}

	return []models.Message{categoryPrompt(kind, amount, pred.Category)}, nil
}

func (e *Engine) startDescribedEntry(ctx context.Context, sess *models.Session, in models.Intent) ([]models.Message, error) {
	pred := e.predictor.PredictText(ctx, sess.UserID, in.EntryKind, in.Text)
	e.metrics.RecordPrediction(pred.Source, string(pred.Confidence))

	described := models.DescribedEntry{
		Kind:    in.EntryKind,
		Amount:  in.Amount,
		Note:    in.Text,
		Keyword: in.Text,
	}

	if !pred.Confidence.NeedsConfirmation() {
		entry := &models.LedgerEntry{
			UserID:      sess.UserID,
			Kind:        in.EntryKind,
			Amount:      in.Amount,
			Category:    pred.Category,
			Subcategory: pred.Subcategory,
			Note:        in.Text,
		}
		if err := e.store.AddEntry(ctx, entry); err != nil {
			return nil, err
		}
		return []models.Message{models.Text(recordedText(entry))}, nil
	}

	if pred.Confidence == models.ConfidenceMedium {
		c := models.ConfirmationContext{
			DescribedEntry: described,
			Category:       pred.Category,
			Subcategory:    pred.Subcategory,
			Confidence:     pred.Confidence,
		}
		if err := e.enter(ctx, sess, c); err != nil {
			return nil, err
		}
		return []models.Message{confirmPrompt(c)}, nil
	}

	if err := e.enter(ctx, sess, models.SelectionContext{DescribedEntry: described}); err != nil {
		return nil, err
	}
	return []models.Message{selectionPrompt(described)}, nil
}

func (e *Engine) startBuy(ctx context.Context, sess *models.Session, symbol string) ([]models.Message, error) {
	q, err := e.quote(ctx, symbol)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable, buy not started")
		return []models.Message{models.Text(fmt.Sprintf(msgQuoteUnavailable, symbol))}, nil
	}

	c := models.BuyQuantityContext{TradeQuote: models.TradeQuote{Symbol: symbol, Name: q.DisplayName(), Price: q.Price}}
	if err := e.enter(ctx, sess, c); err != nil {
		return nil, err
	}

	return []models.Message{models.Text(fmt.Sprintf("%s (%s) is at %s. How many shares did you buy?",
		symbol, q.DisplayName(), utils.FormatAmount(q.Price)))}, nil
}

func (e *Engine) startSell(ctx context.Context, sess *models.Session, symbol string) ([]models.Message, error) {
	h, err := e.store.GetHolding(ctx, sess.UserID, symbol)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return []models.Message{models.Text(fmt.Sprintf("You don't hold any %s.", symbol))}, nil
	}

	q, err := e.quote(ctx, symbol)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable, sell not started")
		return []models.Message{models.Text(fmt.Sprintf(msgQuoteUnavailable, symbol))}, nil
	}

	name := h.Name
	if name == "" {
		name = q.DisplayName()
	}
	c := models.SellQuantityContext{TradeQuote: models.TradeQuote{Symbol: symbol, Name: name, Price: q.Price}}
	if err := e.enter(ctx, sess, c); err != nil {
		return nil, err
	}

	return []models.Message{models.Text(fmt.Sprintf("You hold %s %s at avg %s. Current price %s. How many shares did you sell?",
		utils.FormatQuantity(h.Quantity), symbol, utils.FormatAmount(h.AvgPrice), utils.FormatAmount(q.Price)))}, nil
}

// portfolioReply values holdings at live prices. Symbols without a quote are
// shown at cost.
func (e *Engine) portfolioReply(ctx context.Context, userID string) ([]models.Message, error) {
	holdings, err := e.store.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return []models.Message{models.Text(msgEmptyPortfolio)}, nil
	}

	quotes := make(map[string]*models.Quote, len(holdings))
	for _, h := range holdings {
		q, err := e.quote(ctx, h.Symbol)
		if err != nil {
			logger := logging.FromContext(ctx)
			logger.Warn().Err(err).Str("symbol", h.Symbol).Msg("Quote unavailable for portfolio")
			continue
		}
		quotes[h.Symbol] = q
	}

	return []models.Message{models.Text(portfolioText(holdings, quotes, e.now()))}, nil
}
