// Package portfolio holds the position arithmetic for buys, sells and valuation.
package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/models"
)

// Buy adds qty shares at price to h and returns the new position. A nil h
// opens a position at price. The average cost is the quantity-weighted mean.
func Buy(h *models.Holding, userID, symbol, name string, qty, price decimal.Decimal) (*models.Holding, error) {
	if !qty.IsPositive() {
		return nil, apperrors.NewValidationError("quantity", qty.String(), "quantity must be positive")
	}

	if h == nil || !h.Quantity.IsPositive() {
		return &models.Holding{
			UserID:   userID,
			Symbol:   symbol,
			Name:     name,
			Quantity: qty,
			AvgPrice: price,
		}, nil
	}

	total := h.Quantity.Add(qty)
	cost := h.Quantity.Mul(h.AvgPrice).Add(qty.Mul(price))

	out := *h
	out.Quantity = total
	out.AvgPrice = cost.Div(total)
	if name != "" {
		out.Name = name
	}
	return &out, nil
}

// SellResult describes a completed sale.
type SellResult struct {
	// Remaining is nil when the position was closed.
	Remaining *models.Holding
	Realized  decimal.Decimal
}

// Sell removes qty shares from h at price. Selling more than held is a
// validation error wrapping ErrInsufficientHolding and leaves h untouched.
func Sell(h *models.Holding, qty, price decimal.Decimal) (SellResult, error) {
	if !qty.IsPositive() {
		return SellResult{}, apperrors.NewValidationError("quantity", qty.String(), "quantity must be positive")
	}

	held := decimal.Zero
	if h != nil {
		held = h.Quantity
	}
	if qty.GreaterThan(held) {
		ve := apperrors.NewValidationError("quantity", qty.String(), "only "+held.String()+" available")
		ve.Err = apperrors.ErrInsufficientHolding
		return SellResult{}, ve
	}

	realized := price.Sub(h.AvgPrice).Mul(qty)
	remaining := held.Sub(qty)
	if remaining.IsZero() {
		return SellResult{Realized: realized}, nil
	}

	out := *h
	out.Quantity = remaining
	return SellResult{Remaining: &out, Realized: realized}, nil
}

// Position is a holding valued at a live price.
type Position struct {
	models.Holding
	// Price is zero when no quote was available.
	Price decimal.Decimal
	Value decimal.Decimal
	PnL   decimal.Decimal
}

// Valuation summarizes a user's holdings.
type Valuation struct {
	Positions []Position
	Cost      decimal.Decimal
	Value     decimal.Decimal
	PnL       decimal.Decimal
	// Missing counts positions valued at cost because no quote was available.
	Missing int
	AsOf    time.Time
}

// Value prices holdings using quotes keyed by symbol. Positions without a
// quote are carried at cost.
func Value(holdings []models.Holding, quotes map[string]*models.Quote, now time.Time) Valuation {
	v := Valuation{AsOf: now}
	for _, h := range holdings {
		p := Position{Holding: h}
		cost := h.CostBasis()

		if q, ok := quotes[h.Symbol]; ok && q != nil {
			p.Price = q.Price
			p.Value = h.Quantity.Mul(q.Price)
			p.PnL = h.UnrealizedPnL(q.Price)
		} else {
			p.Value = cost
			v.Missing++
		}

		v.Cost = v.Cost.Add(cost)
		v.Value = v.Value.Add(p.Value)
		v.PnL = v.PnL.Add(p.PnL)
		v.Positions = append(v.Positions, p)
	}
	return v
}
