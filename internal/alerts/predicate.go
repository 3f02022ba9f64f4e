package alerts

import (
	"github.com/shopspring/decimal"

	"moneybot/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Evaluation is the outcome of one alert against one quote.
type Evaluation struct {
	Fired bool
	// Value is the measured percentage, or the price for TARGET_PRICE.
	Value decimal.Decimal
}

// Evaluate applies the alert's predicate to q. It is pure.
func Evaluate(a *models.PriceAlert, q *models.Quote) Evaluation {
	switch a.Type {
	case models.AlertDailyChange:
		chg := q.ChangePercent
		if chg.Abs().LessThan(a.Threshold.Decimal) {
			return Evaluation{Value: chg}
		}
		switch a.Direction {
		case models.DirectionUp:
			return Evaluation{Fired: chg.IsPositive(), Value: chg}
		case models.DirectionDown:
			return Evaluation{Fired: chg.IsNegative(), Value: chg}
		}
		return Evaluation{Fired: true, Value: chg}

	case models.AlertProfitLoss:
		pct, ok := percentFrom(a, q)
		return Evaluation{Fired: ok && pct.Abs().GreaterThanOrEqual(a.Threshold.Decimal), Value: pct}

	case models.AlertStopProfit:
		pct, ok := percentFrom(a, q)
		return Evaluation{Fired: ok && pct.GreaterThanOrEqual(a.Threshold.Decimal), Value: pct}

	case models.AlertStopLoss:
		pct, ok := percentFrom(a, q)
		return Evaluation{Fired: ok && pct.LessThanOrEqual(a.Threshold.Decimal.Neg()), Value: pct}

	case models.AlertTargetPrice:
		return Evaluation{Fired: q.Price.GreaterThanOrEqual(a.TargetPrice.Decimal), Value: q.Price}
	}
	return Evaluation{}
}

// percentFrom returns (p-ref)/ref*100. A missing or non-positive reference never fires.
func percentFrom(a *models.PriceAlert, q *models.Quote) (decimal.Decimal, bool) {
	ref := a.ReferencePrice.Decimal
	if !a.ReferencePrice.Valid || !ref.IsPositive() {
		return decimal.Zero, false
	}
	return q.Price.Sub(ref).Div(ref).Mul(hundred), true
}
