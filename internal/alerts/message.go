package alerts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"moneybot/internal/models"
	"moneybot/pkg/utils"
)

// BuildMessage renders the title and body of a fired alert.
func BuildMessage(a *models.PriceAlert, q *models.Quote, value decimal.Decimal) (string, string) {
	name := q.DisplayName()
	price := utils.FormatAmount(q.Price)

	switch a.Type {
	case models.AlertDailyChange:
		return fmt.Sprintf("%s daily move", a.Symbol),
			fmt.Sprintf("%s (%s) moved %s today, now at %s (threshold %s%%).",
				a.Symbol, name, utils.FormatPercent(value), price, a.Threshold.Decimal.String())
	case models.AlertProfitLoss:
		return fmt.Sprintf("%s profit/loss alert", a.Symbol),
			fmt.Sprintf("%s (%s) is %s from your reference %s, now at %s.",
				a.Symbol, name, utils.FormatPercent(value), utils.FormatAmount(a.ReferencePrice.Decimal), price)
	case models.AlertStopProfit:
		return fmt.Sprintf("%s take-profit reached", a.Symbol),
			fmt.Sprintf("%s (%s) is up %s from %s, now at %s. Consider taking profit.",
				a.Symbol, name, utils.FormatPercent(value), utils.FormatAmount(a.ReferencePrice.Decimal), price)
	case models.AlertStopLoss:
		return fmt.Sprintf("%s stop-loss reached", a.Symbol),
			fmt.Sprintf("%s (%s) is down %s from %s, now at %s. Consider cutting the position.",
				a.Symbol, name, utils.FormatPercent(value), utils.FormatAmount(a.ReferencePrice.Decimal), price)
	case models.AlertTargetPrice:
		return fmt.Sprintf("%s hit target", a.Symbol),
			fmt.Sprintf("%s (%s) reached %s (target %s).",
				a.Symbol, name, price, utils.FormatAmount(a.TargetPrice.Decimal))
	}
	return a.Symbol, a.Describe()
}
