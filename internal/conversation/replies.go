package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneybot/internal/models"
	"moneybot/internal/portfolio"
	"moneybot/pkg/utils"
)

const (
	msgCancelled        = "Cancelled. What would you like to do next?"
	msgUnrecognized     = "Sorry, I did not understand that. Send \"help\" to see what I can do."
	msgQuoteUnavailable = "Could not fetch a quote for %s right now. Please try again later."
	msgNoWebsite        = "The dashboard is not available yet."
	msgEmptyPortfolio   = "You don't hold any stocks yet. Try \"buy TSLA\"."
	msgPickCategory     = "Please reply with a category name or its number."
	msgBadQuantity      = "Please reply with the number of shares you %s, or \"cancel\"."
)

const helpText = `Here's what I understand:
  -120            record an expense of 120
  +5000           record income of 5000
  food 35         record an expense in a category
  -35 lunch       record an expense and guess its category
  TSLA            get a stock quote
  buy TSLA        record a purchase
  sell TSLA       record a sale
  portfolio       show your holdings
  website         open your dashboard
  cancel          abandon the current step`

// categoryOptions lists the categories for kind with the suggestion first.
func categoryOptions(kind models.EntryKind, suggested string) []string {
	all := models.Categories(kind)
	if suggested == "" {
		return all
	}
	out := make([]string, 0, len(all))
	out = append(out, suggested)
	for _, c := range all {
		if c != suggested {
			out = append(out, c)
		}
	}
	return out
}

func numbered(options []string) string {
	var b strings.Builder
	for i, o := range options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, o)
	}
	return b.String()
}

func categoryPrompt(kind models.EntryKind, amount decimal.Decimal, suggested string) models.Message {
	options := categoryOptions(kind, suggested)
	text := fmt.Sprintf("Which category is this %s of %s?", kind, utils.FormatAmount(amount))
	if suggested != "" {
		text += fmt.Sprintf(" Reply \"y\" for %s.", suggested)
	}
	return models.Message{Text: text + numbered(options), Options: options}
}

func confirmPrompt(c models.ConfirmationContext) models.Message {
	label := c.Category
	if c.Subcategory != "" {
		label += "/" + c.Subcategory
	}
	return models.Message{
		Text: fmt.Sprintf("Record %s %s for %q as %s? Reply \"y\" or \"n\".",
			c.Kind, utils.FormatAmount(c.Amount), c.Note, label),
		Options: []string{"y", "n"},
	}
}

func selectionPrompt(d models.DescribedEntry) models.Message {
	options := models.Categories(d.Kind)
	return models.Message{
		Text:    fmt.Sprintf("Which category is %q (%s)?", d.Note, utils.FormatAmount(d.Amount)) + numbered(options),
		Options: options,
	}
}

func recordedText(e *models.LedgerEntry) string {
	label := e.Category
	if e.Subcategory != "" {
		label += "/" + e.Subcategory
	}
	return fmt.Sprintf("Recorded %s of %s under %s.", e.Kind, utils.FormatAmount(e.Amount), label)
}

func quoteText(q *models.Quote) string {
	return fmt.Sprintf("%s (%s): %s (%s)", q.Symbol, q.DisplayName(),
		utils.FormatAmount(q.Price), utils.FormatPercent(q.ChangePercent))
}

func portfolioText(holdings []models.Holding, quotes map[string]*models.Quote, now time.Time) string {
	v := portfolio.Value(holdings, quotes, now)

	var b strings.Builder
	b.WriteString("Your portfolio:")
	for _, p := range v.Positions {
		if p.Price.IsZero() {
			fmt.Fprintf(&b, "\n%s  %s @ %s  (no quote)", p.Symbol,
				utils.FormatQuantity(p.Quantity), utils.FormatAmount(p.AvgPrice))
			continue
		}
		fmt.Fprintf(&b, "\n%s  %s @ %s  last %s  P/L %s", p.Symbol,
			utils.FormatQuantity(p.Quantity), utils.FormatAmount(p.AvgPrice),
			utils.FormatAmount(p.Price), utils.FormatPnL(p.PnL))
	}
	fmt.Fprintf(&b, "\nCost %s  Value %s  P/L %s", utils.FormatGrouped(v.Cost),
		utils.FormatGrouped(v.Value), utils.FormatPnL(v.PnL))
	return b.String()
}
