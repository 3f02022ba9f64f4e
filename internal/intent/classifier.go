package intent

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"moneybot/internal/models"
)

var (
	amountPattern   = regexp.MustCompile(`^([+-])?(\d+(?:\.\d+)?)$`)
	symbolPattern   = regexp.MustCompile(`^[a-z][a-z0-9]{0,4}$`)
	tradeSymbol     = regexp.MustCompile(`^[a-z0-9][a-z0-9&.-]{0,19}$`)
	quantityPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

var (
	helpWords      = map[string]bool{"help": true, "/help": true, "?": true, "/start": true, "menu": true, "帮助": true}
	portfolioWords = map[string]bool{"portfolio": true, "/portfolio": true, "holdings": true, "pf": true, "持仓": true}
	websiteWords   = map[string]bool{"website": true, "/website": true, "web": true, "site": true, "网站": true}
	buyWords       = map[string]bool{"buy": true, "买": true, "买入": true}
	sellWords      = map[string]bool{"sell": true, "卖": true, "卖出": true}
)

// reserved words never classify as a stock symbol.
var reserved = map[string]bool{
	"cancel": true, "buy": true, "sell": true,
	"yes": true, "y": true, "ok": true, "no": true, "n": true,
}

func init() {
	for _, set := range []map[string]bool{helpWords, portfolioWords, websiteWords} {
		for w := range set {
			reserved[w] = true
		}
	}
	for _, kind := range []models.EntryKind{models.EntryExpense, models.EntryIncome} {
		for _, c := range models.Categories(kind) {
			reserved[strings.ToLower(c)] = true
		}
	}
}

// rule is one grammar production. It receives normalized text and its fields.
type rule struct {
	name  string
	match func(text string, fields []string) (models.Intent, bool)
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{"amount", matchAmount},
	{"symbol", matchSymbol},
	{"trade", matchTrade},
	{"category_label", matchCategoryLabel},
	{"described_amount", matchDescribedAmount},
	{"fixed", matchFixed},
}

// Classify maps raw message text to an intent. It never fails; text matching
// no rule is IntentUnrecognized.
func Classify(text string) models.Intent {
	normalized := Normalize(text)
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return models.Intent{Kind: models.IntentUnrecognized}
	}

	for _, r := range rules {
		if in, ok := r.match(normalized, fields); ok {
			return in
		}
	}
	return models.Intent{Kind: models.IntentUnrecognized, Text: normalized}
}

// ParseAmount parses an optionally signed positive amount. "+" means income;
// no sign or "-" means expense.
func ParseAmount(s string) (decimal.Decimal, models.EntryKind, bool) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return decimal.Decimal{}, "", false
	}
	amount, err := decimal.NewFromString(m[2])
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, "", false
	}
	if m[1] == "+" {
		return amount, models.EntryIncome, true
	}
	return amount, models.EntryExpense, true
}

// ParseQuantity parses a positive share quantity.
func ParseQuantity(s string) (decimal.Decimal, bool) {
	s = Normalize(s)
	if !quantityPattern.MatchString(s) {
		return decimal.Decimal{}, false
	}
	q, err := decimal.NewFromString(s)
	if err != nil || !q.IsPositive() {
		return decimal.Decimal{}, false
	}
	return q, true
}

func matchAmount(text string, fields []string) (models.Intent, bool) {
	if len(fields) != 1 {
		return models.Intent{}, false
	}
	amount, kind, ok := ParseAmount(fields[0])
	if !ok {
		return models.Intent{}, false
	}
	if kind == models.EntryIncome {
		return models.Intent{Kind: models.IntentIncomeAmount, Amount: amount, EntryKind: kind}, true
	}
	return models.Intent{Kind: models.IntentExpenseAmount, Amount: amount, EntryKind: kind}, true
}

func matchSymbol(text string, fields []string) (models.Intent, bool) {
	if len(fields) != 1 || !symbolPattern.MatchString(fields[0]) || reserved[fields[0]] {
		return models.Intent{}, false
	}
	return models.Intent{Kind: models.IntentStockQuery, Symbol: strings.ToUpper(fields[0])}, true
}

func matchTrade(text string, fields []string) (models.Intent, bool) {
	if len(fields) != 2 || !tradeSymbol.MatchString(fields[1]) {
		return models.Intent{}, false
	}
	symbol := strings.ToUpper(fields[1])
	switch {
	case buyWords[fields[0]]:
		return models.Intent{Kind: models.IntentBuyAction, Symbol: symbol}, true
	case sellWords[fields[0]]:
		return models.Intent{Kind: models.IntentSellAction, Symbol: symbol}, true
	}
	return models.Intent{}, false
}

func matchCategoryLabel(text string, fields []string) (models.Intent, bool) {
	if len(fields) != 2 {
		return models.Intent{}, false
	}

	label, amountText := fields[0], fields[1]
	amount, kind, ok := ParseAmount(amountText)
	if !ok {
		label, amountText = fields[1], fields[0]
		if amount, kind, ok = ParseAmount(amountText); !ok {
			return models.Intent{}, false
		}
	}

	category, ok := models.MatchCategory(kind, label)
	if !ok {
		return models.Intent{}, false
	}
	if kind == models.EntryIncome {
		return models.Intent{Kind: models.IntentIncomeCategoryLabel, Amount: amount, Category: category, EntryKind: kind}, true
	}
	return models.Intent{Kind: models.IntentExpenseCategoryLabel, Amount: amount, Category: category, EntryKind: kind}, true
}

func matchDescribedAmount(text string, fields []string) (models.Intent, bool) {
	if len(fields) < 2 {
		return models.Intent{}, false
	}
	amount, kind, ok := ParseAmount(fields[0])
	if !ok {
		return models.Intent{}, false
	}
	return models.Intent{
		Kind:      models.IntentDescribedAmount,
		Amount:    amount,
		EntryKind: kind,
		Text:      strings.Join(fields[1:], " "),
	}, true
}

func matchFixed(text string, fields []string) (models.Intent, bool) {
	switch {
	case helpWords[text]:
		return models.Intent{Kind: models.IntentHelp}, true
	case portfolioWords[text]:
		return models.Intent{Kind: models.IntentPortfolioQuery}, true
	case websiteWords[text]:
		return models.Intent{Kind: models.IntentWebsiteLink}, true
	}
	return models.Intent{}, false
}
