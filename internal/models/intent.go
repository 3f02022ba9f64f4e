package models

import "github.com/shopspring/decimal"

// IntentKind identifies what an inbound message asks for.
type IntentKind string

const (
	IntentExpenseAmount        IntentKind = "expense_amount"
	IntentIncomeAmount         IntentKind = "income_amount"
	IntentStockQuery           IntentKind = "stock_query"
	IntentBuyAction            IntentKind = "buy_action"
	IntentSellAction           IntentKind = "sell_action"
	IntentExpenseCategoryLabel IntentKind = "expense_category_label"
	IntentIncomeCategoryLabel  IntentKind = "income_category_label"
	IntentDescribedAmount      IntentKind = "described_amount"
	IntentHelp                 IntentKind = "help"
	IntentPortfolioQuery       IntentKind = "portfolio_query"
	IntentWebsiteLink          IntentKind = "website_link"
	IntentUnrecognized         IntentKind = "unrecognized"
)

// Intent is the classified meaning of one inbound message. It is never stored.
type Intent struct {
	Kind     IntentKind
	Amount   decimal.Decimal
	Symbol   string
	Category string
	// EntryKind and Text are set for IntentDescribedAmount.
	EntryKind EntryKind
	Text      string
}
