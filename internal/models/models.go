// Package models defines the domain records shared by the conversation and alert engines.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind distinguishes money flowing in from money flowing out.
type EntryKind string

const (
	EntryExpense EntryKind = "expense"
	EntryIncome  EntryKind = "income"
)

// String returns the display form of the entry kind.
func (k EntryKind) String() string {
	return string(k)
}

// Confidence is the qualitative certainty of a category guess.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// NeedsConfirmation reports whether a guess at this confidence must be confirmed by the user.
func (c Confidence) NeedsConfirmation() bool {
	return c != ConfidenceHigh
}

// Quote represents a live market quote.
type Quote struct {
	Symbol        string
	Name          string
	Price         decimal.Decimal
	PrevClose     decimal.Decimal
	ChangePercent decimal.Decimal
	Timestamp     time.Time
}

// DisplayName returns the instrument name, falling back to the symbol.
func (q *Quote) DisplayName() string {
	if q.Name != "" {
		return q.Name
	}
	return q.Symbol
}

// Holding represents an equity position owned by a user.
type Holding struct {
	UserID    string
	Symbol    string
	Name      string
	Quantity  decimal.Decimal
	AvgPrice  decimal.Decimal
	UpdatedAt time.Time
}

// CostBasis returns quantity multiplied by average cost.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AvgPrice)
}

// UnrealizedPnL returns the paper profit or loss at the given price.
func (h *Holding) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	return price.Sub(h.AvgPrice).Mul(h.Quantity)
}

// LedgerEntry is one recorded income or expense.
type LedgerEntry struct {
	ID          int64
	UserID      string
	Kind        EntryKind
	Amount      decimal.Decimal
	Category    string
	Subcategory string
	Note        string
	CreatedAt   time.Time
}

// KeywordMapping is a learned association from free text to a category.
type KeywordMapping struct {
	UserID      string
	Keyword     string
	Category    string
	Subcategory string
	UsageCount  int
	UpdatedAt   time.Time
}

// Message is one outbound chat reply.
type Message struct {
	Text string
	// Options are quick-reply choices offered alongside the text.
	Options []string
}

// Text builds a plain reply.
func Text(text string) Message {
	return Message{Text: text}
}
