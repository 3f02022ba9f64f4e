package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// State is the conversation state of one user.
type State string

const (
	StateIdle                   State = "IDLE"
	StateWaitingExpenseCategory State = "WAITING_EXPENSE_CATEGORY"
	StateWaitingIncomeCategory  State = "WAITING_INCOME_CATEGORY"
	StateWaitingBuyQuantity     State = "WAITING_BUY_QUANTITY"
	StateWaitingSellQuantity    State = "WAITING_SELL_QUANTITY"
	StateWaitingConfirmation    State = "WAITING_CATEGORY_CONFIRMATION"
	StateWaitingSelection       State = "WAITING_CATEGORY_SELECTION"
)

// SessionContext is the payload a non-idle state carries between turns.
// Every implementation belongs to exactly one State.
type SessionContext interface {
	State() State
}

// PendingAmount is an amount waiting for the user to pick a category.
type PendingAmount struct {
	Amount    decimal.Decimal `json:"amount"`
	Suggested string          `json:"suggested,omitempty"`
}

// ExpenseCategoryContext belongs to StateWaitingExpenseCategory.
type ExpenseCategoryContext struct {
	PendingAmount
}

// State implements SessionContext.
func (ExpenseCategoryContext) State() State { return StateWaitingExpenseCategory }

// IncomeCategoryContext belongs to StateWaitingIncomeCategory.
type IncomeCategoryContext struct {
	PendingAmount
}

// State implements SessionContext.
func (IncomeCategoryContext) State() State { return StateWaitingIncomeCategory }

// TradeQuote is the quote captured when a buy or sell flow started.
type TradeQuote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// BuyQuantityContext belongs to StateWaitingBuyQuantity.
type BuyQuantityContext struct {
	TradeQuote
}

// State implements SessionContext.
func (BuyQuantityContext) State() State { return StateWaitingBuyQuantity }

// SellQuantityContext belongs to StateWaitingSellQuantity.
type SellQuantityContext struct {
	TradeQuote
}

// State implements SessionContext.
func (SellQuantityContext) State() State { return StateWaitingSellQuantity }

// DescribedEntry is an amount typed together with free text.
type DescribedEntry struct {
	Kind    EntryKind       `json:"kind"`
	Amount  decimal.Decimal `json:"amount"`
	Note    string          `json:"note"`
	Keyword string          `json:"keyword"`
}

// ConfirmationContext belongs to StateWaitingConfirmation: a guessed category awaits yes/no.
type ConfirmationContext struct {
	DescribedEntry
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory,omitempty"`
	Confidence  Confidence `json:"confidence"`
}

// State implements SessionContext.
func (ConfirmationContext) State() State { return StateWaitingConfirmation }

// SelectionContext belongs to StateWaitingSelection: the user picks a category from a list.
type SelectionContext struct {
	DescribedEntry
}

// State implements SessionContext.
func (SelectionContext) State() State { return StateWaitingSelection }

// Session is the durable per-user conversation record.
type Session struct {
	UserID    string
	State     State
	Context   SessionContext
	UpdatedAt time.Time
}

// NewSession returns the default idle session for a user.
func NewSession(userID string) *Session {
	return &Session{UserID: userID, State: StateIdle}
}

// Reset returns the session to IDLE and drops its context.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Context = nil
}

// Enter moves the session into the state owned by ctx.
func (s *Session) Enter(ctx SessionContext) {
	if ctx == nil {
		s.Reset()
		return
	}
	s.State = ctx.State()
	s.Context = ctx
}

// IsIdle reports whether no flow is in progress.
func (s *Session) IsIdle() bool {
	return s.State == StateIdle
}

// EncodeContext serializes a context for storage. A nil context encodes as "{}".
func EncodeContext(ctx SessionContext) ([]byte, error) {
	if ctx == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(ctx)
}

// DecodeContext parses stored context bytes into the concrete type owned by state.
func DecodeContext(state State, data []byte) (SessionContext, error) {
	var target SessionContext
	switch state {
	case StateIdle, "":
		return nil, nil
	case StateWaitingExpenseCategory:
		var c ExpenseCategoryContext
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s context: %w", state, err)
		}
		target = c
	case StateWaitingIncomeCategory:
		var c IncomeCategoryContext
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s context: %w", state, err)
		}
		target = c
	case StateWaitingBuyQuantity:
		var c BuyQuantityContext
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s context: %w", state, err)
		}
		target = c
	case StateWaitingSellQuantity:
		var c SellQuantityContext
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s context: %w", state, err)
		}
		target = c
	case StateWaitingConfirmation:
		var c ConfirmationContext
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s context: %w", state, err)
		}
		target = c
	case StateWaitingSelection:
		var c SelectionContext
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s context: %w", state, err)
		}
		target = c
	default:
		return nil, fmt.Errorf("unknown session state %q", state)
	}
	return target, nil
}
