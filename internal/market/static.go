package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/models"
)

// StaticGateway serves quotes from an in-memory table. It backs the "static"
// provider and tests.
type StaticGateway struct {
	mu     sync.RWMutex
	quotes map[string]models.Quote
	fail   map[string]error
	calls  map[string]int
}

// NewStaticGateway creates an empty static gateway.
func NewStaticGateway() *StaticGateway {
	return &StaticGateway{
		quotes: make(map[string]models.Quote),
		fail:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

// SetQuote stores a quote for symbol. The daily change is derived from prevClose when positive.
func (s *StaticGateway) SetQuote(symbol, name string, price, prevClose decimal.Decimal) {
	symbol = NormalizeSymbol(symbol)
	change := decimal.Zero
	if prevClose.IsPositive() {
		change = price.Sub(prevClose).Div(prevClose).Mul(decimal.NewFromInt(100))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = models.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         price,
		PrevClose:     prevClose,
		ChangePercent: change,
		Timestamp:     time.Now(),
	}
	delete(s.fail, symbol)
}

// SetChangePercent overrides the daily change of a stored quote.
func (s *StaticGateway) SetChangePercent(symbol string, change decimal.Decimal) {
	symbol = NormalizeSymbol(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.quotes[symbol]
	q.ChangePercent = change
	s.quotes[symbol] = q
}

// Fail makes every quote for symbol return err until SetQuote is called again.
func (s *StaticGateway) Fail(symbol string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[NormalizeSymbol(symbol)] = err
}

// Calls returns how many times symbol was requested.
func (s *StaticGateway) Calls(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[NormalizeSymbol(symbol)]
}

// Quote implements Gateway.
func (s *StaticGateway) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCollaboratorError("static", "quote", fmt.Errorf("%w: %v", apperrors.ErrTimeout, err))
	}

	symbol = NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[symbol]++

	if err, ok := s.fail[symbol]; ok {
		return nil, apperrors.NewCollaboratorError("static", "quote", err)
	}
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, apperrors.NewCollaboratorError("static", "quote", fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol))
	}
	return &q, nil
}
