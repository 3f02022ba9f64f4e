// Package market provides live quote sources for the conversation and alert engines.
package market

import (
	"context"
	"strings"

	"moneybot/internal/models"
)

// Gateway returns live quotes. Implementations must honor ctx cancellation.
type Gateway interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// NormalizeSymbol upper-cases a symbol and strips any exchange prefix.
func NormalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.IndexByte(symbol, ':'); i >= 0 {
		symbol = symbol[i+1:]
	}
	return symbol
}
