package market

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/logging"
	"moneybot/internal/models"
)

// KiteGateway implements Gateway on Zerodha Kite Connect quotes.
type KiteGateway struct {
	client   *kiteconnect.Client
	exchange string
	logger   zerolog.Logger
}

// KiteConfig holds configuration for the Kite gateway.
type KiteConfig struct {
	APIKey      string
	AccessToken string
	Exchange    string
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// NewKiteGateway creates a Kite Connect backed gateway.
func NewKiteGateway(cfg KiteConfig) *KiteGateway {
	client := kiteconnect.New(cfg.APIKey)
	if cfg.AccessToken != "" {
		client.SetAccessToken(cfg.AccessToken)
	}
	if cfg.Timeout > 0 {
		client.SetHTTPClient(&http.Client{Timeout: cfg.Timeout})
	}

	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "NSE"
	}

	return &KiteGateway{
		client:   client,
		exchange: strings.ToUpper(exchange),
		logger:   logging.WithOperation(cfg.Logger, "kite"),
	}
}

// instrument returns the EXCHANGE:SYMBOL key Kite expects.
func (k *KiteGateway) instrument(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(symbol, ":") {
		return symbol
	}
	return k.exchange + ":" + symbol
}

// Quote fetches the real-time quote for a symbol.
func (k *KiteGateway) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	key := k.instrument(symbol)

	type result struct {
		quotes kiteconnect.Quote
		err    error
	}
	done := make(chan result, 1)
	go func() {
		start := time.Now()
		q, err := k.client.GetQuote(key)
		logging.LogAPICall(k.logger, "GET", "/quote?i="+key, time.Since(start), err)
		done <- result{quotes: q, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, apperrors.NewCollaboratorError("kite", "quote", fmt.Errorf("%w: %v", apperrors.ErrTimeout, ctx.Err()))
	case r = <-done:
	}

	if r.err != nil {
		return nil, apperrors.NewCollaboratorError("kite", "quote", fmt.Errorf("%w: %v", apperrors.ErrQuoteUnavailable, r.err))
	}

	q, ok := r.quotes[key]
	if !ok || q.LastPrice <= 0 {
		return nil, apperrors.NewCollaboratorError("kite", "quote", fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, key))
	}

	price := decimal.NewFromFloat(q.LastPrice)
	prevClose := decimal.NewFromFloat(q.OHLC.Close)
	change := decimal.Zero
	if prevClose.IsPositive() {
		change = price.Sub(prevClose).Div(prevClose).Mul(decimal.NewFromInt(100))
	}

	ts := q.LastTradeTime.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return &models.Quote{
		Symbol:        NormalizeSymbol(key),
		Name:          NormalizeSymbol(key),
		Price:         price,
		PrevClose:     prevClose,
		ChangePercent: change,
		Timestamp:     ts,
	}, nil
}
