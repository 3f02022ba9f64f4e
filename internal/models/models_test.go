package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moneybot/internal/errors"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestPriceAlert_Validate(t *testing.T) {
	tests := []struct {
		name    string
		alert   PriceAlert
		wantErr string
	}{
		{
			name:  "target price ok",
			alert: PriceAlert{UserID: "u", Symbol: "TSLA", Type: AlertTargetPrice, TargetPrice: dec("100")},
		},
		{
			name:    "target price missing",
			alert:   PriceAlert{UserID: "u", Symbol: "TSLA", Type: AlertTargetPrice},
			wantErr: "target_price",
		},
		{
			name:  "daily change ok",
			alert: PriceAlert{UserID: "u", Symbol: "TSLA", Type: AlertDailyChange, Threshold: dec("5"), Direction: DirectionBoth},
		},
		{
			name:    "daily change without direction",
			alert:   PriceAlert{UserID: "u", Symbol: "TSLA", Type: AlertDailyChange, Threshold: dec("5")},
			wantErr: "direction",
		},
		{
			name:    "stop loss without reference",
			alert:   PriceAlert{UserID: "u", Symbol: "TSLA", Type: AlertStopLoss, Threshold: dec("10")},
			wantErr: "reference_price",
		},
		{
			name:    "stop profit zero threshold",
			alert:   PriceAlert{UserID: "u", Symbol: "TSLA", Type: AlertStopProfit, Threshold: dec("0"), ReferencePrice: dec("100")},
			wantErr: "threshold",
		},
		{
			name:  "profit loss ok",
			alert: PriceAlert{UserID: "u", Symbol: "TSLA", Type: AlertProfitLoss, Threshold: dec("8"), ReferencePrice: dec("100")},
		},
		{
			name:    "unknown type",
			alert:   PriceAlert{UserID: "u", Symbol: "TSLA", Type: "MOON"},
			wantErr: "type",
		},
		{
			name:    "missing owner",
			alert:   PriceAlert{Symbol: "TSLA", Type: AlertTargetPrice, TargetPrice: dec("1")},
			wantErr: "user_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.alert.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidAlert)

			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantErr, ve.Field)
		})
	}
}

func TestParseAlertType(t *testing.T) {
	got, err := ParseAlertType(" stop_loss ")
	require.NoError(t, err)
	assert.Equal(t, AlertStopLoss, got)

	_, err = ParseAlertType("nope")
	assert.True(t, apperrors.IsValidation(err))

	d, err := ParseAlertDirection("down")
	require.NoError(t, err)
	assert.Equal(t, DirectionDown, d)
}

func TestSession_EnterAndReset(t *testing.T) {
	s := NewSession("u1")
	assert.True(t, s.IsIdle())

	s.Enter(BuyQuantityContext{TradeQuote: TradeQuote{Symbol: "TSLA"}})
	assert.Equal(t, StateWaitingBuyQuantity, s.State)

	s.Enter(nil)
	assert.True(t, s.IsIdle())
	assert.Nil(t, s.Context)
}

func TestContextCodec(t *testing.T) {
	raw, err := EncodeContext(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))

	orig := ConfirmationContext{
		DescribedEntry: DescribedEntry{Kind: EntryExpense, Amount: decimal.RequireFromString("42.5"), Note: "taxi home", Keyword: "taxi home"},
		Category:       "Transport",
		Confidence:     ConfidenceLow,
	}
	raw, err = EncodeContext(orig)
	require.NoError(t, err)

	decoded, err := DecodeContext(StateWaitingConfirmation, raw)
	require.NoError(t, err)
	got, ok := decoded.(ConfirmationContext)
	require.True(t, ok)
	assert.Equal(t, "Transport", got.Category)
	assert.True(t, got.Amount.Equal(orig.Amount))
	assert.Equal(t, ConfidenceLow, got.Confidence)

	c, err := DecodeContext(StateIdle, []byte("{}"))
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = DecodeContext("WAITING_FOREVER", raw)
	assert.Error(t, err)
}

func TestMatchCategory(t *testing.T) {
	got, ok := MatchCategory(EntryExpense, " food ")
	require.True(t, ok)
	assert.Equal(t, "Food", got)

	_, ok = MatchCategory(EntryExpense, "Salary")
	assert.False(t, ok)

	assert.True(t, IsCategoryName("salary"))
	assert.Equal(t, DefaultCategory, Categories(EntryIncome)[len(Categories(EntryIncome))-1])
}

func TestHolding_Math(t *testing.T) {
	h := Holding{Quantity: decimal.RequireFromString("10"), AvgPrice: decimal.RequireFromString("250")}
	assert.Equal(t, "2500.00", h.CostBasis().StringFixed(2))
	assert.Equal(t, "-100.00", h.UnrealizedPnL(decimal.RequireFromString("240")).StringFixed(2))
	assert.False(t, ConfidenceHigh.NeedsConfirmation())
	assert.True(t, ConfidenceMedium.NeedsConfirmation())
}
