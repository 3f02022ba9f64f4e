package portfolio

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/models"
)

var d = decimal.RequireFromString

func TestBuy_NewPositionUsesPrice(t *testing.T) {
	h, err := Buy(nil, "u1", "TSLA", "Tesla", d("10"), d("250"))
	require.NoError(t, err)
	assert.Equal(t, "10", h.Quantity.String())
	assert.Equal(t, "250", h.AvgPrice.String())
	assert.Equal(t, "2500.00", h.CostBasis().StringFixed(2))
}

func TestBuy_RejectsNonPositive(t *testing.T) {
	_, err := Buy(nil, "u1", "TSLA", "", d("0"), d("250"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestSell_FullQuantityRemovesPosition(t *testing.T) {
	h := &models.Holding{UserID: "u1", Symbol: "TSLA", Quantity: d("10"), AvgPrice: d("250")}

	res, err := Sell(h, d("10"), d("300"))
	require.NoError(t, err)
	assert.Nil(t, res.Remaining)
	assert.Equal(t, "500.00", res.Realized.StringFixed(2))
}

func TestSell_PartialKeepsAverage(t *testing.T) {
	h := &models.Holding{UserID: "u1", Symbol: "TSLA", Quantity: d("10"), AvgPrice: d("250")}

	res, err := Sell(h, d("4"), d("200"))
	require.NoError(t, err)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, "6", res.Remaining.Quantity.String())
	assert.Equal(t, "250", res.Remaining.AvgPrice.String())
	assert.Equal(t, "-200.00", res.Realized.StringFixed(2))
	assert.Equal(t, "10", h.Quantity.String(), "input is not mutated")
}

func TestSell_OversellRejected(t *testing.T) {
	h := &models.Holding{UserID: "u1", Symbol: "TSLA", Quantity: d("5"), AvgPrice: d("250")}

	_, err := Sell(h, d("6"), d("250"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientHolding)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "5", h.Quantity.String())

	_, err = Sell(nil, d("1"), d("250"))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientHolding)
}

func TestValue(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "TSLA", Quantity: d("10"), AvgPrice: d("250")},
		{Symbol: "INFY", Quantity: d("2"), AvgPrice: d("1500")},
	}
	quotes := map[string]*models.Quote{"TSLA": {Symbol: "TSLA", Price: d("260")}}

	v := Value(holdings, quotes, time.Now())
	assert.Equal(t, "5500.00", v.Cost.StringFixed(2))
	assert.Equal(t, "5600.00", v.Value.StringFixed(2))
	assert.Equal(t, "100.00", v.PnL.StringFixed(2))
	assert.Equal(t, 1, v.Missing)
}

// Property: buying q1 at p1 then q2 at p2 yields avg == (q1*p1+q2*p2)/(q1+q2).
func TestProperty_WeightedAverageRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Two buys produce the weighted average cost", prop.ForAll(
		func(q1, q2 int64, p1c, p2c int64) bool {
			qty1, qty2 := decimal.NewFromInt(q1), decimal.NewFromInt(q2)
			p1, p2 := decimal.New(p1c, -2), decimal.New(p2c, -2)

			h, err := Buy(nil, "u", "X", "", qty1, p1)
			if err != nil {
				return false
			}
			h, err = Buy(h, "u", "X", "", qty2, p2)
			if err != nil {
				return false
			}

			want := qty1.Mul(p1).Add(qty2.Mul(p2)).Div(qty1.Add(qty2))
			return h.AvgPrice.Equal(want) && h.Quantity.Equal(qty1.Add(qty2))
		},
		gen.Int64Range(1, 10000),
		gen.Int64Range(1, 10000),
		gen.Int64Range(1, 10000000),
		gen.Int64Range(1, 10000000),
	))

	// Property: selling everything that was bought closes the position.
	properties.Property("Full sell closes the position", prop.ForAll(
		func(q int64, pc int64) bool {
			h, err := Buy(nil, "u", "X", "", decimal.NewFromInt(q), decimal.New(pc, -2))
			if err != nil {
				return false
			}
			res, err := Sell(h, decimal.NewFromInt(q), decimal.New(pc, -2))
			return err == nil && res.Remaining == nil && res.Realized.IsZero()
		},
		gen.Int64Range(1, 10000),
		gen.Int64Range(1, 10000000),
	))

	properties.TestingRun(t)
}
