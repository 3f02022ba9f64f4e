package digest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/market"
	"moneybot/internal/models"
	"moneybot/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newJob(t *testing.T) (*Job, *store.SQLiteStore, *market.StaticGateway) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "digest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gw := market.NewStaticGateway()
	loc := time.FixedZone("IST", 5*3600+1800)
	j := NewJob(st, gw, nil, Config{Location: loc, QuoteTimeout: time.Second}, nil, zerolog.Nop())
	j.now = func() time.Time { return time.Date(2026, 5, 12, 21, 0, 0, 0, loc) }
	return j, st, gw
}

func TestRun_SendsToHoldersAndActiveUsers(t *testing.T) {
	j, st, gw := newJob(t)
	ctx := context.Background()
	today := j.now()

	require.NoError(t, st.AddEntry(ctx, &models.LedgerEntry{UserID: "spender", Kind: models.EntryExpense, Amount: dec("120"), Category: "Food", CreatedAt: today.Add(-2 * time.Hour)}))
	require.NoError(t, st.AddEntry(ctx, &models.LedgerEntry{UserID: "spender", Kind: models.EntryIncome, Amount: dec("5000"), Category: "Salary", CreatedAt: today.Add(-3 * time.Hour)}))
	// Yesterday's entry does not make a user active today.
	require.NoError(t, st.AddEntry(ctx, &models.LedgerEntry{UserID: "lapsed", Kind: models.EntryExpense, Amount: dec("9"), Category: "Food", CreatedAt: today.AddDate(0, 0, -1)}))
	require.NoError(t, st.SaveHolding(ctx, &models.Holding{UserID: "investor", Symbol: "TSLA", Quantity: dec("10"), AvgPrice: dec("200")}))
	gw.SetQuote("TSLA", "Tesla", dec("250"), dec("240"))

	sent, err := j.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	notes, err := st.ListNotifications(ctx, "spender", 5)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationDigest, notes[0].Kind)
	assert.Contains(t, notes[0].Message, "Income 5,000.00")
	assert.Contains(t, notes[0].Message, "Expense 120.00")
	assert.Contains(t, notes[0].Message, "Net +4880.00")

	notes, err = st.ListNotifications(ctx, "investor", 5)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Portfolio value 2,500.00")
	assert.Contains(t, notes[0].Message, "P/L +500.00")

	notes, err = st.ListNotifications(ctx, "lapsed", 5)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestRun_QuoteFailureValuesAtCost(t *testing.T) {
	j, st, gw := newJob(t)
	ctx := context.Background()

	require.NoError(t, st.SaveHolding(ctx, &models.Holding{UserID: "u1", Symbol: "TSLA", Quantity: dec("10"), AvgPrice: dec("200")}))
	gw.Fail("TSLA", apperrors.ErrQuoteUnavailable)

	sent, err := j.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	notes, err := st.ListNotifications(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Portfolio value 2,000.00")
	assert.Contains(t, notes[0].Message, "1 without a quote")
}

func TestRun_NoRecipients(t *testing.T) {
	j, _, _ := newJob(t)
	sent, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRender_QuietDay(t *testing.T) {
	s := &Summary{UserID: "u1", Day: time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Today (Tue 12 May)\nNo income or expenses recorded.", Render(s))
}
