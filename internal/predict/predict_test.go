package predict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"moneybot/internal/models"
)

type fakeHistory struct {
	entries []models.LedgerEntry
	err     error
}

func (f *fakeHistory) RecentEntries(ctx context.Context, userID string, kind models.EntryKind, limit int) ([]models.LedgerEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.Kind == kind && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeKeywords struct {
	mappings map[string]models.KeywordMapping
	err      error
}

func (f *fakeKeywords) LookupKeyword(ctx context.Context, userID, text string) (*models.KeywordMapping, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.mappings[text]; ok {
		return &m, nil
	}
	return nil, nil
}

func entry(kind models.EntryKind, amount, category string) models.LedgerEntry {
	return models.LedgerEntry{Kind: kind, Amount: decimal.RequireFromString(amount), Category: category}
}

func newPredictor(h HistorySource, k KeywordSource) *Predictor {
	return New(h, k, Config{HistoryWindow: 50, Location: time.UTC}, zerolog.Nop())
}

// 2026-03-11 is a Wednesday, 2026-03-14 a Saturday.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func TestPredictAmount_Heuristics(t *testing.T) {
	p := newPredictor(&fakeHistory{}, nil)
	ctx := context.Background()
	d := decimal.RequireFromString

	tests := []struct {
		name     string
		kind     models.EntryKind
		amount   string
		now      time.Time
		category string
		source   string
	}{
		{"lunch sized at noon", models.EntryExpense, "50", at(11, 12, 30), "Food", SourceHeuristic},
		{"very large", models.EntryExpense, "15000", at(11, 15, 0), "Housing", SourceHeuristic},
		{"weekend mid range", models.EntryExpense, "500", at(14, 15, 0), "Entertainment", SourceHeuristic},
		{"weekday commute", models.EntryExpense, "500", at(11, 8, 30), "Transport", SourceHeuristic},
		{"early month salary", models.EntryIncome, "30000", at(5, 10, 0), "Salary", SourceHeuristic},
		{"late month large income", models.EntryIncome, "30000", at(20, 10, 0), models.DefaultCategory, SourceDefault},
		{"afternoon mid range", models.EntryExpense, "300", at(11, 15, 0), models.DefaultCategory, SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.PredictAmount(ctx, "u1", tt.kind, d(tt.amount), tt.now)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestPredictAmount_HistoryNeedsTwoSupportingEntries(t *testing.T) {
	ctx := context.Background()
	now := at(11, 15, 0)
	amount := decimal.RequireFromString("300")

	two := newPredictor(&fakeHistory{entries: []models.LedgerEntry{
		entry(models.EntryExpense, "310", "Shopping"),
		entry(models.EntryExpense, "800", "Food"),
		entry(models.EntryExpense, "250", "Shopping"),
	}}, nil)
	got := two.PredictAmount(ctx, "u1", models.EntryExpense, amount, now)
	assert.Equal(t, "Shopping", got.Category)
	assert.Equal(t, SourceHistory, got.Source)
	assert.Equal(t, models.ConfidenceMedium, got.Confidence)

	one := newPredictor(&fakeHistory{entries: []models.LedgerEntry{
		entry(models.EntryExpense, "310", "Shopping"),
		entry(models.EntryExpense, "800", "Shopping"),
	}}, nil)
	got = one.PredictAmount(ctx, "u1", models.EntryExpense, amount, now)
	assert.Equal(t, models.DefaultCategory, got.Category)
	assert.Equal(t, models.ConfidenceLow, got.Confidence)
}

func TestPredictAmount_HistoryIgnoresOtherDirectionAndFailures(t *testing.T) {
	ctx := context.Background()
	now := at(20, 15, 0)
	amount := decimal.RequireFromString("1000")

	p := newPredictor(&fakeHistory{entries: []models.LedgerEntry{
		entry(models.EntryExpense, "1000", "Shopping"),
		entry(models.EntryExpense, "1000", "Shopping"),
		entry(models.EntryIncome, "1000", "Freelance"),
	}}, nil)
	got := p.PredictAmount(ctx, "u1", models.EntryIncome, amount, now)
	assert.Equal(t, SourceDefault, got.Source)

	broken := newPredictor(&fakeHistory{err: errors.New("db locked")}, nil)
	got = broken.PredictAmount(ctx, "u1", models.EntryExpense, decimal.RequireFromString("300"), at(11, 15, 0))
	assert.Equal(t, SourceDefault, got.Source)
}

func TestPredictText(t *testing.T) {
	ctx := context.Background()
	kw := &fakeKeywords{mappings: map[string]models.KeywordMapping{
		"gym":      {Keyword: "gym", Category: "Medical", Subcategory: "Fitness", UsageCount: 3},
		"side job": {Keyword: "side job", Category: "Freelance", UsageCount: 1},
		"taxi":     {Keyword: "taxi", Category: "Shopping", UsageCount: 1},
	}}
	p := newPredictor(nil, kw)

	tests := []struct {
		name        string
		kind        models.EntryKind
		text        string
		category    string
		subcategory string
		confidence  models.Confidence
		source      string
	}{
		{"leading category", models.EntryExpense, "Food court", "Food", "", models.ConfidenceHigh, SourceCategory},
		{"leading category with known word", models.EntryExpense, "food lunch", "Food", "Lunch", models.ConfidenceHigh, SourceCategory},
		{"learned mapping", models.EntryExpense, "gym", "Medical", "Fitness", models.ConfidenceMedium, SourceLearned},
		{"learned beats dictionary", models.EntryExpense, "taxi", "Shopping", "", models.ConfidenceMedium, SourceLearned},
		{"learned wrong direction", models.EntryExpense, "side job", models.DefaultCategory, "", models.ConfidenceLow, SourceDefault},
		{"dictionary", models.EntryExpense, "taxi home", "Transport", "Taxi", models.ConfidenceMedium, SourceDictionary},
		{"dictionary unspaced", models.EntryExpense, "今天午餐", "Food", "Lunch", models.ConfidenceMedium, SourceDictionary},
		{"income dictionary", models.EntryIncome, "quarterly bonus", "Bonus", "", models.ConfidenceMedium, SourceDictionary},
		{"ascii not substring matched", models.EntryExpense, "business lunch", "Food", "Lunch", models.ConfidenceMedium, SourceDictionary},
		{"unknown", models.EntryExpense, "zzz", models.DefaultCategory, "", models.ConfidenceLow, SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.PredictText(ctx, "u1", tt.kind, tt.text)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.subcategory, got.Subcategory)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestPredictText_KeywordStoreDownFallsThrough(t *testing.T) {
	p := newPredictor(nil, &fakeKeywords{err: errors.New("unavailable")})
	got := p.PredictText(context.Background(), "u1", models.EntryExpense, "coffee")
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, SourceDictionary, got.Source)
}
