// Package predict guesses ledger categories for amounts and free-text entries.
package predict

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"moneybot/internal/models"
)

// Prediction sources, reported for logging and metrics.
const (
	SourceCategory   = "category"
	SourceHeuristic  = "heuristic"
	SourceHistory    = "history"
	SourceLearned    = "learned"
	SourceDictionary = "dictionary"
	SourceDefault    = "default"
)

// minHistorySupport is the number of similar past entries needed before history is trusted.
const minHistorySupport = 2

var (
	smallMeal      = decimal.NewFromInt(200)
	commuteMax     = decimal.NewFromInt(1000)
	leisureMax     = decimal.NewFromInt(3000)
	housingMin     = decimal.NewFromInt(10000)
	salaryMin      = decimal.NewFromInt(20000)
	similarityBand = decimal.RequireFromString("0.2")
)

// Prediction is a category guess and how sure it is.
type Prediction struct {
	Category    string
	Subcategory string
	Confidence  models.Confidence
	Source      string
}

// HistorySource provides a user's past ledger entries.
type HistorySource interface {
	RecentEntries(ctx context.Context, userID string, kind models.EntryKind, limit int) ([]models.LedgerEntry, error)
}

// KeywordSource provides learned keyword mappings.
type KeywordSource interface {
	LookupKeyword(ctx context.Context, userID, text string) (*models.KeywordMapping, error)
}

// Predictor combines heuristics, history and keyword knowledge.
type Predictor struct {
	history  HistorySource
	keywords KeywordSource
	window   int
	loc      *time.Location
	logger   zerolog.Logger
}

// Config configures a Predictor.
type Config struct {
	HistoryWindow int
	Location      *time.Location
}

// New creates a Predictor.
func New(history HistorySource, keywords KeywordSource, cfg Config, logger zerolog.Logger) *Predictor {
	window := cfg.HistoryWindow
	if window <= 0 {
		window = 50
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Predictor{
		history:  history,
		keywords: keywords,
		window:   window,
		loc:      loc,
		logger:   logger.With().Str("component", "predict").Logger(),
	}
}

// PredictAmount guesses the category of a bare amount. Layers run in order:
// time and magnitude heuristics, the income calendar, similar past entries,
// then the default category.
func (p *Predictor) PredictAmount(ctx context.Context, userID string, kind models.EntryKind, amount decimal.Decimal, now time.Time) Prediction {
	now = now.In(p.loc)

	if kind == models.EntryExpense {
		if c, ok := expenseHeuristic(amount, now); ok {
			return Prediction{Category: c, Confidence: models.ConfidenceMedium, Source: SourceHeuristic}
		}
	} else if now.Day() <= 10 && amount.GreaterThanOrEqual(salaryMin) {
		return Prediction{Category: "Salary", Confidence: models.ConfidenceMedium, Source: SourceHeuristic}
	}

	if pred, ok := p.fromHistory(ctx, userID, kind, amount); ok {
		return pred
	}

	return defaultPrediction()
}

func expenseHeuristic(amount decimal.Decimal, now time.Time) (string, bool) {
	hour := now.Hour()
	weekend := now.Weekday() == time.Saturday || now.Weekday() == time.Sunday

	mealTime := (hour >= 7 && hour < 10) || (hour >= 11 && hour < 14) || (hour >= 17 && hour < 21)
	commute := (hour >= 7 && hour < 10) || (hour >= 17 && hour < 20)

	switch {
	case mealTime && amount.LessThanOrEqual(smallMeal):
		return "Food", true
	case amount.GreaterThanOrEqual(housingMin):
		return "Housing", true
	case weekend && amount.GreaterThan(smallMeal) && amount.LessThanOrEqual(leisureMax):
		return "Entertainment", true
	case !weekend && commute && amount.GreaterThan(smallMeal) && amount.LessThanOrEqual(commuteMax):
		return "Transport", true
	}
	return "", false
}

// fromHistory returns the most frequent category among recent entries within
// 20% of amount, when at least two entries support it. Ties go to the category
// seen most recently.
func (p *Predictor) fromHistory(ctx context.Context, userID string, kind models.EntryKind, amount decimal.Decimal) (Prediction, bool) {
	if p.history == nil {
		return Prediction{}, false
	}

	entries, err := p.history.RecentEntries(ctx, userID, kind, p.window)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("History unavailable, skipping")
		return Prediction{}, false
	}

	band := amount.Mul(similarityBand)
	type tally struct {
		count       int
		first       int
		subcategory string
	}
	counts := make(map[string]*tally)
	for i, e := range entries {
		if e.Amount.Sub(amount).Abs().GreaterThan(band) {
			continue
		}
		t, ok := counts[e.Category]
		if !ok {
			t = &tally{first: i, subcategory: e.Subcategory}
			counts[e.Category] = t
		}
		t.count++
	}

	best, bestTally := "", (*tally)(nil)
	for c, t := range counts {
		if bestTally == nil || t.count > bestTally.count || (t.count == bestTally.count && t.first < bestTally.first) {
			best, bestTally = c, t
		}
	}
	if bestTally == nil || bestTally.count < minHistorySupport {
		return Prediction{}, false
	}

	return Prediction{
		Category:    best,
		Subcategory: bestTally.subcategory,
		Confidence:  models.ConfidenceMedium,
		Source:      SourceHistory,
	}, true
}

// PredictText resolves the category of "[sign]amount text" entries. A leading
// category name is authoritative. Learned mappings come before the built-in
// dictionary; both yield medium confidence.
func (p *Predictor) PredictText(ctx context.Context, userID string, kind models.EntryKind, text string) Prediction {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return defaultPrediction()
	}

	if c, ok := models.MatchCategory(kind, fields[0]); ok {
		pred := Prediction{Category: c, Confidence: models.ConfidenceHigh, Source: SourceCategory}
		if len(fields) > 1 {
			if e, ok := lookupDictionary(kind, strings.Join(fields[1:], " ")); ok && e.category == c {
				pred.Subcategory = e.subcategory
			}
		}
		return pred
	}

	joined := strings.Join(fields, " ")

	if p.keywords != nil {
		m, err := p.keywords.LookupKeyword(ctx, userID, joined)
		if err != nil {
			p.logger.Warn().Err(err).Str("user_id", userID).Msg("Keyword store unavailable, skipping")
		} else if m != nil {
			if c, ok := models.MatchCategory(kind, m.Category); ok {
				return Prediction{Category: c, Subcategory: m.Subcategory, Confidence: models.ConfidenceMedium, Source: SourceLearned}
			}
		}
	}

	if e, ok := lookupDictionary(kind, joined); ok {
		return Prediction{Category: e.category, Subcategory: e.subcategory, Confidence: models.ConfidenceMedium, Source: SourceDictionary}
	}

	return defaultPrediction()
}

// lookupDictionary matches whole words first, then non-ASCII keys as
// substrings since CJK text is written without spaces. Longer keys win.
func lookupDictionary(kind models.EntryKind, text string) (dictEntry, bool) {
	dict := dictionaryFor(kind)

	for _, f := range strings.Fields(text) {
		if e, ok := dict[f]; ok {
			return e, true
		}
	}

	keys := make([]string, 0, len(dict))
	for k := range dict {
		if !isASCII(k) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if strings.Contains(text, k) {
			return dict[k], true
		}
	}
	return dictEntry{}, false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func defaultPrediction() Prediction {
	return Prediction{Category: models.DefaultCategory, Confidence: models.ConfidenceLow, Source: SourceDefault}
}
