package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"moneybot/internal/models"
)

// Property: a holding saved with arbitrary decimal quantity and price reads back
// with exactly the same values.
func TestProperty_HoldingDecimalRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "holdings_property.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Holding round-trip preserves decimals exactly", prop.ForAll(
		func(qtyCents int64, priceCents int64, n int) bool {
			ctx := context.Background()
			symbol := fmt.Sprintf("S%d", n)

			qty := decimal.New(qtyCents, -2)
			price := decimal.New(priceCents, -4)

			err := store.SaveHolding(ctx, &models.Holding{UserID: "prop", Symbol: symbol, Quantity: qty, AvgPrice: price})
			if err != nil {
				t.Logf("Failed to save holding: %v", err)
				return false
			}

			got, err := store.GetHolding(ctx, "prop", symbol)
			if err != nil || got == nil {
				t.Logf("Failed to get holding: %v", err)
				return false
			}

			return got.Quantity.Equal(qty) && got.AvgPrice.Equal(price)
		},
		gen.Int64Range(1, 100000000),
		gen.Int64Range(1, 1000000000),
		gen.IntRange(0, 9999),
	))

	properties.TestingRun(t)
}

// Property: upserting a keyword k times leaves its usage count at k.
func TestProperty_KeywordUsageCountsUpserts(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "keywords_property.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	run := 0

	properties.Property("Usage count equals number of upserts", prop.ForAll(
		func(times int) bool {
			ctx := context.Background()
			run++
			keyword := fmt.Sprintf("kw%04d", run)

			for i := 0; i < times; i++ {
				if err := store.UpsertKeyword(ctx, "prop", keyword, "Food", ""); err != nil {
					t.Logf("Failed to upsert: %v", err)
					return false
				}
			}

			m, err := store.LookupKeyword(ctx, "prop", keyword)
			if err != nil || m == nil {
				t.Logf("Lookup failed: %v", err)
				return false
			}
			return m.UsageCount == times
		},
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
