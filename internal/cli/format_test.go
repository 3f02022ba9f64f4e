package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 5, DisplayWidth("lunch"))
	assert.Equal(t, 4, DisplayWidth("午饭"))
	assert.Equal(t, 6, DisplayWidth("ＡＢＣ"))
	assert.Equal(t, 0, DisplayWidth(""))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcd~", TruncateString("abcdefgh", 5))
	assert.Equal(t, "午~", TruncateString("午饭时间", 4))
	assert.Equal(t, "~", TruncateString("abc", 1))
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2026, 5, 12, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	assert.Equal(t, "never", FormatAgo(nil, now))
	assert.Equal(t, "just now", FormatAgo(at(10*time.Second), now))
	assert.Equal(t, "5m ago", FormatAgo(at(5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatAgo(at(3*time.Hour), now))
	assert.Equal(t, "2d ago", FormatAgo(at(50*time.Hour), now))
}

func TestProperty_PadRightReachesWidth(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("padded text is at least the requested width and keeps its prefix", prop.ForAll(
		func(s string, cols int) bool {
			padded := PadRight(s, cols)
			if !strings.HasPrefix(padded, s) {
				return false
			}
			w := DisplayWidth(s)
			if w >= cols {
				return padded == s
			}
			return DisplayWidth(padded) == cols
		},
		gen.AnyString(),
		gen.IntRange(0, 60),
	))

	properties.Property("truncated text never exceeds the limit", prop.ForAll(
		func(s string, cols int) bool {
			return DisplayWidth(TruncateString(s, cols)) <= cols
		},
		gen.AnyString(),
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t)
}
