// Package intent classifies inbound chat text into typed intents.
package intent

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var cancelWords = map[string]bool{
	"cancel":  true,
	"/cancel": true,
	"取消":      true,
}

// Normalize folds full-width characters to their narrow forms, case-folds,
// trims and collapses internal whitespace.
func Normalize(text string) string {
	s := width.Fold.String(text)
	// A Caser is stateful, so each call gets its own.
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsCancel reports whether normalized text is a cancellation request.
func IsCancel(normalized string) bool {
	return cancelWords[normalized]
}
