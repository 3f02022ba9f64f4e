package cli

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// FormatDateTime formats a timestamp in loc for listings.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// FormatAgo formats how long before now t happened.
func FormatAgo(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	d := now.Sub(*t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

// DisplayWidth returns the number of terminal columns s occupies.
// East Asian wide and fullwidth runes take two columns.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// PadRight pads s with spaces to the given display width.
func PadRight(s string, cols int) string {
	if w := DisplayWidth(s); w < cols {
		return s + strings.Repeat(" ", cols-w)
	}
	return s
}

// TruncateString shortens s to at most cols display columns, marking the cut with "~".
func TruncateString(s string, cols int) string {
	if DisplayWidth(s) <= cols {
		return s
	}
	if cols <= 1 {
		return "~"
	}

	var b strings.Builder
	used := 0
	for _, r := range s {
		w := DisplayWidth(string(r))
		if used+w > cols-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	b.WriteString("~")
	return b.String()
}
