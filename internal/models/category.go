package models

import "strings"

// DefaultCategory is used when nothing better is known.
const DefaultCategory = "Other"

var expenseCategories = []string{
	"Food",
	"Transport",
	"Housing",
	"Entertainment",
	"Shopping",
	"Medical",
	"Education",
	DefaultCategory,
}

var incomeCategories = []string{
	"Salary",
	"Bonus",
	"Investment",
	"Freelance",
	"Gift",
	DefaultCategory,
}

// Categories returns the top-level categories for an entry kind.
func Categories(kind EntryKind) []string {
	src := expenseCategories
	if kind == EntryIncome {
		src = incomeCategories
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// MatchCategory resolves a case-insensitive category name for the given kind.
func MatchCategory(kind EntryKind, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Categories(kind) {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// IsCategoryName reports whether name is a top-level category of either kind.
func IsCategoryName(name string) bool {
	if _, ok := MatchCategory(EntryExpense, name); ok {
		return true
	}
	_, ok := MatchCategory(EntryIncome, name)
	return ok
}
