package storage

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const maxSearchTermLength = 100

// sanitizeSearchTerm escapes SQLite LIKE special characters so user input is
// matched literally. Queries must use ESCAPE '\'.
func sanitizeSearchTerm(term string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\", // Escape backslash first
		"%", "\\%",
		"_", "\\_",
	)
	return replacer.Replace(term)
}

// foldText normalizes text for case-insensitive matching: NFKC, then Unicode
// case folding, then whitespace collapsed to single spaces.
// A Caser is stateful, so one is created per call.
func foldText(s string) string {
	folded := cases.Fold().String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}

// buildSearchText is the value stored in jobs.search_text.
func buildSearchText(title, company, description string) string {
	return foldText(title) + "\n" + foldText(company) + "\n" + foldText(description)
}
