// Package picker implements the interactive multi-select prompt used to choose
// which Salesforce objects to describe.
//
// Pickers never enforce how many items may be chosen; callers validate the
// returned selection.
package picker

import (
	"context"
	"errors"
	"strings"
)

// ErrCancelled is returned when the user dismisses the prompt.
var ErrCancelled = errors.New("selection cancelled")

// Picker asks the user to choose any number of candidates.
type Picker interface {
	Pick(ctx context.Context, candidates []string, placeholder string) ([]string, error)
}

// Picker kinds selectable with --picker.
const (
	KindTUI  = "tui"
	KindLine = "line"
)

// ParseSelection splits user input on commas and whitespace and resolves each
// token against candidates, case-insensitively. Duplicates collapse to their
// first occurrence. Tokens that match no candidate are returned in unknown.
func ParseSelection(input string, candidates []string) (selected, unknown []string) {
	index := make(map[string]string, len(candidates))
	for _, c := range candidates {
		index[strings.ToLower(c)] = c
	}

	seen := make(map[string]bool)
	tokens := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	for _, tok := range tokens {
		name, ok := index[strings.ToLower(tok)]
		if !ok {
			unknown = append(unknown, tok)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, name)
	}
	return selected, unknown
}

// matchFilter reports whether candidate contains filter, ignoring case.
func matchFilter(candidate, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(candidate), strings.ToLower(filter))
}
