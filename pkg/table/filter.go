// Copyright (C) 2025 Joshua Goldstein

package table

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the case-folded form of s. A Caser keeps state, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Match reports whether row satisfies every non-empty filter. A field is
// satisfied when its case-folded value contains the case-folded filter
// string. Fields missing from the row have an empty value.
func Match(row Row, filters map[string]string) bool {
	for field, want := range filters {
		if want == "" {
			continue
		}
		if !strings.Contains(fold(row[field]), fold(want)) {
			return false
		}
	}
	return true
}

// Apply returns the rows matching filters, in their original order.
// The result is never nil.
func Apply(rows []Row, filters map[string]string) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if Match(row, filters) {
			out = append(out, row)
		}
	}
	return out
}
