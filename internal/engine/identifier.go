package engine

import (
	"golang.org/x/text/cases"
)

// fold normalizes a table or column name for case-insensitive
// comparison (SPEC_FULL.md §4 "Case-insensitive identifier
// resolution"). cases.Fold is Unicode-aware, unlike strings.ToLower,
// so non-ASCII identifiers compare correctly too.
var identifierFolder = cases.Fold()

func fold(s string) string {
	return identifierFolder.String(s)
}
