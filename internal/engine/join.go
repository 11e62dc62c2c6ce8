package engine

import (
	"strings"

	"github.com/leafbase/leafbase/internal/pager"
)

// resolveRef implements the four-step column-reference resolution of
// spec.md §4.5.1: an exact match in l, then in r, then a "t.c"
// qualified form, else ref itself as a literal string.
func resolveRef(ref string, l Row, leftTable string, r Row, rightTable string) pager.Value {
	if v, ok := l[ref]; ok {
		return v
	}
	if v, ok := r[ref]; ok {
		return v
	}
	if table, col, ok := splitQualified(ref); ok {
		if table == leftTable {
			if v, ok := l[col]; ok {
				return v
			}
		}
		if table == rightTable {
			if v, ok := r[col]; ok {
				return v
			}
		}
	}
	return pager.TextValue(ref)
}

// splitQualified splits "t.c" into (t, c, true); anything without
// exactly one '.' reports false.
func splitQualified(ref string) (table, column string, ok bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '.' {
			if table != "" || i == 0 {
				return "", "", false
			}
			table, column = ref[:i], ref[i+1:]
			if column == "" || strings.Contains(column, ".") {
				return "", "", false
			}
			return table, column, true
		}
	}
	return "", "", false
}

// mergeRows shallow-combines l and r per spec.md §4.5.1: every key of
// l is copied into the output, then every key of r is added unless it
// would collide, in which case it is added under
// "{rightTable}.{key}" instead of overwriting.
func mergeRows(l Row, r Row, rightTable string) Row {
	out := make(Row, len(l)+len(r))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range r {
		if _, collide := out[k]; collide {
			out[rightTable+"."+k] = v
		} else {
			out[k] = v
		}
	}
	return out
}

// nestedLoopJoin emits every merged row for (l, r) in leftRows ×
// rightRows satisfying on (spec.md §4.5.1). A LEFT marker on the
// clause is accepted by the Command value but treated identically to
// an inner join here, per spec.md §9 item 4 / SPEC_FULL.md §1
// decision 4.
func nestedLoopJoin(leftTable string, leftRows []Row, rightTable string, rightRows []Row, on JoinCondition) []Row {
	var out []Row
	for _, l := range leftRows {
		for _, r := range rightRows {
			left := resolveRef(on.Left, l, leftTable, r, rightTable)
			right := resolveRef(on.Right, l, leftTable, r, rightTable)
			if evaluate(left, on.Op, right) {
				out = append(out, mergeRows(l, r, rightTable))
			}
		}
	}
	return out
}
