package engine

import (
	"strconv"

	"github.com/leafbase/leafbase/internal/pager"
)

// lookupColumn resolves row[column], falling back to
// row["{table}.{column}"] (spec.md §4.5.2) for a row produced by a
// join merge.
func lookupColumn(row Row, table, column string) (pager.Value, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	v, ok := row[table+"."+column]
	return v, ok
}

// matchesWhere reports whether row satisfies every condition in where
// (AND-connected, per spec.md §4.5.2).
func matchesWhere(row Row, table string, where []WhereCondition) bool {
	for _, cond := range where {
		v, ok := lookupColumn(row, table, cond.Column)
		if !ok {
			return false
		}
		if !evaluate(v, cond.Op, cond.Value) {
			return false
		}
	}
	return true
}

// evaluate applies op to (left, right) with the coercion rule of
// spec.md §4.5.2: if one side is a string that parses as a number and
// the other is a number, coerce the string before comparing; equality
// is weak (string "1" equals integer 1), ordering uses the coerced
// numeric comparison.
func evaluate(left pager.Value, op Operator, right pager.Value) bool {
	lNum, lIsNum := asNumber(left)
	rNum, rIsNum := asNumber(right)

	if lIsNum && rIsNum && (left.Kind == pager.KindInteger || right.Kind == pager.KindInteger) {
		switch op {
		case OpEq:
			return lNum == rNum
		case OpLt:
			return lNum < rNum
		case OpGt:
			return lNum > rNum
		case OpLe:
			return lNum <= rNum
		case OpGe:
			return lNum >= rNum
		}
		return false
	}

	// No INTEGER side to coerce against (two strings, numeric or not),
	// or one side does not parse as a number: fall back to string
	// comparison for all operators.
	lStr, rStr := left.String(), right.String()
	switch op {
	case OpEq:
		return lStr == rStr
	case OpLt:
		return lStr < rStr
	case OpGt:
		return lStr > rStr
	case OpLe:
		return lStr <= rStr
	case OpGe:
		return lStr >= rStr
	}
	return false
}

// asNumber reports the numeric value of v: an INTEGER value directly,
// or a TEXT value that parses as a number (integer or decimal).
func asNumber(v pager.Value) (float64, bool) {
	switch v.Kind {
	case pager.KindInteger:
		return float64(v.Int), true
	case pager.KindText:
		n, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
