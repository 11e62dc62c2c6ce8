package engine

import (
	"testing"

	"github.com/leafbase/leafbase/internal/pager"
)

func TestEvaluate_NumericCoercion(t *testing.T) {
	tests := []struct {
		name  string
		left  pager.Value
		op    Operator
		right pager.Value
		want  bool
	}{
		{"int eq int", pager.IntValue(1), OpEq, pager.IntValue(1), true},
		{"text parses as number equals int", pager.TextValue("1"), OpEq, pager.IntValue(1), true},
		{"int less than int", pager.IntValue(5), OpLt, pager.IntValue(10), true},
		{"text number ordering", pager.TextValue("5"), OpLt, pager.IntValue(10), true},
		{"text vs text falls back to string compare", pager.TextValue("abc"), OpEq, pager.TextValue("abc"), true},
		{"non-numeric text not equal to int", pager.TextValue("abc"), OpEq, pager.IntValue(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluate(tt.left, tt.op, tt.right); got != tt.want {
				t.Errorf("evaluate(%v, %v, %v) = %v, want %v", tt.left, tt.op, tt.right, got, tt.want)
			}
		})
	}
}

func TestMatchesWhere_FallsBackToQualifiedColumn(t *testing.T) {
	row := Row{"orders.uid": pager.IntValue(5)}
	where := []WhereCondition{{Column: "uid", Op: OpEq, Value: pager.IntValue(5)}}
	if !matchesWhere(row, "orders", where) {
		t.Fatal("expected qualified-column fallback to match")
	}
}

func TestMatchesWhere_AndSemantics(t *testing.T) {
	row := Row{"age": pager.IntValue(30), "name": pager.TextValue("Alice")}
	where := []WhereCondition{
		{Column: "age", Op: OpGe, Value: pager.IntValue(18)},
		{Column: "name", Op: OpEq, Value: pager.TextValue("Bob")},
	}
	if matchesWhere(row, "users", where) {
		t.Fatal("expected AND of conditions to reject a row failing one clause")
	}
}
