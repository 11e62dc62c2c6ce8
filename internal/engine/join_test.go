package engine

import (
	"testing"

	"github.com/leafbase/leafbase/internal/pager"
)

func TestResolveRef_FourStepResolution(t *testing.T) {
	l := Row{"id": pager.IntValue(1), "name": pager.TextValue("Alice")}
	r := Row{"uid": pager.IntValue(1), "item": pager.TextValue("Laptop")}

	if v := resolveRef("name", l, "users", r, "orders"); v.Text != "Alice" {
		t.Fatalf("step 1 (exact match in l): got %+v", v)
	}
	if v := resolveRef("item", l, "users", r, "orders"); v.Text != "Laptop" {
		t.Fatalf("step 2 (exact match in r): got %+v", v)
	}
	if v := resolveRef("users.id", l, "users", r, "orders"); v.Int != 1 {
		t.Fatalf("step 3 (qualified l): got %+v", v)
	}
	if v := resolveRef("orders.uid", l, "users", r, "orders"); v.Int != 1 {
		t.Fatalf("step 3 (qualified r): got %+v", v)
	}
	if v := resolveRef("literal", l, "users", r, "orders"); v.Text != "literal" {
		t.Fatalf("step 4 (literal fallback): got %+v", v)
	}
}

func TestMergeRows_ConflictIsPrefixed(t *testing.T) {
	l := Row{"id": pager.IntValue(1)}
	r := Row{"id": pager.IntValue(100), "item": pager.TextValue("Laptop")}
	merged := mergeRows(l, r, "orders")

	if merged["id"].Int != 1 {
		t.Fatalf("expected l's id to survive unprefixed, got %+v", merged["id"])
	}
	if merged["orders.id"].Int != 100 {
		t.Fatalf("expected colliding r key prefixed with right table name, got %+v", merged)
	}
	if merged["item"].Text != "Laptop" {
		t.Fatalf("expected non-colliding r key to copy through, got %+v", merged)
	}
}

func TestNestedLoopJoin_CartesianFilter(t *testing.T) {
	left := []Row{
		{"id": pager.IntValue(1), "name": pager.TextValue("Alice")},
		{"id": pager.IntValue(2), "name": pager.TextValue("Bob")},
	}
	right := []Row{
		{"uid": pager.IntValue(1), "item": pager.TextValue("Laptop")},
	}
	out := nestedLoopJoin("users", left, "orders", right, JoinCondition{Left: "users.id", Op: OpEq, Right: "orders.uid"})
	if len(out) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(out), out)
	}
	if out[0]["name"].Text != "Alice" || out[0]["item"].Text != "Laptop" {
		t.Fatalf("unexpected merged row: %+v", out[0])
	}
}
