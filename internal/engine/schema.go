package engine

import "github.com/leafbase/leafbase/internal/pager"

// Column describes one declared table column: the pager's minimal
// name+type pair, plus whether this column is the table's primary key.
type Column struct {
	Name      string
	Type      pager.ColumnType
	PrimaryKey bool
}

// TableSchema is the catalog's in-memory description of one table: its
// ordered columns, which one is the primary key, the root page of its
// B-tree, and the auto-increment high-water mark (spec.md §3 "Table
// schema").
type TableSchema struct {
	Name       string
	Columns    []Column
	PKColumn   string
	RootPageID pager.PageID
	AutoSeq    uint32
}

// pagerColumns projects the schema's columns into the row codec's
// minimal Column type, preserving declaration order.
func (s *TableSchema) pagerColumns() []pager.Column {
	cols := make([]pager.Column, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = pager.Column{Name: c.Name, Type: c.Type}
	}
	return cols
}

// columnByName resolves name to a declared column case-insensitively
// (SPEC_FULL.md §4 "Case-insensitive identifier resolution"); the
// returned Column carries the schema's canonical spelling.
func (s *TableSchema) columnByName(name string) (Column, bool) {
	folded := fold(name)
	for _, c := range s.Columns {
		if fold(c.Name) == folded {
			return c, true
		}
	}
	return Column{}, false
}

func (s *TableSchema) columnIndex(name string) int {
	folded := fold(name)
	for i, c := range s.Columns {
		if fold(c.Name) == folded {
			return i
		}
	}
	return -1
}

// Row is a column-name-keyed view of a decoded row, the representation
// SELECT results and join/predicate evaluation operate on (spec.md §6
// "Result surface": SELECT returns "an ordered sequence of row maps").
// This is distinct from pager.Row, the codec's positional tuple.
type Row map[string]pager.Value

// toRow converts a schema-ordered pager.Row into the name-keyed Row.
func (s *TableSchema) toRow(pr pager.Row) Row {
	row := make(Row, len(s.Columns))
	for i, c := range s.Columns {
		if i < len(pr) {
			row[c.Name] = pr[i]
		}
	}
	return row
}

// toPagerRow converts a name-keyed Row back into schema-ordered form
// for encoding. Every declared column must be present and non-null.
func (s *TableSchema) toPagerRow(row Row) (pager.Row, error) {
	out := make(pager.Row, len(s.Columns))
	for i, c := range s.Columns {
		v, ok := row[c.Name]
		if !ok || v.IsNull() {
			return nil, ErrNullValue
		}
		out[i] = v
	}
	return out, nil
}
