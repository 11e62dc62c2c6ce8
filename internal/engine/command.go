package engine

import "github.com/leafbase/leafbase/internal/pager"

// CommandKind names the variant of a Command value (spec.md §6
// "Command surface"). The parser that produces Command values is an
// external collaborator; its grammar is not this package's concern.
type CommandKind int

const (
	CommandCreateTable CommandKind = iota
	CommandInsert
	CommandSelect
	CommandUpdate
	CommandDelete
	CommandBegin
	CommandCommit
	CommandRollback
	// CommandVacuum is the supplemented maintenance operation
	// (SPEC_FULL.md §4): re-insert every row into a freshly allocated
	// B-tree and swap the catalog's root page id.
	CommandVacuum
)

// Operator is a predicate/join comparison operator (spec.md §4.5.2).
type Operator int

const (
	OpEq Operator = iota
	OpLt
	OpGt
	OpLe
	OpGe
)

// ColumnDef names one column of a CREATE_TABLE command.
type ColumnDef struct {
	Name       string
	Type       pager.ColumnType
	PrimaryKey bool
}

// WhereCondition is one clause of an AND-connected WHERE list (spec.md
// §4.5.2). Value is a literal, already resolved by the parser.
type WhereCondition struct {
	Column string
	Op     Operator
	Value  pager.Value
}

// JoinCondition is the `on` clause of a join (spec.md §4.5.1); both
// Left and Right are column-reference strings resolved at evaluation
// time, not literals.
type JoinCondition struct {
	Left  string
	Op    Operator
	Right string
}

// JoinClause names the joined table and its condition. Left marks a
// LEFT JOIN, accepted but — per spec.md §9 item 4 / SPEC_FULL.md §1
// decision 4 — treated identically to an inner join by Execute.
type JoinClause struct {
	Table string
	On    JoinCondition
	Left  bool
}

// Assignment is one `column = value` pair of an UPDATE command.
type Assignment struct {
	Column string
	Value  pager.Value
}

// Command is the algebraic value consumed from the external parser
// (spec.md §6). Only the fields relevant to Kind are populated.
type Command struct {
	Kind CommandKind

	Table string // CREATE_TABLE, INSERT, SELECT, UPDATE, DELETE, VACUUM

	// CREATE_TABLE
	Columns []ColumnDef

	// INSERT: exactly one of Values (positional) or NamedValues set.
	Values       []pager.Value
	InsertColumns []string // names to which Values correspond; empty means "all columns in schema order"; ignored when NamedValues is set
	NamedValues  map[string]pager.Value

	// SELECT
	Join  *JoinClause
	Where []WhereCondition

	// UPDATE
	Assignments []Assignment
}
