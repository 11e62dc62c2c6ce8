// Package engine is the Command-driven façade binding named tables to
// their schema and B-tree handle (spec.md §4.5). It never parses SQL —
// it consumes Command values produced by an external collaborator.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leafbase/leafbase/internal/pager"
)

// Engine is the catalog of known tables plus the virtual disk they are
// all built on. A single Engine assumes sole ownership of its virtual
// disk (spec.md §5).
type Engine struct {
	vd     *pager.VirtualDisk
	tables map[string]*TableSchema // keyed by fold(name)
	trees  map[string]*pager.BTree // keyed by fold(name)
	txID   uuid.UUID
	inTx   bool
}

// Open constructs an Engine over vd, reconstructing every table's
// B-tree handle from its persisted root page id (spec.md §4.5
// "On startup, reads the tables metadata blob...").
func Open(vd *pager.VirtualDisk) (*Engine, error) {
	e := &Engine{vd: vd}
	if err := e.refresh(); err != nil {
		return nil, err
	}
	return e, nil
}

// refresh reloads the catalog and every table's B-tree handle from the
// virtual disk. Called at startup and after Rollback, per spec.md §9
// "Catalog reload on rollback": transactional writes to metadata are
// discarded by vd.Rollback, so the façade's in-memory view must be
// invalidated and rebuilt alongside it.
func (e *Engine) refresh() error {
	tables, err := loadCatalog(e.vd)
	if err != nil {
		return err
	}
	trees := make(map[string]*pager.BTree, len(tables))
	for key, schema := range tables {
		bt, err := pager.NewBTree(e.vd, schema.RootPageID)
		if err != nil {
			return fmt.Errorf("reopen btree for table %q: %w", schema.Name, err)
		}
		trees[key] = bt
	}
	e.tables = tables
	e.trees = trees
	return nil
}

func (e *Engine) lookup(name string) (*TableSchema, *pager.BTree, bool) {
	key := fold(name)
	schema, ok := e.tables[key]
	if !ok {
		return nil, nil, false
	}
	return schema, e.trees[key], true
}

// CreateTable implements spec.md §4.5 CREATE_TABLE.
func (e *Engine) CreateTable(name string, columns []ColumnDef) (string, error) {
	if _, _, exists := e.lookup(name); exists {
		return "", fmt.Errorf("create table %q: %w", name, ErrTableExists)
	}

	var pkName string
	cols := make([]Column, len(columns))
	for i, c := range columns {
		cols[i] = Column{Name: c.Name, Type: c.Type, PrimaryKey: c.PrimaryKey}
		if c.PrimaryKey {
			pkName = c.Name
		}
	}
	if pkName == "" {
		return "", fmt.Errorf("create table %q: %w", name, ErrNoPrimaryKey)
	}
	pkCol, _ := (&TableSchema{Columns: cols}).columnByName(pkName)
	if pkCol.Type != pager.ColumnInteger {
		return "", fmt.Errorf("create table %q: %w", name, ErrPKNotInteger)
	}

	rootID, err := e.vd.AllocatePage()
	if err != nil {
		return "", fmt.Errorf("create table %q: %w", name, err)
	}
	bt, err := pager.NewBTree(e.vd, rootID)
	if err != nil {
		return "", fmt.Errorf("create table %q: %w", name, err)
	}

	schema := &TableSchema{
		Name:       name,
		Columns:    cols,
		PKColumn:   pkName,
		RootPageID: rootID,
		AutoSeq:    0,
	}
	if e.tables == nil {
		e.tables = make(map[string]*TableSchema)
		e.trees = make(map[string]*pager.BTree)
	}
	e.tables[fold(name)] = schema
	e.trees[fold(name)] = bt

	if err := saveCatalog(e.vd, e.tables); err != nil {
		return "", fmt.Errorf("create table %q: %w", name, err)
	}
	return fmt.Sprintf("table %q created", name), nil
}

// resolveInsertValues builds the full provided-value map for an
// INSERT, honoring both the positional and named forms (spec.md §4.5
// INSERT).
func resolveInsertValues(schema *TableSchema, targetColumns []string, values []pager.Value, named map[string]pager.Value) (map[string]pager.Value, error) {
	if named != nil {
		provided := make(map[string]pager.Value, len(named))
		for col, v := range named {
			c, ok := schema.columnByName(col)
			if !ok {
				return nil, fmt.Errorf("insert into %q: column %q: %w", schema.Name, col, ErrColumnNotFound)
			}
			provided[c.Name] = v
		}
		return provided, nil
	}

	cols := targetColumns
	if len(cols) == 0 {
		cols = make([]string, len(schema.Columns))
		for i, c := range schema.Columns {
			cols[i] = c.Name
		}
	}
	if len(cols) != len(values) {
		return nil, fmt.Errorf("insert into %q: %w", schema.Name, ErrColumnCountMismatch)
	}
	provided := make(map[string]pager.Value, len(cols))
	for i, col := range cols {
		c, ok := schema.columnByName(col)
		if !ok {
			return nil, fmt.Errorf("insert into %q: column %q: %w", schema.Name, col, ErrColumnNotFound)
		}
		provided[c.Name] = values[i]
	}
	return provided, nil
}

// Insert implements spec.md §4.5 INSERT.
func (e *Engine) Insert(name string, values []pager.Value, insertColumns []string, named map[string]pager.Value) (string, error) {
	schema, bt, ok := e.lookup(name)
	if !ok {
		return "", fmt.Errorf("insert into %q: %w", name, ErrTableNotFound)
	}

	provided, err := resolveInsertValues(schema, insertColumns, values, named)
	if err != nil {
		return "", err
	}

	row := make(pager.Row, len(schema.Columns))
	var pk uint32
	pkExplicit := false

	for i, c := range schema.Columns {
		v, has := provided[c.Name]
		if c.Name == schema.PKColumn {
			if !has || v.IsNull() {
				continue // assigned below via auto-increment
			}
			if v.Kind != pager.KindInteger {
				return "", fmt.Errorf("insert into %q: %w", name, ErrInvalidPKValue)
			}
			pk = uint32(v.Int)
			pkExplicit = true
			row[i] = v
			continue
		}
		if !has || v.IsNull() {
			return "", fmt.Errorf("insert into %q: column %q: %w", name, c.Name, ErrNullValue)
		}
		if !valueMatchesType(v, c.Type) {
			return "", fmt.Errorf("insert into %q: column %q: %w", name, c.Name, ErrTypeMismatch)
		}
		row[i] = v
	}

	if !pkExplicit {
		maxKey, err := bt.GetMaxKey()
		if err != nil {
			return "", fmt.Errorf("insert into %q: %w", name, err)
		}
		pk = schema.AutoSeq
		if maxKey > pk {
			pk = maxKey
		}
		pk++
		row[schema.columnIndex(schema.PKColumn)] = pager.IntValue(int32(pk))
	}

	encoded, err := pager.EncodeRow(schema.pagerColumns(), row)
	if err != nil {
		return "", fmt.Errorf("insert into %q: %w", name, err)
	}
	if err := bt.Insert(pk, encoded); err != nil {
		return "", fmt.Errorf("insert into %q: %w", name, err)
	}
	schema.RootPageID = bt.Root()

	if pk > schema.AutoSeq {
		schema.AutoSeq = pk
	}
	if err := saveCatalog(e.vd, e.tables); err != nil {
		return "", fmt.Errorf("insert into %q: %w", name, err)
	}
	return "1 row inserted", nil
}

func valueMatchesType(v pager.Value, t pager.ColumnType) bool {
	switch t {
	case pager.ColumnInteger:
		return v.Kind == pager.KindInteger
	case pager.ColumnText:
		return v.Kind == pager.KindText
	default:
		return false
	}
}

func (e *Engine) allRows(schema *TableSchema, bt *pager.BTree) ([]Row, error) {
	kvs, err := bt.GetAll()
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(kvs))
	for _, kv := range kvs {
		decoded := pager.DecodeRow(schema.pagerColumns(), kv.Payload)
		rows = append(rows, schema.toRow(decoded))
	}
	return rows, nil
}

// Select implements spec.md §4.5 SELECT, §4.5.1 (join), §4.5.2
// (where).
func (e *Engine) Select(name string, join *JoinClause, where []WhereCondition) ([]Row, error) {
	schema, bt, ok := e.lookup(name)
	if !ok {
		return nil, fmt.Errorf("select from %q: %w", name, ErrTableNotFound)
	}
	rows, err := e.allRows(schema, bt)
	if err != nil {
		return nil, fmt.Errorf("select from %q: %w", name, err)
	}

	if join != nil {
		rightSchema, rightBt, ok := e.lookup(join.Table)
		if !ok {
			return nil, fmt.Errorf("select from %q: join table %q: %w", name, join.Table, ErrTableNotFound)
		}
		rightRows, err := e.allRows(rightSchema, rightBt)
		if err != nil {
			return nil, fmt.Errorf("select from %q: %w", name, err)
		}
		rows = nestedLoopJoin(schema.Name, rows, rightSchema.Name, rightRows, join.On)
	}

	if len(where) == 0 {
		return rows, nil
	}
	filtered := make([]Row, 0, len(rows))
	for _, r := range rows {
		if matchesWhere(r, schema.Name, where) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Update implements spec.md §4.5 UPDATE: select matching rows, then
// for each, apply assignments and delete-then-insert at the same
// primary key (spec.md §9 item 6).
func (e *Engine) Update(name string, assignments []Assignment, where []WhereCondition) (string, error) {
	schema, bt, ok := e.lookup(name)
	if !ok {
		return "", fmt.Errorf("update %q: %w", name, ErrTableNotFound)
	}
	matching, err := e.Select(name, nil, where)
	if err != nil {
		return "", err
	}

	count := 0
	for _, row := range matching {
		pkValue, ok := row[schema.PKColumn]
		if !ok || pkValue.Kind != pager.KindInteger {
			return "", fmt.Errorf("update %q: %w", name, ErrInvalidPKValue)
		}
		pk := uint32(pkValue.Int)

		updated := make(Row, len(row))
		for k, v := range row {
			updated[k] = v
		}
		for _, a := range assignments {
			c, ok := schema.columnByName(a.Column)
			if !ok {
				return "", fmt.Errorf("update %q: column %q: %w", name, a.Column, ErrColumnNotFound)
			}
			if c.Name == schema.PKColumn && !a.Value.Equal(pkValue) {
				return "", fmt.Errorf("update %q: %w", name, ErrCannotUpdatePK)
			}
			if a.Value.IsNull() {
				return "", fmt.Errorf("update %q: column %q: %w", name, c.Name, ErrNullValue)
			}
			if !valueMatchesType(a.Value, c.Type) {
				return "", fmt.Errorf("update %q: column %q: %w", name, c.Name, ErrTypeMismatch)
			}
			updated[c.Name] = a.Value
		}

		pagerRow, err := schema.toPagerRow(updated)
		if err != nil {
			return "", fmt.Errorf("update %q: %w", name, err)
		}
		encoded, err := pager.EncodeRow(schema.pagerColumns(), pagerRow)
		if err != nil {
			return "", fmt.Errorf("update %q: %w", name, err)
		}
		if err := bt.Delete(pk); err != nil {
			return "", fmt.Errorf("update %q: %w", name, err)
		}
		if err := bt.Insert(pk, encoded); err != nil {
			return "", fmt.Errorf("update %q: %w", name, err)
		}
		schema.RootPageID = bt.Root()
		count++
	}
	if err := saveCatalog(e.vd, e.tables); err != nil {
		return "", fmt.Errorf("update %q: %w", name, err)
	}
	return fmt.Sprintf("%d row(s) updated", count), nil
}

// Delete implements spec.md §4.5 DELETE.
func (e *Engine) Delete(name string, where []WhereCondition) (string, error) {
	schema, bt, ok := e.lookup(name)
	if !ok {
		return "", fmt.Errorf("delete from %q: %w", name, ErrTableNotFound)
	}
	matching, err := e.Select(name, nil, where)
	if err != nil {
		return "", err
	}
	count := 0
	for _, row := range matching {
		pkValue, ok := row[schema.PKColumn]
		if !ok || pkValue.Kind != pager.KindInteger {
			return "", fmt.Errorf("delete from %q: %w", name, ErrInvalidPKValue)
		}
		if err := bt.Delete(uint32(pkValue.Int)); err != nil {
			return "", fmt.Errorf("delete from %q: %w", name, err)
		}
		count++
	}
	return fmt.Sprintf("%d row(s) deleted", count), nil
}

// Begin starts a transaction and mints a UUID handle attached to the
// slog output, so overlapping BEGIN/COMMIT pairs across a session are
// distinguishable in logs even though the engine enforces
// single-transaction discipline (spec.md §5).
func (e *Engine) Begin() (string, error) {
	if err := e.vd.Begin(); err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	e.txID = uuid.New()
	e.inTx = true
	slog.Debug("transaction started", "tx", e.txID)
	return fmt.Sprintf("transaction %s started", e.txID), nil
}

// Commit implements spec.md §4.5 COMMIT.
func (e *Engine) Commit() (string, error) {
	if err := e.vd.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	slog.Debug("transaction committed", "tx", e.txID)
	e.inTx = false
	return "transaction committed", nil
}

// Rollback implements spec.md §4.5 ROLLBACK, additionally invalidating
// and reloading the façade's catalog and B-tree handles (spec.md §9
// "Catalog reload on rollback").
func (e *Engine) Rollback() (string, error) {
	if err := e.vd.Rollback(); err != nil {
		return "", fmt.Errorf("rollback: %w", err)
	}
	slog.Debug("transaction rolled back", "tx", e.txID)
	e.inTx = false
	if err := e.refresh(); err != nil {
		return "", fmt.Errorf("rollback: reload catalog: %w", err)
	}
	return "transaction rolled back", nil
}

// Vacuum re-inserts every row of name into a freshly allocated B-tree
// and swaps the catalog's root page id (SPEC_FULL.md §4), a
// maintenance operation outside spec.md's core query surface.
func (e *Engine) Vacuum(name string) (string, error) {
	schema, bt, ok := e.lookup(name)
	if !ok {
		return "", fmt.Errorf("vacuum %q: %w", name, ErrTableNotFound)
	}
	kvs, err := bt.GetAll()
	if err != nil {
		return "", fmt.Errorf("vacuum %q: %w", name, err)
	}
	newRoot, err := e.vd.AllocatePage()
	if err != nil {
		return "", fmt.Errorf("vacuum %q: %w", name, err)
	}
	newTree, err := pager.NewBTree(e.vd, newRoot)
	if err != nil {
		return "", fmt.Errorf("vacuum %q: %w", name, err)
	}
	for _, kv := range kvs {
		if err := newTree.Insert(kv.Key, kv.Payload); err != nil {
			return "", fmt.Errorf("vacuum %q: %w", name, err)
		}
	}
	schema.RootPageID = newTree.Root()
	e.trees[fold(name)] = newTree
	if err := saveCatalog(e.vd, e.tables); err != nil {
		return "", fmt.Errorf("vacuum %q: %w", name, err)
	}
	return fmt.Sprintf("table %q vacuumed", name), nil
}

// ListTables returns the names of every known table (SPEC_FULL.md §4).
func (e *Engine) ListTables() []string {
	names := make([]string, 0, len(e.tables))
	for _, s := range e.tables {
		names = append(names, s.Name)
	}
	return names
}

// Stats is a lightweight introspection snapshot (SPEC_FULL.md §4,
// grounded in the teacher's BackendStats).
type Stats struct {
	TableCount    int
	MaxPageID     uint32
	InTransaction bool
}

// Stats reports Engine-wide introspection data.
func (e *Engine) Stats() Stats {
	return Stats{
		TableCount:    len(e.tables),
		MaxPageID:     uint32(e.vd.MaxPageID()),
		InTransaction: e.vd.InTransaction(),
	}
}

// Execute dispatches cmd to the matching operation (spec.md §6
// "Command surface"). The result surface matches spec.md §6: mutation
// and transaction commands return a status string, SELECT returns
// []Row.
func (e *Engine) Execute(cmd Command) (any, error) {
	switch cmd.Kind {
	case CommandCreateTable:
		return e.CreateTable(cmd.Table, cmd.Columns)
	case CommandInsert:
		return e.Insert(cmd.Table, cmd.Values, cmd.InsertColumns, cmd.NamedValues)
	case CommandSelect:
		return e.Select(cmd.Table, cmd.Join, cmd.Where)
	case CommandUpdate:
		return e.Update(cmd.Table, cmd.Assignments, cmd.Where)
	case CommandDelete:
		return e.Delete(cmd.Table, cmd.Where)
	case CommandBegin:
		return e.Begin()
	case CommandCommit:
		return e.Commit()
	case CommandRollback:
		return e.Rollback()
	case CommandVacuum:
		return e.Vacuum(cmd.Table)
	default:
		return nil, errors.New("execute: unknown command kind")
	}
}
