package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/leafbase/leafbase/internal/pager"
)

const (
	catalogMetaKey = "tables"
	rootMetaKey    = "root"
)

// catalogColumnRecord is the on-disk shape of one column entry, matching
// spec.md §6's catalog format: `{name, type, isPrimaryKey?}`.
type catalogColumnRecord struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	IsPrimaryKey bool   `json:"isPrimaryKey,omitempty"`
}

// catalogRecord is the on-disk shape of one table entry: `{name,
// columns, pkColumn, rootPageId, seq}` (spec.md §6).
type catalogRecord struct {
	Name       string                `json:"name"`
	Columns    []catalogColumnRecord `json:"columns"`
	PKColumn   string                `json:"pkColumn"`
	RootPageID uint32                `json:"rootPageId"`
	Seq        uint32                `json:"seq"`
}

func columnTypeToString(t pager.ColumnType) string {
	if t == pager.ColumnText {
		return "TEXT"
	}
	return "INTEGER"
}

func columnTypeFromString(s string) (pager.ColumnType, error) {
	switch s {
	case "INTEGER":
		return pager.ColumnInteger, nil
	case "TEXT":
		return pager.ColumnText, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

func toRecord(s *TableSchema) catalogRecord {
	cols := make([]catalogColumnRecord, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = catalogColumnRecord{
			Name:        c.Name,
			Type:        columnTypeToString(c.Type),
			IsPrimaryKey: c.PrimaryKey,
		}
	}
	return catalogRecord{
		Name:       s.Name,
		Columns:    cols,
		PKColumn:   s.PKColumn,
		RootPageID: uint32(s.RootPageID),
		Seq:        s.AutoSeq,
	}
}

// fromRecord converts a catalog record into a TableSchema. A record
// missing its columns list is corrupted (spec.md §4.5, §7 "corruption
// advisories") and is reported via the bool return rather than an
// error, so the caller can log and skip it.
func fromRecord(rec catalogRecord) (*TableSchema, bool) {
	if len(rec.Columns) == 0 {
		return nil, false
	}
	cols := make([]Column, len(rec.Columns))
	for i, c := range rec.Columns {
		typ, err := columnTypeFromString(c.Type)
		if err != nil {
			return nil, false
		}
		cols[i] = Column{Name: c.Name, Type: typ, PrimaryKey: c.IsPrimaryKey}
	}
	return &TableSchema{
		Name:       rec.Name,
		Columns:    cols,
		PKColumn:   rec.PKColumn,
		RootPageID: pager.PageID(rec.RootPageID),
		AutoSeq:    rec.Seq,
	}, true
}

// normalizeRecords re-encodes a raw metadata value through JSON so that
// both a freshly-set []catalogRecord (the in-process / memory block
// device path) and a generic map/slice produced by a JSON round-trip
// through a disk-backed device (pager.FileBlockDevice) end up as the
// same concrete type. Mirrors pager.toUint32's normalization trick for
// the same reason: BlockDevice metadata values round-trip exactly, but
// "exactly" can mean "as whatever shape JSON reconstructs".
func normalizeRecords(raw any) ([]catalogRecord, error) {
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize catalog: %w", err)
	}
	var records []catalogRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("normalize catalog: %w", err)
	}
	return records, nil
}

// loadCatalog reads the `tables` metadata blob and reconstructs each
// table's schema. A corrupted entry (missing columns) is logged via
// slog and skipped, never returned as an error (spec.md §4.5, §7).
func loadCatalog(vd *pager.VirtualDisk) (map[string]*TableSchema, error) {
	tables := make(map[string]*TableSchema)
	raw, ok, err := vd.GetMeta(catalogMetaKey)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if !ok {
		return tables, nil
	}
	records, err := normalizeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	for _, rec := range records {
		schema, valid := fromRecord(rec)
		if !valid {
			slog.Warn("skipping corrupted catalog entry", "table", rec.Name)
			continue
		}
		tables[fold(schema.Name)] = schema
	}
	return tables, nil
}

// saveCatalog persists the full set of table schemas under the
// `tables` metadata key.
func saveCatalog(vd *pager.VirtualDisk, tables map[string]*TableSchema) error {
	records := make([]catalogRecord, 0, len(tables))
	for _, s := range tables {
		records = append(records, toRecord(s))
	}
	if err := vd.SetMeta(catalogMetaKey, records); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}
