package engine

import (
	"testing"

	"github.com/leafbase/leafbase/internal/pager"
)

func TestCatalog_SaveLoadRoundTrip(t *testing.T) {
	vd, err := pager.OpenVirtualDisk(pager.NewMemoryBlockDevice())
	if err != nil {
		t.Fatalf("open virtual disk: %v", err)
	}
	tables := map[string]*TableSchema{
		"users": {
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: pager.ColumnInteger, PrimaryKey: true},
				{Name: "name", Type: pager.ColumnText},
			},
			PKColumn:   "id",
			RootPageID: 7,
			AutoSeq:    3,
		},
	}
	if err := saveCatalog(vd, tables); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := loadCatalog(vd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	schema, ok := loaded["users"]
	if !ok {
		t.Fatal("users table missing after reload")
	}
	if schema.PKColumn != "id" || schema.RootPageID != 7 || schema.AutoSeq != 3 {
		t.Fatalf("schema mismatch: %+v", schema)
	}
	if len(schema.Columns) != 2 || schema.Columns[1].Name != "name" || schema.Columns[1].Type != pager.ColumnText {
		t.Fatalf("columns mismatch: %+v", schema.Columns)
	}
}

func TestCatalog_SkipsCorruptedEntry(t *testing.T) {
	vd, err := pager.OpenVirtualDisk(pager.NewMemoryBlockDevice())
	if err != nil {
		t.Fatalf("open virtual disk: %v", err)
	}
	// A record with no columns is corrupted per spec.md §4.5 / §7; it
	// must be skipped, never surfaced as a load error.
	raw := []catalogRecord{
		{Name: "broken", Columns: nil, PKColumn: "id", RootPageID: 1, Seq: 0},
		{Name: "ok", Columns: []catalogColumnRecord{{Name: "id", Type: "INTEGER", IsPrimaryKey: true}}, PKColumn: "id", RootPageID: 2, Seq: 0},
	}
	if err := vd.SetMeta(catalogMetaKey, raw); err != nil {
		t.Fatalf("set meta: %v", err)
	}

	loaded, err := loadCatalog(vd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := loaded["broken"]; ok {
		t.Fatal("corrupted entry should have been skipped")
	}
	if _, ok := loaded["ok"]; !ok {
		t.Fatal("valid entry should have been loaded")
	}
}

func TestCatalog_EmptyWhenNoMetadata(t *testing.T) {
	vd, err := pager.OpenVirtualDisk(pager.NewMemoryBlockDevice())
	if err != nil {
		t.Fatalf("open virtual disk: %v", err)
	}
	loaded, err := loadCatalog(vd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty catalog, got %+v", loaded)
	}
}
