package engine

import (
	"testing"

	"github.com/leafbase/leafbase/internal/pager"
)

func TestScheduler_AddJobRejectsInvalidCronExpr(t *testing.T) {
	vd, err := pager.OpenVirtualDisk(pager.NewMemoryBlockDevice())
	if err != nil {
		t.Fatalf("open virtual disk: %v", err)
	}
	eng, err := Open(vd)
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	s := NewScheduler(eng)
	if err := s.AddJob("bad", "not a cron expression", Command{Kind: CommandVacuum, Table: "x"}); err == nil {
		t.Fatal("expected error scheduling an invalid cron expression")
	}
}

func TestScheduler_AddJobAcceptsValidCronExpr(t *testing.T) {
	vd, err := pager.OpenVirtualDisk(pager.NewMemoryBlockDevice())
	if err != nil {
		t.Fatalf("open virtual disk: %v", err)
	}
	eng, err := Open(vd)
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	if _, err := eng.CreateTable("t", []ColumnDef{{Name: "id", Type: pager.ColumnInteger, PrimaryKey: true}}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	s := NewScheduler(eng)
	if err := s.AddJob("vacuum-t", "0 0 3 * * *", Command{Kind: CommandVacuum, Table: "t"}); err != nil {
		t.Fatalf("schedule valid cron expr: %v", err)
	}
}
