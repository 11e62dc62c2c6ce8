package pager

import "testing"

func TestVirtualDisk_WriteThroughVisibleAfterReopen(t *testing.T) {
	dev := NewMemoryBlockDevice()
	vd, err := OpenVirtualDisk(dev)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id, err := vd.AllocatePage()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	var page Page
	page[0] = 0xAB
	if err := vd.WritePage(id, page); err != nil {
		t.Fatalf("write: %v", err)
	}

	vd2, err := OpenVirtualDisk(dev)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := vd2.ReadPage(id)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got[0] != 0xAB {
		t.Fatalf("page not durable across reopen: got %x", got[0])
	}
}

func TestVirtualDisk_TransactionCommit(t *testing.T) {
	vd, err := OpenVirtualDisk(NewMemoryBlockDevice())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := vd.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	id, err := vd.AllocatePage()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	var page Page
	page[0] = 1
	if err := vd.WritePage(id, page); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := vd.SetMeta("k", "v"); err != nil {
		t.Fatalf("set meta: %v", err)
	}
	if err := vd.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := vd.ReadPage(id)
	if err != nil || got[0] != 1 {
		t.Fatalf("committed page not visible: page=%v err=%v", got, err)
	}
	v, ok, err := vd.GetMeta("k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("committed meta not visible: v=%v ok=%v err=%v", v, ok, err)
	}
}

func TestVirtualDisk_RollbackDiscardsAllocationsAndWrites(t *testing.T) {
	vd, err := OpenVirtualDisk(NewMemoryBlockDevice())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	preID, err := vd.AllocatePage()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	var basePage Page
	basePage[0] = 0x11
	if err := vd.WritePage(preID, basePage); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := vd.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	txID, err := vd.AllocatePage()
	if err != nil {
		t.Fatalf("allocate in tx: %v", err)
	}
	var txPage Page
	txPage[0] = 0x22
	if err := vd.WritePage(txID, txPage); err != nil {
		t.Fatalf("write in tx: %v", err)
	}
	if err := vd.SetMeta("during-tx", 1); err != nil {
		t.Fatalf("set meta in tx: %v", err)
	}

	got, err := vd.ReadPage(txID)
	if err != nil || got[0] != 0x22 {
		t.Fatalf("transaction writes should be visible to in-process reads: page=%v err=%v", got, err)
	}

	if err := vd.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	// The transactional page was never durably written — re-reading it
	// returns a fresh zero page.
	got, err = vd.ReadPage(txID)
	if err != nil {
		t.Fatalf("read after rollback: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero page for never-committed id, got %v", got)
	}
	if _, ok, _ := vd.GetMeta("during-tx"); ok {
		t.Fatal("metadata buffered during a rolled-back transaction should not persist")
	}

	// Re-allocating must reuse the id the transaction had claimed, since
	// the counter was reloaded from the block device.
	reallocID, err := vd.AllocatePage()
	if err != nil {
		t.Fatalf("allocate after rollback: %v", err)
	}
	if reallocID != txID {
		t.Fatalf("expected rollback to free the transactional allocation: got %d, want %d", reallocID, txID)
	}
}

func TestVirtualDisk_DoubleBeginFails(t *testing.T) {
	vd, _ := OpenVirtualDisk(NewMemoryBlockDevice())
	if err := vd.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := vd.Begin(); err == nil {
		t.Fatal("expected error on nested begin")
	}
}

func TestVirtualDisk_CommitRollbackWithoutTransactionFails(t *testing.T) {
	vd, _ := OpenVirtualDisk(NewMemoryBlockDevice())
	if err := vd.Commit(); err == nil {
		t.Fatal("expected error committing without a transaction")
	}
	if err := vd.Rollback(); err == nil {
		t.Fatal("expected error rolling back without a transaction")
	}
}
