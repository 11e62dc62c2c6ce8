package pager

import "fmt"

const maxPageIDMetaKey = "max_page_id"

// txState is the transaction-scoped override described in SPEC_FULL.md §1
// open question / design note "Transaction buffers": an optional sub-state
// on the VirtualDisk rather than two parallel nullable fields.
type txState struct {
	pages map[PageID]Page
	meta  map[string]any
}

// VirtualDisk is the in-memory page cache, allocator, and transaction
// buffer over a BlockDevice. See spec.md §4.2 for the normative contract.
type VirtualDisk struct {
	dev       BlockDevice
	cache     map[PageID]Page
	maxPageID PageID
	tx        *txState
}

// OpenVirtualDisk wraps dev, loading the persisted max_page_id counter.
func OpenVirtualDisk(dev BlockDevice) (*VirtualDisk, error) {
	vd := &VirtualDisk{
		dev:   dev,
		cache: make(map[PageID]Page),
	}
	if err := vd.loadMaxPageID(); err != nil {
		return nil, err
	}
	return vd, nil
}

func (vd *VirtualDisk) loadMaxPageID() error {
	v, ok, err := vd.dev.GetMeta(maxPageIDMetaKey)
	if err != nil {
		return fmt.Errorf("load max_page_id: %w", err)
	}
	if !ok {
		vd.maxPageID = 0
		return nil
	}
	vd.maxPageID = PageID(toUint32(v))
	return nil
}

// toUint32 normalizes the dynamically-typed value a BlockDevice's
// metadata side-store may hand back (a JSON-backed device round-trips
// integers as float64) into a uint32.
func toUint32(v any) uint32 {
	switch n := v.(type) {
	case uint32:
		return n
	case int:
		return uint32(n)
	case int64:
		return uint32(n)
	case float64:
		return uint32(n)
	default:
		return 0
	}
}

// InTransaction reports whether a transaction is currently active.
func (vd *VirtualDisk) InTransaction() bool { return vd.tx != nil }

// MaxPageID returns the highest page id ever allocated, for
// introspection (engine.Engine.Stats).
func (vd *VirtualDisk) MaxPageID() PageID { return vd.maxPageID }

// ReadPage returns the current bytes for id, preferring the transaction
// buffer, then the cache, then the backing block device. A miss with no
// backing page returns a fresh zero page, never persisted until written.
func (vd *VirtualDisk) ReadPage(id PageID) (Page, error) {
	if vd.tx != nil {
		if p, ok := vd.tx.pages[id]; ok {
			return p, nil
		}
	}
	if p, ok := vd.cache[id]; ok {
		return p, nil
	}
	p, err := vd.dev.ReadPage(id)
	if err != nil {
		return Page{}, fmt.Errorf("read page %d: %w", id, err)
	}
	vd.cache[id] = p
	return p, nil
}

// WritePage buffers data during a transaction (a defensive copy, so later
// caller-side mutation of data cannot corrupt the buffered entry) or, outside
// a transaction, writes through to the cache and the block device.
func (vd *VirtualDisk) WritePage(id PageID, data Page) error {
	if vd.tx != nil {
		vd.tx.pages[id] = data // Page is a value type: this copies.
		return nil
	}
	return vd.writeThrough(id, data)
}

func (vd *VirtualDisk) writeThrough(id PageID, data Page) error {
	vd.cache[id] = data
	if err := vd.dev.WritePage(id, data); err != nil {
		return fmt.Errorf("write page %d: %w", id, err)
	}
	if id > vd.maxPageID {
		vd.maxPageID = id
		if err := vd.dev.SetMeta(maxPageIDMetaKey, uint32(vd.maxPageID)); err != nil {
			return fmt.Errorf("persist max_page_id: %w", err)
		}
	}
	return nil
}

// AllocatePage returns a fresh PageID, guaranteed never to collide with any
// previously allocated id in this database's lifetime. Outside a
// transaction the counter is persisted immediately; during a transaction it
// is held in memory and persisted on Commit.
func (vd *VirtualDisk) AllocatePage() (PageID, error) {
	vd.maxPageID++
	id := vd.maxPageID
	if vd.tx == nil {
		if err := vd.dev.SetMeta(maxPageIDMetaKey, uint32(vd.maxPageID)); err != nil {
			return 0, fmt.Errorf("persist max_page_id: %w", err)
		}
	}
	return id, nil
}

// GetMeta reads a metadata value, preferring the transaction buffer.
func (vd *VirtualDisk) GetMeta(key string) (any, bool, error) {
	if vd.tx != nil {
		if v, ok := vd.tx.meta[key]; ok {
			return v, true, nil
		}
	}
	return vd.dev.GetMeta(key)
}

// SetMeta writes a metadata value: buffered during a transaction, written
// through to the block device otherwise.
func (vd *VirtualDisk) SetMeta(key string, value any) error {
	if vd.tx != nil {
		vd.tx.meta[key] = value
		return nil
	}
	return vd.dev.SetMeta(key, value)
}

// Begin opens a transaction. At most one transaction may be active at a
// time (spec.md §5).
func (vd *VirtualDisk) Begin() error {
	if vd.tx != nil {
		return ErrTransactionActive
	}
	vd.tx = &txState{
		pages: make(map[PageID]Page),
		meta:  make(map[string]any),
	}
	return nil
}

// Commit writes every buffered page and metadata entry through to the
// block device, persists max_page_id, and clears the buffers. Not atomic
// against external crashes (spec.md §7); atomic against Rollback.
func (vd *VirtualDisk) Commit() error {
	if vd.tx == nil {
		return ErrNoTransaction
	}
	tx := vd.tx
	vd.tx = nil // subsequent writeThrough calls must see "no transaction".

	for id, data := range tx.pages {
		if err := vd.writeThrough(id, data); err != nil {
			return fmt.Errorf("commit page %d: %w", id, err)
		}
	}
	for key, value := range tx.meta {
		if err := vd.dev.SetMeta(key, value); err != nil {
			return fmt.Errorf("commit metadata %q: %w", key, err)
		}
	}
	if err := vd.dev.SetMeta(maxPageIDMetaKey, uint32(vd.maxPageID)); err != nil {
		return fmt.Errorf("commit max_page_id: %w", err)
	}
	return nil
}

// Rollback discards both buffers, clears the cache, and reloads
// max_page_id from the block device — undoing any transactional
// allocations. This is also the "refresh" primitive described in
// SPEC_FULL.md §1: callers that must reconstruct in-memory state built on
// top of the virtual disk (the engine's catalog) should do so immediately
// after Rollback returns.
func (vd *VirtualDisk) Rollback() error {
	if vd.tx == nil {
		return ErrNoTransaction
	}
	vd.tx = nil
	vd.cache = make(map[PageID]Page)
	return vd.loadMaxPageID()
}

// Reset erases all pages and metadata via the underlying block device and
// clears all in-memory state. There must be no active transaction.
func (vd *VirtualDisk) Reset() error {
	if vd.tx != nil {
		return ErrTransactionActive
	}
	if err := vd.dev.Reset(); err != nil {
		return err
	}
	vd.cache = make(map[PageID]Page)
	vd.maxPageID = 0
	return nil
}
