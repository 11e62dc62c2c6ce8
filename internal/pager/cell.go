package pager

import (
	"encoding/binary"
	"fmt"
)

// LeafCell is a single key/payload entry inside a leaf node (spec.md §3
// "Leaf cell").
type LeafCell struct {
	Key     uint32
	Payload []byte
}

// InternalEntry is a single (key, right-child) pair inside an internal
// node. child_0 is stored separately from the entries slice (spec.md §3
// "Internal cell layout").
type InternalEntry struct {
	Key   uint32
	Child PageID
}

// decodeLeafCells reads every cell out of a leaf page, in stored (already
// key-ascending) order.
func decodeLeafCells(p *Page) []LeafCell {
	n := int(p.NumCells())
	cells := make([]LeafCell, 0, n)
	off := HeaderSize
	for i := 0; i < n; i++ {
		key := binary.BigEndian.Uint32(p[off : off+4])
		size := binary.BigEndian.Uint32(p[off+4 : off+8])
		payload := make([]byte, size)
		copy(payload, p[off+8:off+8+int(size)])
		cells = append(cells, LeafCell{Key: key, Payload: payload})
		off += 8 + int(size)
	}
	return cells
}

// encodeLeafPage rewrites a leaf page from scratch given its parent pointer
// and an ordered cell list. It fails if the cells do not fit in PageSize.
func encodeLeafPage(parent PageID, cells []LeafCell) (Page, error) {
	var p Page
	p.InitLeaf(parent)
	off := HeaderSize
	for _, c := range cells {
		need := 8 + len(c.Payload)
		if off+need > PageSize {
			return Page{}, fmt.Errorf("leaf page overflow: %d cells do not fit in %d bytes", len(cells), PageSize-HeaderSize)
		}
		binary.BigEndian.PutUint32(p[off:off+4], c.Key)
		binary.BigEndian.PutUint32(p[off+4:off+8], uint32(len(c.Payload)))
		copy(p[off+8:], c.Payload)
		off += need
	}
	p.SetNumCells(uint16(len(cells)))
	return p, nil
}

// decodeInternal reads child_0 and every (key, child) entry out of an
// internal page, in stored (key-ascending) order.
func decodeInternal(p *Page) (child0 PageID, entries []InternalEntry) {
	n := int(p.NumCells())
	off := HeaderSize
	child0 = PageID(binary.BigEndian.Uint32(p[off : off+4]))
	off += 4
	entries = make([]InternalEntry, 0, n)
	for i := 0; i < n; i++ {
		key := binary.BigEndian.Uint32(p[off : off+4])
		off += 4
		child := PageID(binary.BigEndian.Uint32(p[off : off+4]))
		off += 4
		entries = append(entries, InternalEntry{Key: key, Child: child})
	}
	return child0, entries
}

// encodeInternalPage rewrites an internal page from scratch. It fails if
// the entries do not fit in PageSize.
func encodeInternalPage(parent PageID, child0 PageID, entries []InternalEntry) (Page, error) {
	var p Page
	p.InitInternal(parent)
	off := HeaderSize
	need := 4 + len(entries)*8
	if off+need > PageSize {
		return Page{}, fmt.Errorf("%w: %d entries do not fit in %d bytes", ErrIndexPageFull, len(entries), PageSize-HeaderSize)
	}
	binary.BigEndian.PutUint32(p[off:off+4], uint32(child0))
	off += 4
	for _, e := range entries {
		binary.BigEndian.PutUint32(p[off:off+4], e.Key)
		off += 4
		binary.BigEndian.PutUint32(p[off:off+4], uint32(e.Child))
		off += 4
	}
	p.SetNumCells(uint16(len(entries)))
	return p, nil
}

// routeChild applies the leaf-routing rule of spec.md §4.3: descend into the
// child preceding the first separator strictly greater than key, or into
// the last child if no such separator exists. Equal keys route right, per
// the documented (and deliberately preserved) asymmetry — see SPEC_FULL.md
// §1 open question 1.
func routeChild(child0 PageID, entries []InternalEntry, key uint32) PageID {
	target := child0
	for _, e := range entries {
		if key < e.Key {
			return target
		}
		target = e.Child
	}
	return target
}
