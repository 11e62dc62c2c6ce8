// Package pager implements leafbase's paged, B-tree–indexed storage layer:
// the on-disk page layout, the transactional virtual-disk cache, the B-tree
// itself, and the row codec. See SPEC_FULL.md §1 for the normative contract.
package pager

import "encoding/binary"

// PageSize is the fixed size of every page on disk. Normative per spec.md §3.
const PageSize = 4096

// HeaderSize is the size of the per-page header: node_type(1) |
// num_cells(2) | parent_ptr(4).
const HeaderSize = 7

// PageID identifies a page. 0 is the null / "no parent" sentinel; real
// pages start at 1.
type PageID uint32

// NullPageID is the sentinel meaning "no page" / "this is the root".
const NullPageID PageID = 0

// NodeType distinguishes internal and leaf B-tree pages.
type NodeType uint8

const (
	NodeInternal NodeType = 0
	NodeLeaf     NodeType = 1
)

// Page is one fixed-size page buffer.
type Page [PageSize]byte

// ZeroPage returns a freshly allocated, all-zero page, which the B-tree
// treats as "uninitialized leaf, num_cells=0, parent=0" until it
// materializes a proper header on first use.
func ZeroPage() Page {
	return Page{}
}

// IsZero reports whether the page is entirely unwritten (per spec.md §3,
// "all-zero" including the leading 4 bytes of the header).
func (p *Page) IsZero() bool {
	for _, b := range p[:] {
		if b != 0 {
			return false
		}
	}
	return true
}

// NodeType reads the node_type header field.
func (p *Page) NodeType() NodeType { return NodeType(p[0]) }

// SetNodeType writes the node_type header field.
func (p *Page) SetNodeType(t NodeType) { p[0] = byte(t) }

// NumCells reads the num_cells header field.
func (p *Page) NumCells() uint16 { return binary.BigEndian.Uint16(p[1:3]) }

// SetNumCells writes the num_cells header field.
func (p *Page) SetNumCells(n uint16) { binary.BigEndian.PutUint16(p[1:3], n) }

// ParentPtr reads the parent_ptr header field. Per SPEC_FULL.md §1 open
// question 2, this is a best-effort hint only — the B-tree never relies on
// it for navigation, so its staleness after a split is harmless.
func (p *Page) ParentPtr() PageID { return PageID(binary.BigEndian.Uint32(p[3:7])) }

// SetParentPtr writes the parent_ptr header field.
func (p *Page) SetParentPtr(id PageID) { binary.BigEndian.PutUint32(p[3:7], uint32(id)) }

// InitLeaf materializes a proper empty-leaf header over a zero page.
func (p *Page) InitLeaf(parent PageID) {
	*p = Page{}
	p.SetNodeType(NodeLeaf)
	p.SetNumCells(0)
	p.SetParentPtr(parent)
}

// InitInternal materializes an empty internal-node header.
func (p *Page) InitInternal(parent PageID) {
	*p = Page{}
	p.SetNodeType(NodeInternal)
	p.SetNumCells(0)
	p.SetParentPtr(parent)
}
