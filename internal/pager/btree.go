package pager

import (
	"fmt"
	"sort"
)

// rootMetaKey is the metadata key a B-tree's root id is persisted under
// after a root split (spec.md §4.3, §6).
const rootMetaKey = "root"

// BTree is an ordered map uint32 -> []byte persisted over VirtualDisk
// pages. See spec.md §4.3 for the normative contract. A BTree holds
// exactly one piece of mutable state: root, which changes on a root split.
type BTree struct {
	vd   *VirtualDisk
	root PageID
}

// NewBTree returns a handle to the tree rooted at root, materializing a
// proper empty-leaf header if the root page is still all-zero.
func NewBTree(vd *VirtualDisk, root PageID) (*BTree, error) {
	p, err := vd.ReadPage(root)
	if err != nil {
		return nil, err
	}
	if p.IsZero() {
		p.InitLeaf(NullPageID)
		if err := vd.WritePage(root, p); err != nil {
			return nil, err
		}
	}
	return &BTree{vd: vd, root: root}, nil
}

// Root returns the tree's current root page id.
func (bt *BTree) Root() PageID { return bt.root }

// pathToLeaf walks from the root to the leaf that would contain key,
// recording every page visited. Per SPEC_FULL.md §1 open question 2, this
// recorded path — not the on-page parent_ptr — is how insert locates a
// node's parent for separator promotion.
func (bt *BTree) pathToLeaf(key uint32) ([]PageID, error) {
	var path []PageID
	id := bt.root
	for {
		path = append(path, id)
		p, err := bt.vd.ReadPage(id)
		if err != nil {
			return nil, err
		}
		if p.NodeType() == NodeLeaf {
			return path, nil
		}
		child0, entries := decodeInternal(&p)
		id = routeChild(child0, entries, key)
	}
}

// Search performs a point lookup. The second return value is false if the
// key is absent.
func (bt *BTree) Search(key uint32) ([]byte, bool, error) {
	path, err := bt.pathToLeaf(key)
	if err != nil {
		return nil, false, err
	}
	p, err := bt.vd.ReadPage(path[len(path)-1])
	if err != nil {
		return nil, false, err
	}
	for _, c := range decodeLeafCells(&p) {
		if c.Key == key {
			return c.Payload, true, nil
		}
	}
	return nil, false, nil
}

// Insert adds a new key/payload pair. Fails with ErrDuplicateKey if key is
// already present.
func (bt *BTree) Insert(key uint32, payload []byte) error {
	path, err := bt.pathToLeaf(key)
	if err != nil {
		return err
	}
	leafID := path[len(path)-1]
	p, err := bt.vd.ReadPage(leafID)
	if err != nil {
		return err
	}
	cells := decodeLeafCells(&p)

	idx := len(cells)
	for i, c := range cells {
		if c.Key == key {
			return fmt.Errorf("insert key %d: %w", key, ErrDuplicateKey)
		}
		if c.Key > key {
			idx = i
			break
		}
	}

	grown := make([]LeafCell, 0, len(cells)+1)
	grown = append(grown, cells[:idx]...)
	grown = append(grown, LeafCell{Key: key, Payload: payload})
	grown = append(grown, cells[idx:]...)

	if newPage, err := encodeLeafPage(p.ParentPtr(), grown); err == nil {
		return bt.vd.WritePage(leafID, newPage)
	}
	return bt.splitLeaf(path, grown)
}

// splitLeaf implements spec.md §4.3 "Leaf split": sort the combined cell
// set, write the left half back to the original page, the right half to a
// newly allocated page, and promote cells[mid].Key to the parent (or create
// a new root if the split page was the root).
func (bt *BTree) splitLeaf(path []PageID, combined []LeafCell) error {
	sort.Slice(combined, func(i, j int) bool { return combined[i].Key < combined[j].Key })

	mid := len(combined) / 2
	left := combined[:mid]
	right := combined[mid:]
	separator := right[0].Key

	leafID := path[len(path)-1]
	leafPage, err := bt.vd.ReadPage(leafID)
	if err != nil {
		return err
	}
	leftPage, err := encodeLeafPage(leafPage.ParentPtr(), left)
	if err != nil {
		return fmt.Errorf("split left half still overflows: %w", err)
	}
	if err := bt.vd.WritePage(leafID, leftPage); err != nil {
		return err
	}

	rightID, err := bt.vd.AllocatePage()
	if err != nil {
		return err
	}
	rightPage, err := encodeLeafPage(leafPage.ParentPtr(), right)
	if err != nil {
		return fmt.Errorf("split right half still overflows: %w", err)
	}
	if err := bt.vd.WritePage(rightID, rightPage); err != nil {
		return err
	}

	parentPath := path[:len(path)-1]
	if len(parentPath) == 0 {
		return bt.createNewRoot(leafID, separator, rightID)
	}
	return bt.insertIntoInternal(parentPath, separator, rightID)
}

// createNewRoot allocates a new internal root page with a single
// separator, per spec.md §4.3.
func (bt *BTree) createNewRoot(leftID PageID, separator uint32, rightID PageID) error {
	rootID, err := bt.vd.AllocatePage()
	if err != nil {
		return err
	}
	page, err := encodeInternalPage(NullPageID, leftID, []InternalEntry{{Key: separator, Child: rightID}})
	if err != nil {
		return err
	}
	if err := bt.vd.WritePage(rootID, page); err != nil {
		return err
	}
	if err := bt.vd.SetMeta(rootMetaKey, uint32(rootID)); err != nil {
		return err
	}
	bt.root = rootID
	return nil
}

// insertIntoInternal implements spec.md §4.3's insert_into_internal: read
// all entries plus child_0, append the new entry, sort by key, and rewrite
// the page. Fails with ErrIndexPageFull if the result would overflow.
// Internal-node splits are out of scope (spec.md §9 item 3).
func (bt *BTree) insertIntoInternal(path []PageID, key uint32, rightChild PageID) error {
	parentID := path[len(path)-1]
	p, err := bt.vd.ReadPage(parentID)
	if err != nil {
		return err
	}
	child0, entries := decodeInternal(&p)
	grown := append(append([]InternalEntry{}, entries...), InternalEntry{Key: key, Child: rightChild})
	sort.Slice(grown, func(i, j int) bool { return grown[i].Key < grown[j].Key })

	newPage, err := encodeInternalPage(p.ParentPtr(), child0, grown)
	if err != nil {
		return err
	}
	return bt.vd.WritePage(parentID, newPage)
}

// Delete removes key. Fails with ErrKeyNotFound if key is absent. No
// rebalancing or page freeing is performed (spec.md §4.3).
func (bt *BTree) Delete(key uint32) error {
	path, err := bt.pathToLeaf(key)
	if err != nil {
		return err
	}
	leafID := path[len(path)-1]
	p, err := bt.vd.ReadPage(leafID)
	if err != nil {
		return err
	}
	cells := decodeLeafCells(&p)

	idx := -1
	for i, c := range cells {
		if c.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("delete key %d: %w", key, ErrKeyNotFound)
	}

	remaining := make([]LeafCell, 0, len(cells)-1)
	remaining = append(remaining, cells[:idx]...)
	remaining = append(remaining, cells[idx+1:]...)

	newPage, err := encodeLeafPage(p.ParentPtr(), remaining)
	if err != nil {
		return fmt.Errorf("delete key %d: rewrite leaf: %w", key, err)
	}
	return bt.vd.WritePage(leafID, newPage)
}

// KV is a single key/payload pair, as returned by GetAll.
type KV struct {
	Key     uint32
	Payload []byte
}

// GetAll performs a full in-order traversal, returning every key/payload
// pair strictly sorted by key.
func (bt *BTree) GetAll() ([]KV, error) {
	var out []KV
	if err := bt.collect(bt.root, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (bt *BTree) collect(id PageID, out *[]KV) error {
	p, err := bt.vd.ReadPage(id)
	if err != nil {
		return err
	}
	if p.NodeType() == NodeLeaf {
		for _, c := range decodeLeafCells(&p) {
			*out = append(*out, KV{Key: c.Key, Payload: c.Payload})
		}
		return nil
	}
	child0, entries := decodeInternal(&p)
	if err := bt.collect(child0, out); err != nil {
		return err
	}
	for _, e := range entries {
		if err := bt.collect(e.Child, out); err != nil {
			return err
		}
	}
	return nil
}

// GetMaxKey walks the right-most path and returns the last key of the
// right-most leaf, or 0 if that leaf is empty. Deletes do not rebalance, so
// once the right-most leaf has been emptied this returns 0 even if other
// leaves still hold keys.
func (bt *BTree) GetMaxKey() (uint32, error) {
	id := bt.root
	for {
		p, err := bt.vd.ReadPage(id)
		if err != nil {
			return 0, err
		}
		if p.NodeType() == NodeLeaf {
			cells := decodeLeafCells(&p)
			if len(cells) == 0 {
				return 0, nil
			}
			return cells[len(cells)-1].Key, nil
		}
		child0, entries := decodeInternal(&p)
		if len(entries) == 0 {
			id = child0
			continue
		}
		id = entries[len(entries)-1].Child
	}
}
