package pager

import "errors"

// Storage-layer error kinds, per spec.md §7 "Storage errors" and
// "Transaction errors". Call sites wrap these with fmt.Errorf("...: %w", ...)
// so callers can still errors.Is against the kind.
var (
	// ErrDuplicateKey is returned when an insert targets a key already
	// present in the leaf.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrKeyNotFound is returned when a delete targets a key that is not
	// present in the tree.
	ErrKeyNotFound = errors.New("key not found")

	// ErrIndexPageFull is returned when insert_into_internal would
	// overflow an internal page. Internal-node splits are out of scope
	// (spec.md §9 item 3).
	ErrIndexPageFull = errors.New("index page full")

	// ErrTransactionActive is returned by Begin when a transaction is
	// already open.
	ErrTransactionActive = errors.New("transaction already active")

	// ErrNoTransaction is returned by Commit/Rollback when no
	// transaction is open.
	ErrNoTransaction = errors.New("no active transaction")
)
