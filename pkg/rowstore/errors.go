package rowstore

import "errors"

// Error classification, mirroring the taxonomy of the storage-engine
// contract: expected runtime conditions are values classified with
// errors.Is; programming errors panic (see panics below) and are never
// wrapped into one of these.
var (
	// ErrCapacityExhausted is returned by Insert when the row allocator
	// cannot produce another row within max_pages * page_size.
	ErrCapacityExhausted = errors.New("rowstore: capacity exhausted")

	// ErrDuplicateID is returned by Insert when the tuple's id column
	// value equals the id of a currently-live row.
	ErrDuplicateID = errors.New("rowstore: duplicate id")

	// ErrStaleReference classifies a reference whose generation no
	// longer matches the table's current generation for that row index.
	// Reference-consuming lookups return it as an error; Tombstone
	// instead reports staleness as a false return per spec.
	ErrStaleReference = errors.New("rowstore: stale reference")

	// ErrRowNotFound is returned by ReadColumn/ReadRow when given
	// NoReference, as opposed to a reference that once named a row but
	// is now stale.
	ErrRowNotFound = errors.New("rowstore: row not found")

	// ErrColumnTypeMismatch is returned when a predicate leaf names a
	// predicate kind the column's type code does not support (e.g.
	// startsWith on an INT column).
	ErrColumnTypeMismatch = errors.New("rowstore: column type mismatch")

	// ErrIndexTypeMismatch is returned when registering a prefix or
	// suffix index on a non-string column.
	ErrIndexTypeMismatch = errors.New("rowstore: index type mismatch")

	// ErrInvalidInput classifies bad construction or call arguments:
	// zero page_size/max_pages, tuple arity mismatch, malformed predicate
	// (unknown kind, Not without exactly one child), unknown column
	// name, and similar caller mistakes that do not
	// rise to the level of a programming-error panic because they
	// originate from data the caller may not fully control (e.g. a
	// schema file).
	ErrInvalidInput = errors.New("rowstore: invalid input")

	// ErrClosed is returned by Insert, ReadColumn, ReadRow, Evaluate,
	// RegisterIndex and RegisterCompositeIndex on a table after Close
	// (see Table.Close for the operations that behave otherwise).
	ErrClosed = errors.New("rowstore: closed")
)
