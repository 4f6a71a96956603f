package rowstore

// Hardcoded implementation limits.
//
// These exist to keep the reference/row-index bit split (see
// reference.go) safe from overflow and to bound configurations the
// project does not exercise. Violations are ErrInvalidInput, not
// panics, because they can originate from caller-supplied schema data.
const (
	// maxPageSize bounds a single page's cell count.
	maxPageSize = 1 << 20

	// maxMaxPages bounds how many pages a column may grow to.
	maxMaxPages = 1 << 16

	// maxRowIndexBits is the number of low bits reserved for the row
	// index in a packed Reference (see reference.go). It bounds total
	// table capacity to 2^32-1 rows, leaving the high 32 bits for the
	// generation counter.
	maxRowIndexBits = 32

	// maxColumns bounds the number of columns a table may declare.
	maxColumns = 4096

	// readMaxRetries bounds the row-seqlock reader retry loop (§4.3).
	// A writer holds the odd phase only across a handful of stores, so
	// a reader spinning this many times without observing a stable
	// even sequence indicates sustained contention, not an unbounded
	// wait; callers see ErrStaleReference-free data or a final forced
	// read after the last attempt.
	readMaxRetries = 64
)
