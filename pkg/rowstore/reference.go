package rowstore

import "math"

// Reference is a packed (row index, generation) handle. It unambiguously
// identifies one occupancy of a row slot: a reference survives
// retrieval across calls but is rejected as stale the moment its row
// is tombstoned and possibly reused (§3 Invariant R2).
//
// Encoding: the low 32 bits carry the row index, the high 32 bits carry
// the generation. This mirrors the teacher's packed (index, generation)
// long, split at a 32/32 boundary because the table's row-index space
// and generation space are each bounded to 2^32 (limits.go).
type Reference uint64

// NoReference is the sentinel meaning "no such row" — all bits set,
// which can never be produced by pack because generation is bumped
// from 0 and would have to reach 2^32-1 for the high half to be all
// ones while the low half is also all ones.
const NoReference Reference = Reference(math.MaxUint64)

// packReference builds a Reference from a row index and generation.
// Both are uint32, so the packing is always loss-free; it does not
// check index against the table's capacity.
func packReference(index uint32, generation uint32) Reference {
	return Reference(uint64(generation)<<32 | uint64(index))
}

// Index returns the packed row index.
func (r Reference) Index() uint32 {
	return uint32(r)
}

// Generation returns the packed generation.
func (r Reference) Generation() uint32 {
	return uint32(r >> 32)
}

// IsNone reports whether r is the sentinel "no such row" value.
func (r Reference) IsNone() bool {
	return r == NoReference
}
