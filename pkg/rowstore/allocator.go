package rowstore

import (
	"sync"
	"sync/atomic"
)

// Row control word layout (§4.2/§4.3: the allocator's generation array
// and the row seqlock are realized as one 64-bit word per row index):
//
//	bit   63      : tombstoned flag
//	bits  62..32  : generation (31 bits)
//	bits  31..0   : seqlock sequence number (even = quiescent, odd = writer active)
//
// Folding the tombstone flag into the same word as the generation (rather
// than a fully separate bitset) is what makes the tombstone path's step-2
// CAS ("succeed iff current generation equals generation_in_ref and the
// tombstone bit is clear") a single atomic linearization point instead of
// two racing reads. The teacher's on-disk seqlock (pkg/slotcache) folds a
// generation counter and a seqlock into one 64-bit header word for the
// same reason, at file scope instead of per-row.
const (
	rowTombstoneBit  = uint64(1) << 63
	rowGenerationOne = uint64(1) << 32
	rowGenerationMax = uint64(1)<<31 - 1
	rowSeqMask       = uint64(1)<<32 - 1
)

func rowWordGeneration(word uint64) uint32 {
	return uint32((word &^ rowTombstoneBit) >> 32)
}

func rowWordTombstoned(word uint64) bool {
	return word&rowTombstoneBit != 0
}

func rowWordSeq(word uint64) uint32 {
	return uint32(word & rowSeqMask)
}

// rowSlots owns the per-row-index allocation state: the free list, the
// allocation high-water mark, and the packed generation/seqlock word
// for every row index the table could ever address. Its size is fixed
// at table construction (capacity = page_size * max_pages), so no
// resize ever invalidates a pointer into it.
//
// Concurrency requirement (§4.2): allocate and deallocate must be
// linearizable. This implementation uses one mutex over the free list
// and high-water mark, which the spec calls out as an acceptable
// realization.
type rowSlots struct {
	mu             sync.Mutex
	capacity       uint32
	allocatedCount uint32
	freeList       []uint32

	words []atomic.Uint64
}

func newRowSlots(capacity uint32) *rowSlots {
	return &rowSlots{
		capacity: capacity,
		words:    make([]atomic.Uint64, capacity),
	}
}

// allocate mints a fresh row index, reusing a tombstoned slot from the
// free list when available (LIFO, matching a Treiber-stack-style
// allocator's cache-friendliness). It returns the new generation for
// that index: 0 for a never-before-used slot, or the bumped generation
// for a reused one. ok is false when capacity is exhausted.
func (s *rowSlots) allocate() (index uint32, generation uint32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.freeList); n > 0 {
		idx := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]

		old := s.words[idx].Load()
		newWord := (old &^ rowTombstoneBit) + rowGenerationOne
		s.words[idx].Store(newWord)

		return idx, rowWordGeneration(newWord), true
	}

	if s.allocatedCount >= s.capacity {
		return 0, 0, false
	}

	idx := s.allocatedCount
	s.allocatedCount++

	return idx, rowWordGeneration(s.words[idx].Load()), true
}

// deallocate returns a tombstoned row index to the free list. It does
// not touch the generation or tombstone bit — those are the tombstone
// path's responsibility (table.go), finished before deallocate is
// called.
func (s *rowSlots) deallocate(index uint32) {
	s.mu.Lock()
	s.freeList = append(s.freeList, index)
	s.mu.Unlock()
}

// generation returns the current generation for a row index.
func (s *rowSlots) generation(index uint32) uint32 {
	return rowWordGeneration(s.words[index].Load())
}

// allocatedHighWater returns the number of row indices ever handed out
// by allocate (live + tombstoned, but never the free capacity beyond
// it). This is the table's allocated_count.
func (s *rowSlots) allocatedHighWater() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allocatedCount
}
