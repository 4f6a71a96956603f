package rowstore

// Row seqlock protocol (§4.3), operating on the same packed word a
// rowSlots entry already carries for the allocator's generation field
// (see allocator.go). A writer brackets its column writes between
// beginWrite and endWrite; a reader uses readStable to retry until it
// observes a pair of matching even sequence numbers around its reads,
// exactly like the teacher's whole-file generation seqlock in
// pkg/slotcache, narrowed here from file scope to row scope so that
// writers touching different rows never contend.

// beginWrite bumps the row's sequence number from even to odd,
// publishing to readers that a write is in flight. Callers must own
// exclusive write access to this row index (freshly allocated, or
// about to be tombstoned) before calling this.
func (s *rowSlots) beginWrite(index uint32) {
	s.words[index].Add(1)
}

// endWrite bumps the row's sequence number from odd back to even,
// publishing that the write completed and columns are stable.
func (s *rowSlots) endWrite(index uint32) {
	s.words[index].Add(1)
}

// tombstoneFinish bumps the generation (marking the live→dead
// transition) and the sequence number (odd→even) in one atomic step,
// per §4.4 tombstone step 5. Callers must have already won the
// tombstone CAS (see tombstoneClaim) and bumped to odd with
// beginWrite.
func (s *rowSlots) tombstoneFinish(index uint32) {
	s.words[index].Add(1 + rowGenerationOne)
}

// tombstoneClaim implements §4.4 tombstone step 2: it atomically
// tests that the row's generation still matches generationInRef and
// that the tombstone bit is clear, and if so sets the tombstone bit.
// Exactly one concurrent caller for a given row index observes ok
// true; this is the sole linearization point for "exactly once"
// tombstoning.
func (s *rowSlots) tombstoneClaim(index uint32, generationInRef uint32) (ok bool) {
	old := s.words[index].Load()
	if rowWordTombstoned(old) || rowWordGeneration(old) != generationInRef {
		return false
	}

	newWord := old | rowTombstoneBit

	return s.words[index].CompareAndSwap(old, newWord)
}

// rowSnapshot is one read of a row's control word, used by readers to
// detect a concurrent write across their column reads.
type rowSnapshot uint64

// loadSnapshot takes a consistency snapshot for the reader retry loop.
func (s *rowSlots) loadSnapshot(index uint32) rowSnapshot {
	return rowSnapshot(s.words[index].Load())
}

// quiescent reports whether the snapshot was taken while no writer
// held the row (sequence even).
func (s rowSnapshot) quiescent() bool {
	return rowWordSeq(uint64(s))%2 == 0
}

// changed reports whether two snapshots differ, meaning a writer
// mutated the row between them and the reader must retry.
func (a rowSnapshot) changed(b rowSnapshot) bool {
	return a != b
}

// currentState reports the generation and liveness of a row index
// right now, independent of any particular reference. ScanAll and the
// predicate evaluator use it to mint fresh References for rows they
// discover rather than validate an existing one.
func (s *rowSlots) currentState(index uint32) (generation uint32, live bool) {
	word := s.words[index].Load()
	return rowWordGeneration(word), !rowWordTombstoned(word)
}

// matchesReference reports whether a snapshot is both quiescent and
// consistent with ref's generation, the combined check a reader makes
// once it has a stable pair of snapshots around a column read.
func (s rowSnapshot) matchesReference(ref Reference) bool {
	word := uint64(s)
	return !rowWordTombstoned(word) && rowWordGeneration(word) == ref.Generation()
}

// isLive reports whether the row identified by index is currently
// live with the given expected generation: tombstone bit clear and
// generation matching. This is the liveness validator every index hit
// must pass before being reported to a caller (§4.6: "indexes are
// advisory, tables are authoritative").
func (s *rowSlots) isLive(index uint32, expectedGeneration uint32) bool {
	word := s.words[index].Load()

	return !rowWordTombstoned(word) && rowWordGeneration(word) == expectedGeneration
}
