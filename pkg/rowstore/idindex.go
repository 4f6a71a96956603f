package rowstore

import "sync"

// idIndex is the mandatory primary-key index every table carries: a
// map from the id column's value to the Reference of the row currently
// holding that id. It backs both Insert's duplicate-id check and
// LookupByID, and is the first index consulted on the insert path and
// the first index cleared on the tombstone path (§4.4, §4.5).
//
// Like the teacher's hash-bucket index in pkg/slotcache, entries here
// are advisory: a hit is only trustworthy after the table validates
// liveness against the row's current generation (§4.6).
//
// An entry starts life reserved-but-not-ready (entry.ready == false):
// tryInsert claims the id early, before the row's columns are written,
// so that two concurrent inserts racing on the same id still get a
// correct duplicate rejection. The loser has already allocated a row
// by then (the reserved Reference needs its index); Insert returns
// that slot to the free list. lookup only ever returns a ready entry, so a reader can
// never observe a Reference whose columns are not yet published; the
// table calls markReady once the row's write is complete (§4.4).
type idIndex struct {
	mu      sync.RWMutex
	entries map[any]idEntry
}

type idEntry struct {
	ref   Reference
	ready bool
}

func newIDIndex() *idIndex {
	return &idIndex{entries: make(map[any]idEntry)}
}

// lookup returns the Reference published under id, if any and ready.
// The caller is responsible for liveness validation on top of this.
func (x *idIndex) lookup(id any) (Reference, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	e, ok := x.entries[id]
	if !ok || !e.ready {
		return NoReference, false
	}
	return e.ref, true
}

// tryInsert reserves id -> ref iff id is not already present (ready or
// not). It reports false on a duplicate without mutating the index,
// which is what gives Insert's duplicate-id check its atomicity: the
// check and the reservation happen under the same lock. The entry is
// not visible to lookup until markReady is called.
func (x *idIndex) tryInsert(id any, ref Reference) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.entries[id]; exists {
		return false
	}
	x.entries[id] = idEntry{ref: ref}
	return true
}

// markReady makes a previously reserved entry visible to lookup, once
// the row it names has finished being written and published.
func (x *idIndex) markReady(id any) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if e, ok := x.entries[id]; ok {
		e.ready = true
		x.entries[id] = e
	}
}

// remove deletes id's entry, used by Tombstone (§4.4 step 7) and by
// Insert's rollback on a write failure after reservation. It is a
// no-op if the entry is already gone or belongs to a different
// reference (can happen if a racing observer already triggered
// cleanup); callers pass the reference they tombstoned to guard that.
func (x *idIndex) remove(id any, ref Reference) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if e, ok := x.entries[id]; ok && e.ref == ref {
		delete(x.entries, id)
	}
}
