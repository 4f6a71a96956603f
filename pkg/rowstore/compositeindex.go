package rowstore

import (
	"sync"

	"github.com/calvinalkan/rowstore/internal/rowhash"
)

// compositeIndex is an equality index over an ordered tuple of
// columns. Insert and Tombstone keep it up to date; Table.Evaluate does
// not consult it, and there is no ordered (range) composite variant.
// Component values are hashed
// into a fixed-size rowhash.Key; like hashIndex, the index itself is
// just a plain Go map keyed on that value.
type compositeIndex struct {
	mu      sync.RWMutex
	columns []string
	entries map[rowhash.Key][]Reference
}

func newCompositeIndex(columns []string) *compositeIndex {
	return &compositeIndex{
		columns: append([]string(nil), columns...),
		entries: make(map[rowhash.Key][]Reference),
	}
}

func (x *compositeIndex) insert(values []any, ref Reference) {
	key := rowhash.Tuple(values)

	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries[key] = append(x.entries[key], ref)
}

func (x *compositeIndex) remove(values []any, ref Reference) {
	key := rowhash.Tuple(values)

	x.mu.Lock()
	defer x.mu.Unlock()

	refs := x.entries[key]
	for i, r := range refs {
		if r == ref {
			refs = append(refs[:i], refs[i+1:]...)
			break
		}
	}
	if len(refs) == 0 {
		delete(x.entries, key)
	} else {
		x.entries[key] = refs
	}
}

func (x *compositeIndex) lookup(values []any) []Reference {
	key := rowhash.Tuple(values)

	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]Reference, len(x.entries[key]))
	copy(out, x.entries[key])
	return out
}
