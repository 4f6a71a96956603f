package rowstore

import (
	"sort"
	"strings"
	"sync"
)

type stringEntry struct {
	key string
	ref Reference
}

// prefixIndex accelerates scan_starts_with over one STRING column by
// keeping values sorted lexicographically: every string sharing a
// prefix occupies one contiguous run, found with one binary search
// and a linear walk over that run rather than a full column scan.
type prefixIndex struct {
	mu      sync.RWMutex
	entries []stringEntry
}

func newPrefixIndex() *prefixIndex {
	return &prefixIndex{}
}

func (x *prefixIndex) insert(value string, ref Reference) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries = insertStringEntry(x.entries, value, ref)
}

func (x *prefixIndex) remove(value string, ref Reference) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries = removeStringEntry(x.entries, value, ref)
}

func (x *prefixIndex) scanStartsWith(prefix string) []Reference {
	x.mu.RLock()
	defer x.mu.RUnlock()

	lo := sort.Search(len(x.entries), func(i int) bool { return x.entries[i].key >= prefix })

	var out []Reference
	for i := lo; i < len(x.entries) && strings.HasPrefix(x.entries[i].key, prefix); i++ {
		out = append(out, x.entries[i].ref)
	}
	return out
}

func insertStringEntry(entries []stringEntry, key string, ref Reference) []stringEntry {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].key >= key })
	entries = append(entries, stringEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = stringEntry{key: key, ref: ref}
	return entries
}

func removeStringEntry(entries []stringEntry, key string, ref Reference) []stringEntry {
	lo := sort.Search(len(entries), func(i int) bool { return entries[i].key >= key })
	for i := lo; i < len(entries) && entries[i].key == key; i++ {
		if entries[i].ref == ref {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}
