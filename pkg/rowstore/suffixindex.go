package rowstore

import (
	"sort"
	"strings"
	"sync"
)

// suffixIndex accelerates scan_ends_with the same way prefixIndex
// accelerates scan_starts_with, by indexing each value's reversal:
// a suffix of the original string is a prefix of the reversal, so the
// same contiguous-run binary search applies.
type suffixIndex struct {
	mu      sync.RWMutex
	entries []stringEntry
}

func newSuffixIndex() *suffixIndex {
	return &suffixIndex{}
}

func (x *suffixIndex) insert(value string, ref Reference) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries = insertStringEntry(x.entries, reverseString(value), ref)
}

func (x *suffixIndex) remove(value string, ref Reference) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries = removeStringEntry(x.entries, reverseString(value), ref)
}

func (x *suffixIndex) scanEndsWith(suffix string) []Reference {
	x.mu.RLock()
	defer x.mu.RUnlock()

	reversed := reverseString(suffix)
	lo := sort.Search(len(x.entries), func(i int) bool { return x.entries[i].key >= reversed })

	var out []Reference
	for i := lo; i < len(x.entries) && strings.HasPrefix(x.entries[i].key, reversed); i++ {
		out = append(out, x.entries[i].ref)
	}
	return out
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
