package rowstore

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// compareOp identifies an ordering comparison a scan predicate asks a
// column to perform.
type compareOp uint8

const (
	OpGT compareOp = iota
	OpGE
	OpLT
	OpLE
)

// page is one fixed-size slab of a column's storage, indexed by offset
// within the page (row_index % page_size). Each cell is an
// atomic.Pointer rather than a bare T so that concurrent Set/Get pairs
// never observe a torn value regardless of T's width (string and
// time.Time are multi-word); the row seqlock above this (seqlock.go)
// is what gives a reader a consistent view *across* several columns of
// the same row, not within one cell.
type page[T any] struct {
	cells []atomic.Pointer[T]
}

func newPage[T any](size uint32) *page[T] {
	return &page[T]{cells: make([]atomic.Pointer[T], size)}
}

// presenceBits is a per-column bitset recording whether a row's cell
// in that column has ever been written and not since cleared. It is
// what lets a scan or Get distinguish "legitimately the zero value"
// from "never written" or "tombstoned" (§4.1 invariant C3), mirroring
// the teacher's bucket-state bitset in pkg/slotcache's hash index.
type presenceBits struct {
	words []atomic.Uint64
}

func newPresenceBits(capacity uint32) *presenceBits {
	return &presenceBits{words: make([]atomic.Uint64, (capacity+63)/64)}
}

func (p *presenceBits) set(index uint32) {
	word, bit := index/64, uint64(1)<<(index%64)
	for {
		old := p.words[word].Load()
		if old&bit != 0 {
			return
		}
		if p.words[word].CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (p *presenceBits) clear(index uint32) {
	word, bit := index/64, uint64(1)<<(index%64)
	for {
		old := p.words[word].Load()
		if old&bit == 0 {
			return
		}
		if p.words[word].CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

func (p *presenceBits) test(index uint32) bool {
	word, bit := index/64, uint64(1)<<(index%64)
	return p.words[word].Load()&bit != 0
}

// column is the type-erased surface table.go drives. Each concrete
// instance is a *typedColumn[T] for one of the scalar Go types backing
// a TypeCode; the factory in newColumn resolves T once, at table
// construction, so that every call after that is a single interface
// dispatch rather than a per-row reflective switch.
type column interface {
	typeCode() TypeCode
	watermarkValue() uint32
	publish(rowIndex uint32)
	setAny(rowIndex uint32, value any) bool
	getAny(rowIndex uint32) (any, bool)
	clearAny(rowIndex uint32)

	scanEqualsAny(value any) ([]uint32, bool)
	scanCompareAny(op compareOp, value any) ([]uint32, bool)
	scanBetweenAny(lo, hi any) ([]uint32, bool)
	scanInAny(values []any) ([]uint32, bool)
	scanEqualsIgnoreCase(value string) ([]uint32, bool)
	scanStartsWith(prefix string) ([]uint32, bool)
	scanEndsWith(suffix string) ([]uint32, bool)
}

// typedColumn is the monomorphized, reflection-free realization of one
// column's storage and scan predicates for a single Go type T. Its
// behavior beyond plain storage (equality, ordering, string ops) is
// supplied once at construction as plain function values, which keeps
// every per-row operation a direct call instead of a type switch.
type typedColumn[T any] struct {
	code     TypeCode
	pageSize uint32

	pages    []atomic.Pointer[page[T]]
	pagesMu  sync.Mutex
	watermark atomic.Uint32
	presence *presenceBits

	toAny    func(T) any
	fromAny  func(any) (T, bool)
	equal    func(a, b T) bool
	less     func(a, b T) bool
	stringOf func(T) (string, bool)
}

func newTypedColumn[T any](code TypeCode, pageSize, maxPages uint32) *typedColumn[T] {
	return &typedColumn[T]{
		code:     code,
		pageSize: pageSize,
		pages:    make([]atomic.Pointer[page[T]], maxPages),
		presence: newPresenceBits(pageSize * maxPages),
	}
}

func (c *typedColumn[T]) typeCode() TypeCode      { return c.code }
func (c *typedColumn[T]) watermarkValue() uint32  { return c.watermark.Load() }

func (c *typedColumn[T]) publish(rowIndex uint32) {
	for {
		old := c.watermark.Load()
		if rowIndex < old {
			return
		}
		if c.watermark.CompareAndSwap(old, rowIndex+1) {
			return
		}
	}
}

func (c *typedColumn[T]) pageFor(rowIndex uint32, create bool) *page[T] {
	pageID := rowIndex / c.pageSize
	if p := c.pages[pageID].Load(); p != nil {
		return p
	}
	if !create {
		return nil
	}

	c.pagesMu.Lock()
	defer c.pagesMu.Unlock()

	if p := c.pages[pageID].Load(); p != nil {
		return p
	}
	p := newPage[T](c.pageSize)
	c.pages[pageID].Store(p)

	return p
}

func (c *typedColumn[T]) set(rowIndex uint32, value T) {
	pg := c.pageFor(rowIndex, true)
	off := rowIndex % c.pageSize
	v := value
	pg.cells[off].Store(&v)
	c.presence.set(rowIndex)
}

func (c *typedColumn[T]) get(rowIndex uint32) (T, bool) {
	var zero T
	if rowIndex >= c.watermark.Load() {
		return zero, false
	}
	if !c.presence.test(rowIndex) {
		return zero, false
	}
	pg := c.pageFor(rowIndex, false)
	if pg == nil {
		return zero, false
	}
	ptr := pg.cells[rowIndex%c.pageSize].Load()
	if ptr == nil {
		return zero, false
	}
	return *ptr, true
}

func (c *typedColumn[T]) clear(rowIndex uint32) {
	c.presence.clear(rowIndex)
}

func (c *typedColumn[T]) setAny(rowIndex uint32, value any) bool {
	v, ok := c.fromAny(value)
	if !ok {
		return false
	}
	c.set(rowIndex, v)
	return true
}

func (c *typedColumn[T]) getAny(rowIndex uint32) (any, bool) {
	v, ok := c.get(rowIndex)
	if !ok {
		return c.code.zeroValue(), false
	}
	return c.toAny(v), true
}

func (c *typedColumn[T]) clearAny(rowIndex uint32) {
	c.clear(rowIndex)
}

// forEachLive iterates every present cell with row index below the
// column's current watermark, in strictly ascending row-index order —
// a natural consequence of iterating pages and offsets in order, with
// no separate sort needed to satisfy the ascending-results invariant.
func (c *typedColumn[T]) forEachLive(fn func(rowIndex uint32, value T)) {
	w := c.watermark.Load()
	if w == 0 {
		return
	}

	lastPage := (w - 1) / c.pageSize
	for pageID := uint32(0); pageID <= lastPage; pageID++ {
		pg := c.pages[pageID].Load()
		if pg == nil {
			continue
		}

		start := pageID * c.pageSize
		end := start + c.pageSize
		if end > w {
			end = w
		}

		for row := start; row < end; row++ {
			if !c.presence.test(row) {
				continue
			}
			ptr := pg.cells[row-start].Load()
			if ptr == nil {
				continue
			}
			fn(row, *ptr)
		}
	}
}

func (c *typedColumn[T]) scanEqualsAny(value any) ([]uint32, bool) {
	want, ok := c.fromAny(value)
	if !ok {
		return nil, false
	}
	var out []uint32
	c.forEachLive(func(idx uint32, v T) {
		if c.equal(v, want) {
			out = append(out, idx)
		}
	})
	return out, true
}

func (c *typedColumn[T]) scanCompareAny(op compareOp, value any) ([]uint32, bool) {
	if c.less == nil {
		return nil, false
	}
	want, ok := c.fromAny(value)
	if !ok {
		return nil, false
	}
	var out []uint32
	c.forEachLive(func(idx uint32, v T) {
		lt := c.less(v, want)
		eq := c.equal(v, want)
		var match bool
		switch op {
		case OpGT:
			match = !lt && !eq
		case OpGE:
			match = !lt
		case OpLT:
			match = lt
		case OpLE:
			match = lt || eq
		}
		if match {
			out = append(out, idx)
		}
	})
	return out, true
}

func (c *typedColumn[T]) scanBetweenAny(lo, hi any) ([]uint32, bool) {
	if c.less == nil {
		return nil, false
	}
	loV, ok := c.fromAny(lo)
	if !ok {
		return nil, false
	}
	hiV, ok := c.fromAny(hi)
	if !ok {
		return nil, false
	}
	var out []uint32
	c.forEachLive(func(idx uint32, v T) {
		if !c.less(v, loV) && !c.less(hiV, v) {
			out = append(out, idx)
		}
	})
	return out, true
}

func (c *typedColumn[T]) scanInAny(values []any) ([]uint32, bool) {
	wants := make([]T, 0, len(values))
	for _, value := range values {
		v, ok := c.fromAny(value)
		if !ok {
			return nil, false
		}
		wants = append(wants, v)
	}
	var out []uint32
	c.forEachLive(func(idx uint32, v T) {
		for _, want := range wants {
			if c.equal(v, want) {
				out = append(out, idx)
				return
			}
		}
	})
	return out, true
}

func (c *typedColumn[T]) scanEqualsIgnoreCase(value string) ([]uint32, bool) {
	if c.stringOf == nil {
		return nil, false
	}
	var out []uint32
	c.forEachLive(func(idx uint32, v T) {
		s, ok := c.stringOf(v)
		if ok && strings.EqualFold(s, value) {
			out = append(out, idx)
		}
	})
	return out, true
}

func (c *typedColumn[T]) scanStartsWith(prefix string) ([]uint32, bool) {
	if c.stringOf == nil {
		return nil, false
	}
	var out []uint32
	c.forEachLive(func(idx uint32, v T) {
		s, ok := c.stringOf(v)
		if ok && strings.HasPrefix(s, prefix) {
			out = append(out, idx)
		}
	})
	return out, true
}

func (c *typedColumn[T]) scanEndsWith(suffix string) ([]uint32, bool) {
	if c.stringOf == nil {
		return nil, false
	}
	var out []uint32
	c.forEachLive(func(idx uint32, v T) {
		s, ok := c.stringOf(v)
		if ok && strings.HasSuffix(s, suffix) {
			out = append(out, idx)
		}
	})
	return out, true
}

// newColumn is the TypeCode-driven construction point: it resolves the
// concrete Go type once and returns it behind the column interface.
// Nothing downstream of this switches on TypeCode again for storage.
func newColumn(code TypeCode, pageSize, maxPages uint32) column {
	switch code {
	case LONG:
		c := newTypedColumn[int64](code, pageSize, maxPages)
		c.toAny = func(v int64) any { return v }
		c.fromAny = func(a any) (int64, bool) { v, ok := a.(int64); return v, ok }
		c.equal = func(a, b int64) bool { return a == b }
		c.less = func(a, b int64) bool { return a < b }
		return c
	case INT:
		c := newTypedColumn[int32](code, pageSize, maxPages)
		c.toAny = func(v int32) any { return v }
		c.fromAny = func(a any) (int32, bool) { v, ok := a.(int32); return v, ok }
		c.equal = func(a, b int32) bool { return a == b }
		c.less = func(a, b int32) bool { return a < b }
		return c
	case SHORT:
		c := newTypedColumn[int16](code, pageSize, maxPages)
		c.toAny = func(v int16) any { return v }
		c.fromAny = func(a any) (int16, bool) { v, ok := a.(int16); return v, ok }
		c.equal = func(a, b int16) bool { return a == b }
		c.less = func(a, b int16) bool { return a < b }
		return c
	case BYTE:
		c := newTypedColumn[int8](code, pageSize, maxPages)
		c.toAny = func(v int8) any { return v }
		c.fromAny = func(a any) (int8, bool) { v, ok := a.(int8); return v, ok }
		c.equal = func(a, b int8) bool { return a == b }
		c.less = func(a, b int8) bool { return a < b }
		return c
	case BOOL:
		c := newTypedColumn[bool](code, pageSize, maxPages)
		c.toAny = func(v bool) any { return v }
		c.fromAny = func(a any) (bool, bool) { v, ok := a.(bool); return v, ok }
		c.equal = func(a, b bool) bool { return a == b }
		c.less = func(a, b bool) bool { return !a && b }
		return c
	case CHAR:
		c := newTypedColumn[rune](code, pageSize, maxPages)
		c.toAny = func(v rune) any { return v }
		c.fromAny = func(a any) (rune, bool) { v, ok := a.(rune); return v, ok }
		c.equal = func(a, b rune) bool { return a == b }
		c.less = func(a, b rune) bool { return a < b }
		return c
	case FLOAT:
		c := newTypedColumn[float32](code, pageSize, maxPages)
		c.toAny = func(v float32) any { return v }
		c.fromAny = func(a any) (float32, bool) { v, ok := a.(float32); return v, ok }
		c.equal = func(a, b float32) bool { return a == b }
		c.less = func(a, b float32) bool { return a < b }
		return c
	case DOUBLE:
		c := newTypedColumn[float64](code, pageSize, maxPages)
		c.toAny = func(v float64) any { return v }
		c.fromAny = func(a any) (float64, bool) { v, ok := a.(float64); return v, ok }
		c.equal = func(a, b float64) bool { return a == b }
		c.less = func(a, b float64) bool { return a < b }
		return c
	case STRING:
		c := newTypedColumn[string](code, pageSize, maxPages)
		c.toAny = func(v string) any { return v }
		c.fromAny = func(a any) (string, bool) { v, ok := a.(string); return v, ok }
		c.equal = func(a, b string) bool { return a == b }
		c.less = func(a, b string) bool { return a < b }
		c.stringOf = func(v string) (string, bool) { return v, true }
		return c
	case INSTANT:
		c := newTypedColumn[time.Time](code, pageSize, maxPages)
		c.toAny = func(v time.Time) any { return v }
		c.fromAny = func(a any) (time.Time, bool) { v, ok := a.(time.Time); return v, ok }
		c.equal = func(a, b time.Time) bool { return a.Equal(b) }
		c.less = func(a, b time.Time) bool { return a.Before(b) }
		return c
	default:
		panic("rowstore: unknown type code")
	}
}
