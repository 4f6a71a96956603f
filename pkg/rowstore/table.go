package rowstore

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// ColumnDef declares one column's name and scalar type for NewTable.
type ColumnDef struct {
	Name string
	Type TypeCode
}

// TableConfig declares a table's fixed shape: its page geometry (which
// bounds total capacity at page_size * max_pages, see limits.go),
// which column is the primary id, and the full column list.
type TableConfig struct {
	PageSize uint32
	MaxPages uint32
	IDColumn string
	Columns  []ColumnDef
}

// IndexKind selects which secondary index structure RegisterIndex
// builds for a column.
type IndexKind uint8

const (
	IndexHash IndexKind = iota
	IndexRange
	IndexPrefix
	IndexSuffix
)

// Table is the concurrent, in-memory, page-partitioned row store
// described by §4.4: a row allocator (allocator.go) and per-row
// seqlock (seqlock.go) underneath a fixed set of typed columns
// (column.go), with an always-present id index (idindex.go) and
// caller-registered secondary indexes (hashindex.go, rangeindex.go,
// prefixindex.go, suffixindex.go, compositeindex.go) layered on top.
type Table struct {
	cfg      TableConfig
	capacity uint32

	columns     map[string]column
	columnOrder []string

	slots *rowSlots

	idIndex         *idIndex
	hashIndexes     map[string]*hashIndex
	rangeIndexes    map[string]*rangeIndex
	prefixIndexes   map[string]*prefixIndex
	suffixIndexes   map[string]*suffixIndex
	compositeIndexes []*compositeIndex

	rowCount atomic.Uint32
	closed   atomic.Bool
}

// NewTable builds an empty table from cfg. It validates page geometry
// against the implementation limits (limits.go) and that IDColumn
// names one of Columns.
func NewTable(cfg TableConfig) (*Table, error) {
	if cfg.PageSize == 0 || cfg.PageSize > maxPageSize {
		return nil, fmt.Errorf("%w: page size %d out of range", ErrInvalidInput, cfg.PageSize)
	}
	if cfg.MaxPages == 0 || cfg.MaxPages > maxMaxPages {
		return nil, fmt.Errorf("%w: max pages %d out of range", ErrInvalidInput, cfg.MaxPages)
	}
	if len(cfg.Columns) == 0 || len(cfg.Columns) > maxColumns {
		return nil, fmt.Errorf("%w: column count %d out of range", ErrInvalidInput, len(cfg.Columns))
	}

	capacity64 := uint64(cfg.PageSize) * uint64(cfg.MaxPages)
	if capacity64 > (uint64(1)<<maxRowIndexBits)-1 {
		return nil, fmt.Errorf("%w: table capacity overflows a %d-bit row index", ErrInvalidInput, maxRowIndexBits)
	}
	capacity := uint32(capacity64)

	columns := make(map[string]column, len(cfg.Columns))
	order := make([]string, 0, len(cfg.Columns))
	idFound := false

	for _, def := range cfg.Columns {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: empty column name", ErrInvalidInput)
		}
		if _, exists := columns[def.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidInput, def.Name)
		}
		columns[def.Name] = newColumn(def.Type, cfg.PageSize, cfg.MaxPages)
		order = append(order, def.Name)
		if def.Name == cfg.IDColumn {
			idFound = true
		}
	}
	if !idFound {
		return nil, fmt.Errorf("%w: id column %q not declared", ErrInvalidInput, cfg.IDColumn)
	}

	return &Table{
		cfg:           cfg,
		capacity:      capacity,
		columns:       columns,
		columnOrder:   order,
		slots:         newRowSlots(capacity),
		idIndex:       newIDIndex(),
		hashIndexes:   make(map[string]*hashIndex),
		rangeIndexes:  make(map[string]*rangeIndex),
		prefixIndexes: make(map[string]*prefixIndex),
		suffixIndexes: make(map[string]*suffixIndex),
	}, nil
}

// RegisterIndex adds a secondary index over column. It must be called
// before any row is inserted: the index is not backfilled, matching
// the teacher's pattern of building indexes alongside data rather than
// after the fact (pkg/slotcache never rehashes except on tombstone
// compaction).
func (t *Table) RegisterIndex(column string, kind IndexKind) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if t.rowCount.Load() != 0 || t.slots.allocatedHighWater() != 0 {
		return fmt.Errorf("%w: indexes must be registered before the first insert", ErrInvalidInput)
	}

	col, ok := t.columns[column]
	if !ok {
		return fmt.Errorf("%w: unknown column %q", ErrInvalidInput, column)
	}

	switch kind {
	case IndexHash:
		if _, exists := t.hashIndexes[column]; exists {
			return fmt.Errorf("%w: hash index already registered on %q", ErrInvalidInput, column)
		}
		t.hashIndexes[column] = newHashIndex(column)
		return nil

	case IndexRange:
		if !col.typeCode().supportsOrdering() {
			return fmt.Errorf("%w: %s does not support ordering", ErrIndexTypeMismatch, col.typeCode())
		}
		if _, exists := t.rangeIndexes[column]; exists {
			return fmt.Errorf("%w: range index already registered on %q", ErrInvalidInput, column)
		}
		t.rangeIndexes[column] = newRangeIndex(t.lessForColumn(col))
		return nil

	case IndexPrefix:
		if !col.typeCode().isString() {
			return fmt.Errorf("%w: prefix index requires a STRING column", ErrIndexTypeMismatch)
		}
		if _, exists := t.prefixIndexes[column]; exists {
			return fmt.Errorf("%w: prefix index already registered on %q", ErrInvalidInput, column)
		}
		t.prefixIndexes[column] = newPrefixIndex()
		return nil

	case IndexSuffix:
		if !col.typeCode().isString() {
			return fmt.Errorf("%w: suffix index requires a STRING column", ErrIndexTypeMismatch)
		}
		if _, exists := t.suffixIndexes[column]; exists {
			return fmt.Errorf("%w: suffix index already registered on %q", ErrInvalidInput, column)
		}
		t.suffixIndexes[column] = newSuffixIndex()
		return nil

	default:
		return fmt.Errorf("%w: unknown index kind", ErrInvalidInput)
	}
}

// RegisterCompositeIndex adds an equality index over the ordered tuple
// of columns. Like RegisterIndex, it must be called before any insert.
func (t *Table) RegisterCompositeIndex(columns []string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if t.rowCount.Load() != 0 || t.slots.allocatedHighWater() != 0 {
		return fmt.Errorf("%w: indexes must be registered before the first insert", ErrInvalidInput)
	}
	if len(columns) < 2 {
		return fmt.Errorf("%w: composite index needs at least two columns", ErrInvalidInput)
	}
	for _, name := range columns {
		if _, ok := t.columns[name]; !ok {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidInput, name)
		}
	}

	t.compositeIndexes = append(t.compositeIndexes, newCompositeIndex(columns))
	return nil
}

func (t *Table) lessForColumn(col column) func(a, b any) bool {
	switch col.(type) {
	case *typedColumn[int64]:
		return func(a, b any) bool { return a.(int64) < b.(int64) }
	case *typedColumn[int32]:
		return func(a, b any) bool { return a.(int32) < b.(int32) }
	case *typedColumn[int16]:
		return func(a, b any) bool { return a.(int16) < b.(int16) }
	case *typedColumn[int8]:
		return func(a, b any) bool { return a.(int8) < b.(int8) }
	case *typedColumn[bool]:
		return func(a, b any) bool { return !a.(bool) && b.(bool) }
	case *typedColumn[rune]:
		return func(a, b any) bool { return a.(rune) < b.(rune) }
	case *typedColumn[float32]:
		return func(a, b any) bool { return a.(float32) < b.(float32) }
	case *typedColumn[float64]:
		return func(a, b any) bool { return a.(float64) < b.(float64) }
	case *typedColumn[string]:
		return func(a, b any) bool { return a.(string) < b.(string) }
	case *typedColumn[time.Time]:
		return func(a, b any) bool { return a.(time.Time).Before(b.(time.Time)) }
	default:
		return func(a, b any) bool { return false }
	}
}

// Insert validates values against the table's column list, allocates a
// fresh row, writes every column, and publishes the row into the id
// index and every registered secondary index, in the order described
// by §4.4. It returns the new row's Reference.
func (t *Table) Insert(values map[string]any) (Reference, error) {
	if t.closed.Load() {
		return NoReference, ErrClosed
	}

	for _, name := range t.columnOrder {
		if _, ok := values[name]; !ok {
			return NoReference, fmt.Errorf("%w: missing value for column %q", ErrInvalidInput, name)
		}
	}
	idValue, ok := values[t.cfg.IDColumn]
	if !ok {
		return NoReference, fmt.Errorf("%w: missing id column %q", ErrInvalidInput, t.cfg.IDColumn)
	}

	idx, generation, ok := t.slots.allocate()
	if !ok {
		return NoReference, ErrCapacityExhausted
	}
	ref := packReference(idx, generation)

	if !t.idIndex.tryInsert(idValue, ref) {
		// Mark the slot dead before freeing it so it never reads as live.
		t.slots.tombstoneClaim(idx, generation)
		t.slots.deallocate(idx)
		return NoReference, ErrDuplicateID
	}

	t.slots.beginWrite(idx)
	for _, name := range t.columnOrder {
		col := t.columns[name]
		if !col.setAny(idx, values[name]) {
			// Roll the whole row back: wrong type for this column.
			for _, written := range t.columnOrder {
				t.columns[written].clearAny(idx)
			}
			t.slots.endWrite(idx)
			t.idIndex.remove(idValue, ref)
			t.slots.tombstoneClaim(idx, generation)
			t.slots.deallocate(idx)
			return NoReference, fmt.Errorf("%w: column %q", ErrColumnTypeMismatch, name)
		}
		col.publish(idx)
	}
	t.slots.endWrite(idx)
	t.idIndex.markReady(idValue)
	t.rowCount.Add(1)

	for name, hx := range t.hashIndexes {
		hx.insert(values[name], ref)
	}
	for name, rx := range t.rangeIndexes {
		rx.insert(values[name], ref)
	}
	for name, px := range t.prefixIndexes {
		px.insert(values[name].(string), ref)
	}
	for name, sx := range t.suffixIndexes {
		sx.insert(values[name].(string), ref)
	}
	for _, cx := range t.compositeIndexes {
		cx.insert(compositeValues(values, cx.columns), ref)
	}

	return ref, nil
}

func compositeValues(values map[string]any, columns []string) []any {
	out := make([]any, len(columns))
	for i, name := range columns {
		out[i] = values[name]
	}
	return out
}

// Tombstone removes the row ref identifies. It returns false, without
// effect, if ref is stale (its row has already been tombstoned and
// possibly reused) — the exactly-once guarantee comes from
// rowSlots.tombstoneClaim's single CAS.
func (t *Table) Tombstone(ref Reference) bool {
	if t.closed.Load() {
		return false
	}

	idx := ref.Index()
	if idx >= t.capacity {
		return false
	}

	if !t.slots.tombstoneClaim(idx, ref.Generation()) {
		return false
	}

	idValue, _ := t.columns[t.cfg.IDColumn].getAny(idx)
	oldValues := make(map[string]any, len(t.columnOrder))
	for _, name := range t.columnOrder {
		if v, present := t.columns[name].getAny(idx); present {
			oldValues[name] = v
		}
	}

	t.slots.beginWrite(idx)
	for _, name := range t.columnOrder {
		t.columns[name].clearAny(idx)
	}
	t.slots.tombstoneFinish(idx)

	t.rowCount.Add(math.MaxUint32) // -1
	t.slots.deallocate(idx)

	t.idIndex.remove(idValue, ref)
	for name, hx := range t.hashIndexes {
		if v, ok := oldValues[name]; ok {
			hx.remove(v, ref)
		}
	}
	for name, rx := range t.rangeIndexes {
		if v, ok := oldValues[name]; ok {
			rx.remove(v, ref)
		}
	}
	for name, px := range t.prefixIndexes {
		if v, ok := oldValues[name]; ok {
			px.remove(v.(string), ref)
		}
	}
	for name, sx := range t.suffixIndexes {
		if v, ok := oldValues[name]; ok {
			sx.remove(v.(string), ref)
		}
	}
	for _, cx := range t.compositeIndexes {
		cx.remove(compositeValues(oldValues, cx.columns), ref)
	}

	return true
}

// IsLive reports whether ref still names a live row: tombstone bit
// clear and generation matching (§4.6).
func (t *Table) IsLive(ref Reference) bool {
	idx := ref.Index()
	if idx >= t.capacity {
		return false
	}
	return t.slots.isLive(idx, ref.Generation())
}

// LookupByID resolves the table's primary key to a live Reference.
func (t *Table) LookupByID(id any) (Reference, bool) {
	ref, ok := t.idIndex.lookup(id)
	if !ok || !t.IsLive(ref) {
		return NoReference, false
	}
	return ref, true
}

// RowCount returns the number of currently-live rows.
func (t *Table) RowCount() uint32 { return t.rowCount.Load() }

// AllocatedCount returns the number of row indices ever handed out,
// live or tombstoned, which is also the exclusive upper bound ScanAll
// and the predicate evaluator iterate up to.
func (t *Table) AllocatedCount() uint32 { return t.slots.allocatedHighWater() }

// ColumnCount returns the number of declared columns.
func (t *Table) ColumnCount() int { return len(t.columnOrder) }

// readStable runs fn repeatedly until it observes a matching pair of
// row-control-word snapshots around it, retrying up to readMaxRetries
// times before trusting the last attempt. fn must be free of
// observable side effects beyond its own return value.
func (t *Table) readStable(idx uint32, ref Reference, fn func() (any, bool)) (any, bool, error) {
	var value any
	var present bool

	for attempt := 0; attempt < readMaxRetries; attempt++ {
		before := t.slots.loadSnapshot(idx)
		if !before.quiescent() {
			continue
		}

		value, present = fn()

		after := t.slots.loadSnapshot(idx)
		if before.changed(after) {
			continue
		}
		if !after.matchesReference(ref) {
			return nil, false, ErrStaleReference
		}
		return value, present, nil
	}

	after := t.slots.loadSnapshot(idx)
	if !after.matchesReference(ref) {
		return nil, false, ErrStaleReference
	}
	return value, present, nil
}

// ReadColumn returns the value stored in column for ref's row, using
// the row seqlock to guarantee the value was not torn by a concurrent
// write.
func (t *Table) ReadColumn(column string, ref Reference) (any, bool, error) {
	if t.closed.Load() {
		return nil, false, ErrClosed
	}

	col, ok := t.columns[column]
	if !ok {
		return nil, false, fmt.Errorf("%w: unknown column %q", ErrInvalidInput, column)
	}
	if ref.IsNone() {
		return nil, false, ErrRowNotFound
	}

	idx := ref.Index()
	if idx >= t.capacity {
		return nil, false, ErrStaleReference
	}

	return t.readStable(idx, ref, func() (any, bool) {
		return col.getAny(idx)
	})
}

// ReadRow returns every column's value for ref's row as a single
// consistent snapshot: all columns are read within the same pair of
// row-seqlock checks, so no concurrent write can be observed as a mix
// of old and new values across columns.
func (t *Table) ReadRow(ref Reference) (map[string]any, bool, error) {
	if t.closed.Load() {
		return nil, false, ErrClosed
	}

	if ref.IsNone() {
		return nil, false, ErrRowNotFound
	}

	idx := ref.Index()
	if idx >= t.capacity {
		return nil, false, ErrStaleReference
	}

	raw, present, err := t.readStable(idx, ref, func() (any, bool) {
		row := make(map[string]any, len(t.columnOrder))
		found := false
		for _, name := range t.columnOrder {
			if v, ok := t.columns[name].getAny(idx); ok {
				row[name] = v
				found = true
			}
		}
		return row, found
	})
	if err != nil {
		return nil, false, err
	}
	if !present {
		return nil, false, nil
	}
	return raw.(map[string]any), true, nil
}

// ScanAll returns every currently-live row's Reference in ascending
// row-index order, with no predicate filtering.
func (t *Table) ScanAll() []Reference {
	high := t.slots.allocatedHighWater()
	out := make([]Reference, 0, t.rowCount.Load())
	for idx := uint32(0); idx < high; idx++ {
		if ref, ok := t.buildReference(idx); ok {
			out = append(out, ref)
		}
	}
	return out
}

// Close marks the table closed. After it, Insert, ReadColumn, ReadRow,
// Evaluate, RegisterIndex and RegisterCompositeIndex return ErrClosed
// and Tombstone returns false; IsLive, LookupByID, RowCount,
// AllocatedCount, ColumnCount and ScanAll keep answering from the
// table's current state. Close does not release column storage, matching the
// teacher's cache.Close which leaves the mmap mapped for in-flight
// readers to finish against.
func (t *Table) Close() error {
	t.closed.Store(true)
	return nil
}
