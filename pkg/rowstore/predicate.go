package rowstore

import "sort"

// PredicateKind discriminates the node kinds a Predicate tree can
// contain. Leaves name a column and a test; And/Or/Not combine
// child predicates.
type PredicateKind uint8

const (
	PredEquals PredicateKind = iota
	PredCompare
	PredBetween
	PredIn
	PredEqualsIgnoreCase
	PredStartsWith
	PredEndsWith
	PredAnd
	PredOr
	PredNot
)

// Predicate is a compiled query against a table. Exactly one group of
// fields is meaningful depending on Kind: Column/Value for Equals,
// Column/Op/Value for Compare, Column/Lo/Hi for Between, Column/Values
// for In, Column/Value for the three string predicates, and Children
// (one for Not, two or more for And/Or) for the boolean combinators.
type Predicate struct {
	Kind     PredicateKind
	Column   string
	Op       compareOp
	Value    any
	Values   []any
	Lo, Hi   any
	Children []Predicate
}

// Evaluate compiles and runs pred against the table, returning every
// currently-live row's Reference in ascending row-index order. Leaf
// predicates prefer a registered secondary index over a full column
// scan when one exists for Column; either way, results are
// liveness-validated against the row's current generation before
// being returned, since both indexes and raw scans are advisory.
func (t *Table) Evaluate(pred Predicate) ([]Reference, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := t.evaluateRows(pred)
	if err != nil {
		return nil, err
	}

	sorted := make([]uint32, 0, len(rows))
	for row := range rows {
		sorted = append(sorted, row)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := make([]Reference, 0, len(sorted))
	for _, row := range sorted {
		if ref, ok := t.buildReference(row); ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

// evaluateRows returns the set of row indices matching pred, before
// the final liveness pass and ascending sort Evaluate applies.
func (t *Table) evaluateRows(pred Predicate) (map[uint32]struct{}, error) {
	switch pred.Kind {
	case PredAnd:
		if len(pred.Children) == 0 {
			return t.allLiveRows(), nil
		}
		result, err := t.evaluateRows(pred.Children[0])
		if err != nil {
			return nil, err
		}
		for _, child := range pred.Children[1:] {
			next, err := t.evaluateRows(child)
			if err != nil {
				return nil, err
			}
			result = intersectRows(result, next)
		}
		return result, nil

	case PredOr:
		result := make(map[uint32]struct{})
		for _, child := range pred.Children {
			next, err := t.evaluateRows(child)
			if err != nil {
				return nil, err
			}
			for row := range next {
				result[row] = struct{}{}
			}
		}
		return result, nil

	case PredNot:
		if len(pred.Children) != 1 {
			return nil, ErrInvalidInput
		}
		child, err := t.evaluateRows(pred.Children[0])
		if err != nil {
			return nil, err
		}
		universe := t.allLiveRows()
		for row := range child {
			delete(universe, row)
		}
		return universe, nil

	default:
		return t.evaluateLeaf(pred)
	}
}

func intersectRows(a, b map[uint32]struct{}) map[uint32]struct{} {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[uint32]struct{}, len(a))
	for row := range a {
		if _, ok := b[row]; ok {
			out[row] = struct{}{}
		}
	}
	return out
}

func (t *Table) allLiveRows() map[uint32]struct{} {
	out := make(map[uint32]struct{})
	high := t.slots.allocatedHighWater()
	for idx := uint32(0); idx < high; idx++ {
		if _, live := t.slots.currentState(idx); live {
			out[idx] = struct{}{}
		}
	}
	return out
}

func (t *Table) evaluateLeaf(pred Predicate) (map[uint32]struct{}, error) {
	col, ok := t.columns[pred.Column]
	if !ok {
		return nil, ErrInvalidInput
	}

	var refs []Reference
	var rowIndices []uint32
	var usedIndex bool

	switch pred.Kind {
	case PredEquals:
		if hx, ok := t.hashIndexes[pred.Column]; ok {
			refs = hx.lookup(pred.Value)
			usedIndex = true
		} else if rx, ok := t.rangeIndexes[pred.Column]; ok {
			refs = rx.scanCompare(OpGE, pred.Value)
			filtered := refs[:0]
			for _, r := range refs {
				v, present := col.getAny(r.Index())
				if present && valuesEqual(v, pred.Value) {
					filtered = append(filtered, r)
				}
			}
			refs = filtered
			usedIndex = true
		} else {
			idxs, ok := col.scanEqualsAny(pred.Value)
			if !ok {
				return nil, ErrColumnTypeMismatch
			}
			rowIndices = idxs
		}

	case PredCompare:
		if rx, ok := t.rangeIndexes[pred.Column]; ok {
			refs = rx.scanCompare(pred.Op, pred.Value)
			usedIndex = true
		} else {
			idxs, ok := col.scanCompareAny(pred.Op, pred.Value)
			if !ok {
				return nil, ErrColumnTypeMismatch
			}
			rowIndices = idxs
		}

	case PredBetween:
		if rx, ok := t.rangeIndexes[pred.Column]; ok {
			refs = rx.scanBetween(pred.Lo, pred.Hi)
			usedIndex = true
		} else {
			idxs, ok := col.scanBetweenAny(pred.Lo, pred.Hi)
			if !ok {
				return nil, ErrColumnTypeMismatch
			}
			rowIndices = idxs
		}

	case PredIn:
		idxs, ok := col.scanInAny(pred.Values)
		if !ok {
			return nil, ErrColumnTypeMismatch
		}
		rowIndices = idxs

	case PredEqualsIgnoreCase:
		s, ok := pred.Value.(string)
		if !ok {
			return nil, ErrInvalidInput
		}
		idxs, ok := col.scanEqualsIgnoreCase(s)
		if !ok {
			return nil, ErrColumnTypeMismatch
		}
		rowIndices = idxs

	case PredStartsWith:
		s, ok := pred.Value.(string)
		if !ok {
			return nil, ErrInvalidInput
		}
		if px, ok := t.prefixIndexes[pred.Column]; ok {
			refs = px.scanStartsWith(s)
			usedIndex = true
		} else {
			idxs, ok := col.scanStartsWith(s)
			if !ok {
				return nil, ErrColumnTypeMismatch
			}
			rowIndices = idxs
		}

	case PredEndsWith:
		s, ok := pred.Value.(string)
		if !ok {
			return nil, ErrInvalidInput
		}
		if sx, ok := t.suffixIndexes[pred.Column]; ok {
			refs = sx.scanEndsWith(s)
			usedIndex = true
		} else {
			idxs, ok := col.scanEndsWith(s)
			if !ok {
				return nil, ErrColumnTypeMismatch
			}
			rowIndices = idxs
		}

	default:
		return nil, ErrInvalidInput
	}

	out := make(map[uint32]struct{})
	if usedIndex {
		// Index entries are advisory (§4.6): a hit's generation may
		// belong to a row that was since tombstoned and reused under a
		// new occupant. Validate against the row's current generation
		// before trusting it, the same check LookupByID applies to the
		// id index.
		for _, r := range refs {
			if t.slots.isLive(r.Index(), r.Generation()) {
				out[r.Index()] = struct{}{}
			}
		}
	} else {
		for _, idx := range rowIndices {
			out[idx] = struct{}{}
		}
	}
	return out, nil
}

func valuesEqual(a, b any) bool {
	return a == b
}

func (t *Table) buildReference(rowIndex uint32) (Reference, bool) {
	generation, live := t.slots.currentState(rowIndex)
	if !live {
		return NoReference, false
	}
	return packReference(rowIndex, generation), true
}
