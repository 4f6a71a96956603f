package rowstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rowstore/pkg/rowstore"
)

func newEventsTable(t *testing.T) *rowstore.Table {
	t.Helper()

	table, err := rowstore.NewTable(rowstore.TableConfig{
		PageSize: 4,
		MaxPages: 16,
		IDColumn: "id",
		Columns: []rowstore.ColumnDef{
			{Name: "id", Type: rowstore.LONG},
			{Name: "name", Type: rowstore.STRING},
			{Name: "score", Type: rowstore.DOUBLE},
			{Name: "active", Type: rowstore.BOOL},
			{Name: "seen_at", Type: rowstore.INSTANT},
		},
	})
	require.NoError(t, err)
	return table
}

func mustInsert(t *testing.T, table *rowstore.Table, values map[string]any) rowstore.Reference {
	t.Helper()
	ref, err := table.Insert(values)
	require.NoError(t, err)
	return ref
}

func Test_Column_ReadColumn_Returns_Written_Value_Per_Type(t *testing.T) {
	t.Parallel()

	table := newEventsTable(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ref := mustInsert(t, table, map[string]any{
		"id": int64(1), "name": "Alice", "score": 9.5, "active": true, "seen_at": now,
	})

	name, ok, err := table.ReadColumn("name", ref)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Alice", name)

	score, ok, err := table.ReadColumn("score", ref)
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 9.5, score.(float64), 0.0001)

	active, ok, err := table.ReadColumn("active", ref)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, true, active)

	seenAt, ok, err := table.ReadColumn("seen_at", ref)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, now.Equal(seenAt.(time.Time)))
}

func Test_Column_Insert_Rejects_Wrong_Type(t *testing.T) {
	t.Parallel()

	table := newEventsTable(t)
	_, err := table.Insert(map[string]any{
		"id": int64(1), "name": "Alice", "score": "not a number", "active": true, "seen_at": time.Now(),
	})
	require.ErrorIs(t, err, rowstore.ErrColumnTypeMismatch)
	require.Equal(t, uint32(0), table.RowCount())
}

func Test_Evaluate_ScanEquals_Finds_Matching_Rows_In_Ascending_Order(t *testing.T) {
	t.Parallel()

	table := newEventsTable(t)
	now := time.Now()

	mustInsert(t, table, map[string]any{"id": int64(3), "name": "carol", "score": 1.0, "active": true, "seen_at": now})
	mustInsert(t, table, map[string]any{"id": int64(1), "name": "alice", "score": 1.0, "active": false, "seen_at": now})
	mustInsert(t, table, map[string]any{"id": int64(2), "name": "bob", "score": 2.0, "active": true, "seen_at": now})

	refs, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredEquals, Column: "score", Value: 1.0})
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Less(t, refs[0].Index(), refs[1].Index())
}

func Test_Evaluate_Compare_And_Between(t *testing.T) {
	t.Parallel()

	table := newEventsTable(t)
	now := time.Now()
	for i := int64(0); i < 10; i++ {
		mustInsert(t, table, map[string]any{
			"id": i, "name": "row", "score": float64(i), "active": true, "seen_at": now,
		})
	}

	gt, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredCompare, Column: "id", Op: rowstore.OpGT, Value: int64(7)})
	require.NoError(t, err)
	require.Len(t, gt, 2)

	between, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredBetween, Column: "id", Lo: int64(3), Hi: int64(5)})
	require.NoError(t, err)
	require.Len(t, between, 3)
}

func Test_Evaluate_StringPredicates(t *testing.T) {
	t.Parallel()

	table := newEventsTable(t)
	now := time.Now()
	mustInsert(t, table, map[string]any{"id": int64(1), "name": "Alice", "score": 1.0, "active": true, "seen_at": now})
	mustInsert(t, table, map[string]any{"id": int64(2), "name": "Alicia", "score": 1.0, "active": true, "seen_at": now})
	mustInsert(t, table, map[string]any{"id": int64(3), "name": "Bob", "score": 1.0, "active": true, "seen_at": now})

	starts, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredStartsWith, Column: "name", Value: "Ali"})
	require.NoError(t, err)
	require.Len(t, starts, 2)

	ends, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredEndsWith, Column: "name", Value: "ia"})
	require.NoError(t, err)
	require.Len(t, ends, 1)

	ignoreCase, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredEqualsIgnoreCase, Column: "name", Value: "alice"})
	require.NoError(t, err)
	require.Len(t, ignoreCase, 1)
}

func Test_Evaluate_And_Or_Not(t *testing.T) {
	t.Parallel()

	table := newEventsTable(t)
	now := time.Now()
	mustInsert(t, table, map[string]any{"id": int64(1), "name": "a", "score": 1.0, "active": true, "seen_at": now})
	mustInsert(t, table, map[string]any{"id": int64(2), "name": "b", "score": 2.0, "active": false, "seen_at": now})
	mustInsert(t, table, map[string]any{"id": int64(3), "name": "c", "score": 1.0, "active": false, "seen_at": now})

	and, err := table.Evaluate(rowstore.Predicate{
		Kind: rowstore.PredAnd,
		Children: []rowstore.Predicate{
			{Kind: rowstore.PredEquals, Column: "score", Value: 1.0},
			{Kind: rowstore.PredEquals, Column: "active", Value: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, and, 1)

	or, err := table.Evaluate(rowstore.Predicate{
		Kind: rowstore.PredOr,
		Children: []rowstore.Predicate{
			{Kind: rowstore.PredEquals, Column: "active", Value: true},
			{Kind: rowstore.PredEquals, Column: "score", Value: 2.0},
		},
	})
	require.NoError(t, err)
	require.Len(t, or, 2)

	not, err := table.Evaluate(rowstore.Predicate{
		Kind:     rowstore.PredNot,
		Children: []rowstore.Predicate{{Kind: rowstore.PredEquals, Column: "active", Value: true}},
	})
	require.NoError(t, err)
	require.Len(t, not, 2)
}
