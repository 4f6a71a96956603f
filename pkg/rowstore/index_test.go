package rowstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rowstore/pkg/rowstore"
)

func newPeopleTable(t *testing.T) *rowstore.Table {
	t.Helper()

	table, err := rowstore.NewTable(rowstore.TableConfig{
		PageSize: 8,
		MaxPages: 8,
		IDColumn: "id",
		Columns: []rowstore.ColumnDef{
			{Name: "id", Type: rowstore.STRING},
			{Name: "city", Type: rowstore.STRING},
			{Name: "age", Type: rowstore.INT},
		},
	})
	require.NoError(t, err)
	return table
}

func Test_RegisterIndex_Fails_After_First_Insert(t *testing.T) {
	t.Parallel()

	table := newPeopleTable(t)
	_, err := table.Insert(map[string]any{"id": "1", "city": "nyc", "age": int32(30)})
	require.NoError(t, err)

	err = table.RegisterIndex("city", rowstore.IndexHash)
	require.ErrorIs(t, err, rowstore.ErrInvalidInput)
}

func Test_RegisterIndex_Rejects_Prefix_On_Non_String_Column(t *testing.T) {
	t.Parallel()

	table := newPeopleTable(t)
	err := table.RegisterIndex("age", rowstore.IndexPrefix)
	require.ErrorIs(t, err, rowstore.ErrIndexTypeMismatch)
}

func Test_HashIndex_Accelerated_Lookup_Matches_Scan(t *testing.T) {
	t.Parallel()

	table := newPeopleTable(t)
	require.NoError(t, table.RegisterIndex("city", rowstore.IndexHash))

	_, err := table.Insert(map[string]any{"id": "1", "city": "nyc", "age": int32(30)})
	require.NoError(t, err)
	_, err = table.Insert(map[string]any{"id": "2", "city": "sf", "age": int32(25)})
	require.NoError(t, err)
	_, err = table.Insert(map[string]any{"id": "3", "city": "nyc", "age": int32(40)})
	require.NoError(t, err)

	refs, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredEquals, Column: "city", Value: "nyc"})
	require.NoError(t, err)
	require.Len(t, refs, 2)
}

func Test_RangeIndex_Accelerates_Compare_And_Removes_On_Tombstone(t *testing.T) {
	t.Parallel()

	table := newPeopleTable(t)
	require.NoError(t, table.RegisterIndex("age", rowstore.IndexRange))

	refs := make([]rowstore.Reference, 0, 5)
	for i := int32(0); i < 5; i++ {
		ref, err := table.Insert(map[string]any{"id": string(rune('a' + i)), "city": "x", "age": i})
		require.NoError(t, err)
		refs = append(refs, ref)
	}

	ge, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredCompare, Column: "age", Op: rowstore.OpGE, Value: int32(2)})
	require.NoError(t, err)
	require.Len(t, ge, 3)

	require.True(t, table.Tombstone(refs[2]))

	ge, err = table.Evaluate(rowstore.Predicate{Kind: rowstore.PredCompare, Column: "age", Op: rowstore.OpGE, Value: int32(2)})
	require.NoError(t, err)
	require.Len(t, ge, 2)
}

func Test_PrefixAndSuffixIndex_Match_Column_Scan(t *testing.T) {
	t.Parallel()

	table := newPeopleTable(t)
	require.NoError(t, table.RegisterIndex("city", rowstore.IndexPrefix))
	require.NoError(t, table.RegisterIndex("city", rowstore.IndexSuffix))

	cities := []string{"berlin", "bern", "paris", "perugia"}
	for i, city := range cities {
		_, err := table.Insert(map[string]any{"id": string(rune('a' + i)), "city": city, "age": int32(i)})
		require.NoError(t, err)
	}

	starts, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredStartsWith, Column: "city", Value: "ber"})
	require.NoError(t, err)
	require.Len(t, starts, 2)

	ends, err := table.Evaluate(rowstore.Predicate{Kind: rowstore.PredEndsWith, Column: "city", Value: "in"})
	require.NoError(t, err)
	require.Len(t, ends, 1)
}

func Test_CompositeIndex_Requires_At_Least_Two_Columns(t *testing.T) {
	t.Parallel()

	table := newPeopleTable(t)
	err := table.RegisterCompositeIndex([]string{"city"})
	require.ErrorIs(t, err, rowstore.ErrInvalidInput)

	err = table.RegisterCompositeIndex([]string{"city", "age"})
	require.NoError(t, err)
}
