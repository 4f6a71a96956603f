package rowstore_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rowstore/pkg/rowstore"
)

func Test_Table_Insert_Exhausts_Capacity(t *testing.T) {
	t.Parallel()

	table, err := rowstore.NewTable(rowstore.TableConfig{
		PageSize: 2,
		MaxPages: 1,
		IDColumn: "id",
		Columns:  []rowstore.ColumnDef{{Name: "id", Type: rowstore.INT}},
	})
	require.NoError(t, err)

	for i := int32(0); i < 2; i++ {
		_, err := table.Insert(map[string]any{"id": i})
		require.NoError(t, err)
	}

	_, err = table.Insert(map[string]any{"id": int32(99)})
	require.ErrorIs(t, err, rowstore.ErrCapacityExhausted)
}

func Test_Table_Insert_Reuses_Freed_Slots_Before_Exhaustion(t *testing.T) {
	t.Parallel()

	table, err := rowstore.NewTable(rowstore.TableConfig{
		PageSize: 2,
		MaxPages: 1,
		IDColumn: "id",
		Columns:  []rowstore.ColumnDef{{Name: "id", Type: rowstore.INT}},
	})
	require.NoError(t, err)

	refs := make([]rowstore.Reference, 0, 2)
	for i := int32(0); i < 2; i++ {
		ref, err := table.Insert(map[string]any{"id": i})
		require.NoError(t, err)
		refs = append(refs, ref)
	}

	require.True(t, table.Tombstone(refs[0]))

	ref, err := table.Insert(map[string]any{"id": int32(2)})
	require.NoError(t, err)
	require.Equal(t, refs[0].Index(), ref.Index())
	require.NotEqual(t, refs[0].Generation(), ref.Generation())

	require.Equal(t, uint32(2), table.AllocatedCount())
}

func Test_Table_Allocate_Is_Linearizable_Under_Concurrent_Insert(t *testing.T) {
	table, err := rowstore.NewTable(rowstore.TableConfig{
		PageSize: 64,
		MaxPages: 64,
		IDColumn: "id",
		Columns:  []rowstore.ColumnDef{{Name: "id", Type: rowstore.INT}},
	})
	require.NoError(t, err)

	const workers = 32
	const perWorker = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	seenIndices := make(map[uint32]bool)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := int32(worker*perWorker + i)
				ref, err := table.Insert(map[string]any{"id": id})
				require.NoError(t, err)

				mu.Lock()
				require.False(t, seenIndices[ref.Index()], "row index handed out twice")
				seenIndices[ref.Index()] = true
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, uint32(workers*perWorker), table.RowCount())
	require.Len(t, seenIndices, workers*perWorker)
}
