package rowstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rowstore/pkg/rowstore"
)

func Test_NoReference_IsNone(t *testing.T) {
	t.Parallel()

	require.True(t, rowstore.NoReference.IsNone())
}

func Test_Table_Insert_Reference_RoundTrips_Index_And_Generation(t *testing.T) {
	t.Parallel()

	table := newTestTable(t)

	ref, err := table.Insert(map[string]any{"id": "a", "name": "alpha"})
	require.NoError(t, err)
	require.False(t, ref.IsNone())
	require.Equal(t, uint32(0), ref.Index())
	require.Equal(t, uint32(0), ref.Generation())

	ok := table.Tombstone(ref)
	require.True(t, ok)

	second, err := table.Insert(map[string]any{"id": "b", "name": "beta"})
	require.NoError(t, err)
	require.Equal(t, uint32(0), second.Index(), "freed slot should be reused before growing")
	require.Equal(t, uint32(2), second.Generation(), "tombstone and reuse must each bump the generation")
}
