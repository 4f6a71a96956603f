package rowstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rowstore/pkg/rowstore"
)

// newTestTable returns a small table with an id (STRING) and a name
// (STRING) column and small pages (page_size=4, max_pages=16).
func newTestTable(t *testing.T) *rowstore.Table {
	t.Helper()

	table, err := rowstore.NewTable(rowstore.TableConfig{
		PageSize: 4,
		MaxPages: 16,
		IDColumn: "id",
		Columns: []rowstore.ColumnDef{
			{Name: "id", Type: rowstore.STRING},
			{Name: "name", Type: rowstore.STRING},
		},
	})
	require.NoError(t, err)
	return table
}
