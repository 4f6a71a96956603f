// Package schemaconfig loads a table's column schema and index list from
// a JSONC (JSON-with-comments) file, the same format and loading pattern
// the teacher's top-level config.go uses for its own config file: read
// raw bytes, standardize with hujson, then decode the now-strict JSON
// with encoding/json.
package schemaconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/rowstore/pkg/rowstore"
)

// ColumnSchema is one column entry in a schema file.
type ColumnSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// IndexSchema is one secondary-index entry in a schema file.
type IndexSchema struct {
	Kind    string   `json:"kind"`    // "hash", "range", "prefix", "suffix", or "composite"
	Column  string   `json:"column"`  // for hash/range/prefix/suffix
	Columns []string `json:"columns"` // for composite
}

// Schema is the on-disk shape of a table definition.
type Schema struct {
	PageSize uint32         `json:"page_size"`
	MaxPages uint32         `json:"max_pages"`
	IDColumn string         `json:"id_column"`
	Columns  []ColumnSchema `json:"columns"`
	Indexes  []IndexSchema  `json:"indexes"`
}

var typeNames = map[string]rowstore.TypeCode{
	"long":    rowstore.LONG,
	"int":     rowstore.INT,
	"short":   rowstore.SHORT,
	"byte":    rowstore.BYTE,
	"bool":    rowstore.BOOL,
	"char":    rowstore.CHAR,
	"float":   rowstore.FLOAT,
	"double":  rowstore.DOUBLE,
	"string":  rowstore.STRING,
	"instant": rowstore.INSTANT,
}

var indexKindNames = map[string]rowstore.IndexKind{
	"hash":   rowstore.IndexHash,
	"range":  rowstore.IndexRange,
	"prefix": rowstore.IndexPrefix,
	"suffix": rowstore.IndexSuffix,
}

// Load reads and parses a schema file at path.
func Load(path string) (Schema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally caller-controlled
	if err != nil {
		return Schema{}, fmt.Errorf("schemaconfig: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes schema bytes in JSONC form.
func Parse(data []byte) (Schema, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Schema{}, fmt.Errorf("schemaconfig: invalid JSONC: %w", err)
	}

	var schema Schema
	if err := json.Unmarshal(standardized, &schema); err != nil {
		return Schema{}, fmt.Errorf("schemaconfig: invalid JSON: %w", err)
	}

	return schema, nil
}

// BuildTable constructs and fully indexes a rowstore.Table from the
// schema: NewTable first, then every declared index, in file order.
func BuildTable(schema Schema) (*rowstore.Table, error) {
	cfg := rowstore.TableConfig{
		PageSize: schema.PageSize,
		MaxPages: schema.MaxPages,
		IDColumn: schema.IDColumn,
	}

	for _, col := range schema.Columns {
		code, ok := typeNames[col.Type]
		if !ok {
			return nil, fmt.Errorf("schemaconfig: column %q: unknown type %q", col.Name, col.Type)
		}
		cfg.Columns = append(cfg.Columns, rowstore.ColumnDef{Name: col.Name, Type: code})
	}

	table, err := rowstore.NewTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("schemaconfig: %w", err)
	}

	for _, idx := range schema.Indexes {
		if idx.Kind == "composite" {
			if err := table.RegisterCompositeIndex(idx.Columns); err != nil {
				return nil, fmt.Errorf("schemaconfig: composite index on %v: %w", idx.Columns, err)
			}
			continue
		}

		kind, ok := indexKindNames[idx.Kind]
		if !ok {
			return nil, fmt.Errorf("schemaconfig: unknown index kind %q", idx.Kind)
		}
		if err := table.RegisterIndex(idx.Column, kind); err != nil {
			return nil, fmt.Errorf("schemaconfig: %s index on %q: %w", idx.Kind, idx.Column, err)
		}
	}

	return table, nil
}
