// Package snapshot exports a table's live rows to a compressed,
// atomically-written file for debugging and offline inspection. It is
// deliberately not a durability mechanism: there is no matching loader
// that reconstructs a table's indexes or generations from a snapshot,
// only a dump.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	natomic "github.com/natefinch/atomic"

	"github.com/calvinalkan/rowstore/pkg/rowstore"
)

// Export writes every currently-live row of table, one JSON object per
// line, zstd-compressed, to path. The write is atomic: readers of path
// either see the old contents or the complete new contents, never a
// partial file, because the encoded bytes are buffered fully in memory
// before natefinch/atomic.WriteFile renames a temp file into place.
func Export(table *rowstore.Table, path string) error {
	var raw bytes.Buffer

	w := bufio.NewWriter(&raw)
	for _, ref := range table.ScanAll() {
		row, ok, err := table.ReadRow(ref)
		if err != nil {
			return fmt.Errorf("snapshot: read row: %w", err)
		}
		if !ok {
			continue
		}

		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("snapshot: marshal row: %w", err)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("snapshot: buffer row: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("snapshot: buffer row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("snapshot: flush: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("snapshot: new zstd writer: %w", err)
	}
	defer encoder.Close()

	compressed := encoder.EncodeAll(raw.Bytes(), nil)

	if err := natomic.WriteFile(path, bytes.NewReader(compressed)); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}

	return nil
}

// Read decodes a file written by Export back into a slice of row
// maps, in the order they were written (which is ScanAll's ascending
// row-index order at export time, not necessarily current order).
func Read(path string) ([]map[string]any, error) {
	compressed, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: new zstd reader: %w", err)
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}

	var rows []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var row map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			return nil, fmt.Errorf("snapshot: unmarshal row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: scan %s: %w", path, err)
	}

	return rows, nil
}
