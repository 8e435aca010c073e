// Package parquetstore reads and writes trajectory datasets as parquet
// files with a JSON metadata document embedded under the file's
// key-value metadata.
//
// The parquet medium is append-only: changing the embedded metadata means
// rewriting the whole file. Store therefore always writes a complete file
// to a temporary path and renames it into place, so an in-place update
// either fully replaces the original or leaves it untouched.
package parquetstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// MetadataKey is the reserved key-value metadata slot carrying the
// dataset metadata JSON document.
const MetadataKey = "dataset_meta"

// Sentinel errors for the two failure classes of the store. Match with
// errors.Is; wrapped errors carry the file path and cause.
var (
	ErrFileRead  = errors.New("trajectory file unreadable")
	ErrFileWrite = errors.New("trajectory file unwritable")
)

const rowBatchSize = 1024

// Load opens a parquet file and returns its full record table together
// with the raw metadata string found under MetadataKey. A file without
// the key yields an empty string. Missing, truncated, or non-parquet
// files fail with ErrFileRead, as do files whose columns fall outside
// the flat numeric schema contract.
func Load(path string) (*Table, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: open %s: %v", ErrFileRead, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("%w: stat %s: %v", ErrFileRead, path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, "", fmt.Errorf("%w: parse %s: %v", ErrFileRead, path, err)
	}

	rawMeta := ""
	if md := pf.Metadata(); md != nil {
		for _, kv := range md.KeyValueMetadata {
			if kv.Key == MetadataKey {
				rawMeta = kv.Value
			}
		}
	}

	cols, err := columnsFromSchema(pf.Schema(), int(pf.NumRows()))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrFileRead, path, err)
	}

	if err := readAllRows(pf, cols); err != nil {
		return nil, "", fmt.Errorf("%w: read rows from %s: %v", ErrFileRead, path, err)
	}

	table, err := NewTable(cols...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrFileRead, path, err)
	}
	return table, rawMeta, nil
}

// columnsFromSchema maps the file's leaf columns onto table columns,
// rejecting nested or non-numeric columns.
func columnsFromSchema(schema *parquet.Schema, numRows int) ([]Column, error) {
	fields := schema.Fields()
	cols := make([]Column, len(fields))
	for i, fld := range fields {
		if !fld.Leaf() {
			return nil, fmt.Errorf("column %q: nested columns are not part of the trajectory schema", fld.Name())
		}
		switch fld.Type().Kind() {
		case parquet.Int32, parquet.Int64:
			cols[i] = Column{Name: fld.Name(), Kind: KindInt64, Ints: make([]int64, 0, numRows)}
		case parquet.Float, parquet.Double:
			cols[i] = Column{Name: fld.Name(), Kind: KindDouble, Floats: make([]float64, 0, numRows)}
		default:
			return nil, fmt.Errorf("column %q: unsupported type %s", fld.Name(), fld.Type())
		}
	}
	return cols, nil
}

// readAllRows appends every row of every row group to cols, preserving
// file row order.
func readAllRows(pf *parquet.File, cols []Column) error {
	buf := make([]parquet.Row, rowBatchSize)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				for _, v := range row {
					c := &cols[v.Column()]
					if v.IsNull() {
						// Nulls have no place in the numeric contract;
						// store the zero value rather than failing the
						// whole file.
						if c.Kind == KindInt64 {
							c.Ints = append(c.Ints, 0)
						} else {
							c.Floats = append(c.Floats, 0)
						}
						continue
					}
					switch v.Kind() {
					case parquet.Int32:
						c.Ints = append(c.Ints, int64(v.Int32()))
					case parquet.Int64:
						c.Ints = append(c.Ints, v.Int64())
					case parquet.Float:
						c.Floats = append(c.Floats, float64(v.Float()))
					case parquet.Double:
						c.Floats = append(c.Floats, v.Double())
					default:
						rows.Close()
						return fmt.Errorf("column %d: unsupported value kind %s", v.Column(), v.Kind())
					}
				}
			}
			if err != nil {
				rows.Close()
				if errors.Is(err, io.EOF) {
					break
				}
				return err
			}
		}
	}
	return nil
}

// Store writes the table as a zstd-compressed parquet file at path, with
// rawMeta embedded under MetadataKey. An empty rawMeta writes no metadata
// key at all. The file is written to a temporary sibling and renamed into
// place, so replacing an existing file (in-place metadata update) is
// all-or-nothing: a failure mid-write leaves the original intact.
func Store(path string, table *Table, rawMeta string) error {
	if table.NumColumns() == 0 {
		return fmt.Errorf("%w: %s: table has no columns", ErrFileWrite, path)
	}

	schema, colIndex, err := schemaForTable(table)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFileWrite, path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", ErrFileWrite, dir, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	opts := []parquet.WriterOption{
		schema,
		parquet.Compression(&parquet.Zstd),
	}
	if rawMeta != "" {
		opts = append(opts, parquet.KeyValueMetadata(MetadataKey, rawMeta))
	}
	w := parquet.NewWriter(tmp, opts...)

	if err := writeAllRows(w, table, colIndex); err != nil {
		cleanup()
		return fmt.Errorf("%w: write %s: %v", ErrFileWrite, path, err)
	}
	if err := w.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: finalise %s: %v", ErrFileWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp for %s: %v", ErrFileWrite, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replace %s: %v", ErrFileWrite, path, err)
	}
	return nil
}

// schemaForTable builds the parquet schema for the table's columns and
// returns the leaf column index for each column name. parquet-go orders
// group fields alphabetically, so indexes come from the built schema,
// not from table order.
func schemaForTable(table *Table) (*parquet.Schema, map[string]int, error) {
	group := parquet.Group{}
	for _, c := range table.Columns() {
		switch c.Kind {
		case KindInt64:
			group[c.Name] = parquet.Leaf(parquet.Int64Type)
		case KindDouble:
			group[c.Name] = parquet.Leaf(parquet.DoubleType)
		default:
			return nil, nil, fmt.Errorf("column %q: unsupported kind %s", c.Name, c.Kind)
		}
	}
	schema := parquet.NewSchema("trajectory", group)

	colIndex := make(map[string]int, table.NumColumns())
	for i, fld := range schema.Fields() {
		colIndex[fld.Name()] = i
	}
	return schema, colIndex, nil
}

// writeAllRows streams the table through the writer in batches,
// preserving row order.
func writeAllRows(w *parquet.Writer, table *Table, colIndex map[string]int) error {
	cols := table.Columns()
	batch := make([]parquet.Row, 0, rowBatchSize)
	for r := 0; r < table.NumRows(); r++ {
		row := make(parquet.Row, len(cols))
		for i := range cols {
			c := &cols[i]
			ci := colIndex[c.Name]
			if c.Kind == KindInt64 {
				row[ci] = parquet.Int64Value(c.Ints[r]).Level(0, 0, ci)
			} else {
				row[ci] = parquet.DoubleValue(c.Floats[r]).Level(0, 0, ci)
			}
		}
		batch = append(batch, row)
		if len(batch) == rowBatchSize {
			if _, err := w.WriteRows(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if _, err := w.WriteRows(batch); err != nil {
			return err
		}
	}
	return nil
}
