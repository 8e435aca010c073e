package parquetstore

import (
	"fmt"
)

// Kind identifies the storage type of a table column. The bulk schema
// contract is flat numeric columns only.
type Kind int

const (
	// KindInt64 holds integer columns (INT32 widens on read).
	KindInt64 Kind = iota
	// KindDouble holds floating-point columns (FLOAT widens on read).
	KindDouble
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindDouble:
		return "double"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is one named column of trajectory data. Exactly one of Ints or
// Floats is populated, according to Kind.
type Column struct {
	Name   string
	Kind   Kind
	Ints   []int64
	Floats []float64
}

// IntColumn builds an int64 column.
func IntColumn(name string, values []int64) Column {
	return Column{Name: name, Kind: KindInt64, Ints: values}
}

// FloatColumn builds a double column.
func FloatColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: KindDouble, Floats: values}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == KindInt64 {
		return len(c.Ints)
	}
	return len(c.Floats)
}

// Float64 returns row i as float64, converting integer columns.
func (c *Column) Float64(i int) float64 {
	if c.Kind == KindInt64 {
		return float64(c.Ints[i])
	}
	return c.Floats[i]
}

// Int64 returns row i as int64, truncating double columns.
func (c *Column) Int64(i int) int64 {
	if c.Kind == KindInt64 {
		return c.Ints[i]
	}
	return int64(c.Floats[i])
}

// Table is an in-memory columnar table of trajectory records: a set of
// equally sized named columns in a stable order. The stable column
// contract for trajectory datasets is timestamp, position, speed (DOUBLE)
// plus lane_id and vehicle_id (INT64); derived numeric columns may follow
// and are carried through load/store untouched.
type Table struct {
	cols   []Column
	byName map[string]int
	rows   int
}

// NewTable builds a table from columns, validating that names are unique
// and all columns have the same length.
func NewTable(cols ...Column) (*Table, error) {
	t := &Table{
		cols:   cols,
		byName: make(map[string]int, len(cols)),
	}
	for i := range cols {
		c := &cols[i]
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		t.byName[c.Name] = i
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.cols) }

// Columns returns the columns in table order.
func (t *Table) Columns() []Column { return t.cols }

// Column returns the named column, with ok reporting presence.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.cols[i], true
}

// ColumnNames returns column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i := range t.cols {
		names[i] = t.cols[i].Name
	}
	return names
}

// Equal reports whether two tables hold the same columns with the same
// values, ignoring column order.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for i := range t.cols {
		a := &t.cols[i]
		b, ok := o.Column(a.Name)
		if !ok || a.Kind != b.Kind {
			return false
		}
		for r := 0; r < t.rows; r++ {
			if a.Kind == KindInt64 {
				if a.Ints[r] != b.Ints[r] {
					return false
				}
			} else if a.Floats[r] != b.Floats[r] {
				return false
			}
		}
	}
	return true
}
