package table

import (
	"errors"
	"fmt"
)

var (
	ErrDecode        = errors.New("decode table")
	ErrEncode        = errors.New("encode table")
	ErrUnknownColumn = errors.New("unknown column")
)

// Table is an in-memory tabular result. Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t *Table) NumRows() int {
	return len(t.Rows)
}

func (t *Table) NumColumns() int {
	return len(t.Columns)
}

func (t *Table) columnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
}

// Column returns the cells of the named column.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	indexes := make([]int, len(names))
	for i, name := range names {
		idx, err := t.columnIndex(name)
		if err != nil {
			return nil, err
		}
		indexes[i] = idx
	}
	out := &Table{
		Columns: append([]string(nil), names...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for r, row := range t.Rows {
		selected := make([]string, len(indexes))
		for i, idx := range indexes {
			selected[i] = row[idx]
		}
		out.Rows[r] = selected
	}
	return out, nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

func (t *Table) validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if _, ok := seen[c]; ok {
			return fmt.Errorf("%w: duplicate column %q", ErrEncode, c)
		}
		seen[c] = struct{}{}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrEncode, i, len(row), len(t.Columns))
		}
	}
	return nil
}
