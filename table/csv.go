package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

type CSVOptions struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// Comment marks lines to skip when non zero.
	Comment rune
	// NoHeader treats the first record as data; columns are named "0", "1", ...
	NoHeader   bool
	LazyQuotes bool
	// Columns limits the result to these columns, in this order.
	Columns []string
}

func DecodeCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.Comment = opts.Comment
	cr.LazyQuotes = opts.LazyQuotes

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %w", ErrDecode, err)
	}
	t := &Table{}
	if len(records) == 0 {
		return selectColumns(t, opts.Columns)
	}
	if opts.NoHeader {
		t.Columns = make([]string, len(records[0]))
		for i := range t.Columns {
			t.Columns[i] = strconv.Itoa(i)
		}
		t.Rows = records
	} else {
		t.Columns = records[0]
		t.Rows = records[1:]
	}
	if t.Rows == nil {
		t.Rows = [][]string{}
	}
	return selectColumns(t, opts.Columns)
}

func selectColumns(t *Table, columns []string) (*Table, error) {
	if len(columns) == 0 {
		return t, nil
	}
	out, err := t.Select(columns...)
	if errors.Is(err, ErrUnknownColumn) {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, err
}

// EncodeCSV writes the header followed by every row.
func EncodeCSV(w io.Writer, t *Table) error {
	if err := t.validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("%w: csv header: %w", ErrEncode, err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("%w: csv rows: %w", ErrEncode, err)
	}
	return nil
}
