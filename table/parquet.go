package table

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// columnsMetadataKey stores the original column names. Parquet field names are
// restricted, so columns are written as c0, c1, ...
const columnsMetadataKey = "fileconn.columns"

type ParquetOptions struct {
	// Columns limits the result to these columns, in this order.
	Columns []string
}

func fieldName(i int) string {
	return "c" + strconv.Itoa(i)
}

type jsonSchema struct {
	Tag    string
	Fields []jsonSchema `json:",omitempty"`
}

func parquetSchema(numColumns int) (string, error) {
	s := jsonSchema{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for i := 0; i < numColumns; i++ {
		s.Fields = append(s.Fields, jsonSchema{
			Tag: "name=" + fieldName(i) + ", type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
		})
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeParquet writes t as a single parquet file with string columns.
func EncodeParquet(w io.Writer, t *Table) error {
	if err := t.validate(); err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("%w: parquet requires at least one column", ErrEncode)
	}
	schema, err := parquetSchema(len(t.Columns))
	if err != nil {
		return fmt.Errorf("%w: parquet schema: %w", ErrEncode, err)
	}
	pw, err := writer.NewJSONWriter(schema, writerfile.NewWriterFile(w), 1)
	if err != nil {
		return fmt.Errorf("%w: parquet writer: %w", ErrEncode, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	record := make(map[string]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[fieldName(i)] = cell
		}
		b, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("%w: parquet row: %w", ErrEncode, err)
		}
		if err := pw.Write(string(b)); err != nil {
			return fmt.Errorf("%w: parquet row: %w", ErrEncode, err)
		}
	}

	names, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("%w: parquet metadata: %w", ErrEncode, err)
	}
	value := string(names)
	pw.Footer.KeyValueMetadata = append(pw.Footer.KeyValueMetadata, &parquet.KeyValue{
		Key:   columnsMetadataKey,
		Value: &value,
	})
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("%w: parquet footer: %w", ErrEncode, err)
	}
	return nil
}

// DecodeParquet reads a flat parquet file fully into memory. Values of non string
// columns are rendered with their default text format; nulls become empty cells.
func DecodeParquet(r io.Reader, opts ParquetOptions) (t *Table, err error) {
	defer func() {
		// the parquet reader panics on some malformed inputs
		if p := recover(); p != nil {
			t = nil
			err = fmt.Errorf("%w: parquet: %v", ErrDecode, p)
		}
	}()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	pr, err := reader.NewParquetColumnReader(buffer.NewBufferFileFromBytes(data), 1)
	if err != nil {
		return nil, fmt.Errorf("%w: parquet: %w", ErrDecode, err)
	}
	defer pr.ReadStop()

	columns, err := parquetColumns(pr)
	if err != nil {
		return nil, err
	}
	indexes := make([]int, len(columns))
	for i := range columns {
		indexes[i] = i
	}
	if len(opts.Columns) > 0 {
		all := &Table{Columns: columns}
		indexes = indexes[:0]
		for _, name := range opts.Columns {
			idx, err := all.columnIndex(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrDecode, err)
			}
			indexes = append(indexes, idx)
		}
		columns = append([]string(nil), opts.Columns...)
	}

	numRows := pr.GetNumRows()
	t = &Table{
		Columns: columns,
		Rows:    make([][]string, numRows),
	}
	for i := range t.Rows {
		t.Rows[i] = make([]string, len(indexes))
	}
	if numRows == 0 {
		return t, nil
	}
	for c, idx := range indexes {
		values, _, _, err := pr.ReadColumnByIndex(int64(idx), numRows)
		if err != nil {
			return nil, fmt.Errorf("%w: parquet column %s: %w", ErrDecode, columns[c], err)
		}
		if int64(len(values)) != numRows {
			return nil, fmt.Errorf("%w: parquet column %s: %d values for %d rows, nested columns are not supported",
				ErrDecode, columns[c], len(values), numRows)
		}
		for r, v := range values {
			t.Rows[r][c] = formatValue(v)
		}
	}
	return t, nil
}

// parquetColumns returns column names from the metadata written by EncodeParquet, or
// the schema leaf names for files written elsewhere.
func parquetColumns(pr *reader.ParquetReader) ([]string, error) {
	numLeaves := len(pr.SchemaHandler.ValueColumns)
	for _, kv := range pr.Footer.KeyValueMetadata {
		if kv == nil || kv.Key != columnsMetadataKey || kv.Value == nil {
			continue
		}
		var names []string
		if err := json.Unmarshal([]byte(*kv.Value), &names); err != nil {
			return nil, fmt.Errorf("%w: parquet column metadata: %w", ErrDecode, err)
		}
		if len(names) != numLeaves {
			return nil, fmt.Errorf("%w: parquet column metadata lists %d columns, schema has %d", ErrDecode, len(names), numLeaves)
		}
		return names, nil
	}
	if len(pr.Footer.Schema) == 0 {
		return nil, fmt.Errorf("%w: parquet file has no schema", ErrDecode)
	}
	var names []string
	for _, el := range pr.Footer.Schema[1:] {
		if el.NumChildren != nil && *el.NumChildren > 0 {
			continue
		}
		names = append(names, el.Name)
	}
	if len(names) != numLeaves {
		return nil, fmt.Errorf("%w: parquet schema has %d leaves, expected %d", ErrDecode, len(names), numLeaves)
	}
	return names, nil
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
