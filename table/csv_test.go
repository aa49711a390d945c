package table_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeverse/fileconn/table"
)

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, table.EncodeCSV(&buf, sampleTable()))
	assert.Equal(t, "a,b\n1,2\n2,3\n3,4\n", buf.String())

	got, err := table.DecodeCSV(&buf, table.CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), got)
}

func TestDecodeCSVOptions(t *testing.T) {
	cases := []struct {
		name  string
		input string
		opts  table.CSVOptions
		want  *table.Table
	}{
		{
			name:  "delimiter",
			input: "a;b\n1;2\n",
			opts:  table.CSVOptions{Delimiter: ';'},
			want:  &table.Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}},
		},
		{
			name:  "comment",
			input: "a,b\n# skipped\n1,2\n",
			opts:  table.CSVOptions{Comment: '#'},
			want:  &table.Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}},
		},
		{
			name:  "no header",
			input: "1,2\n3,4\n",
			opts:  table.CSVOptions{NoHeader: true},
			want:  &table.Table{Columns: []string{"0", "1"}, Rows: [][]string{{"1", "2"}, {"3", "4"}}},
		},
		{
			name:  "columns",
			input: "a,b,c\n1,2,3\n",
			opts:  table.CSVOptions{Columns: []string{"c", "a"}},
			want:  &table.Table{Columns: []string{"c", "a"}, Rows: [][]string{{"3", "1"}}},
		},
		{
			name:  "header only",
			input: "a,b\n",
			want:  &table.Table{Columns: []string{"a", "b"}, Rows: [][]string{}},
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.DecodeCSV(strings.NewReader(tt.input), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCSVErrors(t *testing.T) {
	_, err := table.DecodeCSV(strings.NewReader("a,b\n1,2,3\n"), table.CSVOptions{})
	assert.True(t, errors.Is(err, table.ErrDecode), "ragged rows: %v", err)

	_, err = table.DecodeCSV(strings.NewReader("a,b\n1,2\n"), table.CSVOptions{Columns: []string{"z"}})
	assert.True(t, errors.Is(err, table.ErrDecode), "unknown column: %v", err)
	assert.True(t, errors.Is(err, table.ErrUnknownColumn))
}

func TestEncodeCSVInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := table.EncodeCSV(&buf, &table.Table{Columns: []string{"a", "a"}})
	assert.True(t, errors.Is(err, table.ErrEncode))

	err = table.EncodeCSV(&buf, &table.Table{Columns: []string{"a"}, Rows: [][]string{{"1", "2"}}})
	assert.True(t, errors.Is(err, table.ErrEncode))
}
