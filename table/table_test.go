package table_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeverse/fileconn/table"
)

func sampleTable() *table.Table {
	return &table.Table{
		Columns: []string{"a", "b"},
		Rows: [][]string{
			{"1", "2"},
			{"2", "3"},
			{"3", "4"},
		},
	}
}

func TestTableColumn(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumColumns())

	b, err := tbl.Column("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "4"}, b)

	_, err = tbl.Column("c")
	assert.True(t, errors.Is(err, table.ErrUnknownColumn))
}

func TestTableSelect(t *testing.T) {
	tbl := sampleTable()
	out, err := tbl.Select("b", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, out.Columns)
	assert.Equal(t, [][]string{{"2", "1"}, {"3", "2"}, {"4", "3"}}, out.Rows)

	out.Rows[0][0] = "changed"
	assert.Equal(t, "2", tbl.Rows[0][1], "select copies cells")

	_, err = tbl.Select("a", "missing")
	assert.True(t, errors.Is(err, table.ErrUnknownColumn))
}

func TestTableClone(t *testing.T) {
	tbl := sampleTable()
	clone := tbl.Clone()
	assert.Equal(t, tbl, clone)

	clone.Columns[0] = "x"
	clone.Rows[1][1] = "x"
	assert.Equal(t, "a", tbl.Columns[0])
	assert.Equal(t, "3", tbl.Rows[1][1])
}
