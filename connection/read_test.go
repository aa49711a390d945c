package connection_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeverse/fileconn/cache"
	"github.com/treeverse/fileconn/connection"
	"github.com/treeverse/fileconn/table"
)

func demoFrame() *table.Table {
	return &table.Table{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1", "2"}, {"2", "3"}, {"3", "4"}},
	}
}

func TestTextRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	require.NoError(t, c.WriteText(ctx, "test.txt", "This is a test"))
	text, err := c.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	assert.Equal(t, "This is a test", text)
}

func TestCacheServesUntilCleared(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	require.NoError(t, c.WriteText(ctx, "test.txt", "v1"))
	text, err := c.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	assert.Equal(t, "v1", text)

	require.NoError(t, c.WriteText(ctx, "test.txt", "v2"))
	text, err = c.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	assert.Equal(t, "v1", text, "served from cache")

	text, err = c.ReadText(ctx, "test.txt", connection.WithTTL(0))
	require.NoError(t, err)
	assert.Equal(t, "v2", text, "zero ttl reads through")

	text, err = c.ReadText(ctx, "test.txt", connection.WithTTLValue(60))
	require.NoError(t, err)
	assert.Equal(t, "v2", text, "another ttl is another cache key")

	c.ClearCache()
	text, err = c.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", text)
}

func TestCacheExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	require.NoError(t, c.WriteText(ctx, "test.txt", "v1"))
	_, err := c.ReadText(ctx, "test.txt", connection.WithTTL(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, c.WriteText(ctx, "test.txt", "v2"))
	time.Sleep(50 * time.Millisecond)

	text, err := c.ReadText(ctx, "test.txt", connection.WithTTL(20*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "v2", text)
}

func TestCacheIsolatedPerConnection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.newConnection(t, "a", newRecordingFactory(), nil)
	b := env.newConnection(t, "b", newRecordingFactory(), nil)

	require.NoError(t, a.WriteText(ctx, "test.txt", "from a"))
	require.NoError(t, b.WriteText(ctx, "test.txt", "from b"))

	textA, err := a.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	textB, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	assert.Equal(t, "from a", textA)
	assert.Equal(t, "from b", textB)
	assert.Equal(t, 2, env.cache.Len())

	a.ClearCache()
	assert.Equal(t, 1, env.cache.Len(), "clearing a keeps the entries of b")
}

func TestTextAndBytesCachedSeparately(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	require.NoError(t, c.WriteBytes(ctx, "blob", []byte{0x01, 0x02}))
	_, err := c.ReadText(ctx, "blob")
	require.NoError(t, err)
	data, err := c.ReadBytes(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)
	assert.Equal(t, 2, env.cache.Len())
}

func TestReadBytesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)
	require.NoError(t, c.WriteBytes(ctx, "blob", []byte("abc")))

	data, err := c.ReadBytes(ctx, "blob")
	require.NoError(t, err)
	data[0] = 'z'

	again, err := c.ReadBytes(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	require.NoError(t, c.WriteCSV(ctx, "test.csv", demoFrame()))
	got, err := c.ReadCSV(ctx, "test.csv")
	require.NoError(t, err)
	assert.Equal(t, demoFrame(), got)

	got.Rows[0][0] = "changed"
	again, err := c.ReadCSV(ctx, "test.csv")
	require.NoError(t, err)
	assert.Equal(t, demoFrame(), again, "cached table is not shared with callers")

	selected, err := c.ReadCSV(ctx, "test.csv", connection.WithCSVOptions(table.CSVOptions{Columns: []string{"b"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, selected.Columns)
	assert.Equal(t, [][]string{{"2"}, {"3"}, {"4"}}, selected.Rows)
}

func TestParquetRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	require.NoError(t, c.WriteParquet(ctx, "test.parquet", demoFrame()))
	got, err := c.ReadParquet(ctx, "test.parquet")
	require.NoError(t, err)
	assert.Equal(t, demoFrame(), got)

	selected, err := c.ReadParquet(ctx, "test.parquet", connection.WithParquetOptions(table.ParquetOptions{Columns: []string{"b", "a"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, selected.Columns)
	assert.Equal(t, []string{"2", "1"}, selected.Rows[0])
}

func TestDecodeErrorNotCached(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	require.NoError(t, c.WriteText(ctx, "bad.csv", "a,b\n1,2,3\n"))
	_, err := c.ReadCSV(ctx, "bad.csv")
	assert.True(t, errors.Is(err, connection.ErrDecode), "got %v", err)

	_, err = c.ReadParquet(ctx, "bad.csv")
	assert.True(t, errors.Is(err, connection.ErrDecode), "got %v", err)

	require.NoError(t, c.WriteCSV(ctx, "bad.csv", demoFrame()))
	got, err := c.ReadCSV(ctx, "bad.csv")
	require.NoError(t, err)
	assert.Equal(t, demoFrame(), got)
}

func TestReadNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)
	_, err := c.ReadText(ctx, "missing.txt")
	assert.True(t, errors.Is(err, connection.ErrNotFound))
	_, err = c.ReadParquet(ctx, "missing.parquet")
	assert.True(t, errors.Is(err, connection.ErrNotFound))
}

func TestInvalidTTL(t *testing.T) {
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)
	_, err := c.ReadText(context.Background(), "test.txt", connection.WithTTLValue("whenever"))
	assert.True(t, errors.Is(err, cache.ErrInvalidTTL))
	_, err = c.ReadBytes(context.Background(), "test.txt", connection.WithTTL(-time.Second))
	assert.True(t, errors.Is(err, cache.ErrInvalidTTL))
}

func TestDefaultTTLOption(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil, connection.WithDefaultTTL(0))

	require.NoError(t, c.WriteText(ctx, "test.txt", "v1"))
	_, err := c.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	require.NoError(t, c.WriteText(ctx, "test.txt", "v2"))
	text, err := c.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", text)
	assert.Equal(t, 0, env.cache.Len())
}

func TestExistsAndRemove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	exists, err := c.Exists(ctx, "test.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, c.WriteText(ctx, "test.txt", "x"))
	exists, err = c.Exists(ctx, "test.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Remove(ctx, "test.txt"))
	err = c.Remove(ctx, "test.txt")
	assert.True(t, errors.Is(err, connection.ErrNotFound))
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.newConnection(t, "conn", newRecordingFactory(), nil)

	local := filepath.Join(t.TempDir(), "local.txt")
	require.NoError(t, os.WriteFile(local, []byte("uploaded"), 0o600))
	require.NoError(t, c.Upload(ctx, local, "remote.txt"))

	text, err := c.ReadText(ctx, "remote.txt")
	require.NoError(t, err)
	assert.Equal(t, "uploaded", text)

	err = c.Upload(ctx, filepath.Join(t.TempDir(), "missing"), "x")
	assert.Error(t, err)
}
