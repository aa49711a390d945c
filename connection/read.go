package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/treeverse/fileconn/cache"
	"github.com/treeverse/fileconn/logging"
	"github.com/treeverse/fileconn/pyramid"
	"github.com/treeverse/fileconn/table"
)

const (
	opReadText    = "read_text"
	opReadBytes   = "read_bytes"
	opReadCSV     = "read_csv"
	opReadParquet = "read_parquet"
)

// cacheKey identifies one cached read. The connection name keeps reads of the same
// path on different connections apart.
type cacheKey struct {
	op         string
	connection string
	path       string
	binary     bool
	ttl        time.Duration
	options    string
}

type readOptions struct {
	ttl     time.Duration
	err     error
	csv     table.CSVOptions
	parquet table.ParquetOptions
}

type ReadOption func(o *readOptions)

// WithTTL sets how long the result stays cached. Zero disables caching for the read.
func WithTTL(ttl time.Duration) ReadOption {
	return func(o *readOptions) {
		if ttl < 0 {
			o.err = fmt.Errorf("%w: %s", cache.ErrInvalidTTL, ttl)
			return
		}
		o.ttl = ttl
	}
}

// WithTTLValue accepts a TTL as seconds (int or float), a time.Duration or a duration
// string such as "10m".
func WithTTLValue(v interface{}) ReadOption {
	return func(o *readOptions) {
		ttl, err := cache.ParseTTL(v)
		if err != nil {
			o.err = err
			return
		}
		o.ttl = ttl
	}
}

func WithCSVOptions(opts table.CSVOptions) ReadOption {
	return func(o *readOptions) {
		o.csv = opts
	}
}

func WithParquetOptions(opts table.ParquetOptions) ReadOption {
	return func(o *readOptions) {
		o.parquet = opts
	}
}

func (c *Connection) readOptions(opts []ReadOption) (*readOptions, error) {
	o := &readOptions{ttl: c.defaultTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.err != nil {
		return nil, o.err
	}
	return o, nil
}

func canonicalOptions(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cache key options: %w", err)
	}
	return string(b), nil
}

// cachedRead serves key from the cache, or opens path in mode and decodes it.
// Concurrent misses on one key share a single fetch that runs with the ctx of the
// first caller; if that ctx is cancelled, every waiter gets the cancellation error.
func (c *Connection) cachedRead(ctx context.Context, key cacheKey, mode Mode, decode func(r io.Reader) (interface{}, error)) (interface{}, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	key.connection = c.name
	key.binary = mode.Binary()
	return c.cache.GetOrSet(key, key.ttl, func() (interface{}, error) {
		var v interface{}
		err := c.Open(ctx, key.path, string(mode), func(f *pyramid.File) error {
			var err error
			v, err = decode(f)
			return err
		})
		if err != nil {
			return nil, err
		}
		c.log.WithFields(logging.Fields{"op": key.op, "path": key.path}).Trace("read from backend")
		return v, nil
	})
}

// ReadText returns the whole content of path as text.
func (c *Connection) ReadText(ctx context.Context, path string, opts ...ReadOption) (string, error) {
	o, err := c.readOptions(opts)
	if err != nil {
		return "", err
	}
	v, err := c.cachedRead(ctx, cacheKey{op: opReadText, path: path, ttl: o.ttl}, ModeReadText, func(r io.Reader) (interface{}, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ReadBytes returns the whole content of path. The slice is owned by the caller.
func (c *Connection) ReadBytes(ctx context.Context, path string, opts ...ReadOption) ([]byte, error) {
	o, err := c.readOptions(opts)
	if err != nil {
		return nil, err
	}
	v, err := c.cachedRead(ctx, cacheKey{op: opReadBytes, path: path, ttl: o.ttl}, ModeReadBinary, func(r io.Reader) (interface{}, error) {
		return io.ReadAll(r)
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// ReadCSV decodes path as CSV. The table is owned by the caller.
func (c *Connection) ReadCSV(ctx context.Context, path string, opts ...ReadOption) (*table.Table, error) {
	o, err := c.readOptions(opts)
	if err != nil {
		return nil, err
	}
	options, err := canonicalOptions(o.csv)
	if err != nil {
		return nil, err
	}
	key := cacheKey{op: opReadCSV, path: path, ttl: o.ttl, options: options}
	v, err := c.cachedRead(ctx, key, ModeReadText, func(r io.Reader) (interface{}, error) {
		return table.DecodeCSV(r, o.csv)
	})
	if err != nil {
		return nil, err
	}
	return v.(*table.Table).Clone(), nil
}

// ReadParquet decodes path as Parquet. The table is owned by the caller.
func (c *Connection) ReadParquet(ctx context.Context, path string, opts ...ReadOption) (*table.Table, error) {
	o, err := c.readOptions(opts)
	if err != nil {
		return nil, err
	}
	options, err := canonicalOptions(o.parquet)
	if err != nil {
		return nil, err
	}
	key := cacheKey{op: opReadParquet, path: path, ttl: o.ttl, options: options}
	v, err := c.cachedRead(ctx, key, ModeReadBinary, func(r io.Reader) (interface{}, error) {
		return table.DecodeParquet(r, o.parquet)
	})
	if err != nil {
		return nil, err
	}
	return v.(*table.Table).Clone(), nil
}

// ClearCache drops the cached reads of this connection.
func (c *Connection) ClearCache() {
	removed := c.cache.RemoveIf(func(k interface{}) bool {
		key, ok := k.(cacheKey)
		return ok && key.connection == c.name
	})
	c.log.WithField("entries", removed).Debug("cleared cache")
}
