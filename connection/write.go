package connection

import (
	"context"
	"fmt"

	"github.com/treeverse/fileconn/pyramid"
	"github.com/treeverse/fileconn/table"
)

// WriteText stores text at path, replacing any existing content.
func (c *Connection) WriteText(ctx context.Context, path, text string) error {
	return c.Open(ctx, path, string(ModeWriteText), func(f *pyramid.File) error {
		_, err := f.WriteString(text)
		return err
	})
}

func (c *Connection) WriteBytes(ctx context.Context, path string, data []byte) error {
	return c.Open(ctx, path, string(ModeWriteBinary), func(f *pyramid.File) error {
		_, err := f.Write(data)
		return err
	})
}

// WriteCSV stores t as CSV with a header row.
func (c *Connection) WriteCSV(ctx context.Context, path string, t *table.Table) error {
	return c.Open(ctx, path, string(ModeWriteText), func(f *pyramid.File) error {
		return table.EncodeCSV(f, t)
	})
}

func (c *Connection) WriteParquet(ctx context.Context, path string, t *table.Table) error {
	return c.Open(ctx, path, string(ModeWriteBinary), func(f *pyramid.File) error {
		return table.EncodeParquet(f, t)
	})
}

// Exists reports whether path is present in the backend.
func (c *Connection) Exists(ctx context.Context, path string) (bool, error) {
	adapter, err := c.Instance(ctx)
	if err != nil {
		return false, err
	}
	obj, err := adapter.ResolvePointer(path)
	if err != nil {
		return false, err
	}
	return adapter.Exists(ctx, obj)
}

// Remove deletes path. A missing path reports ErrNotFound.
func (c *Connection) Remove(ctx context.Context, path string) error {
	adapter, err := c.Instance(ctx)
	if err != nil {
		return err
	}
	obj, err := adapter.ResolvePointer(path)
	if err != nil {
		return err
	}
	if err := adapter.Remove(ctx, obj); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Upload stores the local file at localPath under path.
func (c *Connection) Upload(ctx context.Context, localPath, path string) error {
	fs, err := c.filesystem(ctx)
	if err != nil {
		return err
	}
	return fs.Store(ctx, localPath, path)
}
