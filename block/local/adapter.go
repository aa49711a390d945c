package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"

	"github.com/treeverse/fileconn/block"
)

const (
	ProtocolName = "file"

	ParamRoot      = "root"
	ParamAutoMkdir = "auto_mkdir"
)

// Adapter stores objects as files on the local disk. Relative paths resolve against
// root, or the working directory when no root is set.
type Adapter struct {
	root      string
	autoMkdir bool
}

type Option func(a *Adapter)

func WithRoot(root string) Option {
	return func(a *Adapter) {
		a.root = root
	}
}

func WithAutoMkdir(v bool) Option {
	return func(a *Adapter) {
		a.autoMkdir = v
	}
}

func NewAdapter(opts ...Option) (*Adapter, error) {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}
	if a.root != "" {
		root, err := homedir.Expand(a.root)
		if err != nil {
			return nil, fmt.Errorf("expand root: %w", err)
		}
		a.root = root
	}
	return a, nil
}

// NewAdapterFromParams builds an adapter from connection parameters.
func NewAdapterFromParams(params block.Params) (*Adapter, error) {
	if err := block.UnknownParams(params, ParamRoot, ParamAutoMkdir); err != nil {
		return nil, err
	}
	root, err := params.StringParam(ParamRoot)
	if err != nil {
		return nil, err
	}
	autoMkdir, err := params.BoolParam(ParamAutoMkdir, false)
	if err != nil {
		return nil, err
	}
	return NewAdapter(WithRoot(root), WithAutoMkdir(autoMkdir))
}

func (a *Adapter) Protocol() string {
	return ProtocolName
}

func (a *Adapter) ResolvePointer(path string) (block.ObjectPointer, error) {
	p := strings.TrimPrefix(path, "file://")
	if p == "" {
		return block.ObjectPointer{}, fmt.Errorf("%w: empty path", block.ErrInvalidPath)
	}
	p, err := homedir.Expand(p)
	if err != nil {
		return block.ObjectPointer{}, fmt.Errorf("%w: %s", block.ErrInvalidPath, err)
	}
	return block.ObjectPointer{Identifier: p}, nil
}

func (a *Adapter) path(obj block.ObjectPointer) string {
	p := filepath.FromSlash(obj.Identifier)
	if a.root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.root, p)
}

// Put writes the object through a temporary sibling file that is renamed into place.
func (a *Adapter) Put(_ context.Context, obj block.ObjectPointer, _ int64, reader io.Reader, _ block.PutOpts) error {
	p := a.path(obj)
	dir := filepath.Dir(p)
	if a.autoMkdir {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("creating dir: %w", err)
		}
	}
	tmp := filepath.Join(dir, ".tmp."+filepath.Base(p)+"."+uuid.New().String())
	f, err := os.Create(tmp)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return block.NotFoundError(obj, err)
		}
		return fmt.Errorf("creating file: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copying data to file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func (a *Adapter) Get(_ context.Context, obj block.ObjectPointer, _ int64) (io.ReadCloser, error) {
	f, err := os.Open(a.path(obj))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, block.NotFoundError(obj, err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("file stat: %w", err)
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", block.ErrInvalidPath, obj)
	}
	return f, nil
}

func (a *Adapter) Exists(_ context.Context, obj block.ObjectPointer) (bool, error) {
	_, err := os.Stat(a.path(obj))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("file stat: %w", err)
	}
	return true, nil
}

func (a *Adapter) Remove(_ context.Context, obj block.ObjectPointer) error {
	err := os.Remove(a.path(obj))
	if errors.Is(err, os.ErrNotExist) {
		return block.NotFoundError(obj, err)
	}
	if err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
