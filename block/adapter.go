package block

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNotFound         = errors.New("object not found")
	ErrInvalidPath      = errors.New("invalid object path")
	ErrUnknownParameter = errors.New("unknown adapter parameter")
)

// ObjectPointer addresses a single object in a storage backend. StorageNamespace is the
// bucket for object stores and empty for the local filesystem.
type ObjectPointer struct {
	StorageNamespace string
	Identifier       string
}

func (p ObjectPointer) String() string {
	if p.StorageNamespace == "" {
		return p.Identifier
	}
	return p.StorageNamespace + "/" + p.Identifier
}

type PutOpts struct {
	ContentType string
}

// Adapter is a configured, ready to use storage backend.
type Adapter interface {
	Protocol() string
	Put(ctx context.Context, obj ObjectPointer, sizeBytes int64, reader io.Reader, opts PutOpts) error
	// Get returns a reader for the object content. A missing object reports ErrNotFound.
	Get(ctx context.Context, obj ObjectPointer, expectedSize int64) (io.ReadCloser, error)
	Exists(ctx context.Context, obj ObjectPointer) (bool, error)
	Remove(ctx context.Context, obj ObjectPointer) error
	// ResolvePointer maps a caller path to the pointer understood by this adapter.
	ResolvePointer(path string) (ObjectPointer, error)
}

// Params carries the credentials and options used to construct an adapter.
type Params map[string]interface{}

// Factory constructs an adapter for a protocol identifier.
type Factory func(ctx context.Context, protocol string, params Params) (Adapter, error)

// ResolveBucketPath splits "bucket/key" or "scheme://bucket/key" into a pointer.
func ResolveBucketPath(path string) (ObjectPointer, error) {
	p := path
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
	}
	p = strings.TrimLeft(p, "/")
	parts := strings.SplitN(p, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ObjectPointer{}, fmt.Errorf("%w: %q must be of the form bucket/key", ErrInvalidPath, path)
	}
	return ObjectPointer{StorageNamespace: parts[0], Identifier: parts[1]}, nil
}

// NotFoundError wraps a backend specific error so it matches ErrNotFound.
func NotFoundError(obj ObjectPointer, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, obj)
	}
	return fmt.Errorf("%w: %s: %s", ErrNotFound, obj, err)
}

// UnknownParams reports keys of params that are not listed in known.
func UnknownParams(params Params, known ...string) error {
	allowed := make(map[string]struct{}, len(known))
	for _, k := range known {
		allowed[k] = struct{}{}
	}
	var unknown []string
	for k := range params {
		if _, ok := allowed[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownParameter, strings.Join(sortedStrings(unknown), ", "))
}
