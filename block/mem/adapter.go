package mem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/treeverse/fileconn/block"
)

const ProtocolName = "memory"

// Adapter keeps objects in process memory. Paths are used verbatim as keys.
type Adapter struct {
	data  map[string][]byte
	mutex *sync.RWMutex
}

func New() *Adapter {
	return &Adapter{
		data:  make(map[string][]byte),
		mutex: &sync.RWMutex{},
	}
}

func getKey(obj block.ObjectPointer) string {
	return obj.String()
}

func (a *Adapter) Protocol() string {
	return ProtocolName
}

func (a *Adapter) ResolvePointer(path string) (block.ObjectPointer, error) {
	p := strings.TrimLeft(strings.TrimPrefix(path, "memory://"), "/")
	if p == "" {
		return block.ObjectPointer{}, fmt.Errorf("%w: empty path", block.ErrInvalidPath)
	}
	return block.ObjectPointer{Identifier: p}, nil
}

func (a *Adapter) Put(_ context.Context, obj block.ObjectPointer, _ int64, reader io.Reader, _ block.PutOpts) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.data[getKey(obj)] = data
	return nil
}

func (a *Adapter) Get(_ context.Context, obj block.ObjectPointer, _ int64) (io.ReadCloser, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	data, ok := a.data[getKey(obj)]
	if !ok {
		return nil, block.NotFoundError(obj, nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *Adapter) Exists(_ context.Context, obj block.ObjectPointer) (bool, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	_, ok := a.data[getKey(obj)]
	return ok, nil
}

func (a *Adapter) Remove(_ context.Context, obj block.ObjectPointer) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	key := getKey(obj)
	if _, ok := a.data[key]; !ok {
		return block.NotFoundError(obj, nil)
	}
	delete(a.data, key)
	return nil
}
