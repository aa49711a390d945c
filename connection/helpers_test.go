package connection_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/treeverse/fileconn/block"
	"github.com/treeverse/fileconn/block/mem"
	"github.com/treeverse/fileconn/cache"
	"github.com/treeverse/fileconn/connection"
	"github.com/treeverse/fileconn/logging"
	"github.com/treeverse/fileconn/pyramid"
	"github.com/treeverse/fileconn/secrets"
)

// recordingFactory builds memory adapters and remembers what it was asked for.
type recordingFactory struct {
	mu       sync.Mutex
	calls    int
	protocol string
	params   block.Params
	err      error
	adapter  *mem.Adapter
}

func newRecordingFactory() *recordingFactory {
	return &recordingFactory{adapter: mem.New()}
}

func (f *recordingFactory) build(_ context.Context, protocol string, params block.Params) (block.Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.protocol = protocol
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.adapter, nil
}

func (f *recordingFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type errStore struct {
	err error
}

func (s errStore) Get(string) (map[string]interface{}, error) {
	return nil, s.err
}

var errSecretsUnavailable = errors.New("secrets unavailable")

type testEnv struct {
	dir     string
	storage *pyramid.SharedLocalStorage
	cache   *cache.GetSetCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	storage, err := pyramid.NewSharedLocalStorage(dir)
	require.NoError(t, err)
	return &testEnv{
		dir:     dir,
		storage: storage,
		cache:   cache.NewCache("test", 64),
	}
}

// newConnection returns a connection isolated from other tests, backed by the given
// factory and secrets.
func (e *testEnv) newConnection(t *testing.T, name string, f *recordingFactory, store secrets.Store, opts ...connection.Option) *connection.Connection {
	t.Helper()
	if store == nil {
		store = secrets.MapStore{}
	}
	all := append([]connection.Option{
		connection.WithSecretStore(store),
		connection.WithAdapterFactory(f.build),
		connection.WithCache(e.cache),
		connection.WithLocalStorage(e.storage),
		connection.WithLogger(logging.Dummy()),
	}, opts...)
	c := connection.New(name, all...)
	t.Cleanup(func() {
		_ = c.Disconnect()
	})
	return c
}
