package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/treeverse/fileconn/block"
	"github.com/treeverse/fileconn/block/factory"
	"github.com/treeverse/fileconn/cache"
	"github.com/treeverse/fileconn/logging"
	"github.com/treeverse/fileconn/pyramid"
	"github.com/treeverse/fileconn/secrets"
)

const (
	DefaultName = "default"

	protocolSecret = "protocol"
)

var (
	sharedCache     cache.Cache
	sharedCacheOnce sync.Once
)

// SharedCache is the process wide cache used by connections built without WithCache.
// Keys include the connection name, so connections never see each other's entries.
func SharedCache() cache.Cache {
	sharedCacheOnce.Do(func() {
		sharedCache = cache.NewCache("connection", cache.DefaultSize)
	})
	return sharedCache
}

// Connection turns named secrets and explicit overrides into a storage adapter, and
// serves cached reads on top of it. The adapter is built on first use and kept until
// Connect is called again.
type Connection struct {
	name         string
	protocol     Protocol
	overrides    Params
	secrets      secrets.Store
	factory      block.Factory
	cache        cache.Cache
	localStorage *pyramid.SharedLocalStorage
	defaultTTL   time.Duration
	log          logging.Logger

	mu     sync.Mutex
	fs     *pyramid.TierFS
	built  bool
	closed bool
}

type Option func(c *Connection)

// WithProtocol sets the protocol used when the secrets do not name one.
func WithProtocol(p Protocol) Option {
	return func(c *Connection) {
		c.protocol = p
	}
}

// WithOverrides sets params applied over the secrets when the adapter is built lazily.
func WithOverrides(params Params) Option {
	return func(c *Connection) {
		c.overrides = Merge(nil, params)
	}
}

func WithSecretStore(store secrets.Store) Option {
	return func(c *Connection) {
		c.secrets = store
	}
}

func WithAdapterFactory(f block.Factory) Option {
	return func(c *Connection) {
		c.factory = f
	}
}

func WithCache(ch cache.Cache) Option {
	return func(c *Connection) {
		c.cache = ch
	}
}

// WithLocalStorage sets where opened files are staged.
func WithLocalStorage(storage *pyramid.SharedLocalStorage) Option {
	return func(c *Connection) {
		c.localStorage = storage
	}
}

func WithLogger(log logging.Logger) Option {
	return func(c *Connection) {
		c.log = log
	}
}

// WithDefaultTTL sets the TTL of reads that do not pass one.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Connection) {
		c.defaultTTL = ttl
	}
}

// New returns an unconnected Connection. No backend is contacted until first use.
func New(name string, opts ...Option) *Connection {
	if name == "" {
		name = DefaultName
	}
	c := &Connection{
		name:       name,
		defaultTTL: cache.DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.secrets == nil {
		c.secrets = secrets.NewFileStore("")
	}
	if c.factory == nil {
		c.factory = factory.BuildAdapter
	}
	if c.cache == nil {
		c.cache = SharedCache()
	}
	if c.log == nil {
		c.log = logging.Default()
	}
	c.log = c.log.WithField("connection", name)
	return c
}

func (c *Connection) Name() string {
	return c.name
}

// resolve computes the protocol and params for the adapter factory.
func (c *Connection) resolve(overrides Params) (Protocol, Params, error) {
	values, err := c.secrets.Get(c.name)
	if err != nil {
		return "", nil, &ConfigurationError{Name: c.name, Err: err}
	}
	secretParams := Merge(nil, values)

	protocol := DefaultProtocol
	if c.protocol != "" {
		protocol = c.protocol
	}
	if raw, ok := secretParams[protocolSecret]; ok {
		delete(secretParams, protocolSecret)
		s, ok := raw.(string)
		if !ok || s == "" {
			return "", nil, &ConfigurationError{
				Name: c.name,
				Err:  fmt.Errorf("%s secret must be a non empty string, got %T", protocolSecret, raw),
			}
		}
		protocol = Protocol(s)
	}
	return protocol, Merge(normalizeParams(protocol, secretParams), overrides), nil
}

// Connect builds the adapter from the secrets of this connection and overrides, which
// win over secrets. An existing adapter is replaced and a disconnected connection is
// reopened.
func (c *Connection) Connect(ctx context.Context, overrides Params) (block.Adapter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(ctx, overrides); err != nil {
		return nil, err
	}
	return c.fs.Adapter(), nil
}

func (c *Connection) connect(ctx context.Context, overrides Params) error {
	protocol, params, err := c.resolve(overrides)
	if err != nil {
		return err
	}
	adapter, err := c.factory(ctx, protocol.String(), params)
	if err != nil {
		return &ConnectionError{Name: c.name, Protocol: protocol, Err: err}
	}

	storage := c.localStorage
	if storage == nil {
		storage, err = pyramid.DefaultSharedLocalStorage()
		if err != nil {
			return fmt.Errorf("local storage: %w", err)
		}
	}
	if c.fs != nil {
		if err := c.fs.Close(); err != nil {
			c.log.WithError(err).Warn("failed to release previous staging directory")
		}
		c.fs = nil
		c.built = false
	}
	fs, err := pyramid.NewTierFS(adapter, storage, c.name)
	if err != nil {
		return fmt.Errorf("connection %s: %w", c.name, err)
	}

	c.fs = fs
	c.built = true
	c.closed = false
	c.log.WithField("protocol", protocol).Debug("connected")
	return nil
}

func (c *Connection) filesystem(ctx context.Context) (*pyramid.TierFS, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("%w: %s", ErrConnectionClosed, c.name)
	}
	if !c.built || c.fs == nil {
		if err := c.connect(ctx, c.overrides); err != nil {
			return nil, err
		}
	}
	return c.fs, nil
}

// Instance returns the adapter, building it on first use.
func (c *Connection) Instance(ctx context.Context) (block.Adapter, error) {
	fs, err := c.filesystem(ctx)
	if err != nil {
		return nil, err
	}
	return fs.Adapter(), nil
}

// Disconnect marks the connection closed and releases its staging directory and
// name. Later operations fail with ErrConnectionClosed until Connect is called.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.fs == nil {
		return nil
	}
	err := c.fs.Close()
	c.fs = nil
	c.built = false
	c.log.Debug("disconnected")
	return err
}

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *Connection) checkOpen() error {
	if !c.IsConnected() {
		return fmt.Errorf("%w: %s", ErrConnectionClosed, c.name)
	}
	return nil
}
