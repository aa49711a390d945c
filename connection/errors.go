package connection

import (
	"errors"
	"fmt"

	"github.com/treeverse/fileconn/block"
	"github.com/treeverse/fileconn/pyramid"
	"github.com/treeverse/fileconn/table"
)

var (
	ErrConfiguration    = errors.New("connection configuration")
	ErrConnection       = errors.New("connection failed")
	ErrConnectionClosed = errors.New("connection closed")
	ErrInvalidMode      = errors.New("invalid open mode")

	// ErrNotFound is reported for paths missing in the backend.
	ErrNotFound = block.ErrNotFound
	// ErrDecode is reported when CSV or Parquet content cannot be parsed.
	ErrDecode = table.ErrDecode
	// ErrNameInUse is reported when another live connection holds the same name.
	ErrNameInUse = pyramid.ErrAlreadyRegistered
)

// ConfigurationError reports secrets that could not be loaded or are malformed.
type ConfigurationError struct {
	Name string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("connection %s: configuration: %s", e.Name, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ConnectionError reports a failure of the adapter factory. Err is the factory error
// as returned.
type ConnectionError struct {
	Name     string
	Protocol Protocol
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s (%s): %s", e.Name, e.Protocol, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}
