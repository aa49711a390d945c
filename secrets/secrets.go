package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/treeverse/fileconn/logging"
)

const (
	// SectionKey is the top level table holding one sub table per connection.
	SectionKey = "connections"

	DefaultFileName = "secrets.toml"
	DefaultDirName  = ".fileconn"
)

var ErrInvalidSection = errors.New("invalid secrets section")

// Store returns the secret mapping for a connection name. A name without secrets
// yields an empty map and no error.
type Store interface {
	Get(name string) (map[string]interface{}, error)
}

// DefaultPaths returns the user wide secrets file followed by the project local one.
// Sections in later files replace sections of the same name in earlier ones.
func DefaultPaths() []string {
	var paths []string
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultDirName, DefaultFileName))
	}
	return append(paths, filepath.Join(".", DefaultDirName, DefaultFileName))
}

// FileStore reads TOML secrets files. Files are loaded on first use.
type FileStore struct {
	paths    []string
	explicit bool
	log      logging.Logger

	once     sync.Once
	sections map[string]interface{}
	err      error
}

// NewFileStore returns a store reading path. An empty path falls back to
// DefaultPaths, where missing files are skipped.
func NewFileStore(path string) *FileStore {
	s := &FileStore{log: logging.Default().WithField("module", "secrets")}
	if path == "" {
		s.paths = DefaultPaths()
	} else {
		s.paths = []string{path}
		s.explicit = true
	}
	return s
}

func (s *FileStore) Paths() []string {
	return append([]string(nil), s.paths...)
}

func (s *FileStore) load() {
	s.sections = make(map[string]interface{})
	for _, p := range s.paths {
		expanded, err := homedir.Expand(p)
		if err != nil {
			s.err = fmt.Errorf("secrets path %s: %w", p, err)
			return
		}
		if _, err := os.Stat(expanded); err != nil {
			if !s.explicit && errors.Is(err, os.ErrNotExist) {
				continue
			}
			s.err = fmt.Errorf("secrets file %s: %w", expanded, err)
			return
		}
		v := viper.New()
		v.SetConfigFile(expanded)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			s.err = fmt.Errorf("read secrets file %s: %w", expanded, err)
			return
		}
		raw := v.Get(SectionKey)
		if raw == nil {
			continue
		}
		connections, err := cast.ToStringMapE(raw)
		if err != nil {
			s.err = fmt.Errorf("%w: %s in %s is not a table", ErrInvalidSection, SectionKey, expanded)
			return
		}
		for name, section := range connections {
			s.sections[name] = section
		}
		s.log.WithField("path", expanded).Debug("loaded secrets file")
	}
}

// Get returns a copy of the [connections.<name>] table. Names are matched case
// insensitively, as viper normalizes keys.
func (s *FileStore) Get(name string) (map[string]interface{}, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	section, ok := s.sections[strings.ToLower(name)]
	if !ok {
		return map[string]interface{}{}, nil
	}
	values, err := cast.ToStringMapE(section)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s is not a table", ErrInvalidSection, SectionKey, name)
	}
	return copyMap(values), nil
}

// MapStore serves secrets from memory.
type MapStore map[string]map[string]interface{}

func (m MapStore) Get(name string) (map[string]interface{}, error) {
	return copyMap(m[name]), nil
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
