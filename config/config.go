package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/treeverse/fileconn/cache"
	"github.com/treeverse/fileconn/logging"
)

const (
	EnvPrefix = "FILECONN"

	DefaultLoggingLevel  = "INFO"
	DefaultLoggingFormat = logging.FormatText
	DefaultCacheSize     = cache.DefaultSize
)

var ErrInvalidValue = errors.New("invalid configuration value")

type Config struct {
	v *viper.Viper
}

// NewConfig loads defaults, then the optional config file at path, then FILECONN_
// environment variables (e.g. FILECONN_CACHE_TTL).
func NewConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("config path %s: %w", path, err)
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", expanded, err)
		}
	}
	c := &Config{v: v}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", DefaultLoggingLevel)
	v.SetDefault("logging.format", DefaultLoggingFormat)
	v.SetDefault("secrets.path", "")
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("cache.ttl", int(cache.DefaultTTL/time.Second))
	v.SetDefault("local_storage.dir", "")
}

func (c *Config) validate() error {
	if c.GetCacheSize() <= 0 {
		return fmt.Errorf("%w: cache.size must be positive", ErrInvalidValue)
	}
	if _, err := c.GetCacheTTL(); err != nil {
		return fmt.Errorf("%w: cache.ttl: %w", ErrInvalidValue, err)
	}
	switch c.GetLoggingFormat() {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidValue, c.GetLoggingFormat())
	}
	return nil
}

// SetupLogging applies the logging section to the default logger.
func (c *Config) SetupLogging() {
	logging.SetOutputFormat(c.GetLoggingFormat())
	logging.SetLevel(c.GetLoggingLevel())
}

func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

func (c *Config) GetLoggingLevel() string {
	return c.v.GetString("logging.level")
}

func (c *Config) GetLoggingFormat() string {
	return strings.ToLower(c.v.GetString("logging.format"))
}

func (c *Config) GetSecretsPath() string {
	return c.v.GetString("secrets.path")
}

func (c *Config) GetCacheSize() int {
	return c.v.GetInt("cache.size")
}

func (c *Config) GetCacheTTL() (time.Duration, error) {
	return cache.ParseTTL(c.v.Get("cache.ttl"))
}

func (c *Config) GetLocalStorageDir() string {
	return c.v.GetString("local_storage.dir")
}
