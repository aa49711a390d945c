package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/treeverse/fileconn/cache"
	"github.com/treeverse/fileconn/config"
	"github.com/treeverse/fileconn/connection"
	"github.com/treeverse/fileconn/logging"
	"github.com/treeverse/fileconn/pyramid"
	"github.com/treeverse/fileconn/secrets"
)

var (
	cfgFile        string
	cfg            *config.Config
	connectionName string
	protocolHint   string
	secretsPath    string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:           "fileconn",
	Short:         "Read and write files on local disk, S3 and GCS through named connections",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg.SetupLogging()
		if logLevel != "" {
			logging.SetLevel(logLevel)
		}
		return nil
	},
}

// Execute runs the root command and exits non zero on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVarP(&connectionName, "connection", "c", connection.DefaultName, "connection name in the secrets file")
	rootCmd.PersistentFlags().StringVarP(&protocolHint, "protocol", "p", "", "protocol used when the secrets do not set one (file, s3, gcs, memory)")
	rootCmd.PersistentFlags().StringVar(&secretsPath, "secrets", "", "secrets file, overrides secrets.path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides logging.level")
}

// newConnection builds the connection selected by the global flags.
func newConnection() (*connection.Connection, error) {
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, err
	}
	path := cfg.GetSecretsPath()
	if secretsPath != "" {
		path = secretsPath
	}
	opts := []connection.Option{
		connection.WithSecretStore(secrets.NewFileStore(path)),
		connection.WithCache(cache.NewCache("cli", cfg.GetCacheSize())),
		connection.WithDefaultTTL(ttl),
	}
	if protocolHint != "" {
		opts = append(opts, connection.WithProtocol(connection.Protocol(protocolHint)))
	}
	if dir := cfg.GetLocalStorageDir(); dir != "" {
		storage, err := pyramid.NewSharedLocalStorage(dir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, connection.WithLocalStorage(storage))
	}
	return connection.New(connectionName, opts...), nil
}

// withConnection runs fn with a connection that is disconnected afterwards.
func withConnection(fn func(c *connection.Connection) error) error {
	c, err := newConnection()
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Disconnect(); err != nil {
			logging.Default().WithError(err).Warn("disconnect failed")
		}
	}()
	return fn(c)
}
