package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nao1215/dirharvest/internal/checkpoint"
	"github.com/nao1215/dirharvest/internal/config"
	"github.com/nao1215/dirharvest/internal/log"
	"github.com/nao1215/dirharvest/internal/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addSiteFlags registers the flags shared by commands that talk to the directory.
func addSiteFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", config.DefaultBaseURL, "Directory root URL")
	cmd.Flags().String("cookie", "", "Cookie header sent with every request, e.g. PHPSESSID=...")
	cmd.Flags().StringToString("header", nil, "Extra request header as Name=Value (repeatable)")
	cmd.Flags().String("user-agent", transport.DefaultUserAgent, "User-Agent header")
	cmd.Flags().String("proxy", "", "SOCKS5 (host:port or socks5://) or HTTP proxy")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().Float64("rate", 0, "Maximum requests per second (0: pacing by delays only)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum response body size in bytes")
	cmd.Flags().StringSliceP("region", "r", nil, "Only these region IDs, e.g. /tehran (repeatable)")
}

// addCheckpointFlags registers the flags selecting the checkpoint.
func addCheckpointFlags(cmd *cobra.Command) {
	cmd.Flags().String("checkpoint", "",
		"Checkpoint file (default: crawler_db.json, or dirharvest.db for sqlite)")
	cmd.Flags().String("backend", checkpoint.BackendJSON, "Checkpoint backend: json or sqlite")
}

// binder copies explicitly set flags onto config fields and keeps the
// first lookup error.
type binder struct {
	fs  *pflag.FlagSet
	err error
}

func (b *binder) set(name string) bool {
	if b.err != nil {
		return false
	}
	f := b.fs.Lookup(name)
	return f != nil && f.Changed
}

func (b *binder) keep(err error) {
	if err != nil && b.err == nil {
		b.err = err
	}
}

func (b *binder) String(name string, dst *string) {
	if b.set(name) {
		v, err := b.fs.GetString(name)
		b.keep(err)
		*dst = v
	}
}

func (b *binder) Bool(name string, dst *bool) {
	if b.set(name) {
		v, err := b.fs.GetBool(name)
		b.keep(err)
		*dst = v
	}
}

func (b *binder) Int(name string, dst *int) {
	if b.set(name) {
		v, err := b.fs.GetInt(name)
		b.keep(err)
		*dst = v
	}
}

func (b *binder) Int64(name string, dst *int64) {
	if b.set(name) {
		v, err := b.fs.GetInt64(name)
		b.keep(err)
		*dst = v
	}
}

func (b *binder) Float64(name string, dst *float64) {
	if b.set(name) {
		v, err := b.fs.GetFloat64(name)
		b.keep(err)
		*dst = v
	}
}

func (b *binder) Duration(name string, dst *time.Duration) {
	if b.set(name) {
		v, err := b.fs.GetDuration(name)
		b.keep(err)
		*dst = v
	}
}

func (b *binder) Strings(name string, dst *[]string) {
	if b.set(name) {
		v, err := b.fs.GetStringSlice(name)
		b.keep(err)
		*dst = v
	}
}

func (b *binder) Headers(name string, dst *map[string]string) {
	if b.set(name) {
		v, err := b.fs.GetStringToString(name)
		b.keep(err)
		if *dst == nil {
			*dst = make(map[string]string, len(v))
		}
		for k, val := range v {
			(*dst)[k] = val
		}
	}
}

// loadConfig builds the configuration from defaults, the config file and
// the flags the user set, in that order, and validates it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	fs := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = fs.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit -c must exist; the default lookup may find nothing.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	b := &binder{fs: fs}
	b.Bool("verbose", &cfg.Verbose)
	b.Bool("log-json", &cfg.LogJSON)
	b.String("log-level", &cfg.LogLevel)
	b.String("state-dir", &cfg.StateDir)

	var useXDG bool
	b.Bool("xdg", &useXDG)
	if useXDG {
		cfg.StateDir = config.XDGDataDir()
	}

	b.String("base-url", &cfg.BaseURL)
	b.String("cookie", &cfg.Cookie)
	b.Headers("header", &cfg.Headers)
	b.String("user-agent", &cfg.UserAgent)
	b.String("proxy", &cfg.Proxy)
	b.Duration("timeout", &cfg.Timeout)
	b.Float64("rate", &cfg.RequestRate)
	b.Int64("max-body-size", &cfg.MaxBodySize)
	b.Strings("region", &cfg.Regions)

	b.Duration("page-delay", &cfg.PageDelay)
	b.Duration("region-delay", &cfg.RegionDelay)
	b.Int("concurrency", &cfg.Concurrency)
	b.String("output", &cfg.OutputFile)
	b.String("checkpoint", &cfg.CheckpointFile)
	b.String("backend", &cfg.CheckpointBackend)
	b.String("report", &cfg.ReportFile)

	var stopOnError bool
	b.Bool("stop-on-error", &stopOnError)
	if stopOnError {
		cfg.ContinueOnError = false
	}

	if b.err != nil {
		return nil, b.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// setupLogger creates the secure logger described by cfg on stderr.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return log.New(cmd.ErrOrStderr(), log.Options{
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
		Level:   cfg.LogLevel,
	})
}

// setup loads the configuration and installs the logger as slog default.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := setupLogger(cmd, cfg)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newClient creates the HTTP client described by cfg.
func newClient(cfg *config.Config, logger *slog.Logger) (*transport.Client, error) {
	opts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithLogger(logger),
		transport.WithRequestRate(cfg.RequestRate),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, transport.WithUserAgent(cfg.UserAgent))
	}
	if cfg.Cookie != "" {
		opts = append(opts, transport.WithCookie(cfg.Cookie))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, transport.WithHeaders(cfg.Headers))
	}
	if cfg.Proxy != "" {
		opts = append(opts, transport.WithProxy(cfg.Proxy))
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, transport.WithMaxBodySize(cfg.MaxBodySize))
	}

	client, err := transport.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return client, nil
}

// loadState reads the checkpoint without creating one. A missing
// checkpoint is an empty state.
func loadState(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*checkpoint.State, error) {
	path := cfg.CheckpointPath()
	if cfg.CheckpointBackend == checkpoint.BackendSQLite {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return checkpoint.NewState(), nil
		}
	}

	store, err := checkpoint.Open(cfg.CheckpointBackend, path,
		checkpoint.WithLogger(logger),
		checkpoint.WithSQLiteOptions(checkpoint.SQLiteOptions{EnableWAL: true}),
	)
	if errors.Is(err, checkpoint.ErrCorrupt) {
		logger.Warn("checkpoint unreadable, showing empty progress", "path", path, "error", err)
		return checkpoint.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer store.Close()

	return store.Load(ctx)
}
