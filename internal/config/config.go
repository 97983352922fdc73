package config

import (
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/dirharvest/internal/checkpoint"
	"github.com/nao1215/dirharvest/internal/extract"
)

// Default values used by NewConfig.
const (
	// AppName is used for XDG directory names.
	AppName = "dirharvest"

	// DefaultBaseURL is the directory root.
	DefaultBaseURL = "https://nobat.ir"

	// DefaultRegionsPath serves the region list JSON.
	DefaultRegionsPath = "/api/public/cities"

	// DefaultPhonesPath is the office phone lookup endpoint.
	DefaultPhonesPath = "/api/public/doctor/office/tells"

	DefaultTimeout     = 30 * time.Second
	DefaultPageDelay   = 2 * time.Second
	DefaultRegionDelay = 2 * time.Second
	DefaultConcurrency = 1

	// DefaultMaxBodySize is 10MB.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	DefaultOutputFile       = "doctors_data.csv"
	DefaultJSONCheckpoint   = "crawler_db.json"
	DefaultSQLiteCheckpoint = "dirharvest.db"

	DefaultLogLevel = "warn"
)

// Config holds everything a harvest run needs.
type Config struct {
	// BaseURL is the directory root. Region paths, detail links and the
	// endpoints below are resolved against it.
	BaseURL     string
	RegionsPath string
	PhonesPath  string

	// Cookie is sent verbatim on every request, e.g. "PHPSESSID=...".
	Cookie    string
	Headers   map[string]string
	UserAgent string

	// Proxy is a SOCKS5 or HTTP proxy address. A bare host:port is SOCKS5.
	Proxy string

	Timeout     time.Duration
	PageDelay   time.Duration
	RegionDelay time.Duration

	// RequestRate caps requests per second across the whole run.
	// Zero leaves pacing to the delays.
	RequestRate float64

	// Concurrency is the number of regions crawled at once.
	Concurrency int

	MaxBodySize int64

	// Regions restricts the run to these region IDs. Empty means all.
	Regions []string

	Selectors extract.Selectors

	// ContinueOnError moves on to the next region when one fails.
	ContinueOnError bool

	// StateDir is where relative output and checkpoint paths are placed.
	// Empty means the working directory.
	StateDir string

	OutputFile        string
	CheckpointBackend string

	// CheckpointFile defaults by backend when empty.
	CheckpointFile string

	// ConfigFilePath is the explicit -c path, if any.
	ConfigFilePath string

	ReportFile string

	Verbose  bool
	LogJSON  bool
	LogLevel string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		RegionsPath:       DefaultRegionsPath,
		PhonesPath:        DefaultPhonesPath,
		Timeout:           DefaultTimeout,
		PageDelay:         DefaultPageDelay,
		RegionDelay:       DefaultRegionDelay,
		Concurrency:       DefaultConcurrency,
		MaxBodySize:       DefaultMaxBodySize,
		Selectors:         extract.DefaultSelectors(),
		ContinueOnError:   true,
		OutputFile:        DefaultOutputFile,
		CheckpointBackend: checkpoint.BackendJSON,
		LogLevel:          DefaultLogLevel,
	}
}

// XDGDataDir returns the XDG data directory for dirharvest.
// Typically ~/.local/share/dirharvest on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for dirharvest.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for dirharvest.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// OutputPath returns the CSV path with StateDir applied.
func (c *Config) OutputPath() string {
	name := c.OutputFile
	if name == "" {
		name = DefaultOutputFile
	}
	return c.inStateDir(name)
}

// CheckpointPath returns the checkpoint path with StateDir applied.
func (c *Config) CheckpointPath() string {
	name := c.CheckpointFile
	if name == "" {
		name = DefaultJSONCheckpoint
		if c.CheckpointBackend == checkpoint.BackendSQLite {
			name = DefaultSQLiteCheckpoint
		}
	}
	return c.inStateDir(name)
}

func (c *Config) inStateDir(name string) string {
	if c.StateDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.StateDir, name)
}

// Base returns the parsed BaseURL.
func (c *Config) Base() (*url.URL, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidBaseURL
	}
	return u, nil
}

// RegionsURL returns the absolute region list URL.
func (c *Config) RegionsURL() (string, error) {
	return c.endpoint(c.RegionsPath)
}

// PhonesURL returns the absolute phone lookup URL.
func (c *Config) PhonesURL() (string, error) {
	return c.endpoint(c.PhonesPath)
}

func (c *Config) endpoint(path string) (string, error) {
	base, err := c.Base()
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if _, err := c.Base(); err != nil {
		return ErrInvalidBaseURL
	}

	if strings.TrimSpace(c.RegionsPath) == "" {
		return ErrInvalidRegionsPath
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.PageDelay < 0 || c.RegionDelay < 0 {
		return ErrInvalidDelay
	}

	if c.RequestRate < 0 {
		return ErrInvalidRequestRate
	}

	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if !slices.Contains([]string{checkpoint.BackendJSON, checkpoint.BackendSQLite}, c.CheckpointBackend) {
		return ErrInvalidCheckpointBackend
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}
