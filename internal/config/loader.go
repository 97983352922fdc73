package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/dirharvest/internal/extract"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name looked up in the
// working directory and then the home directory.
const DefaultConfigFile = ".dirharvest"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the layout of the .dirharvest YAML file. Zero values leave the
// corresponding Config field untouched.
type File struct {
	Site       SiteSection       `yaml:"site,omitempty"`
	Crawl      CrawlSection      `yaml:"crawl,omitempty"`
	Selectors  extract.Selectors `yaml:"selectors,omitempty"`
	Output     OutputSection     `yaml:"output,omitempty"`
	Checkpoint CheckpointSection `yaml:"checkpoint,omitempty"`
	StateDir   string            `yaml:"state_dir,omitempty"`
}

// SiteSection describes the directory being harvested.
type SiteSection struct {
	BaseURL     string `yaml:"base_url,omitempty"`
	RegionsPath string `yaml:"regions_path,omitempty"`
	PhonesPath  string `yaml:"phones_path,omitempty"`

	// Cookie format: "name=value" or "name1=value1; name2=value2".
	Cookie    string            `yaml:"cookie,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	UserAgent string            `yaml:"user_agent,omitempty"`
	Proxy     string            `yaml:"proxy,omitempty"`
}

// CrawlSection controls pacing and scope.
type CrawlSection struct {
	PageDelay   *time.Duration `yaml:"page_delay,omitempty"`
	RegionDelay *time.Duration `yaml:"region_delay,omitempty"`
	RequestRate float64        `yaml:"request_rate,omitempty"`
	Timeout     time.Duration  `yaml:"timeout,omitempty"`
	Concurrency int            `yaml:"concurrency,omitempty"`
	MaxBodySize int64          `yaml:"max_body_size,omitempty"`
	Regions     []string       `yaml:"regions,omitempty"`

	// ContinueOnError is a pointer so that an explicit false survives.
	ContinueOnError *bool `yaml:"continue_on_error,omitempty"`
}

// OutputSection names the CSV file.
type OutputSection struct {
	File string `yaml:"file,omitempty"`
}

// CheckpointSection selects the checkpoint backend and location.
type CheckpointSection struct {
	Backend string `yaml:"backend,omitempty"`
	File    string `yaml:"file,omitempty"`
}

// Apply copies every value set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	setString(&cfg.BaseURL, f.Site.BaseURL)
	setString(&cfg.RegionsPath, f.Site.RegionsPath)
	setString(&cfg.PhonesPath, f.Site.PhonesPath)
	setString(&cfg.Cookie, f.Site.Cookie)
	setString(&cfg.UserAgent, f.Site.UserAgent)
	setString(&cfg.Proxy, f.Site.Proxy)
	if len(f.Site.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(f.Site.Headers))
		}
		for k, v := range f.Site.Headers {
			cfg.Headers[k] = v
		}
	}

	if f.Crawl.PageDelay != nil {
		cfg.PageDelay = *f.Crawl.PageDelay
	}
	if f.Crawl.RegionDelay != nil {
		cfg.RegionDelay = *f.Crawl.RegionDelay
	}
	if f.Crawl.RequestRate != 0 {
		cfg.RequestRate = f.Crawl.RequestRate
	}
	if f.Crawl.Timeout != 0 {
		cfg.Timeout = f.Crawl.Timeout
	}
	if f.Crawl.Concurrency != 0 {
		cfg.Concurrency = f.Crawl.Concurrency
	}
	if f.Crawl.MaxBodySize != 0 {
		cfg.MaxBodySize = f.Crawl.MaxBodySize
	}
	if len(f.Crawl.Regions) > 0 {
		cfg.Regions = append([]string(nil), f.Crawl.Regions...)
	}
	if f.Crawl.ContinueOnError != nil {
		cfg.ContinueOnError = *f.Crawl.ContinueOnError
	}

	cfg.Selectors = mergeSelectors(cfg.Selectors, f.Selectors)

	setString(&cfg.OutputFile, f.Output.File)
	setString(&cfg.CheckpointBackend, f.Checkpoint.Backend)
	setString(&cfg.CheckpointFile, f.Checkpoint.File)
	setString(&cfg.StateDir, f.StateDir)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// mergeSelectors overrides base with every non-blank selector in over.
func mergeSelectors(base, over extract.Selectors) extract.Selectors {
	setString(&base.Empty, over.Empty)
	setString(&base.Card, over.Card)
	setString(&base.CardName, over.CardName)
	setString(&base.CardCategory, over.CardCategory)
	setString(&base.CardPortrait, over.CardPortrait)
	setString(&base.PortraitAttr, over.PortraitAttr)
	setString(&base.License, over.License)
	setString(&base.Office, over.Office)
	setString(&base.OfficeStreet, over.OfficeStreet)
	setString(&base.OfficeWaze, over.OfficeWaze)
	setString(&base.OfficeMaps, over.OfficeMaps)
	setString(&base.OfficeID, over.OfficeID)
	setString(&base.OfficeIDAttr, over.OfficeIDAttr)
	return base
}

// LoadConfigFile reads a .dirharvest YAML file.
// If the file does not exist, it returns ErrConfigNotFound; whether that
// matters depends on whether the path was given explicitly.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .dirharvest in the current directory
// 3. Look for .dirharvest in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
