// Package config loads bookshelf settings from bookshelf.yaml, a .env file
// and the environment. Command line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when an explicitly named config file does
// not exist.
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is read from the working directory when no file is named.
const ConfigFileName = "bookshelf.yaml"

// Defaults for the catalog API.
const (
	DefaultBaseURL  = "https://www.googleapis.com/books/v1/volumes"
	DefaultEndIndex = 5
	DefaultSchedule = "0 3 * * *"
)

type ConnectionConfig struct {
	URL               string `yaml:"url"`
	AuthMethod        string `yaml:"auth_method,omitempty"`
	AWSRegion         string `yaml:"aws_region,omitempty"`
	GoogleInstance    string `yaml:"google_instance,omitempty"`
	AzureTenantID     string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID     string `yaml:"azure_client_id,omitempty"`
	AzureClientSecret string `yaml:"-"`
}

type FetchConfig struct {
	EndIndex          int    `yaml:"end_index"`
	MaxResults        int    `yaml:"max_results"`
	BaseURL           string `yaml:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	APIKey            string `yaml:"-"`
}

// Settings is the merged configuration of one process.
type Settings struct {
	Keywords     []string         `yaml:"keywords"`
	RawDir       string           `yaml:"raw_dir"`
	ValidatedDir string           `yaml:"validated_dir"`
	MinPercent   float64          `yaml:"min_percent"`
	Fetch        FetchConfig      `yaml:"fetch"`
	Connection   ConnectionConfig `yaml:"connection"`
	Schedule     string           `yaml:"schedule"`
	MetricsAddr  string           `yaml:"metrics_addr"`
	RawTimeout   string           `yaml:"timeout"`

	// Timeout is RawTimeout parsed by Load.
	Timeout time.Duration `yaml:"-"`
}

// environment lists the variables that override the file.
type environment struct {
	DBURL             string   `envconfig:"DB_URL"`
	BookshelfDBURL    string   `envconfig:"BOOKSHELF_DB_URL"`
	RawDir            string   `envconfig:"BOOKSHELF_RAW_DIR"`
	ValidatedDir      string   `envconfig:"BOOKSHELF_VALIDATED_DIR"`
	MinPercent        *float64 `envconfig:"BOOKSHELF_MIN_PERCENT"`
	Keywords          []string `envconfig:"BOOKSHELF_KEYWORDS"`
	Schedule          string   `envconfig:"BOOKSHELF_SCHEDULE"`
	MetricsAddr       string   `envconfig:"BOOKSHELF_METRICS_ADDR"`
	APIKey            string   `envconfig:"GOOGLE_BOOKS_API_KEY"`
	AzureClientSecret string   `envconfig:"AZURE_CLIENT_SECRET"`
	AWSRegion         string   `envconfig:"AWS_REGION"`
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		RawDir:       "data/raw",
		ValidatedDir: "data/validated",
		MinPercent:   bookshelf.DefaultMinPercent,
		Fetch: FetchConfig{
			EndIndex:          DefaultEndIndex,
			MaxResults:        bookshelf.DefaultMaxResults,
			BaseURL:           DefaultBaseURL,
			RequestsPerMinute: bookshelf.DefaultRequestsPerMinute,
		},
		Schedule:    DefaultSchedule,
		MetricsAddr: ":9090",
		Timeout:     bookshelf.DefaultTimeout,
	}
}

// Load merges defaults, the YAML file at path and the environment.
// An empty path reads ConfigFileName if it exists.
func Load(path string) (*Settings, error) {
	s := Default()

	if err := s.loadFile(path); err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	if err := s.loadEnv(); err != nil {
		return nil, err
	}

	if s.RawTimeout != "" {
		d, err := time.ParseDuration(s.RawTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", s.RawTimeout, bookshelf.ErrInvalidConfig)
		}
		s.Timeout = d
	}
	return s, nil
}

func (s *Settings) loadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return fmt.Errorf("%s: %w", path, ErrConfigNotFound)
			}
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse %s: %w: %w", path, bookshelf.ErrInvalidConfig, err)
	}
	return nil
}

func (s *Settings) loadEnv() error {
	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("%w: %w", bookshelf.ErrInvalidConfig, err)
	}

	switch {
	case env.BookshelfDBURL != "":
		s.Connection.URL = env.BookshelfDBURL
	case env.DBURL != "":
		s.Connection.URL = env.DBURL
	}
	setIf(&s.RawDir, env.RawDir)
	setIf(&s.ValidatedDir, env.ValidatedDir)
	setIf(&s.Schedule, env.Schedule)
	setIf(&s.MetricsAddr, env.MetricsAddr)
	setIf(&s.Fetch.APIKey, env.APIKey)
	setIf(&s.Connection.AzureClientSecret, env.AzureClientSecret)
	if s.Connection.AWSRegion == "" {
		s.Connection.AWSRegion = env.AWSRegion
	}
	if env.MinPercent != nil {
		s.MinPercent = *env.MinPercent
	}
	if len(env.Keywords) > 0 {
		s.Keywords = env.Keywords
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks the merged settings. All problems are reported together.
func (s *Settings) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format+": %w", append(args, bookshelf.ErrInvalidConfig)...))
	}

	if len(s.Keywords) == 0 {
		invalid("no keywords configured")
	}
	if s.MinPercent < 0 || s.MinPercent > 100 {
		invalid("min_percent %v must be between 0 and 100", s.MinPercent)
	}
	if s.RawDir == "" {
		invalid("raw_dir is empty")
	}
	if s.ValidatedDir == "" {
		invalid("validated_dir is empty")
	}
	if s.Fetch.MaxResults < 1 || s.Fetch.MaxResults > 40 {
		invalid("fetch.max_results %d must be between 1 and 40", s.Fetch.MaxResults)
	}
	if s.Fetch.EndIndex < 0 {
		invalid("fetch.end_index %d is negative", s.Fetch.EndIndex)
	}
	if s.Fetch.RequestsPerMinute < 1 {
		invalid("fetch.requests_per_minute %d must be positive", s.Fetch.RequestsPerMinute)
	}
	if s.Timeout <= 0 {
		invalid("timeout %v must be positive", s.Timeout)
	}
	return errors.Join(errs...)
}

// RequireDatabase reports a missing connection URL.
func (s *Settings) RequireDatabase() error {
	if s.Connection.URL == "" {
		return fmt.Errorf("no database configured, set DB_URL or connection.url: %w", bookshelf.ErrInvalidConfig)
	}
	return nil
}
