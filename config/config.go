package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pevans/newswire"
)

// Defaults applied when the config file is absent or leaves a setting unset.
const (
	DefaultInitialBatchSize = 8
	DefaultPollInterval     = 5 * time.Minute
	DefaultRecencyWindow    = 72 * time.Hour
	DefaultHTTPAddr         = ":8080"
	DefaultJSONProxyURL     = "https://api.rss2json.com/v1/api.json"
)

// configPathEnv overrides the config file location.
const configPathEnv = "NEWSWIRE_CONFIG"

// Source describes one externally operated feed. The source list is static
// input: read once at startup, never mutated at runtime.
type Source struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`

	// Label is the optional display name shown to consumers; DisplayName
	// falls back to Name when unset.
	Label string `yaml:"label,omitempty"`

	// Encoding is the IANA charset used to decode direct-fetch bytes.
	// Empty means the payload is treated as UTF-8.
	Encoding string `yaml:"encoding,omitempty"`
}

// DisplayName returns the label when present, otherwise the symbolic name.
func (s Source) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// Config holds all runtime settings for the ingestion pipeline.
type Config struct {
	// InitialBatchSize bounds how many items the API returns per page when
	// the caller gives no explicit limit.
	InitialBatchSize int

	// PollInterval is the wall-clock period between background refresh
	// cycles.
	PollInterval time.Duration

	// RecencyWindow is the maximum item age admitted by the reconciliation
	// filter.
	RecencyWindow time.Duration

	// DatePolicy fixes how offset-less proxy timestamps are interpreted.
	// Deployment-time constant; see newswire.DatePolicy.
	DatePolicy newswire.DatePolicy

	// JSONProxyURL is the base address of the feed-to-JSON conversion
	// proxy used as the first fallback strategy.
	JSONProxyURL string

	// XMLProxyURL is the base address of the XML-passthrough proxy used as
	// the last fallback strategy. Empty disables that strategy.
	XMLProxyURL string

	// HTTPAddr is the listen address of the read-only consumer API.
	HTTPAddr string

	// Sources is the ordered feed list.
	Sources []Source
}

// fileConfig mirrors the YAML layout of ~/.newswire/config.yaml. Durations
// are strings ("5m", "72h") so the file stays human-editable.
type fileConfig struct {
	InitialBatchSize int      `yaml:"initial_batch_size"`
	PollInterval     string   `yaml:"poll_interval"`
	RecencyWindow    string   `yaml:"recency_window"`
	DatePolicy       string   `yaml:"date_policy"`
	JSONProxyURL     string   `yaml:"json_proxy_url"`
	XMLProxyURL      string   `yaml:"xml_proxy_url"`
	HTTPAddr         string   `yaml:"http_addr"`
	Sources          []Source `yaml:"sources"`
}

// Default returns the built-in configuration, including a small seed source
// list used when the file names none.
func Default() Config {
	return Config{
		InitialBatchSize: DefaultInitialBatchSize,
		PollInterval:     DefaultPollInterval,
		RecencyWindow:    DefaultRecencyWindow,
		DatePolicy:       newswire.DatePolicyUTC,
		JSONProxyURL:     DefaultJSONProxyURL,
		HTTPAddr:         DefaultHTTPAddr,
		Sources: []Source{
			{URL: "https://go.dev/blog/feed.atom", Name: "goblog", Label: "The Go Blog"},
			{URL: "https://hnrss.org/frontpage", Name: "hackernews", Label: "Hacker News"},
			{URL: "https://lobste.rs/rss", Name: "lobsters", Label: "Lobsters"},
		},
	}
}

// Load reads configuration from path. An empty path falls back to the
// NEWSWIRE_CONFIG environment variable and then to ~/.newswire/config.yaml.
// A missing file is not an error: defaults apply. A file that exists but
// cannot be parsed or validated is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".newswire", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := merge(&cfg, fc); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// merge applies file settings over the defaults, leaving unset fields alone.
func merge(cfg *Config, fc fileConfig) error {
	if fc.InitialBatchSize > 0 {
		cfg.InitialBatchSize = fc.InitialBatchSize
	}
	if fc.PollInterval != "" {
		d, err := time.ParseDuration(fc.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if fc.RecencyWindow != "" {
		d, err := time.ParseDuration(fc.RecencyWindow)
		if err != nil {
			return fmt.Errorf("invalid recency_window: %w", err)
		}
		cfg.RecencyWindow = d
	}
	if fc.DatePolicy != "" {
		policy, err := newswire.ParsePolicy(fc.DatePolicy)
		if err != nil {
			return err
		}
		cfg.DatePolicy = policy
	}
	if fc.JSONProxyURL != "" {
		cfg.JSONProxyURL = fc.JSONProxyURL
	}
	if fc.XMLProxyURL != "" {
		cfg.XMLProxyURL = fc.XMLProxyURL
	}
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if len(fc.Sources) > 0 {
		cfg.Sources = fc.Sources
	}
	return nil
}

func validate(cfg Config) error {
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if cfg.RecencyWindow <= 0 {
		return fmt.Errorf("recency_window must be positive")
	}
	seen := make(map[string]bool, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.URL == "" {
			return fmt.Errorf("source %d has no url", i)
		}
		if src.Name == "" {
			return fmt.Errorf("source %q has no name", src.URL)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
	}
	return nil
}
