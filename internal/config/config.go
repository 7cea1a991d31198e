package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thellimist/lanemeta/internal/fetch"
	"github.com/thellimist/lanemeta/internal/toolfilter"
)

// DefaultFile is the config file picked up from the working directory when
// no --config flag is given.
const DefaultFile = "lanemeta.yaml"

// ToolPlaceholder is replaced by the tool name in OptionsURL.
const ToolPlaceholder = "{tool}"

const (
	defaultName        = "Fastlane"
	defaultSchema      = "./_schema.json"
	defaultOutput      = "metadata"
	defaultReferences  = "references"
	defaultBaseClass   = "FastlaneBaseSettings"
	defaultOptionsURL  = "https://raw.githubusercontent.com/fastlane/fastlane/master/" + ToolPlaceholder + "/lib/" + ToolPlaceholder + "/options.rb"
	defaultConcurrency = 8
	defaultCacheTTL    = 24 * time.Hour
)

var defaultTools = []string{
	"cert", "deliver", "frameit", "gym", "match", "pem", "pilot", "precheck", "produce", "scan",
	"screengrab", "sigh", "snapshot", "supply",
}

var defaultLicense = []string{
	"Copyright Sebastian Karasek 2017.",
	"Distributed under the MIT License.",
	"https://github.com/Arodus/nuke-tools-fastlane/blob/master/LICENSE",
}

// ActionsConfig controls the auxiliary action sources.
type ActionsConfig struct {
	Enabled    *bool    `yaml:"enabled"`
	ListingURL string   `yaml:"listing_url"`
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
}

// On reports whether action sources are aggregated. Unset means on.
func (a ActionsConfig) On() bool {
	return a.Enabled == nil || *a.Enabled
}

// CacheConfig configures the optional SQLite source cache. An empty Path
// disables it.
type CacheConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

// Config is the top-level lanemeta configuration.
type Config struct {
	Name        string        `yaml:"name"`
	Schema      string        `yaml:"schema"`
	License     []string      `yaml:"license"`
	Output      string        `yaml:"output"`
	References  string        `yaml:"references"`
	Layout      string        `yaml:"layout"`
	BaseClass   string        `yaml:"base_class"`
	Tools       []string      `yaml:"tools"`
	OptionsURL  string        `yaml:"options_url"`
	Actions     ActionsConfig `yaml:"actions"`
	Concurrency int           `yaml:"concurrency"`
	Cache       CacheConfig   `yaml:"cache"`
	UserAgent   string        `yaml:"user_agent"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	// Defaults always validate.
	_ = cfg.validate()
	return cfg
}

// Load reads and validates a config from a YAML file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Discover loads path when it is set. Otherwise it loads DefaultFile from
// the working directory if present, and falls back to Default.
func Discover(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return Load(DefaultFile)
}

func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Schema == "" {
		c.Schema = defaultSchema
	}
	if c.License == nil {
		c.License = append([]string(nil), defaultLicense...)
	}
	if c.Output == "" {
		c.Output = defaultOutput
	}
	if c.References == "" {
		c.References = defaultReferences
	}
	if c.Layout == "" {
		c.Layout = "flat"
	}
	if c.BaseClass == "" {
		c.BaseClass = defaultBaseClass
	}
	if len(c.Tools) == 0 {
		c.Tools = append([]string(nil), defaultTools...)
	}
	if c.OptionsURL == "" {
		c.OptionsURL = defaultOptionsURL
	}
	if c.Actions.ListingURL == "" {
		c.Actions.ListingURL = fetch.DefaultActionsListing
	}
	if c.Concurrency == 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = defaultCacheTTL
	}

	switch c.Layout {
	case "flat", "grouped":
	default:
		return fmt.Errorf("config: unknown layout %q (must be %q or %q)", c.Layout, "flat", "grouped")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("config: concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: cache ttl must be positive, got %s", c.Cache.TTL)
	}
	if !strings.Contains(c.OptionsURL, ToolPlaceholder) {
		return fmt.Errorf("config: options_url %q must contain %s", c.OptionsURL, ToolPlaceholder)
	}
	for _, tool := range c.Tools {
		if strings.TrimSpace(tool) == "" {
			return fmt.Errorf("config: tools contain an empty name")
		}
	}
	c.Tools = toolfilter.Dedupe(c.Tools)
	if len(c.Actions.Include) > 0 && len(c.Actions.Exclude) > 0 {
		return fmt.Errorf("config: actions.include and actions.exclude cannot be used together")
	}

	return nil
}

// OptionsLocation expands OptionsURL for one tool.
func (c *Config) OptionsLocation(tool string) string {
	return strings.ReplaceAll(c.OptionsURL, ToolPlaceholder, strings.ToLower(tool))
}

// Overrides holds CLI values that take precedence over the file. Zero values
// leave the file value in place.
type Overrides struct {
	Tools          []string
	Output         string
	Layout         string
	OptionsURL     string
	ListingURL     string
	NoActions      bool
	IncludeActions []string
	ExcludeActions []string
	Concurrency    int
	CachePath      string
	CacheTTL       time.Duration
	References     string
}

// MergeOverrides applies CLI overrides to cfg (which may be nil when no file
// was loaded). CLI values override file values. The returned Config is a
// validated copy; cfg is not modified.
func MergeOverrides(cfg *Config, o Overrides) (*Config, error) {
	var merged Config
	if cfg != nil {
		merged = *cfg
		merged.License = copyStrings(cfg.License)
		merged.Tools = copyStrings(cfg.Tools)
		merged.Actions.Include = copyStrings(cfg.Actions.Include)
		merged.Actions.Exclude = copyStrings(cfg.Actions.Exclude)
		if cfg.Actions.Enabled != nil {
			enabled := *cfg.Actions.Enabled
			merged.Actions.Enabled = &enabled
		}
	}

	if len(o.Tools) > 0 {
		merged.Tools = copyStrings(o.Tools)
	}
	setString(&merged.Output, o.Output)
	setString(&merged.Layout, o.Layout)
	setString(&merged.OptionsURL, o.OptionsURL)
	setString(&merged.Actions.ListingURL, o.ListingURL)
	setString(&merged.Cache.Path, o.CachePath)
	setString(&merged.References, o.References)
	if o.NoActions {
		off := false
		merged.Actions.Enabled = &off
	}
	// Include and exclude on the command line replace both file lists so
	// the pair stays exclusive.
	if len(o.IncludeActions) > 0 || len(o.ExcludeActions) > 0 {
		merged.Actions.Include = copyStrings(o.IncludeActions)
		merged.Actions.Exclude = copyStrings(o.ExcludeActions)
	}
	if o.Concurrency != 0 {
		merged.Concurrency = o.Concurrency
	}
	if o.CacheTTL != 0 {
		merged.Cache.TTL = o.CacheTTL
	}

	if err := merged.validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}
