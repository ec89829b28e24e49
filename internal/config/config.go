// Package config loads docdex configuration from an optional .docdex.yaml
// file at the project root, merged over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/docdex/docdex/internal/errors"
)

// ConfigFileName is the per-project configuration file.
const ConfigFileName = ".docdex.yaml"

// Defaults shared by the index builder and the search engine.
const (
	DefaultContextLines = 2
	DefaultLimit        = 20
	DefaultOutput       = "index.json"
)

// DefaultTypes are the file extensions indexed and searched by default.
var DefaultTypes = []string{"md", "txt", "rst", "py", "js", "ts", "yaml", "yml", "json"}

// DefaultIndexExcludes are the path substrings excluded during index builds.
//
// DefaultSearchExcludes is intentionally a separate list: the search default
// omits ".cache". The two components are configured independently so the
// observable filtering behavior of each stays put.
var DefaultIndexExcludes = []string{".git", "node_modules", "__pycache__", ".venv", "venv", ".cache"}

// DefaultSearchExcludes are the path substrings excluded during direct scans.
var DefaultSearchExcludes = []string{".git", "node_modules", "__pycache__", ".venv", "venv"}

// Config is the complete docdex configuration.
type Config struct {
	Types  []string     `yaml:"types"`
	Index  IndexConfig  `yaml:"index"`
	Search SearchConfig `yaml:"search"`
}

// IndexConfig configures the index builder.
type IndexConfig struct {
	Exclude []string `yaml:"exclude"`
	Output  string   `yaml:"output"`
}

// SearchConfig configures the search engine.
type SearchConfig struct {
	Exclude      []string      `yaml:"exclude"`
	ContextLines int           `yaml:"context_lines"`
	Limit        int           `yaml:"limit"`
	Weights      WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds the per-match-kind score weights.
type WeightsConfig struct {
	FilenameExact    int `yaml:"filename_exact"`
	FilenameContains int `yaml:"filename_contains"`
	Title            int `yaml:"title"`
	Frontmatter      int `yaml:"frontmatter"`
	Heading          int `yaml:"heading"`
	Content          int `yaml:"content"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Types: append([]string(nil), DefaultTypes...),
		Index: IndexConfig{
			Exclude: append([]string(nil), DefaultIndexExcludes...),
			Output:  DefaultOutput,
		},
		Search: SearchConfig{
			Exclude:      append([]string(nil), DefaultSearchExcludes...),
			ContextLines: DefaultContextLines,
			Limit:        DefaultLimit,
			Weights: WeightsConfig{
				FilenameExact:    100,
				FilenameContains: 80,
				Title:            70,
				Frontmatter:      60,
				Heading:          50,
				Content:          40,
			},
		},
	}
}

// Load reads the configuration for the given root directory.
// A missing config file is not an error; defaults are returned.
func Load(root string) (*Config, error) {
	cfg := NewConfig()

	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeConfigNotFound, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("parse %s: %v", path, err), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Search.ContextLines < 0 {
		return errors.ConfigError("search.context_lines must be >= 0", nil)
	}
	if c.Search.Limit <= 0 {
		return errors.ConfigError("search.limit must be > 0", nil)
	}
	for name, w := range map[string]int{
		"filename_exact":    c.Search.Weights.FilenameExact,
		"filename_contains": c.Search.Weights.FilenameContains,
		"title":             c.Search.Weights.Title,
		"frontmatter":       c.Search.Weights.Frontmatter,
		"heading":           c.Search.Weights.Heading,
		"content":           c.Search.Weights.Content,
	} {
		if w < 0 {
			return errors.ConfigError(fmt.Sprintf("search.weights.%s must be >= 0", name), nil)
		}
	}
	return nil
}
