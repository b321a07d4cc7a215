// Package config loads baselineplan configuration files.
//
// Configuration is read from TOML (.toml) or YAML (.yaml, .yml) files.
// Environment variables referenced as $VAR or ${VAR} are expanded before
// decoding, and zero values are replaced with defaults afterwards:
//
//	max_features = 50
//
//	[[priorities]]
//	name = "css"
//	subcategories = ["properties"]
//
//	[weights]
//	chrome = 60
//	firefox = 40
//
//	[labels]
//	"css.properties" = "CSS"
//
//	[cache]
//	backend = "redis"
//	redis_url = "${REDIS_URL}"
package config

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/baselineplan/pkg/classify"
	"github.com/matzehuels/baselineplan/pkg/errors"
	"github.com/matzehuels/baselineplan/pkg/extract"
)

// Environment variables read by the CLI.
const (
	EnvConfig   = "BASELINEPLAN_CONFIG"
	EnvRedisURL = "BASELINEPLAN_REDIS_URL"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the top-level configuration.
type Config struct {
	MaxFeatures int                   `toml:"max_features" yaml:"max_features"`
	Priorities  extract.Priorities    `toml:"priorities" yaml:"priorities"`
	Weights     map[string]float64    `toml:"weights" yaml:"weights"`
	Labels      map[string]string     `toml:"labels" yaml:"labels"`
	ImpactRules []classify.ImpactRule `toml:"impact" yaml:"impact"`
	Cache       CacheConfig           `toml:"cache" yaml:"cache"`
}

// CacheConfig selects and configures the extraction cache.
type CacheConfig struct {
	Backend  string `toml:"backend" yaml:"backend"`     // file, redis or none (default: file)
	Dir      string `toml:"dir" yaml:"dir"`             // file cache directory (default: XDG cache dir)
	RedisURL string `toml:"redis_url" yaml:"redis_url"` // redis://host:port/db
	Prefix   string `toml:"prefix" yaml:"prefix"`       // key prefix for shared caches, e.g. "ci:"
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the configuration file at path. The format is
// chosen by file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes configuration data in the format named by ext (".toml",
// ".yaml" or ".yml"), applies defaults and validates the result.
func Parse(data []byte, ext string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml config")
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml config")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = extract.DefaultMaxFeatures
	}
	if c.Priorities == nil {
		c.Priorities = extract.DefaultPriorities()
	}
	if len(c.Weights) == 0 {
		c.Weights = classify.DefaultWeights()
	}
	if c.Labels == nil {
		c.Labels = classify.DefaultLabels()
	}
	if c.ImpactRules == nil {
		c.ImpactRules = classify.DefaultImpactRules()
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var sum float64
	for browser, w := range c.Weights {
		if err := errors.ValidateSegment("browser", browser); err != nil {
			return err
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "weight for %s is not a finite number: %v", browser, w)
		}
		if w < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "weight for %s is negative: %v", browser, w)
		}
		sum += w
	}
	if sum > 100 {
		return errors.New(errors.ErrCodeInvalidConfig, "browser weights sum to %v, must not exceed 100", sum)
	}

	for key := range c.Labels {
		if err := errors.ValidateLabelKey(key); err != nil {
			return err
		}
	}

	for _, r := range c.ImpactRules {
		switch r.Impact {
		case classify.ImpactLow, classify.ImpactMedium, classify.ImpactHigh:
		default:
			return errors.New(errors.ErrCodeInvalidConfig, "unknown impact %q", r.Impact)
		}
	}

	if err := c.Priorities.Validate(); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "redis cache backend requires redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Classifier returns the classifier tables of the configuration.
func (c *Config) Classifier() classify.Config {
	return classify.Config{
		Weights:     c.Weights,
		Labels:      c.Labels,
		ImpactRules: c.ImpactRules,
	}
}
