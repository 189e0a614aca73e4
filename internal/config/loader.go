// Package config provides configuration loading for errbank.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/errbank/internal/classify"
	"github.com/fyrsmithlabs/errbank/internal/similarity"
	"github.com/fyrsmithlabs/errbank/internal/stats"
	"github.com/fyrsmithlabs/errbank/internal/store"
)

// envPrefix namespaces errbank environment variables.
const envPrefix = "ERRBANK_"

// Load reads configuration with the following precedence (highest first):
//
//  1. Environment variables (ERRBANK_STORE_PATH, ERRBANK_LOGGING_LEVEL, ...)
//  2. YAML config file (default ~/.config/errbank/config.yaml)
//  3. Hardcoded defaults
//
// A missing config file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "errbank", "config.yaml")
	}

	if content, err := os.ReadFile(configPath); err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// ERRBANK_STORE_PATH -> store.path: strip the prefix, lower-case, and
	// split section from field on the first underscore.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching disk or the
// environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join("data", "errors.json")
	}
	if cfg.Retention.MaxAgeDays == 0 {
		cfg.Retention.MaxAgeDays = store.DefaultMaxAgeDays
	}

	def := similarity.DefaultConfig()
	if cfg.Similarity.Threshold == 0 {
		cfg.Similarity.Threshold = def.Threshold
	}
	if cfg.Similarity.ComponentWeight == 0 {
		cfg.Similarity.ComponentWeight = def.ComponentWeight
	}
	if cfg.Similarity.CategoryWeight == 0 {
		cfg.Similarity.CategoryWeight = def.CategoryWeight
	}
	if cfg.Similarity.CodeWeight == 0 {
		cfg.Similarity.CodeWeight = def.CodeWeight
	}
	if cfg.Similarity.MessageWeight == 0 {
		cfg.Similarity.MessageWeight = def.MessageWeight
	}

	if cfg.Classifier.TitleMaxLength == 0 {
		cfg.Classifier.TitleMaxLength = classify.DefaultTitleMaxLength
	}
	if cfg.Stats.PatternLimit == 0 {
		cfg.Stats.PatternLimit = stats.DefaultPatternLimit
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
