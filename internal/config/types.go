package config

import (
	"fmt"

	"github.com/fyrsmithlabs/errbank/internal/similarity"
)

// Config is the root errbank configuration.
type Config struct {
	Store      StoreConfig       `koanf:"store"`
	Retention  RetentionConfig   `koanf:"retention"`
	Similarity similarity.Config `koanf:"similarity"`
	Classifier ClassifierConfig  `koanf:"classifier"`
	Stats      StatsConfig       `koanf:"stats"`
	Logging    LoggingConfig     `koanf:"logging"`
}

// StoreConfig configures the record store.
type StoreConfig struct {
	// Path is the JSON snapshot file. The parent directory is created on
	// first use.
	Path string `koanf:"path"`
}

// RetentionConfig configures the cleanup policy.
type RetentionConfig struct {
	// MaxAgeDays is the record retention window for cleanup.
	MaxAgeDays int `koanf:"max_age_days"`
}

// ClassifierConfig configures classification.
type ClassifierConfig struct {
	// TitleMaxLength caps generated titles, ellipsis included.
	TitleMaxLength int `koanf:"title_max_length"`

	// SeverityRules and CategoryRules are custom keyword rules evaluated
	// before the built-in chains.
	SeverityRules []KeywordRule `koanf:"severity_rules"`
	CategoryRules []KeywordRule `koanf:"category_rules"`
}

// KeywordRule is a configured (keywords, label) pair.
type KeywordRule struct {
	Keywords []string `koanf:"keywords"`
	Label    string   `koanf:"label"`
}

// StatsConfig configures aggregation.
type StatsConfig struct {
	// PatternLimit caps the recurring-pattern list.
	PatternLimit int `koanf:"pattern_limit"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Retention.MaxAgeDays < 0 {
		return fmt.Errorf("retention.max_age_days must be >= 0, got %d", c.Retention.MaxAgeDays)
	}
	if c.Similarity.Threshold < 0 || c.Similarity.Threshold > 1 {
		return fmt.Errorf("similarity.threshold must be in [0, 1], got %v", c.Similarity.Threshold)
	}
	if c.Classifier.TitleMaxLength < 4 {
		return fmt.Errorf("classifier.title_max_length must be > 3, got %d", c.Classifier.TitleMaxLength)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
