// Package main implements the errbank CLI for recording and analyzing error
// events.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/errbank/internal/classify"
	"github.com/fyrsmithlabs/errbank/internal/config"
	"github.com/fyrsmithlabs/errbank/internal/errbank"
	"github.com/fyrsmithlabs/errbank/internal/logging"
	"github.com/fyrsmithlabs/errbank/internal/record"
	"github.com/fyrsmithlabs/errbank/internal/store"
)

// version information (set via ldflags during build)
var version = "dev"

var (
	// configPath overrides the default config file location
	configPath string
	// storePath overrides the configured snapshot path
	storePath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "errbank",
	Short: "Error record store and analytics engine",
	Long: `errbank records, classifies, and analyzes error events.

Failures are classified into severity and category, stored durably, and
retrieved via filtered search, near-duplicate detection, and aggregate
statistics.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/errbank/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "snapshot file (overrides store.path)")
}

// newService builds the service stack from configuration. The returned
// cleanup function flushes the logger.
func newService() (errbank.Service, *config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if lr := st.LoadResult(); lr.Degraded {
		logger.Warn("store loaded in degraded mode", zap.Error(lr.Err))
	}

	svc, err := errbank.NewService(&errbank.Config{
		Similarity:        cfg.Similarity,
		PatternLimit:      cfg.Stats.PatternLimit,
		ClassifierOptions: classifierOptions(cfg),
	}, st, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = svc.Close()
		_ = logger.Sync()
	}
	return svc, cfg, cleanup, nil
}

// classifierOptions converts configured keyword rules into classifier
// options.
func classifierOptions(cfg *config.Config) []classify.Option {
	var opts []classify.Option
	if cfg.Classifier.TitleMaxLength > 0 {
		opts = append(opts, classify.WithTitleMaxLength(cfg.Classifier.TitleMaxLength))
	}
	if len(cfg.Classifier.SeverityRules) > 0 {
		rules := make([]classify.SeverityRule, 0, len(cfg.Classifier.SeverityRules))
		for _, r := range cfg.Classifier.SeverityRules {
			rules = append(rules, classify.SeverityRule{
				Keywords: r.Keywords,
				Severity: record.Severity(r.Label),
			})
		}
		opts = append(opts, classify.WithSeverityRules(rules...))
	}
	if len(cfg.Classifier.CategoryRules) > 0 {
		rules := make([]classify.CategoryRule, 0, len(cfg.Classifier.CategoryRules))
		for _, r := range cfg.Classifier.CategoryRules {
			rules = append(rules, classify.CategoryRule{
				Keywords: r.Keywords,
				Category: record.Category(r.Label),
			})
		}
		opts = append(opts, classify.WithCategoryRules(rules...))
	}
	return opts
}

// printJSON writes v pretty-printed to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
