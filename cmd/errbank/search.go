package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/errbank/internal/query"
	"github.com/fyrsmithlabs/errbank/internal/record"
)

var (
	// search/stats/export criteria flags
	critComponent string
	critSeverity  string
	critStatus    string
	critCategory  string
	critDateRange string
	critTags      []string
	critMessage   string

	// search window flags
	searchDate  string
	searchRange string

	// export flags
	exportFormat string

	// cleanup flags
	cleanupMaxAge int
)

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cleanupCmd)

	for _, cmd := range []*cobra.Command{searchCmd, statsCmd, exportCmd} {
		cmd.Flags().StringVar(&critComponent, "component", "", "filter by component")
		cmd.Flags().StringVar(&critSeverity, "severity", "", "filter by severity")
		cmd.Flags().StringVar(&critStatus, "status", "", "filter by status")
		cmd.Flags().StringVar(&critCategory, "category", "", "filter by category")
		cmd.Flags().StringVar(&critDateRange, "date-range", "", "filter by \"start..end\" (inclusive, either side optional)")
		cmd.Flags().StringSliceVar(&critTags, "tag", nil, "filter by tag (any match)")
		cmd.Flags().StringVar(&critMessage, "message", "", "filter by message substring")
	}

	searchCmd.Flags().StringVar(&searchDate, "date", "", "single calendar day (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchRange, "range", "", "window ending now: 1d, 7d, or 30d")

	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")

	cleanupCmd.Flags().IntVar(&cleanupMaxAge, "max-age-days", 0, "retention window (default from config)")
}

func criteria() query.Criteria {
	return query.Criteria{
		Component: critComponent,
		Severity:  record.Severity(critSeverity),
		Status:    record.Status(critStatus),
		Category:  record.Category(critCategory),
		DateRange: critDateRange,
		Tags:      critTags,
		Message:   critMessage,
	}
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search records by criteria",
	Long: `Search records, most recent first. All given criteria must match.

Examples:
  errbank search --severity HIGH --component gateway
  errbank search --range 7d --tag timeout
  errbank search --date 2026-08-31`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		switch {
		case searchDate != "":
			date, err := time.ParseInLocation("2006-01-02", searchDate, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			results, err := svc.SearchByDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printJSON(results)
		case searchRange != "":
			results, err := svc.SearchByTimeRange(cmd.Context(), searchRange)
			if err != nil {
				return err
			}
			return printJSON(results)
		default:
			results, err := svc.Search(cmd.Context(), criteria())
			if err != nil {
				return err
			}
			return printJSON(results)
		}
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar <record-id>",
	Short: "Find records similar to the given one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		matches, err := svc.SearchSimilar(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(matches)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate statistics over matching records",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.Stats(cmd.Context(), criteria())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export matching records as json or csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		out, err := svc.Export(cmd.Context(), exportFormat, criteria())
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge records older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		maxAge := cleanupMaxAge
		if maxAge <= 0 {
			maxAge = cfg.Retention.MaxAgeDays
		}
		removed, err := svc.Cleanup(cmd.Context(), maxAge)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d record(s)\n", removed)
		return nil
	},
}
