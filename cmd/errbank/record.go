package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/errbank/internal/classify"
	"github.com/fyrsmithlabs/errbank/internal/record"
)

var (
	// detect command flags
	detectMessage   string
	detectCode      string
	detectName      string
	detectStack     string
	detectComponent string
	detectEnv       string
	detectFields    map[string]string

	// resolve command flags
	resolveSummary  string
	resolveFixedBy  string
	resolveDuration time.Duration

	// investigate command flags
	investigateSummary  string
	investigateFindings []string
	investigateBy       string

	// prevent command flags
	preventSummary string
	preventActions []string
)

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(investigateCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(preventCmd)

	detectCmd.Flags().StringVar(&detectMessage, "message", "", "failure message (required)")
	detectCmd.Flags().StringVar(&detectCode, "code", "", "explicit error code")
	detectCmd.Flags().StringVar(&detectName, "name", "", "error type name")
	detectCmd.Flags().StringVar(&detectStack, "stack", "", "stack trace")
	detectCmd.Flags().StringVar(&detectComponent, "component", "", "origin component")
	detectCmd.Flags().StringVar(&detectEnv, "env", "", "environment (production or development)")
	detectCmd.Flags().StringToStringVar(&detectFields, "field", nil, "extra context metadata (key=value)")
	_ = detectCmd.MarkFlagRequired("message")

	investigateCmd.Flags().StringVar(&investigateSummary, "summary", "", "investigation summary (required)")
	investigateCmd.Flags().StringArrayVar(&investigateFindings, "finding", nil, "individual finding (repeatable)")
	investigateCmd.Flags().StringVar(&investigateBy, "by", "", "investigator")
	_ = investigateCmd.MarkFlagRequired("summary")

	resolveCmd.Flags().StringVar(&resolveSummary, "summary", "", "resolution summary (required)")
	resolveCmd.Flags().StringVar(&resolveFixedBy, "fixed-by", "", "who fixed it")
	resolveCmd.Flags().DurationVar(&resolveDuration, "resolution-time", 0, "time spent resolving (e.g. 2h30m)")
	_ = resolveCmd.MarkFlagRequired("summary")

	preventCmd.Flags().StringVar(&preventSummary, "summary", "", "prevention summary (required)")
	preventCmd.Flags().StringArrayVar(&preventActions, "action", nil, "prevention action (repeatable)")
	_ = preventCmd.MarkFlagRequired("summary")
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Record a failure as a classified error record",
	Long: `Classify a raw failure signal and persist the resulting record.

Examples:
  errbank detect --message "Connection refused: timeout" --component gateway
  errbank detect --message "fatal: out of memory" --env production --field build=nightly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := svc.Detect(cmd.Context(),
			classify.Failure{
				Message:    detectMessage,
				Code:       detectCode,
				Name:       detectName,
				StackTrace: detectStack,
			},
			classify.Detection{
				Component:   detectComponent,
				Environment: detectEnv,
				Fields:      detectFields,
			},
		)
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <record-id>",
	Short: "Show a record by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var investigateCmd = &cobra.Command{
	Use:   "investigate <record-id>",
	Short: "Attach investigation findings to a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := svc.SetInvestigation(cmd.Context(), args[0], record.Investigation{
			Summary:        investigateSummary,
			Findings:       investigateFindings,
			InvestigatedBy: investigateBy,
		})
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <record-id>",
	Short: "Attach a resolution and mark the record resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := svc.SetResolution(cmd.Context(), args[0], record.Resolution{
			Summary:        resolveSummary,
			FixedBy:        resolveFixedBy,
			ResolutionTime: resolveDuration,
		})
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var preventCmd = &cobra.Command{
	Use:   "prevent <record-id>",
	Short: "Attach prevention actions to a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := svc.SetPrevention(cmd.Context(), args[0], record.Prevention{
			Summary: preventSummary,
			Actions: preventActions,
		})
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}
