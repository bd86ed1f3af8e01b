package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/docverify/reconcile-cli/internal/report"
)

var (
	resultsSubmission int64
	resultsJSON       bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the verification detail for a submission",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if resultsSubmission <= 0 {
			return eris.New("--submission is required")
		}
		ctx := cmd.Context()

		env, err := initEnv(ctx, "report")
		if err != nil {
			return err
		}
		defer env.Close()

		d, err := env.Reports.Detail(ctx, resultsSubmission)
		if err != nil {
			return eris.Wrapf(err, "results submission %d", resultsSubmission)
		}
		if resultsJSON {
			return writeJSON(cmd.OutOrStdout(), d)
		}
		formatDetail(cmd.OutOrStdout(), d)
		return nil
	},
}

var (
	analyticsDays int
	analyticsJSON bool
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Summarise stored verdicts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "report")
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := env.Reports.Analytics(ctx, analyticsDays)
		if err != nil {
			return eris.Wrap(err, "analytics")
		}
		if analyticsJSON {
			return writeJSON(cmd.OutOrStdout(), a)
		}
		formatAnalytics(cmd.OutOrStdout(), a)
		return nil
	},
}

func init() {
	resultsCmd.Flags().Int64Var(&resultsSubmission, "submission", 0, "submission id (required)")
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "print JSON instead of a table")
	analyticsCmd.Flags().IntVar(&analyticsDays, "days", report.DefaultLookbackDays, "lookback window for recent verifications")
	analyticsCmd.Flags().BoolVar(&analyticsJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(resultsCmd, analyticsCmd)
}
