package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ruleforge/ruleforge/internal/sim"
	"github.com/ruleforge/ruleforge/internal/types"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <user-id> <date>",
	Short: "Simulate rule evaluation for one user on one date",
	Long: `Simulate asks the evaluation service what would fire for a user on a
given date, without side effects. With --until it walks every date of the
inclusive range in order and aggregates the per-day results.`,
	Args: cobra.ExactArgs(2),
	RunE: runSimulate,
}

var featuresCmd = &cobra.Command{
	Use:   "features <user-id> <date>",
	Short: "Show the feature values the evaluator sees for a user on a date",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeatures,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(featuresCmd)

	simulateCmd.Flags().String("until", "", "simulate every date up to and including this one")
	simulateCmd.Flags().Bool("debug", false, "request the evaluator's explanation traces")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, c, err := setup()
	if err != nil {
		return err
	}

	userID := args[0]
	start, err := types.ParseDate(args[1])
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", args[1], err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	tenant := types.TenantID(cfg.TenantID)

	until, _ := cmd.Flags().GetString("until")
	if until == "" {
		orchestrator := sim.New(c)
		result, err := orchestrator.Single(cmd.Context(), sim.Request{
			UserID:   userID,
			Date:     start,
			TenantID: tenant,
			Debug:    debug,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	end, err := types.ParseDate(until)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", until, err)
	}
	if end.Before(start) {
		return fmt.Errorf("--until %s is before start date %s", end, start)
	}

	bar := progressbar.NewOptions(len(sim.Days(start, end)),
		progressbar.OptionSetDescription("simulating"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	orchestrator := sim.New(c, sim.WithProgress(func(date types.Date, index, total int) {
		bar.Add(1)
	}))

	results, err := orchestrator.Range(cmd.Context(), userID, tenant, start, end, debug)
	bar.Finish()

	// Range fails fast but returns the days it completed; show them
	// before surfacing the error.
	if len(results) > 0 {
		if printErr := printJSON(results); printErr != nil {
			return printErr
		}
		fmt.Printf("total firings: %d over %d days\n", sim.TotalFirings(results), len(results))
	}
	return err
}

func runFeatures(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	date, err := types.ParseDate(args[1])
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", args[1], err)
	}

	features, err := c.Features(cmd.Context(), args[0], date)
	if err != nil {
		return err
	}
	return printJSON(features)
}
