package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ruleforge/ruleforge/internal/analytics"
	"github.com/ruleforge/ruleforge/internal/client"
	"github.com/ruleforge/ruleforge/internal/types"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Inspect trigger counts and the change log",
}

var triggersCmd = &cobra.Command{
	Use:   "triggers <start> <end>",
	Short: "Show per-rule daily trigger counts over a date range",
	Long: `Triggers fetches how often each rule fired per day and aligns every
series onto the same date axis, filling days without firings with zero.`,
	Args: cobra.ExactArgs(2),
	RunE: runTriggers,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the rule change log",
	RunE:  runLogs,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(triggersCmd)
	analyticsCmd.AddCommand(logsCmd)

	triggersCmd.Flags().String("rules", "", "comma separated rule ids to restrict the series to")
	triggersCmd.Flags().Bool("json", false, "emit the aligned series as JSON")

	logsCmd.Flags().String("start", "", "earliest change date (YYYY-MM-DD)")
	logsCmd.Flags().String("end", "", "latest change date (YYYY-MM-DD)")
	logsCmd.Flags().String("rule", "", "filter by rule id")
	logsCmd.Flags().String("user", "", "filter by acting user")
	logsCmd.Flags().String("action", "", "filter by action (create, update, delete, ...)")
	logsCmd.Flags().Int("limit", 50, "maximum entries to fetch")
	logsCmd.Flags().Bool("json", false, "emit entries as JSON")
	logsCmd.Flags().String("out", "", "write entries as JSON to this file instead of stdout")
}

func runTriggers(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	start, err := types.ParseDate(args[0])
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", args[0], err)
	}
	end, err := types.ParseDate(args[1])
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", args[1], err)
	}
	if end.Before(start) {
		return fmt.Errorf("end %s is before start %s", end, start)
	}

	var ruleIDs []types.RuleID
	if rulesFlag, _ := cmd.Flags().GetString("rules"); rulesFlag != "" {
		for _, id := range strings.Split(rulesFlag, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ruleIDs = append(ruleIDs, types.RuleID(id))
			}
		}
	}

	triggers, err := analytics.New(c).FetchSeries(cmd.Context(), start, end, ruleIDs)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(triggers)
	}

	dates := analytics.Dates(triggers)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	header := []string{"DATE"}
	for _, series := range triggers.Series {
		header = append(header, string(series.RuleID))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for i, date := range dates {
		row := []string{date.String()}
		for _, series := range triggers.Series {
			row = append(row, fmt.Sprintf("%d", series.Points[i].Count))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runLogs(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	var filter client.LogFilter
	if startFlag, _ := cmd.Flags().GetString("start"); startFlag != "" {
		if filter.Start, err = types.ParseDate(startFlag); err != nil {
			return fmt.Errorf("invalid date %q: %w", startFlag, err)
		}
	}
	if endFlag, _ := cmd.Flags().GetString("end"); endFlag != "" {
		if filter.End, err = types.ParseDate(endFlag); err != nil {
			return fmt.Errorf("invalid date %q: %w", endFlag, err)
		}
	}
	ruleFlag, _ := cmd.Flags().GetString("rule")
	filter.RuleID = types.RuleID(ruleFlag)
	filter.User, _ = cmd.Flags().GetString("user")
	filter.Action, _ = cmd.Flags().GetString("action")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	entries, err := c.Logs(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if outFile, _ := cmd.Flags().GetString("out"); outFile != "" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outFile, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outFile, err)
		}
		fmt.Printf("wrote %d entries to %s\n", len(entries), outFile)
		return nil
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tUSER\tROLE\tACTION")
	for _, entry := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			entry.ID, entry.CreatedAt, entry.User, entry.Role, entry.Action)
	}
	return w.Flush()
}
