package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ruleforge/ruleforge/internal/logic"
)

var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "Manage the variable registry conditions validate against",
}

var variablesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered variables",
	RunE:  runVariablesList,
}

var variablesUpsertCmd = &cobra.Command{
	Use:   "upsert <key>",
	Short: "Create or update a variable registry entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runVariablesUpsert,
}

func init() {
	rootCmd.AddCommand(variablesCmd)
	variablesCmd.AddCommand(variablesListCmd)
	variablesCmd.AddCommand(variablesUpsertCmd)

	variablesUpsertCmd.Flags().String("type", "number", "value type (number or string)")
	variablesUpsertCmd.Flags().String("unit", "", "display unit")
	variablesUpsertCmd.Flags().String("aggregators", "", "comma separated allowed aggregators (empty allows all)")
	variablesUpsertCmd.Flags().Float64("min", 0, "lower bound of the valid range")
	variablesUpsertCmd.Flags().Float64("max", 0, "upper bound of the valid range")
}

func runVariablesList(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	vars, err := c.Variables(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTYPE\tUNIT\tAGGREGATORS\tRANGE")
	for _, v := range vars {
		aggs := "any"
		if len(v.AllowedAggregators) > 0 {
			names := make([]string, len(v.AllowedAggregators))
			for i, a := range v.AllowedAggregators {
				names[i] = string(a)
			}
			aggs = strings.Join(names, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Key, v.Type, v.Unit, aggs, rangeString(v))
	}
	return w.Flush()
}

func rangeString(v logic.Variable) string {
	switch {
	case v.ValidMin != nil && v.ValidMax != nil:
		return fmt.Sprintf("[%g, %g]", *v.ValidMin, *v.ValidMax)
	case v.ValidMin != nil:
		return fmt.Sprintf(">= %g", *v.ValidMin)
	case v.ValidMax != nil:
		return fmt.Sprintf("<= %g", *v.ValidMax)
	default:
		return "-"
	}
}

func runVariablesUpsert(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	varType, _ := cmd.Flags().GetString("type")
	if varType != "number" && varType != "string" {
		return fmt.Errorf("--type must be number or string, got %q", varType)
	}

	v := logic.Variable{Key: args[0], Type: varType}
	v.Unit, _ = cmd.Flags().GetString("unit")

	if aggsFlag, _ := cmd.Flags().GetString("aggregators"); aggsFlag != "" {
		for _, name := range strings.Split(aggsFlag, ",") {
			agg := logic.Aggregator(strings.TrimSpace(name))
			if !agg.Valid() {
				return fmt.Errorf("unknown aggregator %q", name)
			}
			v.AllowedAggregators = append(v.AllowedAggregators, agg)
		}
	}

	if cmd.Flags().Changed("min") {
		min, _ := cmd.Flags().GetFloat64("min")
		v.ValidMin = &min
	}
	if cmd.Flags().Changed("max") {
		max, _ := cmd.Flags().GetFloat64("max")
		v.ValidMax = &max
	}

	if err := c.UpsertVariable(cmd.Context(), v); err != nil {
		return err
	}
	fmt.Printf("upserted variable %s\n", v.Key)
	return nil
}
