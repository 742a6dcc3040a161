package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ruleforge/ruleforge/internal/client"
	"github.com/ruleforge/ruleforge/internal/core/config"
	"github.com/ruleforge/ruleforge/internal/logic"
	"github.com/ruleforge/ruleforge/internal/rule"
	"github.com/ruleforge/ruleforge/internal/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage rules on the evaluation service",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules for the tenant",
	RunE:  runRulesList,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <rule-id>",
	Short: "Print one rule as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

var rulesCreateCmd = &cobra.Command{
	Use:   "create <rule-id>",
	Short: "Create a rule from the default scaffold",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesCreate,
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <rule-id>",
	Short: "Enable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, types.RuleID(args[0]), true)
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <rule-id>",
	Short: "Disable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, types.RuleID(args[0]), false)
	},
}

var rulesCloneCmd = &cobra.Command{
	Use:   "clone <rule-id> <new-id>",
	Short: "Clone a rule under a new id (the clone starts disabled)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesClone,
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <rule-id>",
	Short: "Delete one rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDelete,
}

var rulesDeleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every rule on the service",
	RunE:  runRulesDeleteAll,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <rule-id>",
	Short: "Check a rule's logic against the variable registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesValidate,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesCreateCmd)
	rulesCmd.AddCommand(rulesEnableCmd)
	rulesCmd.AddCommand(rulesDisableCmd)
	rulesCmd.AddCommand(rulesCloneCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
	rulesCmd.AddCommand(rulesDeleteAllCmd)
	rulesCmd.AddCommand(rulesValidateCmd)

	rulesListCmd.Flags().String("category", "", "filter by category")
	rulesListCmd.Flags().String("enabled", "", "filter by enabled state (true or false)")
	rulesCreateCmd.Flags().String("category", "", "initial category")
	rulesDeleteAllCmd.Flags().Bool("force", false, "required to run the bulk delete")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, c, err := setup()
	if err != nil {
		return err
	}

	filter := client.ListFilter{TenantID: types.TenantID(cfg.TenantID)}
	if category, _ := cmd.Flags().GetString("category"); category != "" {
		filter.Category = category
	}
	if enabled, _ := cmd.Flags().GetString("enabled"); enabled != "" {
		switch enabled {
		case "true":
			t := true
			filter.Enabled = &t
		case "false":
			f := false
			filter.Enabled = &f
		default:
			return fmt.Errorf("--enabled must be true or false, got %q", enabled)
		}
	}

	rules, err := c.ListRules(cmd.Context(), filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENABLED\tCATEGORY\tPRIORITY\tVARIANTS\tTAGS")
	for _, r := range rules {
		fmt.Fprintf(w, "%s\t%t\t%s\t%g\t%d\t%s\n",
			r.ID, r.Enabled, r.Category, r.Priority,
			len(r.Messages.Candidates), strings.Join(r.Tags, ","))
	}
	return w.Flush()
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	r, err := c.GetRule(cmd.Context(), types.RuleID(args[0]))
	if err != nil {
		return err
	}
	return printJSON(r)
}

func runRulesCreate(cmd *cobra.Command, args []string) error {
	cfg, c, err := setup()
	if err != nil {
		return err
	}

	r := rule.New(types.RuleID(args[0]), types.TenantID(cfg.TenantID))
	if category, _ := cmd.Flags().GetString("category"); category != "" {
		r.Category = category
	}

	id, err := c.CreateRule(cmd.Context(), r)
	if err != nil {
		return err
	}
	fmt.Printf("created rule %s\n", id)
	return nil
}

func setEnabled(cmd *cobra.Command, id types.RuleID, enabled bool) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	if err := c.EnableRule(cmd.Context(), id, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("rule %s %s\n", id, state)
	return nil
}

func runRulesClone(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	newID, err := c.CloneRule(cmd.Context(), types.RuleID(args[0]), types.RuleID(args[1]))
	if err != nil {
		return err
	}
	fmt.Printf("cloned %s into %s (disabled, enable it when ready)\n", args[0], newID)
	return nil
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	if err := c.DeleteRule(cmd.Context(), types.RuleID(args[0])); err != nil {
		return err
	}
	fmt.Printf("deleted rule %s\n", args[0])
	return nil
}

// runRulesDeleteAll gates the bulk delete twice: the --force flag and a
// typed confirmation of the tenant id. There is no undo on the service.
func runRulesDeleteAll(cmd *cobra.Command, args []string) error {
	cfg, c, err := setup()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return fmt.Errorf("refusing to delete all rules without --force")
	}

	fmt.Printf("This deletes EVERY rule for tenant %q. Type the tenant id to confirm: ", cfg.TenantID)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if strings.TrimSpace(line) != cfg.TenantID {
		return fmt.Errorf("confirmation does not match tenant %q, aborting", cfg.TenantID)
	}

	result, err := c.DeleteAllRules(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d rules and %d messages\n", result.Deleted, result.DeletedMessages)
	return nil
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	r, err := c.GetRule(cmd.Context(), types.RuleID(args[0]))
	if err != nil {
		return err
	}

	vars, err := c.Variables(cmd.Context())
	if err != nil {
		return err
	}

	warnings := r.Validate(logic.NewRegistry(vars))
	if len(warnings) == 0 {
		fmt.Printf("rule %s: no warnings\n", r.ID)
		return nil
	}
	for _, w := range warnings {
		fmt.Printf("%s: %s\n", w.Path, w.Message)
	}
	return nil
}

// setup loads config, builds the process logger and the service client.
// Most commands start here.
func setup() (*config.Config, *client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	c, err := newClient(cfg, newLogger(cfg))
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
