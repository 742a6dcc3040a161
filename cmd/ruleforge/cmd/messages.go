package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ruleforge/ruleforge/internal/client"
	"github.com/ruleforge/ruleforge/internal/messages"
	"github.com/ruleforge/ruleforge/internal/types"
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Manage a rule's message variants",
}

var messagesListCmd = &cobra.Command{
	Use:   "list <rule-id>",
	Short: "List the message variants of a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessagesList,
}

var messagesAddCmd = &cobra.Command{
	Use:   "add <rule-id> <text>",
	Short: "Add a message variant",
	Args:  cobra.ExactArgs(2),
	RunE:  runMessagesAdd,
}

var messagesUpdateCmd = &cobra.Command{
	Use:   "update <rule-id> <message-id>",
	Short: "Update a message variant's text, weight or active state",
	Args:  cobra.ExactArgs(2),
	RunE:  runMessagesUpdate,
}

var messagesRemoveCmd = &cobra.Command{
	Use:   "remove <rule-id> <message-id>",
	Short: "Remove a message variant",
	Args:  cobra.ExactArgs(2),
	RunE:  runMessagesRemove,
}

func init() {
	rootCmd.AddCommand(messagesCmd)
	messagesCmd.AddCommand(messagesListCmd)
	messagesCmd.AddCommand(messagesAddCmd)
	messagesCmd.AddCommand(messagesUpdateCmd)
	messagesCmd.AddCommand(messagesRemoveCmd)

	messagesAddCmd.Flags().Float64("weight", messages.DefaultWeight, "selection weight")
	messagesUpdateCmd.Flags().String("text", "", "new message text")
	messagesUpdateCmd.Flags().Float64("weight", 0, "new selection weight")
	messagesUpdateCmd.Flags().String("active", "", "new active state (true or false)")
}

func runMessagesList(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	r, err := c.GetRule(cmd.Context(), types.RuleID(args[0]))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTIVE\tWEIGHT\tTEXT")
	for _, candidate := range r.Messages.Candidates {
		id := "-"
		if candidate.ID != nil {
			id = fmt.Sprintf("%d", *candidate.ID)
		}
		fmt.Fprintf(w, "%s\t%t\t%g\t%s\n", id, candidate.Active, candidate.Weight, candidate.Text)
	}
	return w.Flush()
}

func runMessagesAdd(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	weight, _ := cmd.Flags().GetFloat64("weight")
	id, err := c.AddVariant(cmd.Context(), types.RuleID(args[0]), args[1], messages.NormalizeWeight(weight))
	if err != nil {
		return err
	}
	fmt.Printf("added variant %d to rule %s\n", id, args[0])
	return nil
}

func runMessagesUpdate(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	messageID, err := parseMessageID(args[1])
	if err != nil {
		return err
	}

	var patch client.VariantRequest
	if cmd.Flags().Changed("text") {
		text, _ := cmd.Flags().GetString("text")
		patch.Text = &text
	}
	if cmd.Flags().Changed("weight") {
		weight, _ := cmd.Flags().GetFloat64("weight")
		weight = messages.NormalizeWeight(weight)
		patch.Weight = &weight
	}
	if activeFlag, _ := cmd.Flags().GetString("active"); activeFlag != "" {
		switch activeFlag {
		case "true":
			t := true
			patch.Active = &t
		case "false":
			f := false
			patch.Active = &f
		default:
			return fmt.Errorf("--active must be true or false, got %q", activeFlag)
		}
	}
	if patch.Text == nil && patch.Weight == nil && patch.Active == nil {
		return fmt.Errorf("nothing to update, set --text, --weight or --active")
	}

	if err := c.PatchVariant(cmd.Context(), types.RuleID(args[0]), messageID, patch); err != nil {
		return err
	}
	fmt.Printf("updated variant %d on rule %s\n", messageID, args[0])
	return nil
}

func runMessagesRemove(cmd *cobra.Command, args []string) error {
	_, c, err := setup()
	if err != nil {
		return err
	}

	messageID, err := parseMessageID(args[1])
	if err != nil {
		return err
	}

	if err := c.DeleteVariant(cmd.Context(), types.RuleID(args[0]), messageID); err != nil {
		return err
	}
	fmt.Printf("removed variant %d from rule %s\n", messageID, args[0])
	return nil
}

func parseMessageID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid message id %q", s)
	}
	return id, nil
}
