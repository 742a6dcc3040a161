package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ruleforge/ruleforge/internal/core/config"
	"github.com/ruleforge/ruleforge/internal/core/db"
	"github.com/ruleforge/ruleforge/internal/draft"
	"github.com/ruleforge/ruleforge/internal/logic"
	"github.com/ruleforge/ruleforge/internal/rule"
	"github.com/ruleforge/ruleforge/internal/types"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Work on rules locally before pushing them to the service",
	Long: `Drafts hold rule documents in a local database so edits accumulate
without touching evaluation. A draft reaches the service only on push.`,
}

var draftsNewCmd = &cobra.Command{
	Use:   "new <rule-id>",
	Short: "Start a draft, from the live rule or from the default scaffold",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftsNew,
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local drafts for the tenant",
	RunE:  runDraftsList,
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <draft-id>",
	Short: "Print a draft's rule document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftsShow,
}

var draftsSetCmd = &cobra.Command{
	Use:   "set <draft-id>",
	Short: "Update scalar fields of a draft's rule document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftsSet,
}

var draftsLogicCmd = &cobra.Command{
	Use:   "logic <draft-id> <add-condition|add-group|remove> [path]",
	Short: "Edit a draft's logic tree",
	Long: `Logic edits a draft's condition tree. The path addresses a node by
child indexes from the root, dot separated (e.g. "0.2"). add-condition and
add-group append to the group at the path (root when omitted); remove
deletes the node at the path, preserving sibling order.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runDraftsLogic,
}

var draftsPushCmd = &cobra.Command{
	Use:   "push <draft-id>",
	Short: "Send the draft's document to the service",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftsPush,
}

var draftsDeleteCmd = &cobra.Command{
	Use:   "delete <draft-id>",
	Short: "Discard a local draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftsDelete,
}

func init() {
	rootCmd.AddCommand(draftsCmd)
	draftsCmd.AddCommand(draftsNewCmd)
	draftsCmd.AddCommand(draftsListCmd)
	draftsCmd.AddCommand(draftsShowCmd)
	draftsCmd.AddCommand(draftsSetCmd)
	draftsCmd.AddCommand(draftsLogicCmd)
	draftsCmd.AddCommand(draftsPushCmd)
	draftsCmd.AddCommand(draftsDeleteCmd)

	draftsNewCmd.Flags().Bool("scaffold", false, "start from the default scaffold instead of the live rule")

	draftsSetCmd.Flags().String("category", "", "rule category")
	draftsSetCmd.Flags().Float64("priority", 0, "evaluation priority")
	draftsSetCmd.Flags().Float64("severity", 0, "severity score")
	draftsSetCmd.Flags().Int("cooldown-days", 0, "days a firing suppresses the rule for a user")
	draftsSetCmd.Flags().Int("max-per-day", 0, "per-day firing cap, 0 means unlimited")
	draftsSetCmd.Flags().String("tags", "", "comma separated tags, replaces the existing set")
	draftsSetCmd.Flags().String("enabled", "", "enabled state (true or false)")

	draftsLogicCmd.Flags().String("kind", "all", "group kind for add-group (all, any, none)")
}

// openStore opens the local draft database and loads its query set.
// The caller closes the returned closer.
func openStore(cfg *config.Config) (*draft.Store, func() error, error) {
	database, err := db.Open(cfg.DraftDBURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open draft database: %w", err)
	}
	if err := db.MigrateUp(database); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to migrate draft database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return draft.NewStore(queries), database.Close, nil
}

func runDraftsNew(cmd *cobra.Command, args []string) error {
	cfg, c, err := setup()
	if err != nil {
		return err
	}

	ruleID := types.RuleID(args[0])
	tenant := types.TenantID(cfg.TenantID)

	var doc rule.Rule
	if scaffold, _ := cmd.Flags().GetBool("scaffold"); scaffold {
		doc = rule.New(ruleID, tenant)
	} else {
		doc, err = c.GetRule(cmd.Context(), ruleID)
		if errors.Is(err, types.ErrRuleNotFound) {
			doc = rule.New(ruleID, tenant)
			err = nil
		}
		if err != nil {
			return err
		}
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	d, err := store.Create(doc)
	if err != nil {
		return err
	}
	fmt.Printf("draft %s created for rule %s\n", d.ID, d.RuleID)
	return nil
}

func runDraftsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	drafts, err := store.List(types.TenantID(cfg.TenantID))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DRAFT\tRULE\tPUSHED\tUPDATED")
	for _, d := range drafts {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", d.ID, d.RuleID, d.Pushed(), d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runDraftsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	d, err := store.Get(types.DraftID(args[0]))
	if err != nil {
		return err
	}
	return printJSON(d.Rule)
}

func runDraftsSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	d, err := store.Get(types.DraftID(args[0]))
	if err != nil {
		return err
	}
	r := d.Rule

	if cmd.Flags().Changed("category") {
		r.Category, _ = cmd.Flags().GetString("category")
	}
	if cmd.Flags().Changed("priority") {
		r.Priority, _ = cmd.Flags().GetFloat64("priority")
	}
	if cmd.Flags().Changed("severity") {
		r.Severity, _ = cmd.Flags().GetFloat64("severity")
	}
	if cmd.Flags().Changed("cooldown-days") {
		r.CooldownDays, _ = cmd.Flags().GetInt("cooldown-days")
	}
	if cmd.Flags().Changed("max-per-day") {
		r.MaxPerDay, _ = cmd.Flags().GetInt("max-per-day")
	}
	if cmd.Flags().Changed("tags") {
		tagsFlag, _ := cmd.Flags().GetString("tags")
		r.Tags = splitTags(tagsFlag)
	}
	if enabledFlag, _ := cmd.Flags().GetString("enabled"); enabledFlag != "" {
		switch enabledFlag {
		case "true":
			r.Enabled = true
		case "false":
			r.Enabled = false
		default:
			return fmt.Errorf("--enabled must be true or false, got %q", enabledFlag)
		}
	}

	if err := store.Update(d.ID, r); err != nil {
		return err
	}
	fmt.Printf("draft %s updated\n", d.ID)
	return nil
}

func runDraftsLogic(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	d, err := store.Get(types.DraftID(args[0]))
	if err != nil {
		return err
	}
	r := d.Rule

	var path []int
	if len(args) == 3 {
		if path, err = parsePath(args[2]); err != nil {
			return err
		}
	}

	root, ok := r.Logic.Root.(*logic.Group)
	if !ok {
		// CSV-imported rules start with a bare condition root.
		root = &logic.Group{Kind: logic.KindAll, Children: []logic.Node{r.Logic.Root}}
	}

	switch args[1] {
	case "add-condition":
		root, err = logic.EditAt(root, path, func(g *logic.Group) (*logic.Group, error) {
			return logic.AddCondition(g), nil
		})
	case "add-group":
		kindFlag, _ := cmd.Flags().GetString("kind")
		kind := logic.Kind(kindFlag)
		root, err = logic.EditAt(root, path, func(g *logic.Group) (*logic.Group, error) {
			return logic.AddGroup(g, kind)
		})
	case "remove":
		if len(path) == 0 {
			return fmt.Errorf("remove needs a path, the root group cannot be removed")
		}
		parent, last := path[:len(path)-1], path[len(path)-1]
		root, err = logic.EditAt(root, parent, func(g *logic.Group) (*logic.Group, error) {
			return logic.ReplaceAt(g, last, nil)
		})
	default:
		return fmt.Errorf("unknown logic action %q, want add-condition, add-group or remove", args[1])
	}
	if err != nil {
		return err
	}

	r.Logic.Root = root
	if err := store.Update(d.ID, r); err != nil {
		return err
	}
	fmt.Printf("draft %s updated\n", d.ID)
	return nil
}

func runDraftsPush(cmd *cobra.Command, args []string) error {
	cfg, c, err := setup()
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	d, err := store.Get(types.DraftID(args[0]))
	if err != nil {
		return err
	}

	// Create when the rule is new, update when it already exists.
	_, err = c.CreateRule(cmd.Context(), d.Rule)
	if errors.Is(err, types.ErrRuleExists) {
		err = c.UpdateRule(cmd.Context(), d.RuleID, d.Rule)
	}
	if err != nil {
		return err
	}

	if err := store.MarkPushed(d.ID, d.PushedRevision+1); err != nil {
		return err
	}
	fmt.Printf("pushed draft %s to rule %s\n", d.ID, d.RuleID)
	return nil
}

func runDraftsDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.Delete(types.DraftID(args[0])); err != nil {
		return err
	}
	fmt.Printf("draft %s deleted\n", args[0])
	return nil
}

func parsePath(s string) ([]int, error) {
	parts := strings.Split(s, ".")
	path := make([]int, 0, len(parts))
	for _, part := range parts {
		index, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || index < 0 {
			return nil, fmt.Errorf("invalid path component %q", part)
		}
		path = append(path, index)
	}
	return path, nil
}

func splitTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
