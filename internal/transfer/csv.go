package transfer

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/ruleforge/ruleforge/internal/logic"
	"github.com/ruleforge/ruleforge/internal/messages"
	"github.com/ruleforge/ruleforge/internal/rule"
	"github.com/ruleforge/ruleforge/internal/types"
)

// CSV message sheets have a header row and three columns:
// message_id, category, template_text. Rows whose message_id shares a base
// name with suffix _v<N> collapse into one rule carrying N message variants,
// variant order following input order.

// variantSuffix strips the _v<N> version suffix off a message id.
var variantSuffix = regexp.MustCompile(`_v\d+$`)

// BaseID returns the rule id a message id groups under.
func BaseID(messageID string) string {
	return variantSuffix.ReplaceAllString(messageID, "")
}

// ParseCSV converts a message sheet into rule documents. Rules preserve
// first-seen row order; malformed rows (short, empty id or text) are
// skipped. Imported rules get the default scaffold the service applies:
// enabled, priority 50, severity 1, no cooldown, unlimited per day, and a
// minimal always-true-ish step condition the editor replaces.
func ParseCSV(csvText string) ([]rule.Rule, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1 // ragged rows are skipped, not fatal

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no rows")
	}

	type group struct {
		category string
		variants []string
	}
	var order []string
	groups := make(map[string]*group)

	for _, record := range records[1:] { // skip header
		if len(record) < 3 {
			continue
		}
		messageID := strings.TrimSpace(record[0])
		category := strings.TrimSpace(record[1])
		text := strings.TrimSpace(record[2])
		if messageID == "" || text == "" {
			continue
		}

		base := BaseID(messageID)
		g, ok := groups[base]
		if !ok {
			g = &group{category: category}
			groups[base] = g
			order = append(order, base)
		}
		g.variants = append(g.variants, text)
	}

	rules := make([]rule.Rule, 0, len(order))
	for _, base := range order {
		g := groups[base]
		r := rule.New(types.RuleID(base), types.DefaultTenant)
		r.Category = g.category
		r.Logic = logic.Tree{Root: defaultCSVCondition()}

		set := messages.Set{Locale: types.DefaultLocale}
		for _, text := range g.variants {
			set = set.Add(text, messages.DefaultWeight)
		}
		r.Messages = set
		rules = append(rules, r)
	}
	return rules, nil
}

// defaultCSVCondition is the placeholder logic an imported message sheet
// gets; sheets carry text only, the condition comes later in the editor.
func defaultCSVCondition() logic.Node {
	return &logic.Condition{
		Var:   "steps",
		Agg:   logic.AggCurrent,
		Op:    logic.OpGt,
		Value: float64(0),
	}
}
