// Package rule defines the Rule aggregate: identity, scheduling attributes,
// one logic tree and one message-candidate set, together with the asymmetric
// wire codec the evaluator service uses.
//
// The service reads and writes different casings: GET responses use
// snake_case field names while POST/PUT bodies expect camelCase. Rather than
// preserving the asymmetry at every call site, Rule normalizes it once:
// UnmarshalJSON accepts both spellings, EncodeWrite emits exactly the
// camelCase write contract.
package rule

import (
	"encoding/json"
	"fmt"

	"github.com/ruleforge/ruleforge/internal/logic"
	"github.com/ruleforge/ruleforge/internal/messages"
	"github.com/ruleforge/ruleforge/internal/types"
)

// Rule pairs a boolean logic tree with weighted candidate messages under a
// tenant-scoped identity, plus the scheduling attributes the evaluator
// interprets. Priority and severity are opaque to this side; cooldown and
// the per-day cap are validated for shape only (0 = unlimited for MaxPerDay).
type Rule struct {
	ID           types.RuleID
	TenantID     types.TenantID
	Version      int
	Enabled      bool
	Category     string
	Priority     float64
	Severity     float64
	CooldownDays int
	MaxPerDay    int
	Tags         []string
	Logic        logic.Tree
	Messages     messages.Set
	CreatedAt    string
	UpdatedAt    string
}

// New returns the scaffold a freshly drafted rule starts from: enabled,
// mid priority, minimal severity, empty ALL group, one placeholder message.
func New(id types.RuleID, tenant types.TenantID) Rule {
	if tenant == "" {
		tenant = types.DefaultTenant
	}
	return Rule{
		ID:        id,
		TenantID:  tenant,
		Enabled:   true,
		Priority:  50,
		Severity:  1,
		Tags:      []string{},
		Logic:     logic.Tree{Root: logic.NewTree()},
		Messages:  messages.NewSet(""),
	}
}

// readWire tolerates both casings the service has been observed to emit.
// Pointer fields distinguish absent from zero so either alias can win.
type readWire struct {
	ID           string          `json:"id"`
	Version      int             `json:"version"`
	Enabled      bool            `json:"enabled"`
	TenantSnake  *string         `json:"tenant_id"`
	TenantCamel  *string         `json:"tenantId"`
	Category     string          `json:"category"`
	Priority     float64         `json:"priority"`
	Severity     float64         `json:"severity"`
	CooldownSnk  *int            `json:"cooldown_days"`
	CooldownCml  *int            `json:"cooldownDays"`
	MaxPerDaySnk *int            `json:"max_per_day"`
	MaxPerDayCml *int            `json:"maxPerDay"`
	Tags         []string        `json:"tags"`
	Logic        json.RawMessage `json:"logic"`
	Messages     *messages.Set   `json:"messages"`
	Locale       string          `json:"locale"`
	CreatedAtSnk string          `json:"created_at"`
	CreatedAtCml string          `json:"createdAt"`
	UpdatedAtSnk string          `json:"updated_at"`
	UpdatedAtCml string          `json:"updatedAt"`
}

// UnmarshalJSON implements json.Unmarshaler for the read contract.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var w readWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return fmt.Errorf("rule document has no id")
	}

	out := Rule{
		ID:        types.RuleID(w.ID),
		TenantID:  types.DefaultTenant,
		Version:   w.Version,
		Enabled:   w.Enabled,
		Category:  w.Category,
		Priority:  w.Priority,
		Severity:  w.Severity,
		Tags:      w.Tags,
		CreatedAt: firstNonEmpty(w.CreatedAtSnk, w.CreatedAtCml),
		UpdatedAt: firstNonEmpty(w.UpdatedAtSnk, w.UpdatedAtCml),
	}
	if t := firstSet(w.TenantSnake, w.TenantCamel); t != nil && *t != "" {
		out.TenantID = types.TenantID(*t)
	}
	if c := firstSet(w.CooldownSnk, w.CooldownCml); c != nil {
		out.CooldownDays = *c
	}
	if m := firstSet(w.MaxPerDaySnk, w.MaxPerDayCml); m != nil {
		out.MaxPerDay = *m
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}

	if len(w.Logic) > 0 {
		if err := json.Unmarshal(w.Logic, &out.Logic); err != nil {
			return fmt.Errorf("rule %s: %w", w.ID, err)
		}
	} else {
		out.Logic = logic.Tree{Root: logic.NewTree()}
	}

	if w.Messages != nil {
		out.Messages = w.Messages.Normalize()
	} else {
		out.Messages = messages.NewSet(w.Locale)
	}

	*r = out
	return nil
}

// writeWire is the exact camelCase body POST /rules and PUT /rules/{id}
// expect. ID is present only on create; updates carry it in the path.
type writeWire struct {
	ID           string       `json:"id,omitempty"`
	Enabled      bool         `json:"enabled"`
	TenantID     string       `json:"tenantId"`
	Category     string       `json:"category"`
	Priority     float64      `json:"priority"`
	Severity     float64      `json:"severity"`
	CooldownDays int          `json:"cooldownDays"`
	MaxPerDay    int          `json:"maxPerDay"`
	Tags         []string     `json:"tags"`
	Logic        logic.Tree   `json:"logic"`
	Messages     messages.Set `json:"messages"`
}

// EncodeWrite serializes r as an update body (no id).
func (r Rule) EncodeWrite() ([]byte, error) {
	return json.Marshal(r.writeWire(false))
}

// EncodeCreate serializes r as a create body (id included).
func (r Rule) EncodeCreate() ([]byte, error) {
	return json.Marshal(r.writeWire(true))
}

func (r Rule) writeWire(withID bool) writeWire {
	w := writeWire{
		Enabled:      r.Enabled,
		TenantID:     string(r.TenantID),
		Category:     r.Category,
		Priority:     r.Priority,
		Severity:     r.Severity,
		CooldownDays: r.CooldownDays,
		MaxPerDay:    r.MaxPerDay,
		Tags:         r.Tags,
		Logic:        r.Logic,
		Messages:     r.Messages.Normalize(),
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if withID {
		w.ID = string(r.ID)
	}
	return w
}

// MarshalJSON implements json.Marshaler using the create shape, which is the
// self-contained document form used by export files and the draft store.
func (r Rule) MarshalJSON() ([]byte, error) {
	return r.EncodeCreate()
}

// Validate collects soft findings: shape problems a draft may carry but an
// enabled rule should not. Registry may be nil (skips variable checks).
func (r Rule) Validate(registry logic.Registry) []logic.Warning {
	var warnings []logic.Warning
	if r.ID == "" {
		warnings = append(warnings, logic.Warning{Path: "id", Message: "rule id is empty"})
	}
	if r.CooldownDays < 0 {
		warnings = append(warnings, logic.Warning{Path: "cooldownDays", Message: "cooldown must be non-negative"})
	}
	if r.MaxPerDay < 0 {
		warnings = append(warnings, logic.Warning{Path: "maxPerDay", Message: "max per day must be non-negative (0 = unlimited)"})
	}
	if len(r.Messages.Candidates) == 0 {
		warnings = append(warnings, logic.Warning{Path: "messages", Message: "message set is empty"})
	}
	if r.Logic.Root != nil {
		warnings = append(warnings, logic.Validate(r.Logic.Root, registry)...)
	}
	return warnings
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstSet[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
