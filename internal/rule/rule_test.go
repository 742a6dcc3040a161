package rule

import (
	"encoding/json"
	"testing"

	"github.com/ruleforge/ruleforge/internal/logic"
	"github.com/ruleforge/ruleforge/internal/types"
)

func TestNew(t *testing.T) {
	r := New("low_activity", "")

	if r.ID != "low_activity" || r.TenantID != types.DefaultTenant {
		t.Errorf("identity = %s/%s, want low_activity/default", r.ID, r.TenantID)
	}
	if !r.Enabled || r.Priority != 50 || r.Severity != 1 {
		t.Errorf("scaffold attributes = %#v, want enabled, priority 50, severity 1", r)
	}
	root, ok := r.Logic.Root.(*logic.Group)
	if !ok || root.Kind != logic.KindAll || len(root.Children) != 0 {
		t.Errorf("Logic.Root = %#v, want empty all group", r.Logic.Root)
	}
	if len(r.Messages.Candidates) != 1 {
		t.Errorf("Messages = %#v, want one placeholder", r.Messages.Candidates)
	}
}

func TestUnmarshalJSON_SnakeCase(t *testing.T) {
	data := `{
		"id": "low_activity",
		"tenant_id": "acme",
		"version": 3,
		"enabled": true,
		"category": "activity",
		"priority": 70,
		"severity": 2,
		"cooldown_days": 3,
		"max_per_day": 1,
		"tags": ["steps"],
		"logic": {"all": [{"var": "steps", "agg": "mean_7d", "op": "<", "value": 4000}]},
		"messages": {"locale": "es-ES", "candidates": [{"id": 9, "text": "Muevete", "weight": 1}]},
		"created_at": "2025-03-01T10:00:00Z"
	}`

	var r Rule
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}

	if r.TenantID != "acme" || r.Version != 3 || r.CooldownDays != 3 || r.MaxPerDay != 1 {
		t.Errorf("decoded = %#v, want snake_case fields applied", r)
	}
	if r.CreatedAt != "2025-03-01T10:00:00Z" {
		t.Errorf("CreatedAt = %q, want the snake_case timestamp", r.CreatedAt)
	}
	root := r.Logic.Root.(*logic.Group)
	if root.Kind != logic.KindAll || len(root.Children) != 1 {
		t.Errorf("Logic.Root = %#v, want all group with one condition", root)
	}
	// Absent "active" on a candidate means active.
	if !r.Messages.Candidates[0].Active {
		t.Error("candidate without active field should decode as active")
	}
}

func TestUnmarshalJSON_CamelCase(t *testing.T) {
	data := `{
		"id": "low_activity",
		"tenantId": "acme",
		"enabled": false,
		"cooldownDays": 7,
		"maxPerDay": 2,
		"createdAt": "2025-03-01T10:00:00Z"
	}`

	var r Rule
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}
	if r.TenantID != "acme" || r.CooldownDays != 7 || r.MaxPerDay != 2 {
		t.Errorf("decoded = %#v, want camelCase aliases applied", r)
	}
	if r.CreatedAt != "2025-03-01T10:00:00Z" {
		t.Errorf("CreatedAt = %q, want the camelCase timestamp", r.CreatedAt)
	}
}

func TestUnmarshalJSON_Defaults(t *testing.T) {
	var r Rule
	if err := json.Unmarshal([]byte(`{"id": "bare"}`), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}

	if r.TenantID != types.DefaultTenant {
		t.Errorf("TenantID = %q, want default", r.TenantID)
	}
	root, ok := r.Logic.Root.(*logic.Group)
	if !ok || root.Kind != logic.KindAll {
		t.Errorf("Logic.Root = %#v, want empty all group", r.Logic.Root)
	}
	if len(r.Messages.Candidates) != 1 {
		t.Errorf("Messages = %#v, want one placeholder", r.Messages.Candidates)
	}
	if r.Tags == nil {
		t.Error("Tags should decode to an empty slice, not nil")
	}
}

func TestUnmarshalJSON_MissingID(t *testing.T) {
	var r Rule
	if err := json.Unmarshal([]byte(`{"enabled": true}`), &r); err == nil {
		t.Error("Unmarshal() error = nil, want error for missing id")
	}
}

func TestEncodeWrite_Contract(t *testing.T) {
	r := New("low_activity", "acme")
	r.Category = "activity"
	r.CooldownDays = 3

	data, err := r.EncodeWrite()
	if err != nil {
		t.Fatalf("EncodeWrite() error = %v, want nil", err)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("body is not an object: %v", err)
	}

	// Update bodies are camelCase and carry no id.
	if _, ok := body["id"]; ok {
		t.Error("update body must not carry an id")
	}
	for _, key := range []string{"enabled", "tenantId", "category", "priority", "severity", "cooldownDays", "maxPerDay", "tags", "logic", "messages"} {
		if _, ok := body[key]; !ok {
			t.Errorf("update body missing %q", key)
		}
	}
	for _, key := range []string{"tenant_id", "cooldown_days", "max_per_day"} {
		if _, ok := body[key]; ok {
			t.Errorf("update body must not carry snake_case key %q", key)
		}
	}
}

func TestEncodeCreate_RoundTrip(t *testing.T) {
	r := New("low_activity", "acme")
	r.Category = "activity"
	r.Tags = []string{"steps", "seniors"}
	r.Logic.Root = &logic.Group{Kind: logic.KindAll, Children: []logic.Node{
		&logic.Condition{Var: "steps", Agg: logic.AggMean7d, Op: logic.OpLt, Value: 4000.0},
	}}

	data, err := r.EncodeCreate()
	if err != nil {
		t.Fatalf("EncodeCreate() error = %v, want nil", err)
	}

	var decoded Rule
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}
	if decoded.ID != r.ID || decoded.TenantID != r.TenantID || decoded.Category != r.Category {
		t.Errorf("decoded = %#v, want identity and category preserved", decoded)
	}
	if !logic.Equal(decoded.Logic.Root, r.Logic.Root) {
		t.Errorf("logic round trip mismatch: %#v", decoded.Logic.Root)
	}
}

func TestValidate(t *testing.T) {
	r := New("r1", "")
	r.CooldownDays = -1
	r.Logic.Root = &logic.Group{Kind: logic.KindAll, Children: []logic.Node{
		logic.DefaultCondition(),
	}}

	warnings := r.Validate(nil)
	if len(warnings) != 2 {
		t.Fatalf("Validate() = %v, want cooldown and incomplete-condition findings", warnings)
	}
}
