package transfer

import (
	"encoding/json"
	"testing"

	"github.com/ruleforge/ruleforge/internal/logic"
	"github.com/ruleforge/ruleforge/internal/rule"
)

func sampleRules() []rule.Rule {
	r1 := rule.New("low_activity", "acme")
	r1.Category = "activity"
	r1.Tags = []string{"steps"}
	r1.Logic.Root = &logic.Group{Kind: logic.KindAll, Children: []logic.Node{
		&logic.Condition{Var: "steps", Agg: logic.AggMean7d, Op: logic.OpLt, Value: 4000.0},
	}}
	r1.Messages = r1.Messages.Update(0, "Sal a caminar", 1)

	r2 := rule.New("poor_sleep", "acme")
	r2.Category = "sleep"
	r2.Enabled = false
	return []rule.Rule{r1, r2}
}

func TestEncodeDecode_JSON(t *testing.T) {
	rules := sampleRules()

	data, err := Encode(rules, FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error = %v, want nil", err)
	}

	decoded, err := Decode(data, FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	assertRulesMatch(t, rules, decoded)
}

func TestEncodeDecode_YAML(t *testing.T) {
	rules := sampleRules()

	data, err := Encode(rules, FormatYAML)
	if err != nil {
		t.Fatalf("Encode() error = %v, want nil", err)
	}

	decoded, err := Decode(data, FormatYAML)
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	assertRulesMatch(t, rules, decoded)
}

func assertRulesMatch(t *testing.T, want, got []rule.Rule) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("decoded %d rules, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].TenantID != want[i].TenantID ||
			got[i].Category != want[i].Category || got[i].Enabled != want[i].Enabled {
			t.Errorf("rule %d = %#v, want %#v", i, got[i], want[i])
		}
		if !logic.Equal(got[i].Logic.Root, want[i].Logic.Root) {
			t.Errorf("rule %d logic mismatch", i)
		}
		if len(got[i].Messages.Candidates) != len(want[i].Messages.Candidates) {
			t.Errorf("rule %d has %d candidates, want %d",
				i, len(got[i].Messages.Candidates), len(want[i].Messages.Candidates))
		}
	}
}

func TestDecode_ExportMatchesWriteContract(t *testing.T) {
	data, err := Encode(sampleRules(), FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error = %v, want nil", err)
	}

	var docs []map[string]json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		t.Fatalf("export is not a JSON array: %v", err)
	}
	for _, key := range []string{"id", "enabled", "tenantId", "logic", "messages"} {
		if _, ok := docs[0][key]; !ok {
			t.Errorf("export document missing %q", key)
		}
	}
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	if _, err := Decode([]byte("{}"), "xml"); err == nil {
		t.Error("Decode(xml) error = nil, want error")
	}
	if _, err := Encode(nil, "xml"); err == nil {
		t.Error("Encode(xml) error = nil, want error")
	}
}

func TestValidFormat(t *testing.T) {
	for format, want := range map[string]bool{"json": true, "yaml": true, "csv": false, "": false} {
		if got := ValidFormat(format); got != want {
			t.Errorf("ValidFormat(%q) = %t, want %t", format, got, want)
		}
	}
}
