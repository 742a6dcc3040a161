// Package transfer serializes rule sets for export files and parses the
// import formats the service accepts: JSON and YAML rule arrays, plus the
// 3-column CSV message sheet.
//
// YAML documents round-trip through the JSON codec so the snake_case
// tolerance and defaulting of the rule wire codec apply to both formats.
package transfer

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ruleforge/ruleforge/internal/rule"
)

// FormatJSON and FormatYAML name the structured export/import formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormat reports whether format names a structured codec.
func ValidFormat(format string) bool {
	return format == FormatJSON || format == FormatYAML
}

// Encode serializes rules as an array in the given format.
func Encode(rules []rule.Rule, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(rules, "", "  ")
	case FormatYAML:
		jsonBytes, err := json.Marshal(rules)
		if err != nil {
			return nil, err
		}
		var generic []any
		if err := json.Unmarshal(jsonBytes, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Decode parses a rule array in the given format. Every document must carry
// an id; field defaults follow the rule codec.
func Decode(data []byte, format string) ([]rule.Rule, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		var generic []any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		jsonBytes, err := json.Marshal(generic)
		if err != nil {
			return nil, err
		}
		return decodeJSON(jsonBytes)
	default:
		return nil, fmt.Errorf("unsupported import format %q", format)
	}
}

func decodeJSON(data []byte) ([]rule.Rule, error) {
	var rules []rule.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rule array: %w", err)
	}
	return rules, nil
}
