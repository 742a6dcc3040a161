package logic

import (
	"fmt"
	"strings"
)

// Variable is one entry of the evaluator's variable registry, reduced to
// what validation needs. The client converts the wire shape to this.
type Variable struct {
	Key                string
	Type               string // "number" or "string"
	Unit               string
	AllowedAggregators []Aggregator // empty means any aggregator is fine
	ValidMin           *float64
	ValidMax           *float64
}

// Registry indexes variables by key for condition validation.
type Registry map[string]Variable

// NewRegistry builds a Registry from a variable list.
func NewRegistry(vars []Variable) Registry {
	r := make(Registry, len(vars))
	for _, v := range vars {
		r[v.Key] = v
	}
	return r
}

// Allows reports whether agg may be applied to the variable. An empty
// allowed list imposes no restriction.
func (v Variable) Allows(agg Aggregator) bool {
	if len(v.AllowedAggregators) == 0 {
		return true
	}
	for _, a := range v.AllowedAggregators {
		if a == agg {
			return true
		}
	}
	return false
}

// Validate walks the tree and collects soft findings: incomplete or unknown
// variables, disallowed aggregators, unknown operators, arity mismatches.
// A nil registry skips variable existence checks (registry unreachable is
// not a reason to block editing).
func Validate(root Node, registry Registry) []Warning {
	var warnings []Warning
	Walk(root, func(path []int, n Node) {
		cond, ok := n.(*Condition)
		if !ok {
			return
		}
		at := pathString(path)
		if cond.Var == "" {
			warnings = append(warnings, warnf(at, "condition is incomplete: no variable selected"))
		} else if registry != nil {
			v, known := registry[cond.Var]
			if !known {
				warnings = append(warnings, warnf(at, "variable %q is not in the registry", cond.Var))
			} else if !v.Allows(cond.Agg) {
				warnings = append(warnings, warnf(at, "aggregator %q is not allowed for variable %q", cond.Agg, cond.Var))
			}
		}
		if !cond.Agg.Valid() {
			warnings = append(warnings, warnf(at, "unknown aggregator %q", cond.Agg))
		}
		if !cond.Op.Valid() {
			warnings = append(warnings, warnf(at, "unknown operator %q", cond.Op))
		}
		for _, w := range CheckArity(cond.Op, cond.Value) {
			warnings = append(warnings, warnf(at, "%s", w.Message))
		}
	})
	return warnings
}

func pathString(path []int) string {
	if len(path) == 0 {
		return "root"
	}
	parts := make([]string, len(path))
	for i, idx := range path {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return "root[" + strings.Join(parts, "][") + "]"
}
