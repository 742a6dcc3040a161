// Package logic implements the recursive rule-logic expression tree: its two
// node kinds, the JSON wire codec, free-text value coercion, registry
// validation, and the copy-on-write structural edit protocol used by editors.
//
// A tree is a tagged union of exactly two variants. A Group carries one of
// the keys "all", "any" or "none" mapped to an ordered child list; anything
// else is a Condition leaf comparing one aggregated variable against a value.
// Key presence is the sole discriminator on the wire, and a node asserting
// more than one discriminant is rejected rather than shape-sniffed.
package logic

import (
	"encoding/json"
	"fmt"

	"github.com/ruleforge/ruleforge/internal/types"
)

// Kind is the boolean combinator of a Group node.
type Kind string

const (
	KindAll  Kind = "all"  // every child must hold
	KindAny  Kind = "any"  // at least one child must hold
	KindNone Kind = "none" // no child may hold
)

// kinds in wire order, used for discriminant detection and validation.
var kinds = []Kind{KindAll, KindAny, KindNone}

// Valid reports whether k is one of the three group combinators.
func (k Kind) Valid() bool {
	return k == KindAll || k == KindAny || k == KindNone
}

// EmptyValue is the truth value of a group of this kind with zero children.
// ALL and NONE are vacuously true, ANY is vacuously false. The evaluator's
// fold starts AND chains at true and OR chains at false; this mirrors that.
func (k Kind) EmptyValue() bool {
	return k != KindAny
}

// Aggregator names a function the evaluator applies to a variable's
// historical series before comparison.
type Aggregator string

const (
	AggCurrent     Aggregator = "current"
	AggMean3d      Aggregator = "mean_3d"
	AggMean7d      Aggregator = "mean_7d"
	AggMean14d     Aggregator = "mean_14d"
	AggMedian14d   Aggregator = "median_14d"
	AggDeltaPct    Aggregator = "delta_pct_3v14"
	AggZScore28d   Aggregator = "zscore_28d"
)

// Aggregators lists the supported aggregator set in display order.
var Aggregators = []Aggregator{
	AggCurrent, AggMean3d, AggMean7d, AggMean14d,
	AggMedian14d, AggDeltaPct, AggZScore28d,
}

// Valid reports whether a is a supported aggregator.
func (a Aggregator) Valid() bool {
	for _, known := range Aggregators {
		if a == known {
			return true
		}
	}
	return false
}

// Operator is a comparison applied between an aggregated variable and a value.
type Operator string

const (
	OpLt      Operator = "<"
	OpLte     Operator = "<="
	OpGt      Operator = ">"
	OpGte     Operator = ">="
	OpEq      Operator = "=="
	OpBetween Operator = "between"
	OpIn      Operator = "in"
)

// Operators lists the supported operator set in display order.
var Operators = []Operator{OpLt, OpLte, OpGt, OpGte, OpEq, OpBetween, OpIn}

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	for _, known := range Operators {
		if o == known {
			return true
		}
	}
	return false
}

// Arity describes the value shape an operator expects.
type Arity int

const (
	ArityScalar Arity = iota // one scalar value
	ArityPair                // exactly two values (low, high)
	ArityList                // one or more values
)

// Arity returns the value shape o expects. Unknown operators report scalar;
// Valid() is the place to reject them.
func (o Operator) Arity() Arity {
	switch o {
	case OpBetween:
		return ArityPair
	case OpIn:
		return ArityList
	default:
		return ArityScalar
	}
}

// Node is one vertex of a logic tree: either a *Group or a *Condition.
// The interface is sealed so classification is total: a value satisfying
// Node is exactly one of the two variants, never both, never neither.
type Node interface {
	isNode()
}

// Group combines an ordered child list under one boolean kind. Child order
// is irrelevant to evaluation but significant to editing: positional edits
// must not disturb siblings.
type Group struct {
	Kind     Kind
	Children []Node
}

func (*Group) isNode() {}

// Condition is a leaf predicate: one variable, one aggregator, one operator,
// one coerced value. Value holds float64, string, or []any for list
// operators, matching what the JSON codec produces.
type Condition struct {
	Var      string
	Agg      Aggregator
	Op       Operator
	Value    any
	Required bool
}

func (*Condition) isNode() {}

// NewGroup returns an empty group of the given kind.
func NewGroup(kind Kind) *Group {
	return &Group{Kind: kind, Children: []Node{}}
}

// DefaultCondition is the leaf appended by AddCondition: incomplete (empty
// variable) until the editor fills it in.
func DefaultCondition() *Condition {
	return &Condition{Var: "", Agg: AggCurrent, Op: OpGt, Value: float64(0)}
}

// NewTree returns the tree a freshly drafted rule starts with: {all: []}.
func NewTree() *Group {
	return NewGroup(KindAll)
}

// Classify returns the group discriminant found in a raw JSON object, or ""
// when the object is a condition. It is the single dispatch point for the
// two node kinds; every decode path goes through it.
// Returns ErrAmbiguousNode when more than one discriminant key is present.
func Classify(obj map[string]json.RawMessage) (Kind, error) {
	var found Kind
	for _, k := range kinds {
		if _, ok := obj[string(k)]; ok {
			if found != "" {
				return "", types.ErrAmbiguousNode
			}
			found = k
		}
	}
	return found, nil
}

// Decode parses a JSON logic document into a tree.
func Decode(data []byte) (Node, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("logic node must be an object: %w", err)
	}
	return decodeObject(obj)
}

func decodeObject(obj map[string]json.RawMessage) (Node, error) {
	kind, err := Classify(obj)
	if err != nil {
		return nil, err
	}
	if kind != "" {
		return decodeGroup(kind, obj)
	}
	return decodeCondition(obj)
}

func decodeGroup(kind Kind, obj map[string]json.RawMessage) (*Group, error) {
	var rawChildren []json.RawMessage
	if err := json.Unmarshal(obj[string(kind)], &rawChildren); err != nil {
		return nil, fmt.Errorf("%q children must be a list: %w", kind, err)
	}
	g := NewGroup(kind)
	for i, raw := range rawChildren {
		child, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", kind, i, err)
		}
		g.Children = append(g.Children, child)
	}
	return g, nil
}

// conditionWire is the leaf wire shape: {var, agg, op, value, required?}.
type conditionWire struct {
	Var      string     `json:"var"`
	Agg      Aggregator `json:"agg,omitempty"`
	Op       Operator   `json:"op"`
	Value    any        `json:"value"`
	Required bool       `json:"required,omitempty"`
}

func decodeCondition(obj map[string]json.RawMessage) (*Condition, error) {
	merged, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var w conditionWire
	if err := json.Unmarshal(merged, &w); err != nil {
		return nil, fmt.Errorf("invalid condition: %w", err)
	}
	if w.Agg == "" {
		w.Agg = AggCurrent
	}
	return &Condition{Var: w.Var, Agg: w.Agg, Op: w.Op, Value: w.Value, Required: w.Required}, nil
}

// Encode serializes a tree into its JSON wire form.
func Encode(n Node) ([]byte, error) {
	return json.Marshal(wireNode{n})
}

// wireNode adapts Node for encoding/json. Groups serialize as a single-key
// object; conditions as the flat leaf shape.
type wireNode struct {
	Node Node
}

// MarshalJSON implements json.Marshaler.
func (w wireNode) MarshalJSON() ([]byte, error) {
	switch n := w.Node.(type) {
	case *Group:
		children := make([]wireNode, len(n.Children))
		for i, c := range n.Children {
			children[i] = wireNode{c}
		}
		return json.Marshal(map[string][]wireNode{string(n.Kind): children})
	case *Condition:
		return json.Marshal(conditionWire{
			Var: n.Var, Agg: n.Agg, Op: n.Op, Value: n.Value, Required: n.Required,
		})
	default:
		return nil, fmt.Errorf("unknown node type %T", w.Node)
	}
}

// UnmarshalJSON implements json.Unmarshaler so wireNode can be embedded in
// larger wire structs (rule documents, export files).
func (w *wireNode) UnmarshalJSON(data []byte) error {
	n, err := Decode(data)
	if err != nil {
		return err
	}
	w.Node = n
	return nil
}

// Tree wraps a root node for embedding in rule documents. Its JSON form is
// the logic object itself.
type Tree struct {
	Root Node
}

// MarshalJSON implements json.Marshaler.
func (t Tree) MarshalJSON() ([]byte, error) {
	if t.Root == nil {
		return Encode(NewTree())
	}
	return Encode(t.Root)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tree) UnmarshalJSON(data []byte) error {
	n, err := Decode(data)
	if err != nil {
		return err
	}
	t.Root = n
	return nil
}

// Equal reports deep structural equality: same kinds, same child order,
// same condition fields. Numeric values compare as float64.
func Equal(a, b Node) bool {
	switch an := a.(type) {
	case *Group:
		bn, ok := b.(*Group)
		if !ok || an.Kind != bn.Kind || len(an.Children) != len(bn.Children) {
			return false
		}
		for i := range an.Children {
			if !Equal(an.Children[i], bn.Children[i]) {
				return false
			}
		}
		return true
	case *Condition:
		bn, ok := b.(*Condition)
		if !ok {
			return false
		}
		return an.Var == bn.Var && an.Agg == bn.Agg && an.Op == bn.Op &&
			an.Required == bn.Required && valueEqual(an.Value, bn.Value)
	default:
		return false
	}
}

func valueEqual(a, b any) bool {
	al, aok := a.([]any)
	bl, bok := b.([]any)
	if aok != bok {
		return false
	}
	if aok {
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !scalarEqual(al[i], bl[i]) {
				return false
			}
		}
		return true
	}
	return scalarEqual(a, b)
}

func scalarEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
