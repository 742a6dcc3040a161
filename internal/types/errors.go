package types

import "errors"

// Sentinel errors for ruleforge operations.
var (
	// ErrNotGroup indicates a structural edit targeted a Condition node.
	ErrNotGroup = errors.New("node is not a group")

	// ErrIndexOutOfRange indicates a child index outside a group's children.
	ErrIndexOutOfRange = errors.New("child index out of range")

	// ErrAmbiguousNode indicates a node carrying more than one group
	// discriminant key, or a discriminant mixed with condition fields.
	ErrAmbiguousNode = errors.New("node has ambiguous kind")

	// ErrUnknownKind indicates a group combinator outside all, any, none.
	ErrUnknownKind = errors.New("unknown group kind")

	// ErrUnknownOperator indicates an operator outside the supported set.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrUnknownAggregator indicates an aggregator outside the supported set.
	ErrUnknownAggregator = errors.New("unknown aggregator")

	// ErrUnknownVariable indicates a variable absent from the registry.
	ErrUnknownVariable = errors.New("variable not in registry")

	// ErrArityMismatch indicates a value whose shape does not fit its operator.
	ErrArityMismatch = errors.New("value arity does not match operator")

	// ErrEmptyValue indicates a list operator received no tokens at all.
	ErrEmptyValue = errors.New("empty value for list operator")

	// ErrRuleNotFound indicates the evaluator service has no such rule.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrRuleExists indicates a create or clone collided with an existing id.
	ErrRuleExists = errors.New("rule id already exists")

	// ErrDraftNotFound indicates the local store has no such draft.
	ErrDraftNotFound = errors.New("draft not found")
)
