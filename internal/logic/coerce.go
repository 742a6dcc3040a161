package logic

import (
	"fmt"
	"strconv"
	"strings"
)

/*
 * Free-text value coercion.
 *
 * The editor hands over raw text; Coerce turns it into the typed value a
 * condition carries, honoring operator arity:
 *
 *   - scalar operators (<, <=, >, >=, ==): one value. Numeric parse first,
 *     raw string fallback (categorical variables compare as text).
 *   - between: exactly two values (low, high).
 *   - in: one or more values.
 *
 * Decimal separators: scalar input accepts both "." and "," and normalizes
 * before parsing. List input splits on "," so list elements use "." decimals.
 * Tokens that fail numeric parse are retained as strings; mixed lists are
 * permitted.
 *
 * Arity violations are soft: the coerced value is still returned so the
 * draft stays editable, with warnings attached for the editor to surface.
 */

// Warning is a soft validation finding: the document remains usable, the
// user is told what to fix before enabling the rule.
type Warning struct {
	Path    string // tree position or field, "" for value-level findings
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

func warnf(path, format string, args ...any) Warning {
	return Warning{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Coerce parses raw editor text into the typed value for op.
// Never fails: violations come back as warnings alongside a best-effort value.
func Coerce(op Operator, raw string) (any, []Warning) {
	var warnings []Warning
	if !op.Valid() {
		warnings = append(warnings, warnf("", "unknown operator %q", op))
	}

	switch op.Arity() {
	case ArityPair, ArityList:
		tokens := splitTokens(raw)
		values := make([]any, len(tokens))
		for i, tok := range tokens {
			values[i] = parseScalar(tok)
		}
		switch {
		case op.Arity() == ArityPair && len(values) != 2:
			warnings = append(warnings, warnf("", "between expects exactly 2 values (low, high), got %d", len(values)))
		case op.Arity() == ArityList && len(values) == 0:
			warnings = append(warnings, warnf("", "in expects at least 1 value"))
		}
		return values, warnings
	default:
		return parseScalar(normalizeDecimal(raw)), warnings
	}
}

// splitTokens splits list input on commas, trimming each token and dropping
// ones that trim to nothing. Arity checks run on what remains.
func splitTokens(raw string) []string {
	var tokens []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// normalizeDecimal maps a comma decimal separator to a period so locales
// that type "1,5" parse the same as "1.5". Only applied to scalar input;
// list input reserves the comma as its delimiter.
func normalizeDecimal(raw string) string {
	return strings.ReplaceAll(raw, ",", ".")
}

// parseScalar attempts a numeric parse and falls back to the trimmed string.
func parseScalar(tok string) any {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return tok
}

// CheckArity verifies an already-typed value against its operator's arity.
// Used when validating decoded documents, where Coerce never ran.
func CheckArity(op Operator, value any) []Warning {
	list, isList := value.([]any)
	switch op.Arity() {
	case ArityScalar:
		if isList {
			return []Warning{warnf("", "%s expects a single value, got a list of %d", op, len(list))}
		}
	case ArityPair:
		if !isList {
			return []Warning{warnf("", "between expects a list of 2 values (low, high)")}
		}
		if len(list) != 2 {
			return []Warning{warnf("", "between expects exactly 2 values (low, high), got %d", len(list))}
		}
	case ArityList:
		if !isList {
			return []Warning{warnf("", "in expects a list of values")}
		}
		if len(list) == 0 {
			return []Warning{warnf("", "in expects at least 1 value")}
		}
	}
	return nil
}
