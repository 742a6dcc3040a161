// Package types provides domain models shared across ruleforge components.
//
// Zero-dependency design: types.go and errors.go keep to the standard library
// so the logic and wire packages can depend on them without pulling in the
// storage or CLI stacks. ID utilities in ids.go import uuid but are isolated
// for selective inclusion.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// RuleID identifies a rule within a tenant. Rule IDs are human-chosen slugs
// (e.g. "hydration_low_steps"), immutable after creation and unique per tenant.
type RuleID string

// DraftID represents a UUIDv7 local-draft identifier.
// String alias enables type safety while maintaining JSON string serialization.
type DraftID string

// TenantID scopes rules, simulations and analytics to one tenant.
type TenantID string

// DefaultTenant is used whenever a caller does not name a tenant explicitly.
const DefaultTenant TenantID = "default"

// DefaultLocale is the locale applied to message sets that do not carry one.
const DefaultLocale = "es-ES"

// DateLayout is the wire format for calendar dates across the evaluator API.
const DateLayout = "2006-01-02"

// Date is a calendar day without time-of-day or zone. The evaluator contract
// is day-granular everywhere (simulation, analytics, cooldowns), so carrying
// a full time.Time around invites off-by-one bugs at zone boundaries.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after d. Negative n steps backwards.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// MarshalJSON implements json.Marshaler using the YYYY-MM-DD wire format.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler, accepting YYYY-MM-DD strings.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
