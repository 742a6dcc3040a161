// Package messages implements the weighted message-candidate set a rule
// carries: the ordered text variants the evaluator chooses between when the
// rule fires, plus the locale tag.
//
// Invariant: a set is never left empty. Removing the last candidate
// substitutes the default placeholder instead of yielding an empty set; the
// evaluator always has something to say when a rule fires.
package messages

import (
	"encoding/json"

	"github.com/ruleforge/ruleforge/internal/types"
)

// PlaceholderText is the candidate text substituted when a set would
// otherwise become empty, and the default for new sets.
const PlaceholderText = "Mensaje"

// DefaultWeight is applied when a candidate's weight is missing or invalid.
const DefaultWeight = 1.0

// Candidate is one weighted text variant. ID is assigned by the external
// store on creation and is nil until then.
type Candidate struct {
	ID     *int64  `json:"id,omitempty"`
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
	Active bool    `json:"active"`
}

// UnmarshalJSON implements json.Unmarshaler. An absent "active" field means
// active; only an explicit false deactivates a candidate.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	type plain Candidate
	aux := struct {
		*plain
		Active *bool `json:"active"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Active = aux.Active == nil || *aux.Active
	return nil
}

// Set is an ordered candidate collection with a locale tag.
type Set struct {
	Locale     string      `json:"locale"`
	Candidates []Candidate `json:"candidates"`
}

// NewSet returns a set with one placeholder candidate in the given locale.
// An empty locale falls back to the default.
func NewSet(locale string) Set {
	if locale == "" {
		locale = types.DefaultLocale
	}
	return Set{
		Locale:     locale,
		Candidates: []Candidate{placeholder()},
	}
}

func placeholder() Candidate {
	return Candidate{Text: PlaceholderText, Weight: DefaultWeight, Active: true}
}

// NormalizeWeight coerces w to a positive weight, defaulting invalid input.
func NormalizeWeight(w float64) float64 {
	if w <= 0 {
		return DefaultWeight
	}
	return w
}

// Add returns a copy of s with a new active candidate appended. Sibling
// identities are untouched; the new element has no ID until the external
// store assigns one via WithID.
func (s Set) Add(text string, weight float64) Set {
	out := s.clone()
	out.Candidates = append(out.Candidates, Candidate{
		Text:   text,
		Weight: NormalizeWeight(weight),
		Active: true,
	})
	return out
}

// WithID returns a copy of s with the remote identity attached to the
// candidate at index. Out-of-range indexes return s unchanged.
func (s Set) WithID(index int, id int64) Set {
	if index < 0 || index >= len(s.Candidates) {
		return s
	}
	out := s.clone()
	out.Candidates[index].ID = &id
	return out
}

// Update returns a copy of s with the candidate at index replaced by a
// variant carrying the new text and weight. Identity and active flag are
// preserved. Out-of-range indexes return s unchanged.
func (s Set) Update(index int, text string, weight float64) Set {
	if index < 0 || index >= len(s.Candidates) {
		return s
	}
	out := s.clone()
	out.Candidates[index].Text = text
	out.Candidates[index].Weight = NormalizeWeight(weight)
	return out
}

// Remove returns a copy of s without the candidate at index, plus the
// removed candidate (so callers can request remote deletion when it has an
// ID). Removing the last candidate yields a one-element set holding the
// placeholder rather than an empty set.
func (s Set) Remove(index int) (Set, *Candidate) {
	if index < 0 || index >= len(s.Candidates) {
		return s, nil
	}
	removed := s.Candidates[index]
	out := s.clone()
	out.Candidates = append(out.Candidates[:index], out.Candidates[index+1:]...)
	if len(out.Candidates) == 0 {
		out.Candidates = []Candidate{placeholder()}
	}
	return out, &removed
}

// Active returns the candidates the evaluator may choose from.
func (s Set) Active() []Candidate {
	var active []Candidate
	for _, c := range s.Candidates {
		if c.Active {
			active = append(active, c)
		}
	}
	return active
}

// Normalize fills defaults on a decoded set: empty locale, non-positive
// weights, and the minimum-one invariant for sets that arrived empty.
func (s Set) Normalize() Set {
	out := s.clone()
	if out.Locale == "" {
		out.Locale = types.DefaultLocale
	}
	for i := range out.Candidates {
		out.Candidates[i].Weight = NormalizeWeight(out.Candidates[i].Weight)
	}
	if len(out.Candidates) == 0 {
		out.Candidates = []Candidate{placeholder()}
	}
	return out
}

func (s Set) clone() Set {
	candidates := make([]Candidate, len(s.Candidates))
	copy(candidates, s.Candidates)
	return Set{Locale: s.Locale, Candidates: candidates}
}
