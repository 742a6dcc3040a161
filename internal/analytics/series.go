// Package analytics fetches per-rule daily trigger counts and reshapes them
// into aligned series for charting.
//
// The service does not guarantee that every series covers the same dates, so
// charting off any one series' date list is unsafe. Reconcile re-indexes
// every series onto the sorted union of observed dates with zero fill, which
// is the shape consumers may rely on.
package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/ruleforge/ruleforge/internal/types"
)

// Point is one day's trigger count for one rule.
type Point struct {
	Date  types.Date `json:"date"`
	Count int64      `json:"count"`
}

// Series is one rule's daily counts over the requested range.
type Series struct {
	RuleID types.RuleID `json:"rule_id"`
	Points []Point      `json:"points"`
}

// Triggers is the full response for a range: one series per rule.
type Triggers struct {
	Start  types.Date `json:"start"`
	End    types.Date `json:"end"`
	Series []Series   `json:"series"`
}

// Fetcher is the outbound contract. An empty ruleIDs slice means all rules;
// that policy is the service's, not ours. internal/client implements it
// against GET /analytics/triggers.
type Fetcher interface {
	FetchTriggers(ctx context.Context, start, end types.Date, ruleIDs []types.RuleID) (Triggers, error)
}

// Aggregator requests trigger series and guarantees aligned output.
type Aggregator struct {
	fetcher Fetcher
}

// New creates an Aggregator around a Fetcher.
func New(fetcher Fetcher) *Aggregator {
	return &Aggregator{fetcher: fetcher}
}

// FetchSeries returns the trigger series for the range, reconciled so every
// series shares an identical, sorted date sequence.
func (a *Aggregator) FetchSeries(ctx context.Context, start, end types.Date, ruleIDs []types.RuleID) (Triggers, error) {
	raw, err := a.fetcher.FetchTriggers(ctx, start, end, ruleIDs)
	if err != nil {
		return Triggers{}, fmt.Errorf("fetch trigger series: %w", err)
	}
	return Reconcile(raw), nil
}

// Reconcile re-indexes every series onto the union of all observed dates,
// zero-filling missing points and sorting both dates and series. Duplicate
// dates within one series sum. Series order is by rule id for stable output.
func Reconcile(t Triggers) Triggers {
	dateSet := make(map[types.Date]struct{})
	for _, s := range t.Series {
		for _, p := range s.Points {
			dateSet[p.Date] = struct{}{}
		}
	}
	dates := make([]types.Date, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := Triggers{Start: t.Start, End: t.End, Series: make([]Series, 0, len(t.Series))}
	for _, s := range t.Series {
		counts := make(map[types.Date]int64, len(s.Points))
		for _, p := range s.Points {
			counts[p.Date] += p.Count
		}
		points := make([]Point, len(dates))
		for i, d := range dates {
			points[i] = Point{Date: d, Count: counts[d]}
		}
		out.Series = append(out.Series, Series{RuleID: s.RuleID, Points: points})
	}
	sort.Slice(out.Series, func(i, j int) bool { return out.Series[i].RuleID < out.Series[j].RuleID })
	return out
}

// Dates returns the shared date axis of a reconciled result. Empty when
// there are no series or no points.
func Dates(t Triggers) []types.Date {
	if len(t.Series) == 0 {
		return nil
	}
	dates := make([]types.Date, len(t.Series[0].Points))
	for i, p := range t.Series[0].Points {
		dates[i] = p.Date
	}
	return dates
}
