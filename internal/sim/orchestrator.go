// Package sim drives dry-run rule evaluation against the external evaluator:
// one request for a single day, or an inclusive date range expanded into one
// request per calendar day.
//
// The range path is deliberately sequential: one request in flight at a
// time, trading latency for not overwhelming the downstream evaluator. It is
// fail-fast: the first per-day failure stops enumeration, and the per-day
// results already collected are returned alongside the error so callers can
// chart completed days or discard them for all-or-nothing semantics.
// Cancellation is honored at each per-day step boundary.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ruleforge/ruleforge/internal/types"
)

// Request asks the evaluator to simulate one user on one date. Simulation
// has no side effects beyond the evaluator's own logging.
type Request struct {
	UserID   string
	Date     types.Date
	TenantID types.TenantID
	Debug    bool
}

// FiredEvent records that a rule's logic evaluated true and which message
// was chosen. Why is the evaluator's machine-readable explanation trace,
// kept opaque here.
type FiredEvent struct {
	RuleID      types.RuleID    `json:"rule_id"`
	RuleName    string          `json:"rule_name,omitempty"`
	MessageText string          `json:"message_text"`
	Why         json.RawMessage `json:"why"`
}

// DayResult is one day's outcome. The per-day response does not echo its
// date, so the orchestrator tags each entry with the date it requested.
type DayResult struct {
	Date   types.Date   `json:"date"`
	Count  int          `json:"count"`
	Events []FiredEvent `json:"events"`
}

// Evaluator is the outbound contract: one day in, one result out.
// internal/client implements it against POST /simulate.
type Evaluator interface {
	SimulateDay(ctx context.Context, req Request) (DayResult, error)
}

// Orchestrator sequences simulation calls and assembles a uniform result
// shape for single days and ranges alike.
type Orchestrator struct {
	evaluator Evaluator
	logger    *slog.Logger
	onDay     func(date types.Date, index, total int)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithProgress registers a callback invoked after each completed day of a
// range run. Used by the CLI to drive a progress bar.
func WithProgress(fn func(date types.Date, index, total int)) Option {
	return func(o *Orchestrator) { o.onDay = fn }
}

// New creates an Orchestrator around an Evaluator.
func New(evaluator Evaluator, opts ...Option) *Orchestrator {
	o := &Orchestrator{evaluator: evaluator, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Single simulates one user on one date.
func (o *Orchestrator) Single(ctx context.Context, req Request) (DayResult, error) {
	if req.TenantID == "" {
		req.TenantID = types.DefaultTenant
	}
	result, err := o.evaluator.SimulateDay(ctx, req)
	if err != nil {
		return DayResult{}, fmt.Errorf("simulate %s on %s: %w", req.UserID, req.Date, err)
	}
	result.Date = req.Date
	return result, nil
}

// Days enumerates the inclusive calendar days from start through end,
// stepping by exactly one day. start > end yields an empty slice: a
// degenerate but valid range, not an error.
func Days(start, end types.Date) []types.Date {
	var days []types.Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Range simulates one user across every day of [start, end], strictly
// sequentially and in date order. On a per-day failure the slice of days
// already completed is returned together with the error.
func (o *Orchestrator) Range(ctx context.Context, userID string, tenant types.TenantID, start, end types.Date, debug bool) ([]DayResult, error) {
	if tenant == "" {
		tenant = types.DefaultTenant
	}
	days := Days(start, end)
	results := make([]DayResult, 0, len(days))

	for i, day := range days {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("range simulation cancelled at %s: %w", day, err)
		}
		result, err := o.evaluator.SimulateDay(ctx, Request{
			UserID:   userID,
			Date:     day,
			TenantID: tenant,
			Debug:    debug,
		})
		if err != nil {
			o.logger.Error("range simulation aborted",
				"user_id", userID, "date", day.String(), "completed_days", len(results), "error", err)
			return results, fmt.Errorf("simulate %s on %s: %w", userID, day, err)
		}
		result.Date = day
		results = append(results, result)
		if o.onDay != nil {
			o.onDay(day, i, len(days))
		}
	}
	return results, nil
}

// TotalFirings sums event counts across a range result.
func TotalFirings(results []DayResult) int {
	total := 0
	for _, r := range results {
		total += r.Count
	}
	return total
}
