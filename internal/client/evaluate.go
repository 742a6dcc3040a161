package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ruleforge/ruleforge/internal/analytics"
	"github.com/ruleforge/ruleforge/internal/logic"
	"github.com/ruleforge/ruleforge/internal/sim"
	"github.com/ruleforge/ruleforge/internal/types"
)

// SimulateDay implements sim.Evaluator against POST /simulate.
// The request body is camelCase per the write contract; the response does
// not echo the date, the orchestrator tags results itself.
func (c *Client) SimulateDay(ctx context.Context, req sim.Request) (sim.DayResult, error) {
	body, err := jsonBody(struct {
		UserID   string `json:"userId"`
		Date     string `json:"date"`
		TenantID string `json:"tenantId"`
		Debug    bool   `json:"debug"`
	}{
		UserID:   req.UserID,
		Date:     req.Date.String(),
		TenantID: string(req.TenantID),
		Debug:    req.Debug,
	})
	if err != nil {
		return sim.DayResult{}, err
	}

	var resp struct {
		Count  int              `json:"count"`
		Events []sim.FiredEvent `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/simulate", nil, body, &resp); err != nil {
		return sim.DayResult{}, err
	}
	return sim.DayResult{Count: resp.Count, Events: resp.Events}, nil
}

// Features returns the variable -> aggregator -> value map the evaluator
// computed for a user on a date. Debug aid; values are opaque.
func (c *Client) Features(ctx context.Context, userID string, date types.Date) (map[string]map[string]any, error) {
	query := url.Values{}
	query.Set("user_id", userID)
	query.Set("date", date.String())
	var features map[string]map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/features", query, nil, &features); err != nil {
		return nil, err
	}
	return features, nil
}

// FetchTriggers implements analytics.Fetcher against GET /analytics/triggers.
// An empty ruleIDs slice omits the filter, meaning all rules.
func (c *Client) FetchTriggers(ctx context.Context, start, end types.Date, ruleIDs []types.RuleID) (analytics.Triggers, error) {
	query := url.Values{}
	query.Set("start", start.String())
	query.Set("end", end.String())
	if len(ruleIDs) > 0 {
		ids := make([]string, len(ruleIDs))
		for i, id := range ruleIDs {
			ids[i] = string(id)
		}
		query.Set("rule_ids", strings.Join(ids, ","))
	}

	var resp analytics.Triggers
	if err := c.doJSON(ctx, http.MethodGet, "/analytics/triggers", query, nil, &resp); err != nil {
		return analytics.Triggers{}, err
	}
	return resp, nil
}

// ChangeLogEntry is one audited mutation of a rule or variable.
// Before/After are opaque document snapshots.
type ChangeLogEntry struct {
	ID        int64           `json:"id"`
	CreatedAt string          `json:"created_at"`
	User      string          `json:"user,omitempty"`
	Role      string          `json:"role,omitempty"`
	Action    string          `json:"action"`
	Before    json.RawMessage `json:"before"`
	After     json.RawMessage `json:"after"`
}

// LogFilter narrows Logs. Zero fields are omitted from the query.
type LogFilter struct {
	Start  types.Date
	End    types.Date
	RuleID types.RuleID
	User   string
	Action string
	Limit  int
}

// Logs fetches change-log entries matching the filter.
func (c *Client) Logs(ctx context.Context, filter LogFilter) ([]ChangeLogEntry, error) {
	query := url.Values{}
	if !filter.Start.IsZero() {
		query.Set("start", filter.Start.String())
	}
	if !filter.End.IsZero() {
		query.Set("end", filter.End.String())
	}
	if filter.RuleID != "" {
		query.Set("rule_id", string(filter.RuleID))
	}
	if filter.User != "" {
		query.Set("user", filter.User)
	}
	if filter.Action != "" {
		query.Set("action", filter.Action)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var entries []ChangeLogEntry
	if err := c.doJSON(ctx, http.MethodGet, "/analytics/logs", query, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// variableWire is the registry entry shape GET /variables returns.
type variableWire struct {
	Key                string   `json:"key"`
	Label              string   `json:"label,omitempty"`
	Unit               string   `json:"unit,omitempty"`
	Type               string   `json:"type"`
	AllowedAggregators []string `json:"allowed_aggregators"`
	ValidRange         *struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"valid_range,omitempty"`
}

// Variables fetches the variable registry condition validation runs against.
func (c *Client) Variables(ctx context.Context) ([]logic.Variable, error) {
	var wire []variableWire
	if err := c.doJSON(ctx, http.MethodGet, "/variables", nil, nil, &wire); err != nil {
		return nil, err
	}
	vars := make([]logic.Variable, len(wire))
	for i, w := range wire {
		v := logic.Variable{Key: w.Key, Type: w.Type, Unit: w.Unit}
		for _, agg := range w.AllowedAggregators {
			v.AllowedAggregators = append(v.AllowedAggregators, logic.Aggregator(agg))
		}
		if w.ValidRange != nil {
			v.ValidMin = w.ValidRange.Min
			v.ValidMax = w.ValidRange.Max
		}
		vars[i] = v
	}
	return vars, nil
}

// UpsertVariable creates or replaces one registry entry.
func (c *Client) UpsertVariable(ctx context.Context, v logic.Variable) error {
	wire := variableWire{Key: v.Key, Unit: v.Unit, Type: v.Type}
	for _, agg := range v.AllowedAggregators {
		wire.AllowedAggregators = append(wire.AllowedAggregators, string(agg))
	}
	if v.ValidMin != nil || v.ValidMax != nil {
		wire.ValidRange = &struct {
			Min *float64 `json:"min"`
			Max *float64 `json:"max"`
		}{Min: v.ValidMin, Max: v.ValidMax}
	}
	body, err := jsonBody(wire)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, "/variables", nil, body, nil)
}

func jsonBody(v any) ([]byte, error) {
	return json.Marshal(v)
}

func jsonDecode(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
