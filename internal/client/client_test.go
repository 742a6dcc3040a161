package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruleforge/ruleforge/internal/rule"
	"github.com/ruleforge/ruleforge/internal/sim"
	"github.com/ruleforge/ruleforge/internal/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "http URL", baseURL: "http://localhost:8000"},
		{name: "https URL", baseURL: "https://rules.example.com"},
		{name: "trailing slash trimmed", baseURL: "http://localhost:8000/"},
		{name: "missing scheme", baseURL: "localhost:8000", wantErr: true},
		{name: "wrong scheme", baseURL: "ftp://localhost", wantErr: true},
		{name: "empty", baseURL: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.baseURL)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, c)
			}
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := New(server.URL)
	require.NoError(t, err)
	return c
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantSentinel error
	}{
		{name: "404 maps to rule not found", status: http.StatusNotFound, wantSentinel: types.ErrRuleNotFound},
		{name: "409 maps to rule exists", status: http.StatusConflict, wantSentinel: types.ErrRuleExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := c.GetRule(context.Background(), "missing")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantSentinel)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.status, reqErr.Status)
			assert.Contains(t, reqErr.Body, "nope")
		})
	}
}

func TestListRules_Query(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rules", r.URL.Path)
		gotQuery = map[string]string{
			"tenantId": r.URL.Query().Get("tenantId"),
			"enabled":  r.URL.Query().Get("enabled"),
			"category": r.URL.Query().Get("category"),
		}
		w.Write([]byte(`[{"id": "r1", "enabled": true}]`))
	})

	enabled := true
	rules, err := c.ListRules(context.Background(), ListFilter{
		TenantID: "acme",
		Enabled:  &enabled,
		Category: "activity",
	})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, types.RuleID("r1"), rules[0].ID)
	assert.Equal(t, map[string]string{"tenantId": "acme", "enabled": "true", "category": "activity"}, gotQuery)
}

func TestCreateRule_Body(t *testing.T) {
	var gotBody map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rules", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.Write([]byte(`{"id": "low_activity"}`))
	})

	id, err := c.CreateRule(context.Background(), rule.New("low_activity", "acme"))
	require.NoError(t, err)
	assert.Equal(t, types.RuleID("low_activity"), id)

	// Create bodies carry the id and the camelCase write contract.
	assert.Contains(t, gotBody, "id")
	assert.Contains(t, gotBody, "tenantId")
	assert.Contains(t, gotBody, "cooldownDays")
	assert.NotContains(t, gotBody, "tenant_id")
}

func TestUpdateRule_OmitsID(t *testing.T) {
	var gotBody map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/rules/low_activity", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.WriteHeader(http.StatusOK)
	})

	err := c.UpdateRule(context.Background(), "low_activity", rule.New("low_activity", "acme"))
	require.NoError(t, err)
	assert.NotContains(t, gotBody, "id")
}

func TestEnableRule(t *testing.T) {
	var gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rules/r1/enable", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.EnableRule(context.Background(), "r1", false))
	assert.JSONEq(t, `{"enabled": false}`, gotBody)
}

func TestSimulateDay_WriteContract(t *testing.T) {
	var gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/simulate", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Write([]byte(`{"count": 1, "events": [{"rule_id": "r1", "message_text": "Sal a caminar", "why": {}}]}`))
	})

	date, err := types.ParseDate("2024-03-15")
	require.NoError(t, err)

	result, err := c.SimulateDay(context.Background(), sim.Request{
		UserID: "u1", Date: date, TenantID: "acme", Debug: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Events, 1)
	assert.Equal(t, types.RuleID("r1"), result.Events[0].RuleID)

	// The simulate body is camelCase.
	assert.JSONEq(t, `{"userId": "u1", "date": "2024-03-15", "tenantId": "acme", "debug": true}`, gotBody)
}

func TestFetchTriggers_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analytics/triggers", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("end"))
		assert.Equal(t, "r1,r2", r.URL.Query().Get("rule_ids"))
		w.Write([]byte(`{"start": "2024-01-01", "end": "2024-01-31", "series": []}`))
	})

	start, _ := types.ParseDate("2024-01-01")
	end, _ := types.ParseDate("2024-01-31")
	triggers, err := c.FetchTriggers(context.Background(), start, end, []types.RuleID{"r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", triggers.Start.String())
}

func TestVariables_WireConversion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/variables", r.URL.Path)
		w.Write([]byte(`[
			{"key": "steps", "type": "number", "unit": "steps",
			 "allowed_aggregators": ["current", "mean_7d"],
			 "valid_range": {"min": 0, "max": 50000}},
			{"key": "activity", "type": "string", "allowed_aggregators": []}
		]`))
	})

	vars, err := c.Variables(context.Background())
	require.NoError(t, err)
	require.Len(t, vars, 2)

	steps := vars[0]
	assert.Equal(t, "steps", steps.Key)
	assert.Len(t, steps.AllowedAggregators, 2)
	require.NotNil(t, steps.ValidMin)
	assert.Equal(t, 0.0, *steps.ValidMin)
	require.NotNil(t, steps.ValidMax)
	assert.Equal(t, 50000.0, *steps.ValidMax)

	assert.Nil(t, vars[1].ValidMin)
	assert.Empty(t, vars[1].AllowedAggregators)
}

func TestImportCSV_ContentType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rules/import_csv_reformed", r.URL.Path)
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"created": 2, "updated": 1}`))
	})

	result, err := c.ImportCSV(context.Background(), "message_id,category,template_text\n")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)
}

func TestTransportError(t *testing.T) {
	c, err := New("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.GetRule(context.Background(), "r1")
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 0, reqErr.Status)
}

func TestDeleteVariant_Path(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.DeleteVariant(context.Background(), "r1", 42))
	assert.Equal(t, "/rules/r1/variants/42", gotPath)
}

func TestDecodeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := c.GetRule(context.Background(), "r1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrRuleNotFound))
}
