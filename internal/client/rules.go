package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ruleforge/ruleforge/internal/rule"
	"github.com/ruleforge/ruleforge/internal/types"
)

// ListFilter narrows ListRules. Nil/empty fields are omitted from the query.
type ListFilter struct {
	TenantID types.TenantID
	Enabled  *bool
	Category string
}

// ListRules returns the rules visible under the filter.
func (c *Client) ListRules(ctx context.Context, filter ListFilter) ([]rule.Rule, error) {
	query := url.Values{}
	tenant := filter.TenantID
	if tenant == "" {
		tenant = types.DefaultTenant
	}
	query.Set("tenantId", string(tenant))
	if filter.Enabled != nil {
		query.Set("enabled", strconv.FormatBool(*filter.Enabled))
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}

	var rules []rule.Rule
	if err := c.doJSON(ctx, http.MethodGet, "/rules", query, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// GetRule fetches one full rule document, logic and messages included.
func (c *Client) GetRule(ctx context.Context, id types.RuleID) (rule.Rule, error) {
	var r rule.Rule
	if err := c.doJSON(ctx, http.MethodGet, "/rules/"+url.PathEscape(string(id)), nil, nil, &r); err != nil {
		return rule.Rule{}, err
	}
	return r, nil
}

// CreateRule stores a new rule. The id must not exist yet; collisions
// surface as types.ErrRuleExists.
func (c *Client) CreateRule(ctx context.Context, r rule.Rule) (types.RuleID, error) {
	body, err := r.EncodeCreate()
	if err != nil {
		return "", fmt.Errorf("encode rule %s: %w", r.ID, err)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/rules", nil, body, &resp); err != nil {
		return "", err
	}
	return types.RuleID(resp.ID), nil
}

// UpdateRule replaces the stored rule's attributes, logic and messages.
func (c *Client) UpdateRule(ctx context.Context, id types.RuleID, r rule.Rule) error {
	body, err := r.EncodeWrite()
	if err != nil {
		return fmt.Errorf("encode rule %s: %w", id, err)
	}
	return c.doJSON(ctx, http.MethodPut, "/rules/"+url.PathEscape(string(id)), nil, body, nil)
}

// EnableRule flips a rule's enabled flag without touching anything else.
func (c *Client) EnableRule(ctx context.Context, id types.RuleID, enabled bool) error {
	body := []byte(fmt.Sprintf(`{"enabled":%t}`, enabled))
	return c.doJSON(ctx, http.MethodPost, "/rules/"+url.PathEscape(string(id))+"/enable", nil, body, nil)
}

// CloneRule copies an existing rule under a new id. The service creates the
// clone disabled so it cannot fire before review.
func (c *Client) CloneRule(ctx context.Context, id, newID types.RuleID) (types.RuleID, error) {
	body, err := jsonBody(map[string]string{"new_id": string(newID)})
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/rules/"+url.PathEscape(string(id))+"/clone", nil, body, &resp); err != nil {
		return "", err
	}
	return types.RuleID(resp.ID), nil
}

// DeleteRule removes one rule and its messages.
func (c *Client) DeleteRule(ctx context.Context, id types.RuleID) error {
	return c.doJSON(ctx, http.MethodDelete, "/rules/"+url.PathEscape(string(id)), nil, nil, nil)
}

// BulkDeleteResult reports what DELETE /rules/all removed.
type BulkDeleteResult struct {
	Deleted         int    `json:"deleted"`
	DeletedMessages int    `json:"deleted_messages"`
	Message         string `json:"message"`
}

// DeleteAllRules removes every rule. There is no undo; callers own the
// confirmation gate, this method only issues the request.
func (c *Client) DeleteAllRules(ctx context.Context) (BulkDeleteResult, error) {
	var resp BulkDeleteResult
	if err := c.doJSON(ctx, http.MethodDelete, "/rules/all", nil, nil, &resp); err != nil {
		return BulkDeleteResult{}, err
	}
	return resp, nil
}

// VariantRequest is the body for adding or patching one message variant.
// Nil fields are omitted so PATCH only touches what the caller set.
type VariantRequest struct {
	Text   *string  `json:"text,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Active *bool    `json:"active,omitempty"`
	Locale *string  `json:"locale,omitempty"`
}

// AddVariant appends a message variant to a rule and returns the identity
// the store assigned.
func (c *Client) AddVariant(ctx context.Context, id types.RuleID, text string, weight float64) (int64, error) {
	body, err := jsonBody(map[string]any{"text": text, "weight": weight})
	if err != nil {
		return 0, err
	}
	var resp struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/rules/"+url.PathEscape(string(id))+"/variants", nil, body, &resp); err != nil {
		return 0, err
	}
	return resp.MessageID, nil
}

// PatchVariant updates fields of one persisted variant.
func (c *Client) PatchVariant(ctx context.Context, id types.RuleID, messageID int64, patch VariantRequest) error {
	body, err := jsonBody(patch)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/rules/%s/variants/%d", url.PathEscape(string(id)), messageID)
	return c.doJSON(ctx, http.MethodPatch, path, nil, body, nil)
}

// DeleteVariant removes one persisted variant. Callers removing a candidate
// locally proceed even when this fails; local state must not get stuck
// behind a remote failure.
func (c *Client) DeleteVariant(ctx context.Context, id types.RuleID, messageID int64) error {
	path := fmt.Sprintf("/rules/%s/variants/%d", url.PathEscape(string(id)), messageID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ExportRules downloads the tenant's rule set in the given format
// ("json" or "yaml") as raw bytes, suitable for writing to a file.
func (c *Client) ExportRules(ctx context.Context, format string, tenant types.TenantID) ([]byte, error) {
	query := url.Values{}
	query.Set("format", format)
	if tenant != "" {
		query.Set("tenantId", string(tenant))
	}
	return c.do(ctx, http.MethodGet, "/rules/export", query, nil, "")
}

// ImportResult reports what an import created and updated.
type ImportResult struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Total   int      `json:"total"`
}

// ImportRules uploads a serialized rule array in the given format. Existing
// ids are updated, new ids created.
func (c *Client) ImportRules(ctx context.Context, data []byte, format string) (ImportResult, error) {
	query := url.Values{}
	query.Set("format", format)
	contentType := "application/json"
	if format == "yaml" {
		contentType = "application/yaml"
	}
	raw, err := c.do(ctx, http.MethodPost, "/rules/import", query, data, contentType)
	if err != nil {
		return ImportResult{}, err
	}
	var resp ImportResult
	if err := jsonDecode(raw, &resp); err != nil {
		return ImportResult{}, err
	}
	return resp, nil
}

// CSVImportResult reports created/updated counts from a CSV import.
type CSVImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ImportCSV posts raw CSV text (message_id, category, template_text rows;
// _v<N> suffixes group into one rule as variants) to the service.
func (c *Client) ImportCSV(ctx context.Context, csvText string) (CSVImportResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/rules/import_csv_reformed", nil, []byte(csvText), "text/csv")
	if err != nil {
		return CSVImportResult{}, err
	}
	var resp CSVImportResult
	if err := jsonDecode(raw, &resp); err != nil {
		return CSVImportResult{}, err
	}
	return resp, nil
}
