// Package draft implements the local draft store. Edits accumulate in a
// local database and are pushed to the rules service explicitly, so a
// half-finished rule never reaches evaluation.
package draft

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ruleforge/ruleforge/internal/core/db"
	"github.com/ruleforge/ruleforge/internal/rule"
	"github.com/ruleforge/ruleforge/internal/types"
)

// Draft is a locally stored rule document awaiting a push.
type Draft struct {
	ID             types.DraftID
	RuleID         types.RuleID
	TenantID       types.TenantID
	Rule           rule.Rule
	PushedRevision int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Pushed reports whether the draft has been pushed at least once.
func (d Draft) Pushed() bool {
	return d.PushedRevision > 0
}

// Store persists drafts through named queries.
type Store struct {
	queries *db.Queries
}

// NewStore wraps a loaded query set.
func NewStore(queries *db.Queries) *Store {
	return &Store{queries: queries}
}

// draftRow is the database representation. Timestamps are RFC3339 text so
// sqlite and postgres scan identically.
type draftRow struct {
	DraftID        string `db:"draft_id"`
	RuleID         string `db:"rule_id"`
	TenantID       string `db:"tenant_id"`
	Document       string `db:"document"`
	PushedRevision int    `db:"pushed_revision"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

func (r draftRow) toDraft() (Draft, error) {
	var doc rule.Rule
	if err := json.Unmarshal([]byte(r.Document), &doc); err != nil {
		return Draft{}, fmt.Errorf("failed to decode draft %s: %w", r.DraftID, err)
	}

	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return Draft{}, fmt.Errorf("invalid created_at for draft %s: %w", r.DraftID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339, r.UpdatedAt)
	if err != nil {
		return Draft{}, fmt.Errorf("invalid updated_at for draft %s: %w", r.DraftID, err)
	}

	return Draft{
		ID:             types.DraftID(r.DraftID),
		RuleID:         types.RuleID(r.RuleID),
		TenantID:       types.TenantID(r.TenantID),
		Rule:           doc,
		PushedRevision: r.PushedRevision,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Create stores a new draft for the given rule document and returns it.
func (s *Store) Create(r rule.Rule) (Draft, error) {
	doc, err := r.EncodeCreate()
	if err != nil {
		return Draft{}, fmt.Errorf("failed to encode rule document: %w", err)
	}

	id := types.NewDraftID()
	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339)

	_, err = s.queries.Exec("insert-draft",
		string(id), string(r.ID), string(r.TenantID), string(doc), 0, stamp, stamp)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to insert draft: %w", err)
	}

	return Draft{
		ID:        id,
		RuleID:    r.ID,
		TenantID:  r.TenantID,
		Rule:      r,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get retrieves a draft by id.
func (s *Store) Get(id types.DraftID) (Draft, error) {
	var row draftRow
	if err := s.queries.Get("get-draft", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{}, fmt.Errorf("draft %s: %w", id, types.ErrDraftNotFound)
		}
		return Draft{}, fmt.Errorf("failed to get draft: %w", err)
	}
	return row.toDraft()
}

// List returns all drafts for a tenant, most recently updated first.
func (s *Store) List(tenant types.TenantID) ([]Draft, error) {
	var rows []draftRow
	if err := s.queries.Select("list-drafts", &rows, string(tenant)); err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	drafts := make([]Draft, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDraft()
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// Update replaces the stored rule document of an existing draft.
func (s *Store) Update(id types.DraftID, r rule.Rule) error {
	doc, err := r.EncodeCreate()
	if err != nil {
		return fmt.Errorf("failed to encode rule document: %w", err)
	}

	stamp := time.Now().UTC().Format(time.RFC3339)
	res, err := s.queries.Exec("update-draft",
		string(r.ID), string(r.TenantID), string(doc), stamp, string(id))
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	return requireRow(res, id)
}

// MarkPushed records that the draft's current document reached the service.
func (s *Store) MarkPushed(id types.DraftID, revision int) error {
	stamp := time.Now().UTC().Format(time.RFC3339)
	res, err := s.queries.Exec("mark-draft-pushed", revision, stamp, string(id))
	if err != nil {
		return fmt.Errorf("failed to mark draft pushed: %w", err)
	}
	return requireRow(res, id)
}

// Delete removes a draft.
func (s *Store) Delete(id types.DraftID) error {
	res, err := s.queries.Exec("delete-draft", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id types.DraftID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("draft %s: %w", id, types.ErrDraftNotFound)
	}
	return nil
}
