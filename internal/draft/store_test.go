package draft

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ruleforge/ruleforge/internal/core/db"
	"github.com/ruleforge/ruleforge/internal/logic"
	"github.com/ruleforge/ruleforge/internal/rule"
	"github.com/ruleforge/ruleforge/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "drafts.db")
	database, err := db.Open(dbURL)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.MigrateUp(database); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v", err)
	}
	return NewStore(queries)
}

func TestStore_CreateGet(t *testing.T) {
	store := newTestStore(t)

	doc := rule.New("low_activity", "acme")
	doc.Category = "activity"
	doc.Logic.Root = &logic.Group{Kind: logic.KindAll, Children: []logic.Node{
		&logic.Condition{Var: "steps", Agg: logic.AggMean7d, Op: logic.OpLt, Value: 4000.0},
	}}

	created, err := store.Create(doc)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" || created.Pushed() {
		t.Errorf("created = %#v, want unpushed draft with id", created)
	}

	got, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.RuleID != "low_activity" || got.TenantID != "acme" {
		t.Errorf("Get() = %#v, want rule identity preserved", got)
	}
	if got.Rule.Category != "activity" {
		t.Errorf("Category = %q, want activity", got.Rule.Category)
	}
	if !logic.Equal(got.Rule.Logic.Root, doc.Logic.Root) {
		t.Error("logic tree did not survive the store round trip")
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(types.NewDraftID()); !errors.Is(err, types.ErrDraftNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrDraftNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Create(rule.New("r1", "acme")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(rule.New("r2", "acme")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(rule.New("r3", "other")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	drafts, err := store.List("acme")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(drafts) != 2 {
		t.Errorf("List(acme) = %d drafts, want 2", len(drafts))
	}
	for _, d := range drafts {
		if d.TenantID != "acme" {
			t.Errorf("draft %s tenant = %q, want acme", d.ID, d.TenantID)
		}
	}
}

func TestStore_Update(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(rule.New("r1", "acme"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	edited := created.Rule
	edited.Category = "sleep"
	edited.MaxPerDay = 2
	if err := store.Update(created.ID, edited); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Rule.Category != "sleep" || got.Rule.MaxPerDay != 2 {
		t.Errorf("updated rule = %#v, want category sleep and maxPerDay 2", got.Rule)
	}

	if err := store.Update(types.NewDraftID(), edited); !errors.Is(err, types.ErrDraftNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrDraftNotFound", err)
	}
}

func TestStore_MarkPushed(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(rule.New("r1", "acme"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.MarkPushed(created.ID, 1); err != nil {
		t.Fatalf("MarkPushed() error = %v", err)
	}
	got, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Pushed() || got.PushedRevision != 1 {
		t.Errorf("draft = %#v, want pushed at revision 1", got)
	}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(rule.New("r1", "acme"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.Delete(created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(created.ID); !errors.Is(err, types.ErrDraftNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrDraftNotFound", err)
	}
	if err := store.Delete(created.ID); !errors.Is(err, types.ErrDraftNotFound) {
		t.Errorf("Delete(twice) error = %v, want ErrDraftNotFound", err)
	}
}
