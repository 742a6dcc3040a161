package logic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/ruleforge/ruleforge/internal/types"
)

func conditionNamed(name string) *Condition {
	return &Condition{Var: name, Agg: AggCurrent, Op: OpGt, Value: 0.0}
}

func groupOf(names ...string) *Group {
	g := NewGroup(KindAll)
	for _, name := range names {
		g.Children = append(g.Children, conditionNamed(name))
	}
	return g
}

func childNames(g *Group) []string {
	names := make([]string, len(g.Children))
	for i, c := range g.Children {
		names[i] = c.(*Condition).Var
	}
	return names
}

func TestAddCondition(t *testing.T) {
	original := groupOf("a", "b")
	edited := AddCondition(original)

	if len(edited.Children) != 3 {
		t.Fatalf("edited has %d children, want 3", len(edited.Children))
	}
	appended, ok := edited.Children[2].(*Condition)
	if !ok || appended.Var != "" || appended.Op != OpGt {
		t.Errorf("appended child = %#v, want default condition", edited.Children[2])
	}
	if len(original.Children) != 2 {
		t.Errorf("original mutated: has %d children, want 2", len(original.Children))
	}
}

func TestAddGroup(t *testing.T) {
	original := groupOf("a")

	edited, err := AddGroup(original, KindNone)
	if err != nil {
		t.Fatalf("AddGroup() error = %v, want nil", err)
	}
	added, ok := edited.Children[1].(*Group)
	if !ok || added.Kind != KindNone || len(added.Children) != 0 {
		t.Errorf("appended child = %#v, want empty none group", edited.Children[1])
	}

	if _, err := AddGroup(original, Kind("some")); !errors.Is(err, types.ErrUnknownKind) {
		t.Errorf("AddGroup(some) error = %v, want ErrUnknownKind", err)
	}
}

func TestReplaceAt(t *testing.T) {
	t.Run("replace keeps siblings", func(t *testing.T) {
		g := groupOf("a", "b", "c")
		edited, err := ReplaceAt(g, 1, conditionNamed("B"))
		if err != nil {
			t.Fatalf("ReplaceAt() error = %v, want nil", err)
		}
		got := childNames(edited)
		want := []string{"a", "B", "c"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("children = %v, want %v", got, want)
			}
		}
	})

	t.Run("nil deletes and splices", func(t *testing.T) {
		g := groupOf("a", "b", "c", "d")
		edited, err := ReplaceAt(g, 1, nil)
		if err != nil {
			t.Fatalf("ReplaceAt() error = %v, want nil", err)
		}
		got := childNames(edited)
		want := []string{"a", "c", "d"}
		if len(got) != len(want) {
			t.Fatalf("children = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("children = %v, want %v", got, want)
			}
		}
		if len(g.Children) != 4 {
			t.Errorf("original mutated: has %d children, want 4", len(g.Children))
		}
	})

	t.Run("out of range", func(t *testing.T) {
		g := groupOf("a")
		for _, index := range []int{-1, 1, 5} {
			if _, err := ReplaceAt(g, index, nil); !errors.Is(err, types.ErrIndexOutOfRange) {
				t.Errorf("ReplaceAt(%d) error = %v, want ErrIndexOutOfRange", index, err)
			}
		}
	})
}

func TestEditAt(t *testing.T) {
	root := &Group{Kind: KindAll, Children: []Node{
		conditionNamed("a"),
		&Group{Kind: KindAny, Children: []Node{conditionNamed("b")}},
	}}

	edited, err := EditAt(root, []int{1}, func(g *Group) (*Group, error) {
		return AddCondition(g), nil
	})
	if err != nil {
		t.Fatalf("EditAt() error = %v, want nil", err)
	}

	inner := edited.Children[1].(*Group)
	if len(inner.Children) != 2 {
		t.Errorf("inner group has %d children, want 2", len(inner.Children))
	}
	if len(root.Children[1].(*Group).Children) != 1 {
		t.Error("original inner group mutated")
	}
	// Untouched siblings are shared, not copied.
	if edited.Children[0] != root.Children[0] {
		t.Error("untouched sibling was copied")
	}

	if _, err := EditAt(root, []int{0}, func(g *Group) (*Group, error) { return g, nil }); !errors.Is(err, types.ErrNotGroup) {
		t.Errorf("EditAt() on condition error = %v, want ErrNotGroup", err)
	}
	if _, err := EditAt(root, []int{7}, func(g *Group) (*Group, error) { return g, nil }); !errors.Is(err, types.ErrIndexOutOfRange) {
		t.Errorf("EditAt() out of range error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestWalk_Paths(t *testing.T) {
	root := &Group{Kind: KindAll, Children: []Node{
		conditionNamed("a"),
		&Group{Kind: KindAny, Children: []Node{conditionNamed("b")}},
	}}

	var visited []string
	Walk(root, func(path []int, n Node) {
		visited = append(visited, fmt.Sprintf("%v:%T", path, n))
	})

	want := []string{
		"[]:*logic.Group",
		"[0]:*logic.Condition",
		"[1]:*logic.Group",
		"[1 0]:*logic.Condition",
	}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visit %d = %s, want %s", i, visited[i], want[i])
		}
	}
}

// Property: deleting any child preserves the relative order of the rest.
func TestReplaceAt_PropertyDeletePreservesOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("delete preserves sibling order", prop.ForAll(
		func(size int, index int) bool {
			if size == 0 {
				return true
			}
			index = index % size

			names := make([]string, size)
			for i := range names {
				names[i] = fmt.Sprintf("v%d", i)
			}
			g := groupOf(names...)

			edited, err := ReplaceAt(g, index, nil)
			if err != nil {
				return false
			}
			got := childNames(edited)
			want := append(append([]string{}, names[:index]...), names[index+1:]...)
			if len(got) != len(want) {
				return false
			}
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 29),
	))

	properties.TestingRun(t)
}

// Property: an edited tree still encodes and classifies cleanly.
func TestEdit_PropertyEncodableAfterEdits(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("edits keep the tree encodable", prop.ForAll(
		func(adds int, groups int) bool {
			root := NewTree()
			for i := 0; i < adds; i++ {
				root = AddCondition(root)
			}
			for i := 0; i < groups; i++ {
				var err error
				root, err = AddGroup(root, kinds[i%len(kinds)])
				if err != nil {
					return false
				}
			}

			data, err := Encode(root)
			if err != nil {
				return false
			}
			decoded, err := Decode(data)
			if err != nil {
				return false
			}
			return Equal(root, decoded)
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}
