package logic

import (
	"fmt"

	"github.com/ruleforge/ruleforge/internal/types"
)

// Structural edit protocol.
//
// Every edit produces a new tree value; no in-place mutation of shared
// subtrees. A single tree instance may be referenced by an undo buffer or a
// pending save, so edits clone the path they touch and share the rest.
// Sibling order is positional: deleting child i must not disturb j != i.

// AddCondition returns a copy of g with a default condition appended.
func AddCondition(g *Group) *Group {
	return appendChild(g, DefaultCondition())
}

// AddGroup returns a copy of g with an empty group of the given kind appended.
func AddGroup(g *Group, kind Kind) (*Group, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}
	return appendChild(g, NewGroup(kind)), nil
}

func appendChild(g *Group, child Node) *Group {
	children := make([]Node, len(g.Children)+1)
	copy(children, g.Children)
	children[len(g.Children)] = child
	return &Group{Kind: g.Kind, Children: children}
}

// ReplaceAt returns a copy of g with the child at index replaced by newNode.
// A nil newNode deletes the child, splicing remaining children so their
// relative order is preserved.
func ReplaceAt(g *Group, index int, newNode Node) (*Group, error) {
	if index < 0 || index >= len(g.Children) {
		return nil, fmt.Errorf("%w: %d of %d", types.ErrIndexOutOfRange, index, len(g.Children))
	}
	if newNode == nil {
		children := make([]Node, 0, len(g.Children)-1)
		children = append(children, g.Children[:index]...)
		children = append(children, g.Children[index+1:]...)
		return &Group{Kind: g.Kind, Children: children}, nil
	}
	children := make([]Node, len(g.Children))
	copy(children, g.Children)
	children[index] = newNode
	return &Group{Kind: g.Kind, Children: children}, nil
}

// EditAt applies fn to the group at path, rebuilding the ancestry so the
// result shares untouched siblings with g. An empty path edits g itself.
// Fails with ErrNotGroup when the path lands on a condition.
func EditAt(g *Group, path []int, fn func(*Group) (*Group, error)) (*Group, error) {
	if len(path) == 0 {
		return fn(g)
	}
	index := path[0]
	if index < 0 || index >= len(g.Children) {
		return nil, fmt.Errorf("%w: %d of %d", types.ErrIndexOutOfRange, index, len(g.Children))
	}
	child, ok := g.Children[index].(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: child %d is a condition", types.ErrNotGroup, index)
	}
	edited, err := EditAt(child, path[1:], fn)
	if err != nil {
		return nil, err
	}
	return ReplaceAt(g, index, edited)
}

// Clone returns a deep copy of n. Used when a caller needs a private tree
// (e.g. an undo snapshot) rather than the structural sharing edits produce.
func Clone(n Node) Node {
	switch node := n.(type) {
	case *Group:
		children := make([]Node, len(node.Children))
		for i, c := range node.Children {
			children[i] = Clone(c)
		}
		return &Group{Kind: node.Kind, Children: children}
	case *Condition:
		c := *node
		if list, ok := node.Value.([]any); ok {
			copied := make([]any, len(list))
			copy(copied, list)
			c.Value = copied
		}
		return &c
	default:
		return nil
	}
}

// Walk visits n and every descendant in depth-first order, conditions after
// their enclosing groups. The visitor receives each node's path as indexes
// from the root.
func Walk(n Node, visit func(path []int, n Node)) {
	walk(n, nil, visit)
}

func walk(n Node, path []int, visit func(path []int, n Node)) {
	visit(path, n)
	if g, ok := n.(*Group); ok {
		for i, c := range g.Children {
			walk(c, append(path[:len(path):len(path)], i), visit)
		}
	}
}
