package resource

import (
	"fmt"
	"slices"
	"strings"
)

// NodeID addresses a schema node inside a Tree.
type NodeID int

// NoParent marks a root node.
const NoParent NodeID = -1

// Node is one schema placed in the tree. Parent links are arena indexes,
// so path qualification never follows pointers back up.
type Node struct {
	ID       NodeID
	Parent   NodeID
	Key      string
	Schema   *Schema
	Children []NodeID
}

// Tree is the rooted arena of every declared schema.
type Tree struct {
	nodes []Node
	roots []NodeID
	paths [][]string
}

// NewTree roots the given schemas. Root names must be unique, sibling names
// must be unique, and a schema may not contain itself.
func NewTree(roots ...*Schema) (*Tree, error) {
	t := &Tree{}
	seen := make(map[string]bool, len(roots))
	for _, s := range roots {
		if s == nil {
			return nil, fmt.Errorf("nil root schema")
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate root %q", ErrInvalidSchema, s.Name)
		}
		seen[s.Name] = true
		id, err := t.add(s, s.Name, NoParent, nil)
		if err != nil {
			return nil, err
		}
		t.roots = append(t.roots, id)
	}
	return t, nil
}

// MustTree is NewTree for static declarations.
func MustTree(roots ...*Schema) *Tree {
	t, err := NewTree(roots...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree) add(s *Schema, key string, parent NodeID, stack []*Schema) (NodeID, error) {
	if s.Name == "" {
		return 0, fmt.Errorf("%w: schema under key %q has no name", ErrInvalidSchema, key)
	}
	if s.EndpointTemplate == "" && s.Endpoint == nil {
		return 0, fmt.Errorf("%w: %s has no endpoint", ErrInvalidSchema, s.Name)
	}
	if slices.Contains(stack, s) {
		return 0, fmt.Errorf("%w: %s contains itself", ErrInvalidSchema, s.Name)
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{ID: id, Parent: parent, Key: key, Schema: s})
	path := []string{s.Name}
	if parent != NoParent {
		path = append(slices.Clone(t.paths[parent]), s.Name)
	}
	t.paths = append(t.paths, path)
	stack = append(stack, s)
	names := make(map[string]bool, len(s.Subresources))
	for _, k := range s.SortedKeys() {
		sub := s.Subresources[k]
		if sub == nil {
			continue
		}
		if names[sub.Name] {
			return 0, fmt.Errorf("%w: %s has two subresources named %q", ErrInvalidSchema, s.Name, sub.Name)
		}
		names[sub.Name] = true
		child, err := t.add(sub, k, id, stack)
		if err != nil {
			return 0, err
		}
		t.nodes[id].Children = append(t.nodes[id].Children, child)
	}
	return id, nil
}

// Node returns the node at id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

func (t *Tree) Schema(id NodeID) *Schema {
	return t.nodes[id].Schema
}

func (t *Tree) Roots() []NodeID {
	return slices.Clone(t.roots)
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root finds a root by name.
func (t *Tree) Root(name string) (NodeID, bool) {
	for _, id := range t.roots {
		if t.nodes[id].Schema.Name == name {
			return id, true
		}
	}
	return 0, false
}

// Path returns the schema names from the root down to id.
func (t *Tree) Path(id NodeID) []string {
	return slices.Clone(t.paths[id])
}

// Depth is the number of ancestors of id.
func (t *Tree) Depth(id NodeID) int {
	return len(t.paths[id]) - 1
}

// Lineage returns the node ids from the root down to id, inclusive.
func (t *Tree) Lineage(id NodeID) []NodeID {
	var out []NodeID
	for cur := id; cur != NoParent; cur = t.nodes[cur].Parent {
		out = append(out, cur)
	}
	slices.Reverse(out)
	return out
}

// FullyQualified joins the path with dots, root first.
func (t *Tree) FullyQualified(id NodeID) string {
	return strings.Join(t.paths[id], ".")
}

// Child finds the direct child of id whose schema is named name.
func (t *Tree) Child(id NodeID, name string) (NodeID, bool) {
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Schema.Name == name {
			return c, true
		}
	}
	return 0, false
}

// Lookup resolves a fully qualified path such as "linodes.configs".
func (t *Tree) Lookup(path ...string) (NodeID, error) {
	if len(path) == 1 && strings.Contains(path[0], ".") {
		path = strings.Split(path[0], ".")
	}
	if len(path) == 0 {
		return 0, ErrUnknownResource
	}
	cur, ok := t.Root(path[0])
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownResource, path[0])
	}
	for _, name := range path[1:] {
		cur, ok = t.Child(cur, name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownResource, strings.Join(path, "."))
		}
	}
	return cur, nil
}

// Walk visits every node depth first, parents before children.
func (t *Tree) Walk(fn func(n *Node) error) error {
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		if err := fn(&t.nodes[id]); err != nil {
			return err
		}
		for _, c := range t.nodes[id].Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range t.roots {
		if err := visit(r); err != nil {
			return err
		}
	}
	return nil
}
