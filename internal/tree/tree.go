package tree

import (
	"slices"

	"github.com/CageChen/codehub/internal/pathutil"
)

// FindByPath returns the first node whose path equals path, searching depth
// first in insertion order.
func FindByPath(t Tree, path string) (*Node, bool) {
	for _, n := range t {
		if n.Path == path {
			return n, true
		}
		if n.Children != nil {
			if found, ok := FindByPath(n.Children, path); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// Exists reports whether any node owns path.
func Exists(t Tree, path string) bool {
	_, ok := FindByPath(t, path)
	return ok
}

// UpdateByPath replaces the node at path with updater(node). The updater gets
// a copy whose Children slice has no spare capacity, so appending to it never
// writes into the shared snapshot; assigning to existing elements does and is
// not allowed. A missing path returns t unchanged.
func UpdateByPath(t Tree, path string, updater func(Node) Node) Tree {
	out, _ := update(t, path, updater)
	return out
}

func update(nodes []*Node, path string, fn func(Node) Node) ([]*Node, bool) {
	for i, n := range nodes {
		if n.Path == path {
			c := *n
			c.Children = slices.Clip(c.Children)
			replaced := fn(c)
			out := slices.Clone(nodes)
			out[i] = &replaced
			return out, true
		}
		if n.Children == nil {
			continue
		}
		if kids, ok := update(n.Children, path, fn); ok {
			c := n.clone()
			c.Children = kids
			out := slices.Clone(nodes)
			out[i] = c
			return out, true
		}
	}
	return nodes, false
}

// RemoveByPath drops the node at path together with its subtree. Siblings
// keep their identity. A missing path returns t unchanged.
func RemoveByPath(t Tree, path string) Tree {
	out, _ := remove(t, path)
	return out
}

func remove(nodes []*Node, path string) ([]*Node, bool) {
	for i, n := range nodes {
		if n.Path == path {
			out := make([]*Node, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			return append(out, nodes[i+1:]...), true
		}
		if n.Children == nil {
			continue
		}
		if kids, ok := remove(n.Children, path); ok {
			c := n.clone()
			c.Children = kids
			out := slices.Clone(nodes)
			out[i] = c
			return out, true
		}
	}
	return nodes, false
}

// Insert appends node to the children of parentPath ("" or "/" for the root)
// and expands the parent. A missing or non-folder parent returns t unchanged.
func Insert(t Tree, parentPath string, node *Node) Tree {
	if parentPath == "" || parentPath == pathutil.Root {
		out := make(Tree, 0, len(t)+1)
		out = append(out, t...)
		return append(out, node)
	}
	return UpdateByPath(t, parentPath, func(parent Node) Node {
		if parent.Kind != KindFolder {
			return parent
		}
		parent.Children = append(parent.Children, node)
		parent.Expanded = true
		return parent
	})
}

// Rename gives the node at path a new name and rewrites its path, and the
// paths of all its descendants, accordingly.
func Rename(t Tree, path, newName string) Tree {
	return UpdateByPath(t, path, func(n Node) Node {
		newPath := pathutil.Join(n.ParentPath, newName)
		moved := relocate(&n, newPath, n.ParentPath)
		moved.Name = newName
		if moved.Kind == KindFile {
			moved.Extension = pathutil.Extension(newName)
		}
		return *moved
	})
}

func relocate(n *Node, newPath, parentPath string) *Node {
	c := n.clone()
	c.Path = newPath
	c.ParentPath = parentPath
	c.ID = NodeID(newPath, c.Kind)
	if c.Children != nil {
		kids := make([]*Node, len(n.Children))
		for i, child := range n.Children {
			kids[i] = relocate(child, pathutil.Join(newPath, child.Name), newPath)
		}
		c.Children = kids
	}
	return c
}

// ToggleExpanded flips the expanded flag of the folder at path.
func ToggleExpanded(t Tree, path string) Tree {
	return UpdateByPath(t, path, func(n Node) Node {
		if n.Kind == KindFolder {
			n.Expanded = !n.Expanded
		}
		return n
	})
}

// Children returns the direct children of parentPath in insertion order.
// The root ("" or "/") always exists; other parents must be folders.
func Children(t Tree, parentPath string) ([]*Node, bool) {
	if parentPath == "" || parentPath == pathutil.Root {
		return t, true
	}
	parent, ok := FindByPath(t, parentPath)
	if !ok || parent.Kind != KindFolder {
		return nil, false
	}
	return parent.Children, true
}

// Walk visits every node depth first. Returning false from fn skips the
// node's subtree.
func Walk(t Tree, fn func(*Node) bool) {
	for _, n := range t {
		if fn(n) && n.Children != nil {
			Walk(n.Children, fn)
		}
	}
}

// Count returns the number of nodes in t.
func Count(t Tree) int {
	count := 0
	Walk(t, func(*Node) bool {
		count++
		return true
	})
	return count
}

// Flatten returns every node keyed by path.
func Flatten(t Tree) map[string]*Node {
	result := make(map[string]*Node)
	Walk(t, func(n *Node) bool {
		result[n.Path] = n
		return true
	})
	return result
}
