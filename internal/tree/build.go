package tree

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/CageChen/codehub/internal/pathutil"
)

// Entry is a flat description of one stored object, as produced by a store
// listing.
type Entry struct {
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Build assembles a snapshot from a flat listing. Entries are attached in
// path order; folders that are only implied by a nested path are created.
// Expanded flags are copied from prev for folders that still exist.
func Build(entries []Entry, prev Tree) Tree {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	expanded := make(map[string]bool)
	Walk(prev, func(n *Node) bool {
		if n.Expanded {
			expanded[n.Path] = true
		}
		return true
	})

	// Built bottom-up over mutable scratch nodes; nothing is published until
	// the loop is done.
	byPath := make(map[string]*Node)
	var roots Tree
	var attach func(p string, kind Kind, size int64, mod time.Time) *Node
	attach = func(p string, kind Kind, size int64, mod time.Time) *Node {
		if n, ok := byPath[p]; ok {
			return n
		}
		parent := pathutil.Parent(p)
		n := NewNode(pathutil.Base(p), kind, parent, mod)
		n.Size = size
		n.Expanded = kind == KindFolder && expanded[p]
		byPath[p] = n
		if parent == "" {
			roots = append(roots, n)
			return n
		}
		pn := attach(parent, KindFolder, 0, mod)
		if pn.Kind != KindFolder {
			// A file shadows the folder implied by this path; skip the entry.
			delete(byPath, p)
			return n
		}
		pn.Children = append(pn.Children, n)
		return n
	}

	for _, e := range sorted {
		p := pathutil.Clean(e.Path)
		if p == pathutil.Root {
			continue
		}
		kind := KindFile
		if e.IsDir {
			kind = KindFolder
		}
		attach(p, kind, e.Size, e.ModTime)
	}
	return roots
}

// Check verifies the structural invariants of t: unique paths, unique
// (name, kind) among siblings, parent links that match the containing folder,
// and children present exactly on folders.
func Check(t Tree) error {
	seen := make(map[string]bool)
	return check(t, "", seen)
}

func check(nodes []*Node, parentPath string, seen map[string]bool) error {
	siblings := make(map[string]bool)
	for _, n := range nodes {
		if seen[n.Path] {
			return fmt.Errorf("duplicate path %s", n.Path)
		}
		seen[n.Path] = true
		key := string(n.Kind) + "\x00" + n.Name
		if siblings[key] {
			return fmt.Errorf("duplicate %s %q in %q", n.Kind, n.Name, parentPath)
		}
		siblings[key] = true
		if n.ParentPath != parentPath {
			return fmt.Errorf("%s: parent path %q, want %q", n.Path, n.ParentPath, parentPath)
		}
		if n.Path != pathutil.Join(parentPath, n.Name) {
			return fmt.Errorf("%s: path does not match name %q", n.Path, n.Name)
		}
		if strings.Contains(n.Name, "/") {
			return fmt.Errorf("%s: name contains a separator", n.Path)
		}
		switch n.Kind {
		case KindFolder:
			if n.Children == nil {
				return fmt.Errorf("%s: folder without children slice", n.Path)
			}
			if err := check(n.Children, n.Path, seen); err != nil {
				return err
			}
		case KindFile:
			if n.Children != nil {
				return fmt.Errorf("%s: file with children", n.Path)
			}
		default:
			return fmt.Errorf("%s: unknown kind %q", n.Path, n.Kind)
		}
	}
	return nil
}
