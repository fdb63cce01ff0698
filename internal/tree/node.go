// Package tree implements the workspace file/folder hierarchy as immutable
// snapshots. Every mutation returns a new Tree and shares untouched subtrees
// with the previous one, so a published snapshot is never modified.
package tree

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/CageChen/codehub/internal/pathutil"
)

// Kind distinguishes files from folders.
type Kind string

// Node kinds.
const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Node is a single entry of the tree. Nodes reachable from a Tree must be
// treated as read-only; use the package functions to derive new snapshots.
type Node struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Kind           Kind      `json:"kind"`
	Path           string    `json:"path"`
	ParentPath     string    `json:"parentPath,omitempty"`
	Extension      string    `json:"extension,omitempty"`
	Children       []*Node   `json:"children,omitempty"`
	Expanded       bool      `json:"expanded,omitempty"`
	Size           int64     `json:"size"`
	LastModifiedAt time.Time `json:"lastModifiedAt"`
}

// IsFolder reports whether n is a folder.
func (n *Node) IsFolder() bool { return n.Kind == KindFolder }

// Tree is one snapshot of the workspace: the ordered root-level nodes.
type Tree []*Node

// NodeID derives the stable identifier of a node from its path and kind.
func NodeID(path string, kind Kind) string {
	enc := base64.StdEncoding.EncodeToString([]byte(path))
	enc = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, enc)
	return enc + "_" + string(kind)
}

// NewNode builds a detached node named name under parentPath
// ("" or "/" for the root).
func NewNode(name string, kind Kind, parentPath string, modTime time.Time) *Node {
	if parentPath == pathutil.Root {
		parentPath = ""
	}
	p := pathutil.Join(parentPath, name)
	n := &Node{
		ID:             NodeID(p, kind),
		Name:           name,
		Kind:           kind,
		Path:           p,
		ParentPath:     parentPath,
		LastModifiedAt: modTime,
	}
	if kind == KindFolder {
		n.Children = []*Node{}
	} else {
		n.Extension = pathutil.Extension(name)
	}
	return n
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}
