// Package conflict decides whether a proposed name collides with existing
// siblings and derives "keep both" names.
package conflict

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/tree"
)

// ErrNameConflict is matched by every *Error.
var ErrNameConflict = errors.New("name conflict")

// Error reports that a sibling with the same name and kind already exists.
type Error struct {
	Name string
	Kind tree.Kind
	// Existing is the sibling that blocks the name.
	Existing *tree.Node
}

func (e *Error) Error() string {
	label := "File"
	if e.Kind == tree.KindFolder {
		label = "Folder"
	}
	return fmt.Sprintf("%s already exists: %s", label, e.Name)
}

// Is makes errors.Is(err, ErrNameConflict) work.
func (e *Error) Is(target error) bool { return target == ErrNameConflict }

// Check returns a *Error when a sibling has both the same name and the same
// kind. A file and a folder may share a name.
func Check(name string, kind tree.Kind, siblings []*tree.Node) error {
	if existing := find(name, kind, siblings); existing != nil {
		return &Error{Name: name, Kind: kind, Existing: existing}
	}
	return nil
}

// Dedupe returns name unchanged when it is free, otherwise the first of
// "name (1).ext", "name (2).ext", ... that no sibling of the same kind uses.
// Folders have no extension, so the counter goes at the end.
func Dedupe(name string, kind tree.Kind, siblings []*tree.Node) string {
	if find(name, kind, siblings) == nil {
		return name
	}
	stem, ext := name, ""
	if kind == tree.KindFile {
		ext = pathutil.Extension(name)
		stem = name[:len(name)-len(ext)]
	}
	// At most len(siblings) candidates can be taken, so this terminates.
	for i := 1; ; i++ {
		candidate := stem + " (" + strconv.Itoa(i) + ")" + ext
		if find(candidate, kind, siblings) == nil {
			return candidate
		}
	}
}

func find(name string, kind tree.Kind, siblings []*tree.Node) *tree.Node {
	for _, s := range siblings {
		if s.Name == name && s.Kind == kind {
			return s
		}
	}
	return nil
}
