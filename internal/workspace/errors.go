package workspace

import (
	"errors"
	"fmt"

	"github.com/CageChen/codehub/internal/tabs"
	"github.com/CageChen/codehub/internal/tree"
)

var (
	// ErrNotFound is returned when an action names a path or tab that does
	// not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotAFile is returned when a folder is used where a file is needed.
	ErrNotAFile = tabs.ErrNotAFile
	// ErrNotAFolder is returned when a file is used as a parent.
	ErrNotAFolder = errors.New("not a folder")
	// ErrCanceled is returned when the user declines a confirmation or
	// picks the cancel option of a decision request.
	ErrCanceled = errors.New("canceled")
	// ErrPathInUse is returned when a node of the other kind already owns
	// the target path. Files and folders may share a name with respect to
	// conflict detection, but never a path.
	ErrPathInUse = errors.New("path already in use")
	// ErrUnknownKind is returned by Create for kinds other than file and
	// folder.
	ErrUnknownKind = errors.New("unknown node kind")
)

// Policy tells Create how to handle a name conflict.
type Policy string

// Conflict policies.
const (
	PolicyAsk      Policy = ""
	PolicyReplace  Policy = "replace"
	PolicyKeepBoth Policy = "keep-both"
	PolicyCancel   Policy = "cancel"
)

// ParsePolicy maps a client-supplied string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyAsk, "ask":
		return PolicyAsk, nil
	case PolicyReplace, PolicyKeepBoth, PolicyCancel:
		return p, nil
	}
	return PolicyAsk, fmt.Errorf("unknown conflict policy %q", s)
}

// DecisionRequired is returned by Create when the name is taken and no
// policy was given. The caller retries with one of Options.
type DecisionRequired struct {
	Name       string    `json:"name"`
	Kind       tree.Kind `json:"kind"`
	ParentPath string    `json:"parentPath"`
	Options    []Policy  `json:"options"`
	Err        error     `json:"-"`
}

func (e *DecisionRequired) Error() string {
	return e.Err.Error() + ": choose replace, keep-both or cancel"
}

func (e *DecisionRequired) Unwrap() error { return e.Err }
