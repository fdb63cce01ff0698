// Package store provides the byte-content collaborator behind the workspace:
// an in-memory map, a directory on local disk, or a read-only git ref.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/tree"
)

var (
	// ErrStoreFailure is matched by every *Error.
	ErrStoreFailure = errors.New("store failure")
	// ErrReadOnly is wrapped when a store does not accept writes.
	ErrReadOnly = errors.New("store is read-only")

	errIsDir  = errors.New("is a directory")
	errIsFile = errors.New("is a file")
)

// Error describes a failed store operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStoreFailure) work.
func (e *Error) Is(target error) bool { return target == ErrStoreFailure }

// Stat is the metadata a store keeps for a path.
type Stat struct {
	Size           int64     `json:"size"`
	LastModifiedAt time.Time `json:"lastModifiedAt"`
}

// ContentStore reads and writes file bytes keyed by workspace path.
// Read never fails for a missing path: it returns the language template for
// the path's extension instead.
type ContentStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) bool
	Remove(ctx context.Context, path string) error
	Stat(ctx context.Context, path string) (Stat, error)
}

// Lister is implemented by stores that can enumerate their contents.
type Lister interface {
	List(ctx context.Context) ([]tree.Entry, error)
}

// DirMaker is implemented by stores that keep folders as real objects.
type DirMaker interface {
	MakeDir(ctx context.Context, path string) error
}

// Renamer is implemented by stores that can move a path and everything
// beneath it.
type Renamer interface {
	Rename(ctx context.Context, oldPath, newPath string) error
}

func template(path string) []byte {
	return pathutil.DefaultContent(pathutil.Base(path))
}
