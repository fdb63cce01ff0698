package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/tree"
)

// Disk stores workspace files under a root directory on the local disk.
type Disk struct {
	root    string
	exclude []string
}

// NewDisk creates a Disk rooted at the given directory. Base names matching
// any exclude glob are hidden from List.
func NewDisk(root string, exclude []string) *Disk {
	return &Disk{root: root, exclude: exclude}
}

// Root returns the directory backing the store.
func (d *Disk) Root() string { return d.root }

func (d *Disk) abs(p string) string {
	p = pathutil.Clean(p)
	if p == pathutil.Root {
		return d.root
	}
	return filepath.Join(d.root, filepath.FromSlash(p))
}

// Rel maps an absolute OS path beneath the root back to a workspace path.
func (d *Disk) Rel(osPath string) (string, bool) {
	rel, err := filepath.Rel(d.root, osPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return pathutil.Clean(filepath.ToSlash(rel)), true
}

// IsExcluded reports whether the base name of p matches an exclude glob.
func (d *Disk) IsExcluded(p string) bool {
	base := filepath.Base(p)
	for _, pattern := range d.exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func (d *Disk) Read(_ context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(d.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return template(p), nil
	}
	if err != nil {
		return nil, &Error{Op: "read", Path: p, Err: err}
	}
	return data, nil
}

func (d *Disk) Write(_ context.Context, p string, data []byte) error {
	full := d.abs(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &Error{Op: "write", Path: p, Err: err}
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return &Error{Op: "write", Path: p, Err: err}
	}
	return nil
}

func (d *Disk) Exists(_ context.Context, p string) bool {
	_, err := os.Stat(d.abs(p))
	return err == nil
}

// Remove deletes p recursively. A missing path is not an error.
func (d *Disk) Remove(_ context.Context, p string) error {
	if pathutil.Clean(p) == pathutil.Root {
		return &Error{Op: "remove", Path: p, Err: fs.ErrPermission}
	}
	if err := os.RemoveAll(d.abs(p)); err != nil {
		return &Error{Op: "remove", Path: p, Err: err}
	}
	return nil
}

func (d *Disk) Stat(_ context.Context, p string) (Stat, error) {
	info, err := os.Stat(d.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return Stat{Size: int64(len(template(p)))}, nil
	}
	if err != nil {
		return Stat{}, &Error{Op: "stat", Path: p, Err: err}
	}
	st := Stat{LastModifiedAt: info.ModTime()}
	if !info.IsDir() {
		st.Size = info.Size()
	}
	return st, nil
}

// MakeDir creates the directory p and any missing parents.
func (d *Disk) MakeDir(_ context.Context, p string) error {
	if err := os.MkdirAll(d.abs(p), 0o755); err != nil {
		return &Error{Op: "mkdir", Path: p, Err: err}
	}
	return nil
}

// Rename moves oldPath to newPath.
func (d *Disk) Rename(_ context.Context, oldPath, newPath string) error {
	src, dst := d.abs(oldPath), d.abs(newPath)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &Error{Op: "rename", Path: oldPath, Err: err}
	}
	if err := os.Rename(src, dst); err != nil {
		return &Error{Op: "rename", Path: oldPath, Err: err}
	}
	return nil
}

// List walks the root directory, skipping excluded names.
func (d *Disk) List(_ context.Context) ([]tree.Entry, error) {
	var entries []tree.Entry
	err := filepath.WalkDir(d.root, func(osPath string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if osPath == d.root {
			return nil
		}
		if d.IsExcluded(osPath) {
			if de.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		rel, ok := d.Rel(osPath)
		if !ok {
			return nil
		}
		e := tree.Entry{Path: rel, IsDir: de.IsDir(), ModTime: info.ModTime()}
		if !e.IsDir {
			e.Size = info.Size()
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, &Error{Op: "list", Path: pathutil.Root, Err: err}
	}
	return entries, nil
}
