// Package tabs tracks the set of open documents. A Registry is a value: every
// operation returns a new Registry and leaves the receiver untouched, so a
// caller can discard the result when a follow-up step (such as a store write)
// fails.
package tabs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/tree"
)

var (
	// ErrTabNotFound is returned for an unknown tab id.
	ErrTabNotFound = errors.New("tab not found")
	// ErrIndexOutOfRange is returned by Move for invalid positions.
	ErrIndexOutOfRange = errors.New("tab index out of range")
	// ErrUnsavedChanges is matched by every *CloseBlocked.
	ErrUnsavedChanges = errors.New("tab has unsaved changes")
	// ErrNotAFile is returned when opening a folder.
	ErrNotAFile = errors.New("only files can be opened")
)

// CloseBlocked is returned by Close when the tab is dirty and force was not
// set. Prompt is the question to put to the user before retrying with force.
type CloseBlocked struct {
	TabID  string
	Title  string
	Prompt string
}

func (e *CloseBlocked) Error() string { return e.Prompt }

// Is makes errors.Is(err, ErrUnsavedChanges) work.
func (e *CloseBlocked) Is(target error) bool { return target == ErrUnsavedChanges }

// Tab is one open document.
type Tab struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
	Language string `json:"language"`
	Dirty    bool   `json:"dirty"`
	Active   bool   `json:"active"`
	Closable bool   `json:"closable"`

	// baseline is the content last read from or written to the store.
	baseline string
}

// Reader supplies file content when a tab is opened.
type Reader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// TabID derives the tab identifier for a file path. The suffix keeps tab ids
// apart from tree node ids.
func TabID(filePath string) string {
	return tree.NodeID(filePath, tree.KindFile) + "_editor"
}

// UntitledPath is the synthetic path given to a new, never saved tab.
func UntitledPath(now time.Time) string {
	return "/untitled-" + strconv.FormatInt(now.UnixMilli(), 10) + ".txt"
}

// Registry is an ordered set of tabs with at most one active tab and at most
// one tab per file path.
type Registry struct {
	tabs []Tab
}

// Tabs returns a copy of the tabs in registry order.
func (r Registry) Tabs() []Tab {
	return slices.Clone(r.tabs)
}

// Len returns the number of open tabs.
func (r Registry) Len() int { return len(r.tabs) }

// Find returns the tab with the given id.
func (r Registry) Find(id string) (Tab, bool) {
	if i := r.index(id); i >= 0 {
		return r.tabs[i], true
	}
	return Tab{}, false
}

// FindByPath returns the tab editing filePath.
func (r Registry) FindByPath(filePath string) (Tab, bool) {
	for _, t := range r.tabs {
		if t.FilePath == filePath {
			return t, true
		}
	}
	return Tab{}, false
}

// HasWithin reports whether any tab edits p or a path beneath it.
func (r Registry) HasWithin(p string) bool {
	return slices.ContainsFunc(r.tabs, func(t Tab) bool { return pathutil.IsWithin(t.FilePath, p) })
}

// Active returns the active tab, if any.
func (r Registry) Active() (Tab, bool) {
	for _, t := range r.tabs {
		if t.Active {
			return t, true
		}
	}
	return Tab{}, false
}

// Dirty returns the number of tabs with unsaved changes.
func (r Registry) Dirty() int {
	n := 0
	for _, t := range r.tabs {
		if t.Dirty {
			n++
		}
	}
	return n
}

func (r Registry) index(id string) int {
	return slices.IndexFunc(r.tabs, func(t Tab) bool { return t.ID == id })
}

// activate returns a copy of tabs with only tabs[i] active.
func activate(tabs []Tab, i int) []Tab {
	out := slices.Clone(tabs)
	for j := range out {
		out[j].Active = j == i
	}
	return out
}

// Open selects the tab already editing node.Path, or reads the node's content
// through rd and appends a new active tab.
func (r Registry) Open(ctx context.Context, rd Reader, node *tree.Node) (Registry, Tab, error) {
	if node.Kind != tree.KindFile {
		return r, Tab{}, fmt.Errorf("open %s: %w", node.Path, ErrNotAFile)
	}
	if i := slices.IndexFunc(r.tabs, func(t Tab) bool { return t.FilePath == node.Path }); i >= 0 {
		out := Registry{tabs: activate(r.tabs, i)}
		return out, out.tabs[i], nil
	}
	data, err := rd.Read(ctx, node.Path)
	if err != nil {
		return r, Tab{}, fmt.Errorf("open %s: %w", node.Path, err)
	}
	content := string(data)
	tab := Tab{
		ID:       TabID(node.Path),
		Title:    node.Name,
		FilePath: node.Path,
		Content:  content,
		Language: pathutil.LanguageForFilename(node.Name).Editor,
		Closable: true,
		baseline: content,
	}
	return r.appendActive(tab), tab.withActive(), nil
}

// NewUntitled appends an empty, clean, active tab on a synthetic path that has
// no tree node until it is first saved.
func (r Registry) NewUntitled(now time.Time) (Registry, Tab) {
	p := UntitledPath(now)
	for _, ok := r.FindByPath(p); ok; _, ok = r.FindByPath(p) {
		now = now.Add(time.Millisecond)
		p = UntitledPath(now)
	}
	tab := Tab{
		ID:       TabID(p),
		Title:    pathutil.Base(p),
		FilePath: p,
		Language: pathutil.PlainText.Editor,
		Closable: true,
	}
	return r.appendActive(tab), tab.withActive()
}

func (t Tab) withActive() Tab {
	t.Active = true
	return t
}

func (r Registry) appendActive(tab Tab) Registry {
	tabs := make([]Tab, 0, len(r.tabs)+1)
	tabs = append(tabs, r.tabs...)
	tabs = append(tabs, tab)
	return Registry{tabs: activate(tabs, len(tabs)-1)}
}

// Select makes the tab with id the only active tab.
func (r Registry) Select(id string) (Registry, error) {
	i := r.index(id)
	if i < 0 {
		return r, fmt.Errorf("select %s: %w", id, ErrTabNotFound)
	}
	return Registry{tabs: activate(r.tabs, i)}, nil
}

// Edit replaces the tab's content. The tab is dirty exactly when the new
// content differs from what was last loaded or saved.
func (r Registry) Edit(id, content string) (Registry, error) {
	i := r.index(id)
	if i < 0 {
		return r, fmt.Errorf("edit %s: %w", id, ErrTabNotFound)
	}
	out := slices.Clone(r.tabs)
	out[i].Content = content
	out[i].Dirty = content != out[i].baseline
	return Registry{tabs: out}, nil
}

// Save marks the tab clean and returns the bytes to persist. It does not
// touch any store; the caller writes the bytes and keeps the receiver if the
// write fails.
func (r Registry) Save(id string) (Registry, []byte, error) {
	i := r.index(id)
	if i < 0 {
		return r, nil, fmt.Errorf("save %s: %w", id, ErrTabNotFound)
	}
	out := slices.Clone(r.tabs)
	out[i].baseline = out[i].Content
	out[i].Dirty = false
	return Registry{tabs: out}, []byte(out[i].Content), nil
}

// Close removes the tab. A dirty tab is only closed with force; otherwise a
// *CloseBlocked is returned and nothing changes. When the active tab closes,
// the first remaining tab in registry order becomes active.
func (r Registry) Close(id string, force bool) (Registry, error) {
	i := r.index(id)
	if i < 0 {
		return r, fmt.Errorf("close %s: %w", id, ErrTabNotFound)
	}
	t := r.tabs[i]
	if t.Dirty && !force {
		return r, &CloseBlocked{
			TabID:  t.ID,
			Title:  t.Title,
			Prompt: fmt.Sprintf("%q has unsaved changes. Close without saving?", t.Title),
		}
	}
	out := make([]Tab, 0, len(r.tabs)-1)
	out = append(out, r.tabs[:i]...)
	out = append(out, r.tabs[i+1:]...)
	if t.Active && len(out) > 0 {
		out = activate(out, 0)
	}
	return Registry{tabs: out}, nil
}

// Move reorders tabs without touching active or dirty state.
func (r Registry) Move(from, to int) (Registry, error) {
	if from < 0 || from >= len(r.tabs) || to < 0 || to >= len(r.tabs) {
		return r, fmt.Errorf("move %d -> %d: %w", from, to, ErrIndexOutOfRange)
	}
	out := slices.Clone(r.tabs)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, moved)
	return Registry{tabs: out}, nil
}

// Relocate rewrites the file path of every tab at or beneath oldPrefix to
// live under newPrefix. Moved tabs get the id of their new path, so a file
// later created at the old path opens in a tab of its own. A tab whose own
// file was renamed also gets a new title and language. The caller makes sure
// no open tab already sits at or beneath newPrefix.
func (r Registry) Relocate(oldPrefix, newPrefix string) Registry {
	var out []Tab
	for i, t := range r.tabs {
		if !pathutil.IsWithin(t.FilePath, oldPrefix) {
			continue
		}
		if out == nil {
			out = slices.Clone(r.tabs)
		}
		newPath := pathutil.RewritePrefix(t.FilePath, oldPrefix, newPrefix)
		out[i].FilePath = newPath
		out[i].ID = TabID(newPath)
		if t.FilePath == oldPrefix {
			name := pathutil.Base(newPath)
			out[i].Title = name
			out[i].Language = pathutil.LanguageForFilename(name).Editor
		}
	}
	if out == nil {
		return r
	}
	return Registry{tabs: out}
}
