// Package workspace ties the file tree, the tab registry and the content store
// together. A Controller applies one user action at a time: each action
// validates, talks to the store, and then publishes a new tree snapshot and
// tab registry in one step.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CageChen/codehub/internal/conflict"
	"github.com/CageChen/codehub/internal/logging"
	"github.com/CageChen/codehub/internal/metrics"
	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/preview"
	"github.com/CageChen/codehub/internal/store"
	"github.com/CageChen/codehub/internal/tabs"
	"github.com/CageChen/codehub/internal/tree"
)

// Default names used by CreateDefault.
const (
	DefaultFileName   = "untitled.txt"
	DefaultFolderName = "New Folder"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = logging.OrNop(l) }
}

// WithConfirmer sets the collaborator asked before deletes and dirty closes.
func WithConfirmer(cf Confirmer) Option {
	return func(c *Controller) { c.confirm = cf }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTree seeds the initial snapshot.
func WithTree(t tree.Tree) Option {
	return func(c *Controller) { c.tree = t }
}

// Controller owns the current tree snapshot and tab registry. Actions are
// serialized by mu, which is held across store calls so that two actions on
// the same path never interleave.
type Controller struct {
	mu      sync.Mutex
	store   store.ContentStore
	tree    tree.Tree
	tabs    tabs.Registry
	confirm Confirmer
	render  *preview.Renderer
	logger  *zap.Logger
	now     func() time.Time

	lmu       sync.RWMutex
	listeners []func(Event)
}

// New creates a controller over st with an empty tree.
func New(st store.ContentStore, opts ...Option) *Controller {
	c := &Controller{
		store:   st,
		confirm: ContextConfirmer{},
		render:  preview.NewRenderer(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tree returns the current snapshot. It must not be modified.
func (c *Controller) Tree() tree.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree
}

// Tabs returns the open tabs in registry order.
func (c *Controller) Tabs() []tabs.Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.Tabs()
}

// Tab returns one open tab.
func (c *Controller) Tab(id string) (tabs.Tab, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.Find(id)
}

// Node returns the node at path.
func (c *Controller) Node(path string) (*tree.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return tree.FindByPath(c.tree, path)
}

// TargetDirectory resolves where a create action started from a selection
// should put its node: a folder itself, a file's parent, or the root when
// nothing (or nothing known) is selected.
func (c *Controller) TargetDirectory(selected string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := tree.FindByPath(c.tree, selected)
	if !ok {
		return ""
	}
	if n.IsFolder() {
		return n.Path
	}
	return n.ParentPath
}

func normalizeParent(p string) string {
	if p == "" || p == pathutil.Root {
		return ""
	}
	return pathutil.Clean(p)
}

// Create adds a file or folder named name under parentPath. When a sibling
// of the same kind already has the name, policy decides: PolicyAsk returns
// a *DecisionRequired, PolicyCancel returns ErrCanceled, PolicyKeepBoth picks
// a "name (n)" variant and PolicyReplace resets the existing node in place.
func (c *Controller) Create(ctx context.Context, name string, kind tree.Kind, parentPath string, policy Policy) (*tree.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind != tree.KindFile && kind != tree.KindFolder {
		return nil, fmt.Errorf("create %q as %q: %w", name, kind, ErrUnknownKind)
	}
	if err := pathutil.ValidateName(name); err != nil {
		return nil, err
	}
	parentPath = normalizeParent(parentPath)
	siblings, err := c.childrenOf(parentPath)
	if err != nil {
		return nil, err
	}

	if err := conflict.Check(name, kind, siblings); err != nil {
		var ce *conflict.Error
		errors.As(err, &ce)
		switch policy {
		case PolicyReplace:
			metrics.RecordConflict("replace")
			return c.replace(ctx, ce.Existing)
		case PolicyKeepBoth:
			metrics.RecordConflict("keep-both")
			name = conflict.Dedupe(name, kind, siblings)
		case PolicyCancel:
			metrics.RecordConflict("cancel")
			return nil, fmt.Errorf("create %s: %w", pathutil.Join(parentPath, name), ErrCanceled)
		default:
			return nil, &DecisionRequired{
				Name:       name,
				Kind:       kind,
				ParentPath: parentPath,
				Options:    []Policy{PolicyReplace, PolicyKeepBoth, PolicyCancel},
				Err:        err,
			}
		}
	}

	p := pathutil.Join(parentPath, name)
	if tree.Exists(c.tree, p) {
		return nil, fmt.Errorf("create %s: %w", p, ErrPathInUse)
	}

	node := tree.NewNode(name, kind, parentPath, c.now())
	if kind == tree.KindFile {
		content := pathutil.DefaultContent(name)
		if err := c.write(ctx, p, content); err != nil {
			return nil, err
		}
		node.Size = int64(len(content))
	} else if err := c.makeDir(ctx, p); err != nil {
		return nil, err
	}

	c.setTree(tree.Insert(c.tree, parentPath, node))
	c.logger.Info("node created", zap.String("path", p), zap.String("kind", string(kind)))
	c.emit(Event{Type: EventCreated, Path: p})
	return node, nil
}

// CreateDefault creates a node with the default name for its kind.
func (c *Controller) CreateDefault(ctx context.Context, kind tree.Kind, parentPath string, policy Policy) (*tree.Node, error) {
	name := DefaultFileName
	if kind == tree.KindFolder {
		name = DefaultFolderName
	}
	return c.Create(ctx, name, kind, parentPath, policy)
}

// replace resets an existing node's content and metadata. Its identity and,
// for folders, its children are kept.
func (c *Controller) replace(ctx context.Context, existing *tree.Node) (*tree.Node, error) {
	var size int64
	if existing.Kind == tree.KindFile {
		content := pathutil.DefaultContent(existing.Name)
		if err := c.write(ctx, existing.Path, content); err != nil {
			return nil, err
		}
		size = int64(len(content))
	}
	now := c.now()
	c.setTree(tree.UpdateByPath(c.tree, existing.Path, func(n tree.Node) tree.Node {
		n.Size = size
		n.LastModifiedAt = now
		return n
	}))
	node, _ := tree.FindByPath(c.tree, existing.Path)
	c.logger.Info("node replaced", zap.String("path", existing.Path))
	c.emit(Event{Type: EventReplaced, Path: existing.Path})
	return node, nil
}

// Open opens the file at path in a tab, or selects its existing tab.
func (c *Controller) Open(ctx context.Context, path string) (tabs.Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := tree.FindByPath(c.tree, path)
	if !ok {
		return tabs.Tab{}, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	start := time.Now()
	reg, tab, err := c.tabs.Open(ctx, c.store, node)
	if err != nil {
		if !errors.Is(err, tabs.ErrNotAFile) {
			metrics.RecordStoreOperation("read", time.Since(start), false)
			c.logger.Warn("open failed", zap.String("path", path), zap.Error(err))
		}
		return tabs.Tab{}, err
	}
	c.setTabs(reg)
	c.emit(Event{Type: EventOpened, Path: path, TabID: tab.ID})
	return tab, nil
}

// NewUntitled opens an empty tab on a fresh synthetic path. The tab has no
// tree node until it is saved.
func (c *Controller) NewUntitled() tabs.Tab {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, tab := c.tabs.NewUntitled(c.now())
	c.setTabs(reg)
	c.emit(Event{Type: EventOpened, Path: tab.FilePath, TabID: tab.ID})
	return tab
}

// Edit replaces a tab's buffer.
func (c *Controller) Edit(id, content string) (tabs.Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, err := c.tabs.Edit(id, content)
	if err != nil {
		return tabs.Tab{}, err
	}
	c.setTabs(reg)
	tab, _ := reg.Find(id)
	c.emit(Event{Type: EventEdited, Path: tab.FilePath, TabID: id})
	return tab, nil
}

// Select makes a tab active.
func (c *Controller) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, err := c.tabs.Select(id)
	if err != nil {
		return err
	}
	c.setTabs(reg)
	c.emit(Event{Type: EventSelected, TabID: id})
	return nil
}

// Move reorders the tab strip.
func (c *Controller) Move(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, err := c.tabs.Move(from, to)
	if err != nil {
		return err
	}
	c.setTabs(reg)
	c.emit(Event{Type: EventMoved})
	return nil
}

// Close closes a tab. A dirty tab is closed when force is set or the
// confirmer approves the prompt; otherwise the *tabs.CloseBlocked is returned
// and the tab stays open.
func (c *Controller) Close(ctx context.Context, id string, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, err := c.tabs.Close(id, force)
	var blocked *tabs.CloseBlocked
	if errors.As(err, &blocked) && c.confirm.ConfirmDestructive(ctx, blocked.Prompt) {
		reg, err = c.tabs.Close(id, true)
	}
	if err != nil {
		return err
	}
	c.setTabs(reg)
	c.emit(Event{Type: EventClosed, TabID: id})
	return nil
}

// Rename gives the node at path a new name. Descendant paths and every open
// tab beneath the old path are rewritten to the new prefix, and those tabs
// take the ids of their new paths. The rename is refused with ErrPathInUse
// while any tab is open at or beneath the new path.
func (c *Controller) Rename(ctx context.Context, path, newName string) (*tree.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := tree.FindByPath(c.tree, path)
	if !ok {
		return nil, fmt.Errorf("rename %s: %w", path, ErrNotFound)
	}
	if err := pathutil.ValidateName(newName); err != nil {
		return nil, err
	}
	if newName == node.Name {
		return node, nil
	}
	siblings, _ := tree.Children(c.tree, node.ParentPath)
	if err := conflict.Check(newName, node.Kind, siblings); err != nil {
		return nil, err
	}
	newPath := pathutil.Join(node.ParentPath, newName)
	if tree.Exists(c.tree, newPath) {
		return nil, fmt.Errorf("rename %s: %w", path, ErrPathInUse)
	}
	// Tabs left open on deleted files still own their paths.
	if c.tabs.HasWithin(newPath) {
		return nil, fmt.Errorf("rename %s: open tab at %s: %w", path, newPath, ErrPathInUse)
	}

	if r, ok := c.store.(store.Renamer); ok {
		start := time.Now()
		err := r.Rename(ctx, path, newPath)
		metrics.RecordStoreOperation("rename", time.Since(start), err == nil)
		if err != nil {
			c.logger.Warn("store rename failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
	}

	c.setTree(tree.Rename(c.tree, path, newName))
	c.setTabs(c.tabs.Relocate(path, newPath))
	renamed, _ := tree.FindByPath(c.tree, newPath)
	c.logger.Info("node renamed", zap.String("from", path), zap.String("to", newPath))
	ev := Event{Type: EventRenamed, Path: newPath, OldPath: path}
	if tab, ok := c.tabs.FindByPath(newPath); ok {
		ev.TabID = tab.ID
	}
	c.emit(ev)
	return renamed, nil
}

// Delete removes the node at path and its subtree after the confirmer
// approves. Stored content goes first; a store failure leaves the tree
// untouched. Open tabs on deleted paths are left open.
func (c *Controller) Delete(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := tree.FindByPath(c.tree, path)
	if !ok {
		return fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}
	if !c.confirm.ConfirmDestructive(ctx, deletePrompt(node.Name)) {
		return fmt.Errorf("delete %s: %w", path, ErrCanceled)
	}

	start := time.Now()
	err := c.store.Remove(ctx, path)
	metrics.RecordStoreOperation("remove", time.Since(start), err == nil)
	if err != nil {
		c.logger.Warn("store remove failed", zap.String("path", path), zap.Error(err))
		return err
	}

	c.setTree(tree.RemoveByPath(c.tree, path))
	c.logger.Info("node deleted", zap.String("path", path))
	c.emit(Event{Type: EventDeleted, Path: path})
	return nil
}

// Save writes a tab's buffer to the store and marks it clean. If the write
// fails the tab stays dirty. A saved path with no tree node gets one, along
// with any missing parent folders.
func (c *Controller) Save(ctx context.Context, id string) (tabs.Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, data, err := c.tabs.Save(id)
	if err != nil {
		return tabs.Tab{}, err
	}
	tab, _ := reg.Find(id)
	if n, ok := tree.FindByPath(c.tree, tab.FilePath); ok && n.IsFolder() {
		return tabs.Tab{}, fmt.Errorf("save %s: %w", tab.FilePath, ErrNotAFile)
	}
	if err := c.write(ctx, tab.FilePath, data); err != nil {
		return tabs.Tab{}, err
	}
	c.setTabs(reg)

	size, now := int64(len(data)), c.now()
	if _, ok := tree.FindByPath(c.tree, tab.FilePath); ok {
		c.setTree(tree.UpdateByPath(c.tree, tab.FilePath, func(n tree.Node) tree.Node {
			n.Size = size
			n.LastModifiedAt = now
			return n
		}))
	} else {
		c.materialize(ctx, tab.FilePath, size, now)
	}

	c.emit(Event{Type: EventSaved, Path: tab.FilePath, TabID: id})
	return tab, nil
}

// materialize inserts a file node for p, creating missing ancestor folders.
func (c *Controller) materialize(ctx context.Context, p string, size int64, now time.Time) {
	t := c.tree
	var parent string
	for dir := pathutil.Parent(p); dir != ""; dir = pathutil.Parent(dir) {
		if n, ok := tree.FindByPath(t, dir); ok && n.IsFolder() {
			parent = dir
			break
		}
	}
	// Folders between the nearest existing ancestor and the file.
	var missing []string
	for dir := pathutil.Parent(p); dir != parent; dir = pathutil.Parent(dir) {
		missing = append([]string{dir}, missing...)
	}
	for _, dir := range missing {
		if tree.Exists(t, dir) {
			c.logger.Warn("saved file is shadowed by a file", zap.String("path", p), zap.String("file", dir))
			return
		}
		if err := c.makeDir(ctx, dir); err != nil {
			c.logger.Warn("recreating folder failed", zap.String("path", dir), zap.Error(err))
		}
		t = tree.Insert(t, pathutil.Parent(dir), tree.NewNode(pathutil.Base(dir), tree.KindFolder, pathutil.Parent(dir), now))
	}

	node := tree.NewNode(pathutil.Base(p), tree.KindFile, pathutil.Parent(p), now)
	node.Size = size
	t = tree.Insert(t, pathutil.Parent(p), node)
	if !tree.Exists(t, p) {
		c.logger.Warn("saved file has no place in the tree", zap.String("path", p))
		return
	}
	c.setTree(t)
	c.logger.Info("node materialized", zap.String("path", p))
}

// ToggleExpand flips a folder's expanded flag. Unknown paths are ignored.
func (c *Controller) ToggleExpand(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !tree.Exists(c.tree, path) {
		c.logger.Debug("toggle on missing path", zap.String("path", path))
		return
	}
	c.setTree(tree.ToggleExpanded(c.tree, path))
	c.emit(Event{Type: EventToggled, Path: path})
}

// Refresh rebuilds the tree from the store listing, keeping expanded flags
// of folders that survive. Stores that cannot list leave the tree as is.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.store.(store.Lister)
	if !ok {
		return nil
	}
	start := time.Now()
	entries, err := l.List(ctx)
	metrics.RecordStoreOperation("list", time.Since(start), err == nil)
	if err != nil {
		c.logger.Warn("store list failed", zap.Error(err))
		return err
	}
	c.setTree(tree.Build(entries, c.tree))
	metrics.RecordTreeRefresh(time.Since(start))
	c.logger.Debug("tree refreshed", zap.Int("nodes", tree.Count(c.tree)))
	c.emit(Event{Type: EventRefreshed})
	return nil
}

// Preview renders a tab's current buffer.
func (c *Controller) Preview(id string) (*preview.Result, error) {
	c.mu.Lock()
	tab, ok := c.tabs.Find(id)
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("preview %s: %w", id, tabs.ErrTabNotFound)
	}
	return c.render.Render(tab.Title, tab.Content)
}

// PreviewCSS returns the stylesheet for code previews.
func (c *Controller) PreviewCSS() (string, error) {
	return c.render.CSS()
}

func (c *Controller) childrenOf(parentPath string) ([]*tree.Node, error) {
	if parentPath == "" {
		return c.tree, nil
	}
	parent, ok := tree.FindByPath(c.tree, parentPath)
	if !ok {
		return nil, fmt.Errorf("parent %s: %w", parentPath, ErrNotFound)
	}
	if !parent.IsFolder() {
		return nil, fmt.Errorf("parent %s: %w", parentPath, ErrNotAFolder)
	}
	return parent.Children, nil
}

func (c *Controller) write(ctx context.Context, p string, data []byte) error {
	start := time.Now()
	err := c.store.Write(ctx, p, data)
	metrics.RecordStoreOperation("write", time.Since(start), err == nil)
	if err != nil {
		c.logger.Warn("store write failed", zap.String("path", p), zap.Error(err))
		return err
	}
	metrics.RecordBytesWritten(len(data))
	return nil
}

func (c *Controller) makeDir(ctx context.Context, p string) error {
	d, ok := c.store.(store.DirMaker)
	if !ok {
		return nil
	}
	start := time.Now()
	err := d.MakeDir(ctx, p)
	metrics.RecordStoreOperation("mkdir", time.Since(start), err == nil)
	if err != nil {
		c.logger.Warn("store mkdir failed", zap.String("path", p), zap.Error(err))
	}
	return err
}

func (c *Controller) setTree(t tree.Tree) {
	c.tree = t
	metrics.SetTreeSize(tree.Count(t))
}

func (c *Controller) setTabs(r tabs.Registry) {
	c.tabs = r
	metrics.SetTabs(r.Len(), r.Dirty())
}
