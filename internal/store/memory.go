package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/tree"
)

type memFile struct {
	data []byte
	mod  time.Time
}

// Memory is a process-local store. Its mutex only keeps the maps consistent;
// callers still get last-writer-wins semantics per path.
type Memory struct {
	mu    sync.RWMutex
	files map[string]memFile
	dirs  map[string]time.Time
	now   func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]memFile),
		dirs:  make(map[string]time.Time),
		now:   time.Now,
	}
}

// WithClock overrides the time source used for modification times.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Read(_ context.Context, p string) ([]byte, error) {
	p = pathutil.Clean(p)
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[p]
	if !ok {
		return template(p), nil
	}
	return append([]byte(nil), f.data...), nil
}

func (m *Memory) Write(_ context.Context, p string, data []byte) error {
	p = pathutil.Clean(p)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, isDir := m.dirs[p]; isDir {
		return &Error{Op: "write", Path: p, Err: errIsDir}
	}
	m.files[p] = memFile{data: append([]byte(nil), data...), mod: m.now()}
	return nil
}

func (m *Memory) Exists(_ context.Context, p string) bool {
	p = pathutil.Clean(p)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, file := m.files[p]
	_, dir := m.dirs[p]
	return file || dir
}

// Remove deletes p and everything beneath it. Removing a missing path is
// not an error.
func (m *Memory) Remove(_ context.Context, p string) error {
	p = pathutil.Clean(p)
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.files {
		if pathutil.IsWithin(k, p) {
			delete(m.files, k)
		}
	}
	for k := range m.dirs {
		if pathutil.IsWithin(k, p) {
			delete(m.dirs, k)
		}
	}
	return nil
}

func (m *Memory) Stat(_ context.Context, p string) (Stat, error) {
	p = pathutil.Clean(p)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.files[p]; ok {
		return Stat{Size: int64(len(f.data)), LastModifiedAt: f.mod}, nil
	}
	if mod, ok := m.dirs[p]; ok {
		return Stat{LastModifiedAt: mod}, nil
	}
	return Stat{Size: int64(len(template(p)))}, nil
}

// MakeDir records p as a folder.
func (m *Memory) MakeDir(_ context.Context, p string) error {
	p = pathutil.Clean(p)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, isFile := m.files[p]; isFile {
		return &Error{Op: "mkdir", Path: p, Err: errIsFile}
	}
	if _, ok := m.dirs[p]; !ok {
		m.dirs[p] = m.now()
	}
	return nil
}

// Rename moves oldPath and every key beneath it to newPath.
func (m *Memory) Rename(_ context.Context, oldPath, newPath string) error {
	oldPath, newPath = pathutil.Clean(oldPath), pathutil.Clean(newPath)
	m.mu.Lock()
	defer m.mu.Unlock()
	files := make(map[string]memFile, len(m.files))
	for k, f := range m.files {
		files[pathutil.RewritePrefix(k, oldPath, newPath)] = f
	}
	dirs := make(map[string]time.Time, len(m.dirs))
	for k, mod := range m.dirs {
		dirs[pathutil.RewritePrefix(k, oldPath, newPath)] = mod
	}
	m.files, m.dirs = files, dirs
	return nil
}

// List returns every stored file and folder in path order.
func (m *Memory) List(_ context.Context) ([]tree.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]tree.Entry, 0, len(m.files)+len(m.dirs))
	for p, mod := range m.dirs {
		entries = append(entries, tree.Entry{Path: p, IsDir: true, ModTime: mod})
	}
	for p, f := range m.files {
		entries = append(entries, tree.Entry{Path: p, Size: int64(len(f.data)), ModTime: f.mod})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}
