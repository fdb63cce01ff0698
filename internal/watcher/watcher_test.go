package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CageChen/codehub/internal/store"
)

func TestWatcher_ReportsWorkspacePaths(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "node_modules"), 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(store.NewDisk(root, []string{"node_modules"}), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	events := make(chan Event, 16)
	w.OnChange(func(e Event) { events <- e })
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "node_modules", "x.js"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Path == "/node_modules/x.js" {
				t.Fatal("excluded directory must not be watched")
			}
			if e.Path == "/src/a.ts" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for /src/a.ts event")
		}
	}
}

func TestEventTypeString(t *testing.T) {
	for typ, want := range map[EventType]string{
		EventCreate: "create",
		EventWrite:  "update",
		EventRemove: "remove",
		EventRename: "rename",
	} {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}

func TestDebouncer_Coalesces(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { runs.Add(1) })
	for i := 0; i < 10; i++ {
		d.Trigger()
	}
	time.Sleep(200 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { runs.Add(1) })
	d.Trigger()
	d.Stop()
	time.Sleep(120 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Errorf("expected no run after Stop, got %d", got)
	}
}
