package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForEvent(t *testing.T, w *Watcher, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case err := <-w.Errors():
		t.Fatalf("watch error: %v", err)
	case <-time.After(timeout):
		t.Fatal("timed out waiting for watch event")
	}
	return Event{}
}

func TestWatcherReportsCreateAndRemove(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "widget.toml")
	if err := os.WriteFile(path, []byte("name = \"Widget\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ev := waitForEvent(t, w, 5*time.Second)
	if ev.Op != OpChanged {
		t.Fatalf("Op = %v, want OpChanged", ev.Op)
	}
	if ev.Name != "widget" {
		t.Fatalf("Name = %q, want widget", ev.Name)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ev = waitForEvent(t, w, 5*time.Second)
	if ev.Op != OpRemoved {
		t.Fatalf("Op = %v, want OpRemoved", ev.Op)
	}
}

func TestWatcherIgnoresNonTomlFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for non-toml file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
