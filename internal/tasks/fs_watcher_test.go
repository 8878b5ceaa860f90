package tasks

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileSystemWatcherReportsSettledImages(t *testing.T) {
	dir := t.TempDir()
	fsw, err := NewFileSystemWatcher([]string{dir}, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := fsw.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer fsw.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	frame := filepath.Join(dir, "IMG_0001.jpg")
	if err := os.WriteFile(frame, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(frame, []byte("complete frame"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-fsw.Events:
		if ev.Path != frame {
			t.Fatalf("expected event for %s, got %s", frame, ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for watcher event")
	}

	select {
	case ev := <-fsw.Events:
		t.Fatalf("expected writes to be debounced into one event, got extra %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileSystemWatcherWaitsForSlowReader(t *testing.T) {
	dir := t.TempDir()
	fsw, err := NewFileSystemWatcher([]string{dir}, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	fsw.Events = make(chan FileSystemEvent, 1)
	if err := fsw.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer fsw.Stop()

	want := map[string]bool{}
	for _, name := range []string{"IMG_0001.jpg", "IMG_0002.jpg", "IMG_0003.jpg"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("frame"), 0o644); err != nil {
			t.Fatal(err)
		}
		want[p] = true
	}
	// Let every debounce timer fire while nobody reads.
	time.Sleep(200 * time.Millisecond)

	for len(want) > 0 {
		select {
		case ev := <-fsw.Events:
			delete(want, ev.Path)
		case <-time.After(5 * time.Second):
			t.Fatalf("settled frames lost: %v", want)
		}
	}
}
