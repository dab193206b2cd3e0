package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestFileWatcherCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte("v0"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	var mu sync.Mutex
	var calls []string
	changed := make(chan struct{}, 10)

	fw := New([]string{path}, 50*time.Millisecond, func(p string) {
		mu.Lock()
		calls = append(calls, p)
		mu.Unlock()
		changed <- struct{}{}
	}, nil)

	if err := fw.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer func() { _ = fw.Stop() }()

	// Ensure the modification time moves past the initial one.
	time.Sleep(20 * time.Millisecond)
	for i := 1; i <= 3; i++ {
		if err := os.WriteFile(path, []byte("v"+string(rune('0'+i))), 0600); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("Expected change notification, got none")
	}

	// Give a late duplicate a chance to show up.
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Errorf("Expected 1 coalesced change, got %d", len(calls))
	}
	if len(calls) > 0 && calls[0] != path {
		t.Errorf("Expected change for %s, got %s", path, calls[0])
	}
}

func TestFileWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "token")
	if err := os.WriteFile(watched, []byte("a"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	fw := New([]string{watched}, 10*time.Millisecond, func(string) {}, nil)

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{name: "write to watched file", event: fsnotify.Event{Name: watched, Op: fsnotify.Write}, expected: true},
		{name: "create of watched file", event: fsnotify.Event{Name: watched, Op: fsnotify.Create}, expected: true},
		{name: "chmod of watched file", event: fsnotify.Event{Name: watched, Op: fsnotify.Chmod}, expected: false},
		{name: "write to sibling", event: fsnotify.Event{Name: filepath.Join(dir, "other"), Op: fsnotify.Write}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := fw.match(tt.event)
			if ok != tt.expected {
				t.Errorf("Expected match=%v, got %v", tt.expected, ok)
			}
		})
	}
}

func TestFileWatcherStartTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	fw := New([]string{path}, 0, func(string) {}, nil)
	if err := fw.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	if err := fw.Start(); err == nil {
		t.Error("Expected error when starting twice")
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("Expected clean stop, got %v", err)
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("Expected second stop to be a no-op, got %v", err)
	}
}
