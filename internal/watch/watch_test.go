package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "suites/taxi.yaml", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "checkpoints/daily.yml", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "suites/taxi.yaml", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "uncommitted/run.log", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		if got := relevant(tt.event); got != tt.want {
			t.Errorf("relevant(%v %s) = %v, want %v", tt.event.Op, tt.event.Name, got, tt.want)
		}
	}
}

func TestDirsTriggersOnYAMLWrite(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fired := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Dirs(ctx, []string{dir}, 50*time.Millisecond, func() {
			select {
			case fired <- struct{}{}:
			default:
			}
			cancel()
		})
	}()

	// Give the watcher a moment to register, then touch a suite file.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "taxi.yaml"), []byte("name: x\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("watcher did not fire before timeout")
	}

	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDirsNothingToWatch(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	err := Dirs(context.Background(), []string{missing}, 0, func() {})
	if err == nil {
		t.Error("expected error when no directories exist")
	}
}
