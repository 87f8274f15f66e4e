package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	l, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	l.Infof("checkpoint %s started", "taxi_daily")
	l.Warnf("validation failed")
	l.Errorf("boom: %v", "db unreachable")

	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"INFO checkpoint taxi_daily started",
		"WARN validation failed",
		"ERROR boom: db unreachable",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q in:\n%s", want, content)
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.Infof("goes nowhere")
	if err := l.Close(); err != nil {
		t.Errorf("Close on nop logger: %v", err)
	}

	var nilLogger *Logger
	nilLogger.Infof("also fine")
}
