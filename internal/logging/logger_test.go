package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// readLines decodes every JSON line of the log in dir.
func readLines(t *testing.T, dir string) []map[string]any {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer func() { _ = f.Close() }()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("registry initialized", "workspaces", 3)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := readLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["msg"] != "registry initialized" || lines[0]["level"] != "INFO" {
		t.Errorf("unexpected entry: %v", lines[0])
	}
	if lines[0]["workspaces"] != float64(3) {
		t.Errorf("expected workspaces=3, got %v", lines[0]["workspaces"])
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{LevelDebug, []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{LevelInfo, []string{"INFO", "WARN", "ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{LevelError, []string{"ERROR"}},
		{"bogus", []string{"INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			dir := t.TempDir()
			logger, err := NewLogger(dir, tt.level)
			if err != nil {
				t.Fatalf("NewLogger failed: %v", err)
			}
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")
			_ = logger.Close()

			var got []string
			for _, line := range readLines(t, dir) {
				got = append(got, line["level"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected levels %v, got %v", tt.want, got)
			}
		})
	}
}

func TestContextAttributes(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	base := logger.WithSource("teams")
	base.WithWorkspace("alpha").WithSession("alpha").Info("scanned")
	base.With("card_id", "alpha-epoch-0", 42, "ignored", "dangling").Info("dismissed")
	base.Info("detected")
	_ = logger.Close()

	lines := readLines(t, dir)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0]["source"] != "teams" || lines[0]["workspace"] != "alpha" || lines[0]["session_id"] != "alpha" {
		t.Errorf("expected source, workspace and session attrs, got %v", lines[0])
	}
	if lines[1]["card_id"] != "alpha-epoch-0" {
		t.Errorf("expected card_id attr, got %v", lines[1])
	}
	if _, ok := lines[1]["dangling"]; ok {
		t.Error("expected odd trailing key to be dropped")
	}
	if _, ok := lines[2]["workspace"]; ok {
		t.Error("child attributes leaked into the parent logger")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.WithSource("tasks").Error("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("expected Close to succeed, got %v", err)
	}

	var nilLogger *Logger
	nilLogger.Info("no panic")
	if err := nilLogger.Close(); err != nil {
		t.Errorf("expected nil Close to succeed, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug": LevelDebug,
		"INFO":  LevelInfo,
		"Warn":  LevelWarn,
		"error": LevelError,
		"":      LevelInfo,
		"trace": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
	if len(ValidLevels()) != 4 {
		t.Errorf("expected 4 valid levels, got %d", len(ValidLevels()))
	}
}

func TestConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		child := logger.WithWorkspace("ws")
		wg.Go(func() {
			for i := 0; i < 50; i++ {
				child.Info("tick", "i", i)
			}
		})
	}
	wg.Wait()
	_ = logger.Close()

	if got := len(readLines(t, dir)); got != 500 {
		t.Errorf("expected 500 lines, got %d", got)
	}
}
