package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// chunk is a little over half the 1MB rotation limit, so every second
// write rotates.
var chunk = bytes.Repeat([]byte("x"), 600*1024)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestNewRotatingWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	path := filepath.Join(dir, LogFileName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("existing\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	if rw.Size() != int64(len("existing\n")) {
		t.Errorf("expected size to include existing content, got %d", rw.Size())
	}
	if rw.Path() != path {
		t.Errorf("expected path %s, got %s", path, rw.Path())
	}
}

func TestRotatingWriter_Rotation(t *testing.T) {
	tests := []struct {
		name       string
		config     RotationConfig
		writes     int
		wantExist  []string
		wantAbsent []string
	}{
		{
			name:       "no rotation below limit",
			config:     RotationConfig{MaxSizeMB: 10, MaxBackups: 3},
			writes:     3,
			wantAbsent: []string{".1"},
		},
		{
			name:       "plain backups shift up",
			config:     RotationConfig{MaxSizeMB: 1, MaxBackups: 3},
			writes:     3,
			wantExist:  []string{".1", ".2"},
			wantAbsent: []string{".3", ".1.gz"},
		},
		{
			name:       "oldest backup dropped",
			config:     RotationConfig{MaxSizeMB: 1, MaxBackups: 1},
			writes:     7,
			wantExist:  []string{".1"},
			wantAbsent: []string{".2"},
		},
		{
			name:       "no backups kept",
			config:     RotationConfig{MaxSizeMB: 1, MaxBackups: 0},
			writes:     4,
			wantAbsent: []string{".1", ".1.gz"},
		},
		{
			name:       "compressed backups",
			config:     RotationConfig{MaxSizeMB: 1, MaxBackups: 3, Compress: true},
			writes:     5,
			wantExist:  []string{".1.gz", ".2.gz"},
			wantAbsent: []string{".1", ".2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), LogFileName)
			rw, err := NewRotatingWriter(path, tt.config)
			if err != nil {
				t.Fatalf("NewRotatingWriter failed: %v", err)
			}
			for i := 0; i < tt.writes; i++ {
				if _, err := rw.Write(chunk); err != nil {
					t.Fatalf("write %d failed: %v", i, err)
				}
			}
			if err := rw.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			if !fileExists(path) {
				t.Error("expected live log file to exist")
			}
			for _, suffix := range tt.wantExist {
				if !fileExists(path + suffix) {
					t.Errorf("expected %s to exist", LogFileName+suffix)
				}
			}
			for _, suffix := range tt.wantAbsent {
				if fileExists(path + suffix) {
					t.Errorf("expected %s to be absent", LogFileName+suffix)
				}
			}
		})
	}
}

func TestRotatingWriter_CompressedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2, Compress: true})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	first := append([]byte("first\n"), chunk...)
	_, _ = rw.Write(first)
	_, _ = rw.Write(chunk)
	_ = rw.Close()

	f, err := os.Open(path + ".1.gz")
	if err != nil {
		t.Fatalf("expected compressed backup: %v", err)
	}
	defer func() { _ = f.Close() }()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader failed: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("failed to decompress: %v", err)
	}
	if !bytes.Equal(data, first) {
		t.Errorf("expected backup to hold the first write, got %d bytes", len(data))
	}
}

func TestRotatingWriter_Concurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 5})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	line := []byte(strings.Repeat("y", 1023) + "\n")
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Go(func() {
			for i := 0; i < 200; i++ {
				if _, err := rw.Write(line); err != nil {
					t.Errorf("write failed: %v", err)
					return
				}
			}
		})
	}
	wg.Wait()
	_ = rw.Close()

	var total int64
	for _, p := range []string{path, path + ".1", path + ".2"} {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	if want := int64(8 * 200 * len(line)); total != want {
		t.Errorf("expected %d bytes across files, got %d", want, total)
	}
}

func TestRotatingWriter_Close(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), LogFileName), DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("expected Sync after Close to be a no-op, got %v", err)
	}
	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("expected write after Close to fail")
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	t.Run("writes through the rotating writer", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := NewLoggerWithRotation(dir, LevelDebug, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation failed: %v", err)
		}
		logger.WithSource("teams").Info("scan complete", "tasks", 2)
		_ = logger.Close()

		entries, err := AggregateLogs(dir)
		if err != nil {
			t.Fatalf("AggregateLogs failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Source != "teams" {
			t.Errorf("expected one teams entry, got %+v", entries)
		}
	})

	t.Run("empty dir logs to stderr", func(t *testing.T) {
		logger, err := NewLoggerWithRotation("", LevelInfo, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation failed: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Errorf("expected Close on stderr logger to succeed, got %v", err)
		}
	})
}
