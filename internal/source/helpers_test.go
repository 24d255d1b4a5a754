package source

import (
	"testing"

	"github.com/Iron-Ham/agentboard/internal/session"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		key      string
		want     bool
	}{
		{"no patterns", nil, "alpha", false},
		{"prefix wildcard", []string{"scratch-*"}, "scratch-1", true},
		{"no match", []string{"scratch-*"}, "alpha", false},
		{"alternation", []string{"{tmp,test}-*"}, "test-run", true},
		{"class", []string{"run-[0-9]"}, "run-7", true},
		{"star stops at separator", []string{"a*"}, "a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.patterns)
			if err != nil {
				t.Fatalf("NewFilter failed: %v", err)
			}
			if got := f.Excluded(tt.key); got != tt.want {
				t.Errorf("expected Excluded(%q) = %v, got %v", tt.key, tt.want, got)
			}
		})
	}
}

func TestNewFilter_InvalidPattern(t *testing.T) {
	if _, err := NewFilter([]string{"[unclosed"}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestContentID(t *testing.T) {
	a := contentID("alpha", "team-lead", "worker-1", "2026-01-01T10:00:00Z", "hello")
	b := contentID("alpha", "team-lead", "worker-1", "2026-01-01T10:00:00Z", "hello")
	if a != b {
		t.Errorf("expected stable ID, got %q and %q", a, b)
	}
	if len(a) != 24 {
		t.Errorf("expected 24 hex chars, got %d", len(a))
	}
	// Part boundaries matter: "ab"+"c" must differ from "a"+"bc".
	if contentID("ab", "c") == contentID("a", "bc") {
		t.Error("expected part boundaries to change the ID")
	}
}

func TestPruneEdges(t *testing.T) {
	tasks := []session.TaskItem{
		{ID: "1", Blocks: []string{"2", "7"}},
		{ID: "2", BlockedBy: []string{"1", "missing"}},
	}
	pruneEdges(tasks)

	if len(tasks[0].Blocks) != 1 || tasks[0].Blocks[0] != "2" {
		t.Errorf("expected Blocks [2], got %v", tasks[0].Blocks)
	}
	if len(tasks[1].BlockedBy) != 1 || tasks[1].BlockedBy[0] != "1" {
		t.Errorf("expected BlockedBy [1], got %v", tasks[1].BlockedBy)
	}
}

func TestSortTasks(t *testing.T) {
	tasks := []session.TaskItem{{ID: "10"}, {ID: "2"}, {ID: "1"}}
	sortTasks(tasks)

	if tasks[0].ID != "1" || tasks[1].ID != "2" || tasks[2].ID != "10" {
		t.Errorf("expected numeric order [1 2 10], got [%s %s %s]", tasks[0].ID, tasks[1].ID, tasks[2].ID)
	}
}
