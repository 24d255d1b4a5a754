// Package session defines the normalized data model shared by every session
// source and by the derivation engines: workspaces, sessions, tasks and
// messages.
//
// Sessions are immutable value snapshots. A source produces a fresh Session
// on every scan and the registry replaces the previous snapshot wholesale;
// nothing in this package is patched in place.
package session

import (
	"sort"
	"time"
)

// Kind discriminates the shape of work a session represents.
type Kind string

const (
	// KindMultiAgent is a team run with several agents exchanging messages.
	KindMultiAgent Kind = "multi-agent"
	// KindSolo is a single-agent run that only tracks tasks.
	KindSolo Kind = "solo"
)

// TaskStatus is the status of a tracked task. Unknown values are passed
// through unchanged.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsOpen returns true if the task still represents outstanding work.
func (s TaskStatus) IsOpen() bool {
	return s == TaskPending || s == TaskInProgress
}

// WorkspaceRef identifies one monitored unit within a source.
// The (SourceName, Key) pair is the merge key and is stable for the
// lifetime of the workspace.
type WorkspaceRef struct {
	SourceName string `json:"source"`
	Key        string `json:"key"`
	Locator    string `json:"locator"`
}

// ID returns the merge key for the workspace.
func (r WorkspaceRef) ID() string {
	return r.SourceName + "/" + r.Key
}

// TaskItem is a single tracked task. Blocks and BlockedBy reference task IDs
// within the same session.
type TaskItem struct {
	ID        string     `json:"id"`
	Subject   string     `json:"subject"`
	Status    TaskStatus `json:"status"`
	Owner     string     `json:"owner,omitempty"`
	Blocks    []string   `json:"blocks,omitempty"`
	BlockedBy []string   `json:"blockedBy,omitempty"`
}

// Message is a single message observed in a session.
// NeedsResponse is decided by the source at scan time.
type Message struct {
	ID            string    `json:"id"`
	From          string    `json:"from"`
	Content       string    `json:"content"`
	Summary       string    `json:"summary,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Read          bool      `json:"read"`
	NeedsResponse bool      `json:"needsResponse"`
}

// Session is one unit of tracked work.
type Session struct {
	ID           string         `json:"id"`
	DisplayName  string         `json:"displayName"`
	Kind         Kind           `json:"kind"`
	Tasks        []TaskItem     `json:"tasks"`
	Messages     []Message      `json:"messages"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	LastActivity time.Time      `json:"lastActivity"`
	IsActive     bool           `json:"isActive"`
}

// TaskCounts returns the number of tasks per status.
func (s *Session) TaskCounts() map[TaskStatus]int {
	counts := make(map[TaskStatus]int, 3)
	for _, t := range s.Tasks {
		counts[t.Status]++
	}
	return counts
}

// HasOpenTask returns true if any task is pending or in progress.
func (s *Session) HasOpenTask() bool {
	for _, t := range s.Tasks {
		if t.Status.IsOpen() {
			return true
		}
	}
	return false
}

// SortMessages orders messages chronologically. The sort is stable so
// messages sharing a timestamp keep their relative order.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

// Workspace is a monitored unit together with the sessions most recently
// merged into it.
type Workspace struct {
	Ref      WorkspaceRef `json:"ref"`
	Sessions []Session    `json:"sessions"`
}
