// Package testutil provides testing utilities for agentboard tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/spf13/afero"
)

// SetupClaudeDir creates a temporary directory laid out like ~/.claude.
// The files map contains slash-separated relative paths to file contents.
func SetupClaudeDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for path, content := range files {
		WriteFile(t, dir, path, content)
	}
	return dir
}

// WriteFile writes content to root/path, creating parent directories.
func WriteFile(t *testing.T, root, path, content string) {
	t.Helper()

	fullPath := filepath.Join(root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// Backdate sets the access and modification times of root and everything
// under it to age ago, so sources no longer see the files as recent activity.
func Backdate(t *testing.T, root string, age time.Duration) {
	t.Helper()

	at := time.Now().Add(-age)
	err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return os.Chtimes(path, at, at)
	})
	if err != nil {
		t.Fatalf("failed to backdate %s: %v", root, err)
	}
}

// MemFS returns an in-memory filesystem populated with files.
func MemFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return fs
}

// Tasks builds a task list with sequential IDs and one task per status.
func Tasks(statuses ...session.TaskStatus) []session.TaskItem {
	tasks := make([]session.TaskItem, len(statuses))
	for i, status := range statuses {
		id := fmt.Sprintf("%d", i+1)
		tasks[i] = session.TaskItem{
			ID:      id,
			Subject: "Task " + id,
			Status:  status,
		}
	}
	return tasks
}

// Message builds an unread message.
func Message(id, from, content string, needsResponse bool, at time.Time) session.Message {
	return session.Message{
		ID:            id,
		From:          from,
		Content:       content,
		Timestamp:     at,
		NeedsResponse: needsResponse,
	}
}

// Workspace wraps sessions in a single workspace of the named source.
func Workspace(source, key string, sessions ...session.Session) session.Workspace {
	return session.Workspace{
		Ref:      session.WorkspaceRef{SourceName: source, Key: key, Locator: "/tmp/" + key},
		Sessions: sessions,
	}
}

// FakeSource is an in-memory session.Source and session.NamespaceWatcher.
// Tests mutate it with Update, Announce and Retire to simulate changes on
// disk.
type FakeSource struct {
	mu sync.Mutex

	name      string
	sessions  map[string]session.Session
	scanErr   map[string]error
	watchErr  map[string]error
	detectErr error

	watchers  map[string]func(session.Session)
	stopped   map[string]bool
	scanCalls map[string]int

	onAdded   func(session.WorkspaceRef)
	onRemoved func(session.WorkspaceRef)
}

// NewFakeSource creates an empty FakeSource.
func NewFakeSource(name string) *FakeSource {
	return &FakeSource{
		name:      name,
		sessions:  make(map[string]session.Session),
		scanErr:   make(map[string]error),
		watchErr:  make(map[string]error),
		watchers:  make(map[string]func(session.Session)),
		stopped:   make(map[string]bool),
		scanCalls: make(map[string]int),
	}
}

// Ref returns the WorkspaceRef for key.
func (f *FakeSource) Ref(key string) session.WorkspaceRef {
	return session.WorkspaceRef{SourceName: f.name, Key: key, Locator: "/fake/" + f.name + "/" + key}
}

// AddWorkspace makes key discoverable with the given session without
// notifying anyone.
func (f *FakeSource) AddWorkspace(key string, sess session.Session) session.WorkspaceRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[key] = sess
	return f.Ref(key)
}

// SetScanError makes Scan fail for key until cleared with a nil error.
func (f *FakeSource) SetScanError(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.scanErr, key)
		return
	}
	f.scanErr[key] = err
}

// SetWatchError makes Watch fail for key.
func (f *FakeSource) SetWatchError(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchErr[key] = err
}

// SetDetectError makes Detect fail.
func (f *FakeSource) SetDetectError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detectErr = err
}

// Update replaces the session for key and notifies its watcher, if any.
func (f *FakeSource) Update(key string, sess session.Session) {
	f.mu.Lock()
	f.sessions[key] = sess
	cb := f.watchers[key]
	f.mu.Unlock()

	if cb != nil {
		cb(sess)
	}
}

// Announce adds a workspace and reports it through WatchForNew.
func (f *FakeSource) Announce(key string, sess session.Session) {
	ref := f.AddWorkspace(key, sess)

	f.mu.Lock()
	cb := f.onAdded
	f.mu.Unlock()

	if cb != nil {
		cb(ref)
	}
}

// Retire removes a workspace and reports it through WatchForNew.
func (f *FakeSource) Retire(key string) {
	f.mu.Lock()
	delete(f.sessions, key)
	cb := f.onRemoved
	f.mu.Unlock()

	if cb != nil {
		cb(f.Ref(key))
	}
}

// ScanCount returns how many times Scan ran for key.
func (f *FakeSource) ScanCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scanCalls[key]
}

// Watching reports whether key has an active watch.
func (f *FakeSource) Watching(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.watchers[key]
	return ok
}

// WatchStopped reports whether the watch for key was stopped.
func (f *FakeSource) WatchStopped(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped[key]
}

// Name implements session.Source.
func (f *FakeSource) Name() string { return f.name }

// Detect implements session.Source.
func (f *FakeSource) Detect(ctx context.Context) ([]session.WorkspaceRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.detectErr != nil {
		return nil, f.detectErr
	}
	keys := make([]string, 0, len(f.sessions))
	for key := range f.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	refs := make([]session.WorkspaceRef, len(keys))
	for i, key := range keys {
		refs[i] = f.Ref(key)
	}
	return refs, nil
}

// Scan implements session.Source.
func (f *FakeSource) Scan(ctx context.Context, ref session.WorkspaceRef) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scanCalls[ref.Key]++
	if err := f.scanErr[ref.Key]; err != nil {
		return session.Session{}, err
	}
	sess, ok := f.sessions[ref.Key]
	if !ok {
		return session.Session{}, fmt.Errorf("workspace %s not found", ref.Key)
	}
	return sess, nil
}

// Watch implements session.Source.
func (f *FakeSource) Watch(ctx context.Context, ref session.WorkspaceRef, onChange func(session.Session)) (session.Watch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.watchErr[ref.Key]; err != nil {
		return nil, err
	}
	f.watchers[ref.Key] = onChange
	delete(f.stopped, ref.Key)

	return session.WatchFunc(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers, ref.Key)
		f.stopped[ref.Key] = true
	}), nil
}

// WatchForNew implements session.NamespaceWatcher.
func (f *FakeSource) WatchForNew(ctx context.Context, onAdded, onRemoved func(session.WorkspaceRef)) (session.Watch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.onAdded = onAdded
	f.onRemoved = onRemoved
	return session.WatchFunc(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.onAdded = nil
		f.onRemoved = nil
	}), nil
}
