package source

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/spf13/cast"
)

// TasksSourceName is the WorkspaceRef.SourceName of solo task workspaces.
const TasksSourceName = "tasks"

// TasksSource reads solo task lists from tasks/{session}. Directories that
// belong to a team are left to TeamsSource.
type TasksSource struct {
	opts Options
}

// NewTasksSource creates a TasksSource.
func NewTasksSource(opts Options) *TasksSource {
	return &TasksSource{opts: opts.withDefaults()}
}

// Name implements session.Source.
func (s *TasksSource) Name() string { return TasksSourceName }

// Detect lists task directories that no team claims.
func (s *TasksSource) Detect(ctx context.Context) ([]session.WorkspaceRef, error) {
	teams := make(map[string]bool)
	for _, name := range listDirs(s.opts.Fs, s.opts.teamsDir()) {
		teams[name] = true
	}

	var refs []session.WorkspaceRef
	for _, name := range listDirs(s.opts.Fs, s.opts.tasksDir()) {
		if teams[name] || s.opts.Exclude.Excluded(name) {
			continue
		}
		refs = append(refs, session.WorkspaceRef{
			SourceName: TasksSourceName,
			Key:        name,
			Locator:    filepath.Join(s.opts.tasksDir(), name),
		})
	}
	return refs, nil
}

// Scan reads every task file in the session directory.
func (s *TasksSource) Scan(ctx context.Context, ref session.WorkspaceRef) (session.Session, error) {
	dir := ref.Locator
	if dir == "" {
		dir = filepath.Join(s.opts.tasksDir(), ref.Key)
	}
	info, err := s.opts.Fs.Stat(dir)
	if err != nil {
		return session.Session{}, err
	}

	tasks, taskTime, taskMeta := readTaskDir(s.opts.Fs, dir)
	fileTime := latest(info.ModTime(), taskTime)

	metadata := make(map[string]any, len(taskMeta)+1)
	for k, v := range taskMeta {
		metadata[k] = v
	}
	metadata["session"] = ref.Key

	name := ref.Key
	if n := strings.TrimSpace(cast.ToString(taskMeta["name"])); n != "" {
		name = n
	}

	return session.Session{
		ID:           ref.Key,
		DisplayName:  name,
		Kind:         session.KindSolo,
		Tasks:        tasks,
		Metadata:     metadata,
		LastActivity: fileTime,
		IsActive:     s.opts.isActive(fileTime),
	}, nil
}

// Watch re-scans the session whenever its task directory changes, and once
// more when it drops out of the activity window.
func (s *TasksSource) Watch(ctx context.Context, ref session.WorkspaceRef, onChange func(session.Session)) (session.Watch, error) {
	log := s.opts.Logger.WithSource(TasksSourceName).WithWorkspace(ref.Key)
	return watchSession(ctx, s.opts, log, []string{ref.Locator}, ref, s.Scan, onChange)
}

// WatchForNew reports task directories appearing or disappearing. Team
// directories are watched too since a new team claims its task directory.
func (s *TasksSource) WatchForNew(ctx context.Context, onAdded, onRemoved func(session.WorkspaceRef)) (session.Watch, error) {
	dirs := []string{s.opts.tasksDir(), s.opts.teamsDir(), s.opts.Root}
	return watchNamespace(ctx, s, dirs, s.opts, onAdded, onRemoved)
}
