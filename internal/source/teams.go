package source

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

// TeamsSourceName is the WorkspaceRef.SourceName of team workspaces.
const TeamsSourceName = "teams"

// teamConfig is the subset of teams/{team}/config.json agentboard reads.
type teamConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Members     []struct {
		Name      string `json:"name"`
		AgentType string `json:"agentType"`
	} `json:"members"`
}

// TeamsSource reads multi-agent team workspaces. Each team directory is one
// workspace holding a single session keyed by the team name.
type TeamsSource struct {
	opts Options
}

// NewTeamsSource creates a TeamsSource.
func NewTeamsSource(opts Options) *TeamsSource {
	return &TeamsSource{opts: opts.withDefaults()}
}

// Name implements session.Source.
func (s *TeamsSource) Name() string { return TeamsSourceName }

// Detect lists team directories under teams/. A missing directory yields an
// empty list.
func (s *TeamsSource) Detect(ctx context.Context) ([]session.WorkspaceRef, error) {
	var refs []session.WorkspaceRef
	for _, name := range listDirs(s.opts.Fs, s.opts.teamsDir()) {
		if s.opts.Exclude.Excluded(name) {
			continue
		}
		refs = append(refs, session.WorkspaceRef{
			SourceName: TeamsSourceName,
			Key:        name,
			Locator:    filepath.Join(s.opts.teamsDir(), name),
		})
	}
	return refs, nil
}

// Scan reads the team's config, inboxes and task list. Unreadable pieces are
// left empty; Scan only fails when the team directory itself is gone.
func (s *TeamsSource) Scan(ctx context.Context, ref session.WorkspaceRef) (session.Session, error) {
	fs := s.opts.Fs
	teamDir := ref.Locator
	if teamDir == "" {
		teamDir = filepath.Join(s.opts.teamsDir(), ref.Key)
	}
	info, err := fs.Stat(teamDir)
	if err != nil {
		return session.Session{}, err
	}

	var cfg teamConfig
	configPath := filepath.Join(teamDir, "config.json")
	if err := readJSON(fs, configPath, &cfg); err != nil {
		s.opts.Logger.WithSource(TeamsSourceName).WithWorkspace(ref.Key).
			Debug("team config unreadable", "error", err.Error())
	}

	messages, inboxTime := s.readInboxes(ref.Key, filepath.Join(teamDir, "inboxes"))
	tasks, taskTime, _ := readTaskDir(fs, filepath.Join(s.opts.tasksDir(), ref.Key))

	fileTime := latest(info.ModTime(), modTime(fs, configPath), inboxTime, taskTime)
	lastActivity := fileTime
	if n := len(messages); n > 0 {
		lastActivity = latest(lastActivity, messages[n-1].Timestamp)
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = ref.Key
	}

	members := make([]string, 0, len(cfg.Members))
	for _, m := range cfg.Members {
		if m.Name != "" {
			members = append(members, m.Name)
		}
	}

	metadata := map[string]any{
		"team":    ref.Key,
		"members": members,
	}
	if desc := strings.TrimSpace(cfg.Description); desc != "" {
		metadata["description"] = desc
	}

	return session.Session{
		ID:           ref.Key,
		DisplayName:  name,
		Kind:         session.KindMultiAgent,
		Tasks:        tasks,
		Messages:     messages,
		Metadata:     metadata,
		LastActivity: lastActivity,
		IsActive:     s.opts.isActive(fileTime),
	}, nil
}

// readInboxes merges every inbox file into one chronological message list
// and returns the newest inbox mtime.
func (s *TeamsSource) readInboxes(team, dir string) ([]session.Message, time.Time) {
	fs := s.opts.Fs
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, time.Time{}
	}

	var (
		messages []session.Message
		newest   time.Time
	)
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != ".json" {
			continue
		}
		inbox := strings.TrimSuffix(info.Name(), ".json")

		var raw []map[string]any
		if err := readJSON(fs, filepath.Join(dir, info.Name()), &raw); err != nil {
			continue
		}
		newest = latest(newest, info.ModTime())

		for _, m := range raw {
			messages = append(messages, s.decodeMessage(team, inbox, m))
		}
	}

	session.SortMessages(messages)
	return messages, newest
}

func (s *TeamsSource) decodeMessage(team, inbox string, raw map[string]any) session.Message {
	from := cast.ToString(raw["from"])
	text := cast.ToString(raw["text"])
	stamp := cast.ToString(raw["timestamp"])
	ts, _ := cast.ToTimeE(raw["timestamp"])
	read := cast.ToBool(raw["read"])

	msg := session.Message{
		ID:        contentID(team, inbox, from, stamp, text),
		From:      from,
		Content:   text,
		Summary:   cast.ToString(raw["summary"]),
		Timestamp: ts,
		Read:      read,
	}

	// Protocol messages (idle notifications, shutdown requests) are JSON
	// payloads with a "type" field; they never need a human.
	if kind, ok := protocolType(text); ok {
		if msg.Summary == "" {
			msg.Summary = kind
		}
		return msg
	}

	msg.NeedsResponse = !read && inbox == s.opts.LeadInbox
	return msg
}

func protocolType(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return "", false
	}
	kind := cast.ToString(payload["type"])
	return kind, kind != ""
}

// Watch re-scans the team whenever its directory, inboxes or task list
// change, and once more when it drops out of the activity window.
func (s *TeamsSource) Watch(ctx context.Context, ref session.WorkspaceRef, onChange func(session.Session)) (session.Watch, error) {
	teamDir := ref.Locator
	dirs := []string{
		teamDir,
		filepath.Join(teamDir, "inboxes"),
		filepath.Join(s.opts.tasksDir(), ref.Key),
	}
	log := s.opts.Logger.WithSource(TeamsSourceName).WithWorkspace(ref.Key)
	return watchSession(ctx, s.opts, log, dirs, ref, s.Scan, onChange)
}

// WatchForNew reports team directories appearing under or disappearing
// from teams/.
func (s *TeamsSource) WatchForNew(ctx context.Context, onAdded, onRemoved func(session.WorkspaceRef)) (session.Watch, error) {
	return watchNamespace(ctx, s, []string{s.opts.teamsDir(), s.opts.Root}, s.opts, onAdded, onRemoved)
}
