package source

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

// readTaskDir loads every *.json task file in dir. Files that cannot be
// read or decoded are skipped. It also returns the newest file mtime and
// the metadata map of the first task that carries one.
func readTaskDir(fs afero.Fs, dir string) ([]session.TaskItem, time.Time, map[string]any) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, time.Time{}, nil
	}

	var (
		tasks    []session.TaskItem
		newest   time.Time
		metadata map[string]any
	)
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != ".json" {
			continue
		}
		var raw map[string]any
		if err := readJSON(fs, filepath.Join(dir, info.Name()), &raw); err != nil {
			continue
		}
		newest = latest(newest, info.ModTime())

		task := decodeTask(raw, strings.TrimSuffix(info.Name(), ".json"))
		tasks = append(tasks, task)

		if metadata == nil {
			if m, ok := raw["metadata"].(map[string]any); ok && len(m) > 0 {
				metadata = m
			}
		}
	}

	sortTasks(tasks)
	pruneEdges(tasks)
	return tasks, newest, metadata
}

func decodeTask(raw map[string]any, fallbackID string) session.TaskItem {
	id := cast.ToString(raw["id"])
	if id == "" {
		id = fallbackID
	}
	status := session.TaskStatus(cast.ToString(raw["status"]))
	if status == "" {
		status = session.TaskPending
	}
	return session.TaskItem{
		ID:        id,
		Subject:   strings.TrimSpace(cast.ToString(raw["subject"])),
		Status:    status,
		Owner:     cast.ToString(raw["owner"]),
		Blocks:    cast.ToStringSlice(raw["blocks"]),
		BlockedBy: cast.ToStringSlice(raw["blockedBy"]),
	}
}

// sortTasks orders tasks by numeric ID when both IDs are numbers, and
// lexically otherwise.
func sortTasks(tasks []session.TaskItem) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, errA := strconv.Atoi(tasks[i].ID)
		b, errB := strconv.Atoi(tasks[j].ID)
		if errA == nil && errB == nil {
			return a < b
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// pruneEdges drops blocking references to tasks outside the list.
func pruneEdges(tasks []session.TaskItem) {
	ids := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		ids[t.ID] = true
	}
	keep := func(refs []string) []string {
		var out []string
		for _, r := range refs {
			if ids[r] {
				out = append(out, r)
			}
		}
		return out
	}
	for i := range tasks {
		tasks[i].Blocks = keep(tasks[i].Blocks)
		tasks[i].BlockedBy = keep(tasks[i].BlockedBy)
	}
}
