package source

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/Iron-Ham/agentboard/internal/logging"
	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/spf13/afero"
)

// Default tuning values used when Options leaves them unset.
const (
	DefaultActivityWindow = 2 * time.Minute
	DefaultDebounce       = 100 * time.Millisecond
	DefaultLeadInbox      = "team-lead"
)

// Options configures a source.
type Options struct {
	// Root is the Claude data directory containing teams/ and tasks/.
	Root string
	// Fs is the filesystem to read from. Defaults to the OS filesystem.
	Fs afero.Fs
	// Exclude skips workspaces by key.
	Exclude Filter
	// ActivityWindow marks a session active when anything in it changed
	// this recently.
	ActivityWindow time.Duration
	// Debounce coalesces filesystem events before re-scanning.
	Debounce time.Duration
	// LeadInbox names the inbox whose unread messages need a response.
	// Only used by TeamsSource.
	LeadInbox string
	Logger    *logging.Logger
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.ActivityWindow <= 0 {
		o.ActivityWindow = DefaultActivityWindow
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.LeadInbox == "" {
		o.LeadInbox = DefaultLeadInbox
	}
	if o.Logger == nil {
		o.Logger = logging.NopLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) teamsDir() string { return filepath.Join(o.Root, "teams") }
func (o Options) tasksDir() string { return filepath.Join(o.Root, "tasks") }

// isActive reports whether t falls inside the activity window.
func (o Options) isActive(t time.Time) bool {
	return !t.IsZero() && o.Now().Sub(t) <= o.ActivityWindow
}

// idleMargin puts a re-scan just past the end of the activity window.
const idleMargin = 50 * time.Millisecond

// untilIdle returns how long until sess stops counting as active, or zero
// when it already is not. Sessions judge activity by file times, which are
// never later than LastActivity, so the wait is capped at one window.
func (o Options) untilIdle(sess session.Session) time.Duration {
	if !sess.IsActive {
		return 0
	}
	wait := sess.LastActivity.Add(o.ActivityWindow).Sub(o.Now())
	return min(max(wait, 0), o.ActivityWindow) + idleMargin
}

// listDirs returns the sorted names of subdirectories of dir. A missing or
// unreadable dir yields an empty list.
func listDirs(fs afero.Fs, dir string) []string {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names
}

// modTime returns the modification time of path, or zero if it cannot be
// read.
func modTime(fs afero.Fs, path string) time.Time {
	info, err := fs.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func latest(times ...time.Time) time.Time {
	var out time.Time
	for _, t := range times {
		if t.After(out) {
			out = t
		}
	}
	return out
}
