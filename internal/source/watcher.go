package source

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/Iron-Ham/agentboard/internal/logging"
	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/fsnotify/fsnotify"
)

// dirWatcher watches a fixed set of directories (non-recursively) and calls
// onChange once per burst of events. Directories that do not exist yet are
// retried after every burst, so a watch established before a directory is
// created starts covering it once its parent reports the creation.
//
// onChange returns how long to wait before calling it again without any
// event, or zero for no extra call. Sources use this to re-scan a session
// once it leaves the activity window, which no file event announces.
type dirWatcher struct {
	watcher  *fsnotify.Watcher
	wanted   []string
	watched  map[string]bool
	debounce time.Duration
	recheck  time.Duration
	onChange func() time.Duration
	logger   *logging.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newDirWatcher(dirs []string, debounce, recheck time.Duration, logger *logging.Logger, onChange func() time.Duration) (*dirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	d := &dirWatcher{
		watcher:  w,
		wanted:   dirs,
		watched:  make(map[string]bool, len(dirs)),
		debounce: debounce,
		recheck:  recheck,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
	d.addWanted()
	go d.loop()
	return d, nil
}

// addWanted starts watching every wanted directory that now exists. Only
// the loop goroutine calls it after construction.
func (d *dirWatcher) addWanted() {
	for _, dir := range d.wanted {
		if d.watched[dir] {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := d.watcher.Add(dir); err != nil {
			d.logger.Debug("failed to watch directory", "dir", dir, "error", err.Error())
			continue
		}
		d.watched[dir] = true
	}
}

func (d *dirWatcher) loop() {
	timer := time.NewTimer(0)
	<-timer.C
	idle := time.NewTimer(0)
	<-idle.C
	arm(idle, d.recheck)

	for {
		select {
		case <-d.stopCh:
			timer.Stop()
			idle.Stop()
			return

		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				// fsnotify drops the watch on a removed directory.
				delete(d.watched, ev.Name)
			}
			timer.Reset(d.debounce)

		case <-timer.C:
			d.addWanted()
			if d.stopped() {
				return
			}
			arm(idle, d.onChange())

		case <-idle.C:
			if d.stopped() {
				return
			}
			arm(idle, d.onChange())

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Debug("watch error", "error", err.Error())
		}
	}
}

func (d *dirWatcher) stopped() bool {
	select {
	case <-d.stopCh:
		return true
	default:
		return false
	}
}

// arm schedules t after d, or disarms it when d is zero.
func arm(t *time.Timer, d time.Duration) {
	if d <= 0 {
		t.Stop()
		return
	}
	t.Reset(d)
}

// watchSession re-scans ref after every burst of changes in dirs and again
// whenever an active session is due to go idle.
func watchSession(ctx context.Context, opts Options, log *logging.Logger, dirs []string, ref session.WorkspaceRef,
	scan func(context.Context, session.WorkspaceRef) (session.Session, error), onChange func(session.Session)) (session.Watch, error) {
	var first time.Duration
	if sess, err := scan(ctx, ref); err == nil {
		first = opts.untilIdle(sess)
	}

	w, err := newDirWatcher(dirs, opts.Debounce, first, log, func() time.Duration {
		sess, err := scan(ctx, ref)
		if err != nil {
			log.Debug("rescan failed", "error", err.Error())
			return 0
		}
		onChange(sess)
		return opts.untilIdle(sess)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Stop ends the watch. It does not wait for an in-flight onChange, so it is
// safe to call from inside one.
func (d *dirWatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		_ = d.watcher.Close()
	})
}
