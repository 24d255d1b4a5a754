// Package registry owns the set of known workspaces and the sessions most
// recently scanned from them. It onboards workspaces from registered
// sources, keeps a watch on each, and merges every fresh snapshot into the
// workspace's session list.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/Iron-Ham/agentboard/internal/errors"
	"github.com/Iron-Ham/agentboard/internal/event"
	"github.com/Iron-Ham/agentboard/internal/logging"
	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/sourcegraph/conc/pool"
)

// DefaultParallelism bounds concurrent scans during Initialize.
const DefaultParallelism = 4

type entry struct {
	ref      session.WorkspaceRef
	source   session.Source
	sessions []session.Session
	watch    session.Watch
}

// Registry aggregates sessions from every registered source.
//
// Scans may run concurrently, but merges are serialized and each merge
// publishes exactly one event.StateChangedEvent on the bus before the next
// merge begins, so listeners observe snapshots in delivery order.
type Registry struct {
	mu         sync.RWMutex
	sources    []session.Source
	workspaces map[string]*entry
	nsWatches  []session.Watch

	// mergeMu serializes merge+publish pairs.
	mergeMu sync.Mutex

	bus         *event.Bus
	logger      *logging.Logger
	parallelism int
}

// Option configures a Registry.
type Option func(*Registry)

// WithBus sets the bus used for state-changed broadcasts.
func WithBus(bus *event.Bus) Option {
	return func(r *Registry) {
		r.bus = bus
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithParallelism sets how many workspaces Initialize scans at once.
func WithParallelism(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		workspaces:  make(map[string]*entry),
		logger:      logging.NopLogger(),
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.bus == nil {
		r.bus = event.NewBus(event.WithLogger(r.logger))
	}
	return r
}

// Bus returns the bus the registry publishes on.
func (r *Registry) Bus() *event.Bus {
	return r.bus
}

// RegisterSource adds a source. Sources registered after Initialize are not
// detected until Initialize runs again.
func (r *Registry) RegisterSource(src session.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
}

// OnStateChange registers cb to run synchronously after every merge or
// workspace removal. The returned function unregisters it.
func (r *Registry) OnStateChange(cb func()) func() {
	id := r.bus.Subscribe(event.TypeStateChanged, func(event.Event) {
		cb()
	})
	return func() {
		r.bus.Unsubscribe(id)
	}
}

// Initialize detects the workspaces of every registered source and onboards
// them. A failure in one source or workspace is logged and published as an
// event.SourceFailedEvent; it never stops the others. Calling Initialize
// again onboards only workspaces not yet known.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.RLock()
	sources := append([]session.Source(nil), r.sources...)
	r.mu.RUnlock()

	p := pool.New().WithMaxGoroutines(r.parallelism)
	for _, src := range sources {
		log := r.logger.WithSource(src.Name())

		refs, err := src.Detect(ctx)
		if err != nil {
			log.Warn("detect failed", "error", err.Error())
			r.bus.Publish(event.NewSourceFailedEvent(src.Name(), "", "detect", err))
		}
		log.Debug("detected workspaces", "count", len(refs))

		for _, ref := range refs {
			p.Go(func() {
				r.Onboard(ctx, src, ref)
			})
		}
	}
	p.Wait()

	for _, src := range sources {
		nw, ok := src.(session.NamespaceWatcher)
		if !ok {
			continue
		}
		watch, err := nw.WatchForNew(ctx,
			func(ref session.WorkspaceRef) { r.Onboard(ctx, src, ref) },
			func(ref session.WorkspaceRef) { r.RemoveWorkspace(ref) },
		)
		if err != nil {
			r.logger.WithSource(src.Name()).Warn("namespace watch failed", "error", err.Error())
			r.bus.Publish(event.NewSourceFailedEvent(src.Name(), "", "watch", err))
			continue
		}
		r.mu.Lock()
		r.nsWatches = append(r.nsWatches, watch)
		r.mu.Unlock()
	}

	return ctx.Err()
}

// Onboard starts tracking ref if it is not already known: it scans the
// workspace, merges the result and establishes a watch whose notifications
// re-merge. A failed scan leaves the workspace out of Workspaces until the
// watch delivers a snapshot. A failed watch forgets the workspace so a later
// Initialize or namespace notification retries it.
func (r *Registry) Onboard(ctx context.Context, src session.Source, ref session.WorkspaceRef) {
	key := ref.ID()
	log := r.logger.WithSource(ref.SourceName).WithWorkspace(ref.Key)

	r.mu.Lock()
	if _, known := r.workspaces[key]; known {
		r.mu.Unlock()
		return
	}
	r.workspaces[key] = &entry{ref: ref, source: src}
	r.mu.Unlock()

	r.bus.Publish(event.NewWorkspaceAddedEvent(key, ref.SourceName))

	sess, err := src.Scan(ctx, ref)
	if err != nil {
		scanErr := errors.NewSourceError("scan failed", err).
			WithSource(ref.SourceName).
			WithWorkspace(ref.Key)
		log.Warn("scan failed", "error", scanErr.Error())
		r.bus.Publish(event.NewSourceFailedEvent(ref.SourceName, key, "scan", scanErr))
	} else {
		r.merge(key, sess)
	}

	watch, err := src.Watch(ctx, ref, func(s session.Session) {
		r.merge(key, s)
	})
	if err != nil {
		log.Warn("watch failed", "error", err.Error())
		r.bus.Publish(event.NewSourceFailedEvent(ref.SourceName, key, "watch", err))
		r.RemoveWorkspace(ref)
		return
	}

	r.mu.Lock()
	e, ok := r.workspaces[key]
	if ok {
		e.watch = watch
	}
	r.mu.Unlock()

	// Removed while we were scanning.
	if !ok {
		watch.Stop()
		return
	}
	log.Info("workspace onboarded")
}

// merge replaces the session with a matching ID, or appends it, then
// publishes one state-changed event. Snapshots for unknown workspaces are
// dropped.
func (r *Registry) merge(key string, sess session.Session) {
	r.mergeMu.Lock()
	defer r.mergeMu.Unlock()

	r.mu.Lock()
	e, ok := r.workspaces[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	replaced := false
	next := make([]session.Session, len(e.sessions), len(e.sessions)+1)
	copy(next, e.sessions)
	for i := range next {
		if next[i].ID == sess.ID {
			next[i] = sess
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, sess)
	}
	e.sessions = next
	r.mu.Unlock()

	r.bus.Publish(event.NewStateChangedEvent(key, sess.ID))
}

// RemoveWorkspace forgets ref and stops its watch. Unknown refs are ignored.
func (r *Registry) RemoveWorkspace(ref session.WorkspaceRef) {
	key := ref.ID()

	r.mergeMu.Lock()
	r.mu.Lock()
	e, ok := r.workspaces[key]
	if ok {
		delete(r.workspaces, key)
	}
	r.mu.Unlock()
	if ok {
		r.bus.Publish(event.NewWorkspaceRemovedEvent(key, ref.SourceName))
		r.bus.Publish(event.NewStateChangedEvent(key, ""))
	}
	r.mergeMu.Unlock()

	if !ok {
		return
	}
	// Stopped outside mergeMu: a watcher blocked in merge must be able to
	// finish before Stop returns.
	if e.watch != nil {
		e.watch.Stop()
	}
	r.logger.WithSource(ref.SourceName).WithWorkspace(ref.Key).Info("workspace removed")
}

// Workspaces returns every workspace holding at least one scanned session,
// sorted by source name then key. The returned slices are copies.
func (r *Registry) Workspaces() []session.Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]session.Workspace, 0, len(r.workspaces))
	for _, e := range r.workspaces {
		if len(e.sessions) == 0 {
			continue
		}
		out = append(out, session.Workspace{
			Ref:      e.ref,
			Sessions: append([]session.Session(nil), e.sessions...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ref.ID() < out[j].Ref.ID()
	})
	return out
}

// Known reports whether the workspace is being tracked, scanned or not.
func (r *Registry) Known(ref session.WorkspaceRef) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.workspaces[ref.ID()]
	return ok
}

// Close stops every watch. The registry keeps its last snapshots.
func (r *Registry) Close() {
	r.mu.Lock()
	watches := r.nsWatches
	r.nsWatches = nil
	for _, e := range r.workspaces {
		if e.watch != nil {
			watches = append(watches, e.watch)
			e.watch = nil
		}
	}
	r.mu.Unlock()

	for _, w := range watches {
		w.Stop()
	}
}
