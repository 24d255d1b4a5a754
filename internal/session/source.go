package session

import "context"

// Source enumerates, reads and watches one kind of work-tracking data.
//
// Implementations recover from I/O problems locally: Detect returns an empty
// list when its root is missing and Scan degrades malformed data to empty
// fields. A returned error means the workspace could not be read at all.
type Source interface {
	// Name returns the source name used in WorkspaceRef.SourceName.
	Name() string

	// Detect lists the workspaces currently discoverable.
	Detect(ctx context.Context) ([]WorkspaceRef, error)

	// Scan produces a full normalized snapshot of one workspace.
	Scan(ctx context.Context, ref WorkspaceRef) (Session, error)

	// Watch begins observing an onboarded workspace. onChange receives a
	// fresh Scan result every time the underlying data changes.
	Watch(ctx context.Context, ref WorkspaceRef, onChange func(Session)) (Watch, error)
}

// NamespaceWatcher is implemented by sources that can report workspaces
// appearing or disappearing after startup.
type NamespaceWatcher interface {
	WatchForNew(ctx context.Context, onAdded, onRemoved func(WorkspaceRef)) (Watch, error)
}

// Watch is a handle to an active observation.
type Watch interface {
	// Stop ends the observation. Safe to call more than once.
	Stop()
}

// WatchFunc adapts a plain function to the Watch interface.
type WatchFunc func()

// Stop calls f.
func (f WatchFunc) Stop() {
	if f != nil {
		f()
	}
}
