package source

import (
	"context"
	"time"

	"github.com/Iron-Ham/agentboard/internal/session"
)

// detector is the part of a source watchNamespace needs.
type detector interface {
	Name() string
	Detect(ctx context.Context) ([]session.WorkspaceRef, error)
}

// watchNamespace watches dirs and re-runs Detect after every burst of
// changes, reporting refs that appeared or disappeared since the previous
// run.
func watchNamespace(ctx context.Context, src detector, dirs []string, opts Options, onAdded, onRemoved func(session.WorkspaceRef)) (session.Watch, error) {
	log := opts.Logger.WithSource(src.Name())

	known := make(map[string]session.WorkspaceRef)
	refs, err := src.Detect(ctx)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		known[ref.Key] = ref
	}

	w, err := newDirWatcher(dirs, opts.Debounce, 0, log, func() time.Duration {
		refs, err := src.Detect(ctx)
		if err != nil {
			log.Warn("detect failed", "error", err.Error())
			return 0
		}

		current := make(map[string]session.WorkspaceRef, len(refs))
		for _, ref := range refs {
			current[ref.Key] = ref
			if _, ok := known[ref.Key]; !ok {
				log.Info("workspace appeared", "workspace", ref.Key)
				onAdded(ref)
			}
		}
		for key, ref := range known {
			if _, ok := current[key]; !ok {
				log.Info("workspace disappeared", "workspace", key)
				onRemoved(ref)
			}
		}
		known = current
		return 0
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}
