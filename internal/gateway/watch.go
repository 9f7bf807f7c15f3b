package gateway

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	eventbus "github.com/hanpama/restgraph/internal/eventbus"
	events "github.com/hanpama/restgraph/internal/events"
)

// Watch rebuilds the gateway whenever the file at path changes and swaps it
// into m; the replaced gateway is closed once its in-flight requests finish. A configuration that fails to build is rejected and the current
// gateway keeps serving. Every attempt publishes an events.Reload. Watch
// blocks until ctx is done.
func (m *Mux) Watch(ctx context.Context, path string, opts ...Option) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	// Editors often replace the file, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "watch %s", path)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			m.reload(ctx, path, opts...)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			eventbus.Publish(ctx, events.Reload{Path: path, Err: errors.Wrap(err, "watch")})
		}
	}
}

func (m *Mux) reload(ctx context.Context, path string, opts ...Option) {
	g, err := Load(path, opts...)
	if err != nil {
		eventbus.Publish(ctx, events.Reload{Path: path, Err: err})
		return
	}
	m.Swap(g)
	eventbus.Publish(ctx, events.Reload{Path: path})
}
