package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher flags a reload when the watch file changes. It watches the
// parent directory so editors that replace the file by rename are seen.
// It never reloads anything itself.
type Watcher struct {
	path   string
	flag   *Flag
	logger *zap.Logger

	fw        *fsnotify.Watcher
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

func New(path string, flag *Flag, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{
		path:   filepath.Clean(abs),
		flag:   flag,
		logger: logger,
		fw:     fw,
		done:   make(chan struct{}),
	}, nil
}

// Run handles events until ctx is cancelled, then releases the fsnotify
// handle. It always returns nil; watch errors are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.done)
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Config watcher stopped", zap.String("path", w.path))
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(fmt.Sprintf("Config watcher error: %v", err), zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path || !ev.Has(changeOps) {
		return
	}
	if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
		return
	}
	w.flag.Set()
	w.logger.Debug("Config change detected",
		zap.String("path", w.path),
		zap.String("op", ev.Op.String()),
	)
}

// Close releases the fsnotify handle. Safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { w.closeErr = w.fw.Close() })
	return w.closeErr
}

// Done is closed once Run has returned and the handle is released.
func (w *Watcher) Done() <-chan struct{} { return w.done }
