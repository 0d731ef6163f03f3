package dataset

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Watcher reloads a Holder when table files in a directory change. Bursts of
// events (an editor saving, a copy in progress) are collapsed by a debounce
// timer so each burst triggers one reload.
type Watcher struct {
	mu sync.Mutex

	dir    string
	holder *Holder

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	doneCh    chan struct{}
	running   bool

	debounceDelay time.Duration
	timer         *time.Timer

	onReload func(*Dataset)
	onError  func(error)
}

// WatcherOption configures the watcher
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the quiet period before a reload. Default 500ms.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounceDelay = d }
}

// WithOnReload registers a callback for successful reloads
func WithOnReload(fn func(*Dataset)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// WithOnError registers a callback for reload and watch errors
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher watches dir for the holder
func NewWatcher(dir string, holder *Holder, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: create watcher")
	}
	w := &Watcher{
		dir:           dir,
		holder:        holder,
		fsWatcher:     fsw,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		debounceDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.fsWatcher.Add(w.dir); err != nil {
		return eris.Wrapf(err, "dataset: watch %s", w.dir)
	}
	zap.L().Info("dataset: watching for table changes", zap.String("dir", w.dir))
	go w.processEvents()
	return nil
}

// Stop ends watching and waits for the event loop to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	return w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			zap.L().Warn("dataset: watcher error", zap.Error(err))
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !IsTableFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	ds, err := w.holder.Reload(context.Background())
	if err != nil {
		zap.L().Error("dataset: reload failed", zap.Error(err))
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if w.onReload != nil {
		w.onReload(ds)
	}
}

// IsTableFile reports file names the loaders understand
func IsTableFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv", ".tsv", ".tab", ".txt", ".xlsx", ".xlsm":
		return true
	}
	return false
}
