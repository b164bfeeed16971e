// Package watch reloads a compared video when its file is rewritten
// on disk, so a re-exported encode shows up without reopening it by
// hand. Encoders write in bursts, so change events are debounced and
// the reload fires once the file has gone quiet.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/sidereel/pkg/util"
)

const quietPeriod = 500 * time.Millisecond

// Watcher notifies when watched video files change.
type Watcher struct {
	logger zerolog.Logger
	fs     *fsnotify.Watcher

	mu      sync.Mutex
	paths   map[string]*util.Debouncer
	onWrite func(path string)

	done chan struct{}
}

// New creates a watcher. onWrite is called with the changed file path
// after its write burst has settled; it runs on a watcher goroutine,
// so callers must dispatch onto their own event thread.
func New(logger zerolog.Logger, onWrite func(path string)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		logger:  logger.With().Str("component", "watch").Logger(),
		fs:      fs,
		paths:   make(map[string]*util.Debouncer),
		onWrite: onWrite,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch starts watching a file. The parent directory is watched so
// the rename-into-place pattern many encoders use is still seen.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if _, ok := w.paths[abs]; !ok {
		w.paths[abs] = util.NewDebouncer(quietPeriod)
	}
	w.mu.Unlock()

	return w.fs.Add(filepath.Dir(abs))
}

// Unwatch stops watching a file.
func (w *Watcher) Unwatch(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	if d, ok := w.paths[abs]; ok {
		d.Stop()
		delete(w.paths, abs)
	}
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.handle(ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	d, ok := w.paths[abs]
	w.mu.Unlock()
	if !ok {
		return
	}

	w.logger.Debug().Str("path", abs).Msg("file changed")
	d.Trigger(func() {
		w.onWrite(abs)
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)

	w.mu.Lock()
	for _, d := range w.paths {
		d.Stop()
	}
	w.mu.Unlock()

	return w.fs.Close()
}
