package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Change reports that a watched asset was written, created or replaced.
type Change struct {
	Name string // as passed to Watch
	Op   fsnotify.Op
}

// Watcher watches asset files for changes and posts them on a channel.
// It never touches scene state; the main loop drains Changes between frames.
type Watcher struct {
	manager *Manager
	fs      *fsnotify.Watcher
	changes chan Change
	done    chan struct{}
	wg      sync.WaitGroup

	mu    sync.Mutex
	files map[string]string // cleaned absolute path -> asset name
	dirs  map[string]bool

	log *zap.Logger
}

// NewWatcher starts a watcher for assets of m.
func NewWatcher(m *Manager) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		manager: m,
		fs:      fw,
		changes: make(chan Change, 16),
		done:    make(chan struct{}),
		files:   make(map[string]string),
		dirs:    make(map[string]bool),
		log:     m.log.Named("watch"),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Watch adds an asset by name. The containing directory is watched so that
// editors replacing the file by rename are still seen.
func (w *Watcher) Watch(name string) error {
	path, err := filepath.Abs(w.manager.Path(name))
	if err != nil {
		return fmt.Errorf("watching %s: %w", name, err)
	}
	dir := filepath.Dir(path)
	if real, err := filepath.EvalSymlinks(dir); err == nil && real != dir {
		dir = real
		path = filepath.Join(real, filepath.Base(path))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirs[dir] {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files[path] = name
	w.log.Debug("watching asset", zap.String("name", name), zap.String("path", path))
	return nil
}

// Changes returns the channel changes are posted on.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Pending drains queued changes without blocking and returns the distinct names in arrival order.
func (w *Watcher) Pending() []string {
	var names []string
	seen := make(map[string]bool)
	for {
		select {
		case c := <-w.changes:
			if !seen[c.Name] {
				seen[c.Name] = true
				names = append(names, c.Name)
			}
		default:
			return names
		}
	}
}

// Close stops the watcher goroutine and releases the OS watch.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	w.mu.Lock()
	name, ok := w.files[path]
	w.mu.Unlock()
	if !ok {
		return
	}

	w.manager.Invalidate(name)
	select {
	case w.changes <- Change{Name: name, Op: event.Op}:
		w.log.Debug("asset changed", zap.String("name", name), zap.Stringer("op", event.Op))
	default:
		// Queue full: a pending change for the same file already triggers a re-read.
	}
}
