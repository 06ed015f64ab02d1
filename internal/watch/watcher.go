// Package watch monitors specification directories and reports changed files.
package watch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/conduit-lang/conceptgen/internal/spec"
)

// DefaultDebounce is the quiet period before accumulated changes are reported.
const DefaultDebounce = 200 * time.Millisecond

// SpecWatcher watches directory trees for changes to specification files
type SpecWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	dirs      []string
	logger    *zap.Logger
	onChange  func([]string) error
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewSpecWatcher creates a watcher over dirs. onChange receives the sorted set of
// specification files that changed during one debounce window.
func NewSpecWatcher(dirs []string, debounce time.Duration, logger *zap.Logger, onChange func([]string) error) (*SpecWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sw := &SpecWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(debounce),
		dirs:      dirs,
		logger:    logger,
		onChange:  onChange,
		stopChan:  make(chan struct{}),
	}

	sw.debouncer.SetCallback(func(files []string) {
		if err := sw.onChange(files); err != nil {
			sw.logger.Warn("error handling specification changes", zap.Error(err))
		}
	})

	return sw, nil
}

// Start adds every directory below the configured roots and begins watching
func (sw *SpecWatcher) Start() error {
	for _, root := range sw.dirs {
		if err := sw.addTree(root); err != nil {
			return err
		}
	}

	sw.wg.Add(1)
	go sw.watch()

	return nil
}

// Stop stops the watcher. Calling Stop more than once is safe.
func (sw *SpecWatcher) Stop() error {
	select {
	case <-sw.stopChan:
		return nil
	default:
		close(sw.stopChan)
	}

	sw.wg.Wait()
	sw.debouncer.Stop()
	return sw.watcher.Close()
}

// addTree watches root and all its subdirectories
func (sw *SpecWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		if err := sw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		sw.logger.Debug("watching directory", zap.String("dir", path))
		return nil
	})
}

// watch is the main event loop
func (sw *SpecWatcher) watch() {
	defer sw.wg.Done()

	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handle(event)

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warn("watch error", zap.Error(err))

		case <-sw.stopChan:
			return
		}
	}
}

func (sw *SpecWatcher) handle(event fsnotify.Event) {
	if isHidden(event.Name) {
		return
	}

	// New directories are watched as they appear.
	if event.Has(fsnotify.Create) {
		if err := sw.watcher.Add(event.Name); err == nil {
			sw.logger.Debug("watching directory", zap.String("dir", event.Name))
		}
	}

	if !spec.IsSpecFile(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		sw.logger.Debug("specification changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
		sw.debouncer.Add(event.Name)
	}
}

// isHidden reports whether the base name starts with a dot
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	// running is held while the callback runs
	running  sync.Mutex
	callback func([]string)
	stopChan chan struct{}
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Add adds a file to the debouncer
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	select {
	case <-d.stopChan:
		return
	default:
	}

	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with accumulated files, sorted. Callbacks never
// run concurrently.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	sort.Strings(files)
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	if callback != nil {
		d.running.Lock()
		defer d.running.Unlock()
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop stops the debouncer
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
}
