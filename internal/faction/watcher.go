package faction

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval collapses the bursts of events editors emit for a
// single save.
const debounceInterval = 100 * time.Millisecond

// Watcher watches a relationship data file and rebuilds the table when the
// file changes. Rebuilt tables arrive on Tables; the consumer installs them
// at a tick boundary. Load failures arrive on Errors and leave whatever
// table is active untouched.
type Watcher struct {
	// Tables delivers freshly built tables. Capacity one: when rebuilds
	// outpace the consumer the newest table replaces the pending one.
	Tables chan *Table

	// Errors delivers load failures for logging.
	Errors chan error

	path    string
	watcher *fsnotify.Watcher
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher starts watching the relationship file at path. The watch is
// registered on the parent directory: editors replace files by rename,
// which silently drops a watch placed on the file itself.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		Tables:  make(chan *Table, 1),
		Errors:  make(chan error, 1),
		path:    path,
		watcher: fw,
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	var lastReload time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			now := time.Now()
			if now.Sub(lastReload) < debounceInterval {
				continue
			}
			lastReload = now
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.deliverError(err)

		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	table, err := LoadTable(w.path)
	if err != nil {
		w.deliverError(err)
		return
	}

	// Drop the pending table, if any, so the newest build wins.
	select {
	case <-w.Tables:
	default:
	}
	select {
	case w.Tables <- table:
	case <-w.closeCh:
	}
}

func (w *Watcher) deliverError(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}
