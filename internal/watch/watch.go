// Package watch monitors the board database for writes so the conflict
// detector can be re-run continuously over live assignment data, rather
// than only on explicit optimize actions.
package watch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change signals that the board file was modified and conflicts should
// be re-derived.
type Change struct {
	File string
	At   time.Time
}

// Watcher monitors a board database file using fsnotify. Events are
// debounced so a burst of writes (SQLite touches the db, -wal, and -shm
// files) produces a single change.
type Watcher struct {
	Changes <-chan Change // Read-only external channel

	path    string
	changes chan Change // Internal write channel
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// New creates a watcher for the given database file. The containing
// directory is watched because SQLite replaces sidecar files rather than
// rewriting the db in place.
func New(dbPath string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Changes: ch,
		path:    dbPath,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching for board writes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: coalesce events until the board has been quiet briefly.
	const debounce = 200 * time.Millisecond
	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if !pending.IsZero() {
					w.changes <- Change{File: w.path, At: time.Now()}
				}
				return
			}
			if !w.isBoardFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			if !pending.IsZero() && time.Since(pending) >= debounce {
				w.changes <- Change{File: w.path, At: time.Now()}
				pending = time.Time{}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Ignore watch errors; they're non-fatal.
		}
	}
}

// isBoardFile matches the db file and its SQLite sidecars.
func (w *Watcher) isBoardFile(name string) bool {
	base := filepath.Base(w.path)
	got := filepath.Base(name)
	return got == base || got == base+"-wal" || got == base+"-shm"
}
