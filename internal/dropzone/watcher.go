// Package dropzone watches a folder and reports documents dropped into it.
package dropzone

import (
	"context"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultQuietPeriod = 250 * time.Millisecond

// Watcher batches file drops in a directory.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	quiet      time.Duration
}

// New creates a watcher for the given extensions (".pdf" when empty). Drops
// are grouped until no new event arrives for quiet.
func New(extensions []string, quiet time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".pdf"}
	}
	if quiet <= 0 {
		quiet = defaultQuietPeriod
	}
	return &Watcher{watcher: w, extensions: extensions, quiet: quiet}, nil
}

// Watch emits batches of paths created or rewritten under dir. The channel
// closes when ctx ends or the watcher stops.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan []string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	batches := make(chan []string, 8)

	go func() {
		defer close(batches)
		pending := map[string]struct{}{}
		timer := time.NewTimer(w.quiet)
		if !timer.Stop() {
			<-timer.C
		}
		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			pending = map[string]struct{}{}
			select {
			case batches <- batch:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					flush()
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				pending[event.Name] = struct{}{}
				timer.Reset(w.quiet)
			case <-timer.C:
				if !flush() {
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[dropzone] watch error: %v", err)
			}
		}
	}()

	return batches, nil
}

// Stop releases the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) isWatchedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
