package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a qualifying filesystem change: a create, write, remove, or
// rename of a file with a watched extension under a watched directory.
type Event struct {
	// Path is the file whose change triggered the event. When several
	// changes are coalesced by the debouncer, Path is the last one seen.
	Path string
}

// Options configures a Watcher.
type Options struct {
	// Dirs are the directory roots to watch recursively.
	Dirs []string

	// Extensions are the file extensions (with leading dot) that qualify
	// an event. Empty means every file qualifies.
	Extensions []string

	// Debounce is the quiet period before an event is delivered.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// Watcher wraps an fsnotify watcher and emits debounced, filtered change
// events. Events that arrive while a previous one is still undelivered are
// coalesced: consumers observe "at least one change", never a queue.
type Watcher struct {
	fsw    *fsnotify.Watcher
	opts   Options
	events chan Event
}

// New creates a Watcher over opts.Dirs. Failure to create the underlying
// fsnotify watcher (e.g. inotify instance exhaustion) or to register a
// directory is fatal and reported to the caller.
func New(opts Options) (*Watcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	for _, dir := range opts.Dirs {
		if err := addRecursive(fsw, dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching directory %q: %w", dir, err)
		}
	}

	return &Watcher{
		fsw:    fsw,
		opts:   opts,
		events: make(chan Event, 1),
	}, nil
}

// Events returns the channel on which qualifying changes are delivered.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close releases the underlying filesystem watcher. It causes a running
// Run loop to return.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes raw filesystem events until ctx is cancelled or the watcher
// is closed. It re-arms itself indefinitely: each qualifying event is
// debounced and published, then watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	debouncer := NewDebouncer(w.opts.Debounce, w.events)
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			// If a new directory appears, watch it too.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					w.watchNewDir(event.Name)
					continue
				}
			}

			if !w.qualifies(event) {
				continue
			}

			w.opts.Logger.Debug("file change detected",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)

			debouncer.Record(Event{Path: event.Name})

		case watchErr, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			w.opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// watchNewDir registers a directory that appeared after the initial walk.
// A failure means a subtree may go unwatched, so it is logged rather than
// silently dropped.
func (w *Watcher) watchNewDir(path string) {
	if err := addRecursive(w.fsw, path); err != nil {
		w.opts.Logger.Warn("failed to watch new directory",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// qualifies reports whether event is a relevant change to a watched file.
func (w *Watcher) qualifies(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return matchesExtension(event.Name, w.opts.Extensions)
}

// matchesExtension reports whether path has one of the given extensions.
// An empty extension list matches everything.
func matchesExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}

	ext := filepath.Ext(path)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}

	return false
}

// addRecursive walks root and adds all directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories (e.g., .git).
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		}

		return nil
	})
}
