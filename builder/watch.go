package builder

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

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before recompiling.
const DefaultDebounce = 200 * time.Millisecond

// skipDirs are never watched: build output, published modules and VCS data.
var skipDirs = map[string]bool{
	"target":   true,
	"compiled": true,
	".git":     true,
}

// TempInfix separates a destination name from the random suffix of the
// temporary file it is published through: ".<name>" + TempInfix + "<random>".
const TempInfix = ".tmp-"

// Watcher recompiles a project whenever its files change.
type Watcher struct {
	Compiler Compiler
	Config   Config

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Ignore lists extra directory names or absolute paths not to watch. An
	// absolute path also covers the hidden ".<name>.tmp-*" files written
	// next to it while a module is published there.
	Ignore []string
	Logger *slog.Logger

	// OnError, if set, is called with every compile failure after the first
	// outcome, from the same goroutine as onOutcome.
	OnError func(error)
}

// Watch compiles the project once and returns that outcome; an error here
// means the session never started. On success a background goroutine keeps
// watching until ctx is done, calling onOutcome with every later successful
// outcome. onOutcome is never called concurrently with itself. Later
// compile failures are logged and the cycle is skipped.
func (w *Watcher) Watch(ctx context.Context, onOutcome func(*Outcome)) (*Outcome, error) {
	log := w.logger()

	first, err := w.Compiler.Compile(ctx, w.Config)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.addTree(fw, w.Config.Path); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.Config.Path, err)
	}
	log.Info("watching shader project", "path", w.Config.Path)

	go w.loop(ctx, fw, onOutcome)
	return first, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, onOutcome func(*Outcome)) {
	defer fw.Close()
	log := w.logger()

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if w.ignored(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						log.Warn("cannot watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			log.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Warn("file watcher error", "error", err)

		case <-timer.C:
			log.Info("recompiling shaders", "path", w.Config.Path)
			out, err := w.Compiler.Compile(ctx, w.Config)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error("shader compilation failed", "error", err)
				if w.OnError != nil {
					w.OnError(err)
				}
				continue
			}
			onOutcome(out)
		}
	}
}

// addTree watches root and every directory below it that is not ignored.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// ignored reports whether path is inside a skipped or ignored directory, or
// is an ignored file or one of its publish temporaries.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.Config.Path, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = path
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, part := range parts {
		if skipDirs[part] {
			return true
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, ig := range w.Ignore {
		if filepath.IsAbs(ig) {
			ig = filepath.Clean(ig)
			if abs == ig || strings.HasPrefix(abs, ig+string(filepath.Separator)) {
				return true
			}
			if filepath.Dir(abs) == filepath.Dir(ig) &&
				strings.HasPrefix(filepath.Base(abs), "."+filepath.Base(ig)+TempInfix) {
				return true
			}
			continue
		}
		for _, part := range parts {
			if part == ig {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
