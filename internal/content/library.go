// Package content resolves node content refs to files on disk and
// keeps mounted content fresh by watching those files for edits.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"weave/internal/canvas"
)

// ChangedHandler is called when a mounted file changes on disk.
type ChangedHandler func(kind canvas.NodeKind, ref string, body string)

type key struct {
	kind canvas.NodeKind
	ref  string
}

// Library backs canvas content with files under a root directory. A
// node's ref is a path relative to that root. Mounting reads the file
// into the cache and starts watching it; an external edit re-reads it
// and notifies the handler so the host can repaint.
type Library struct {
	root     string
	onChange ChangedHandler
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	mu      sync.RWMutex
	mounted map[key]string  // key -> absolute path
	byPath  map[string]key  // absolute path -> key
	bodies  map[key]string
	watched map[string]bool // directories already added to the watcher
}

// NewLibrary creates a library rooted at dir. onChange and logger may
// be nil.
func NewLibrary(dir string, onChange ChangedHandler, logger *slog.Logger) (*Library, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if logger == nil {
		logger = slog.New(discardHandler{})
	}

	l := &Library{
		root:     dir,
		onChange: onChange,
		logger:   logger,
		watcher:  watcher,
		mounted:  make(map[key]string),
		byPath:   make(map[string]key),
		bodies:   make(map[key]string),
		watched:  make(map[string]bool),
	}

	go l.watchLoop()

	return l, nil
}

// Mount loads the file behind ref and starts watching it.
func (l *Library) Mount(kind canvas.NodeKind, ref string) {
	path, ok := l.resolve(ref)
	if !ok {
		l.logger.Warn("content ref escapes root, not mounted", "ref", ref)
		return
	}

	body, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("content file unreadable", "ref", ref, "err", err)
	}

	k := key{kind: kind, ref: ref}
	l.mu.Lock()
	l.mounted[k] = path
	l.byPath[path] = k
	l.bodies[k] = strings.TrimRight(string(body), "\n")
	dir := filepath.Dir(path)
	needWatch := !l.watched[dir]
	if needWatch {
		l.watched[dir] = true
	}
	l.mu.Unlock()

	if needWatch {
		// Watch the directory (fsnotify watches dirs for file events)
		if err := l.watcher.Add(dir); err != nil {
			l.logger.Warn("watch failed", "dir", dir, "err", err)
		}
	}
}

// Unmount drops the cached body and stops delivering changes for ref.
func (l *Library) Unmount(kind canvas.NodeKind, ref string) {
	k := key{kind: kind, ref: ref}
	l.mu.Lock()
	defer l.mu.Unlock()

	if path, ok := l.mounted[k]; ok {
		delete(l.byPath, path)
	}
	delete(l.mounted, k)
	delete(l.bodies, k)
}

// Body returns the cached content for a mounted ref.
func (l *Library) Body(kind canvas.NodeKind, ref string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	body, ok := l.bodies[key{kind: kind, ref: ref}]
	return body, ok
}

// MountedCount reports how many refs are currently mounted.
func (l *Library) MountedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.mounted)
}

// Close stops the watcher.
func (l *Library) Close() error {
	return l.watcher.Close()
}

// resolve maps a ref to an absolute path under the root, rejecting
// refs that climb out of it.
func (l *Library) resolve(ref string) (string, bool) {
	path := filepath.Join(l.root, filepath.Clean("/"+ref))
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rootAbs, err := filepath.Abs(l.root)
	if err != nil {
		return "", false
	}
	if abs != rootAbs && !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

func (l *Library) watchLoop() {
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			l.mu.RLock()
			k, watched := l.byPath[abs]
			l.mu.RUnlock()
			if !watched {
				continue
			}

			body, err := os.ReadFile(abs)
			if err != nil {
				l.logger.Warn("re-read failed", "path", abs, "err", err)
				continue
			}
			text := strings.TrimRight(string(body), "\n")

			l.mu.Lock()
			l.bodies[k] = text
			l.mu.Unlock()

			if l.onChange != nil {
				l.onChange(k.kind, k.ref, text)
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("watcher error", "err", err)
		}
	}
}

// discardHandler drops all records, same contract as the engine's
// silent default.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
