package script

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

//go:embed builtin/*.lua
var builtin embed.FS

var ErrNotFound = errors.New("hanoi: script not found")

// Library holds named scripts: the built-in ones plus every *.lua file in
// an optional directory. Files shadow built-ins of the same name.
type Library struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	scripts map[string]string
}

// NewLibrary loads the built-in scripts and, when dir is not empty, the
// scripts found there.
func NewLibrary(dir string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Library{dir: dir, logger: logger, scripts: map[string]string{}}
	if err := l.loadBuiltins(); err != nil {
		return nil, err
	}
	if dir == "" {
		return l, nil
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range ents {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		if err := l.loadFile(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Library) loadBuiltins() error {
	return fs.WalkDir(builtin, "builtin", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := builtin.ReadFile(path)
		if err != nil {
			return err
		}
		l.scripts[scriptName(path)] = string(b)
		return nil
	})
}

func (l *Library) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.scripts[scriptName(path)] = string(b)
	l.mu.Unlock()
	l.logger.Debug("script loaded", "name", scriptName(path))
	return nil
}

// remove drops a file-backed script, restoring a shadowed built-in.
func (l *Library) remove(path string) {
	name := scriptName(path)
	l.mu.Lock()
	delete(l.scripts, name)
	if b, err := builtin.ReadFile("builtin/" + name + ".lua"); err == nil {
		l.scripts[name] = string(b)
	}
	l.mu.Unlock()
	l.logger.Debug("script removed", "name", name)
}

func (l *Library) Get(name string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src, ok := l.scripts[name]
	if !ok {
		return "", ErrNotFound
	}
	return src, nil
}

// Names returns the script names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	out := make([]string, 0, len(l.scripts))
	for n := range l.scripts {
		out = append(out, n)
	}
	l.mu.RUnlock()
	sort.Strings(out)
	return out
}

func scriptName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".lua")
}

// Watcher reloads a library's directory as files change.
type Watcher struct {
	lib *Library
	w   *fsnotify.Watcher
}

// Watch starts watching the library directory. The watch is registered
// before Watch returns; events are applied by Run.
func (l *Library) Watch() (*Watcher, error) {
	if l.dir == "" {
		return nil, errors.New("hanoi: script library has no directory")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(l.dir); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{lib: l, w: w}, nil
}

// Run applies file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.w.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".lua" {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				w.lib.remove(ev.Name)
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				if err := w.lib.loadFile(ev.Name); err != nil {
					w.lib.logger.Warn("script reload failed", "path", ev.Name, "err", err)
				}
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.lib.logger.Warn("script watch", "err", err)
		}
	}
}
