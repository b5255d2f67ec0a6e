// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds the areas manifest when the areas tree changes.
//
// A Watcher monitors folders recursively and single files (override files of
// external areas live outside the areas folder) and invokes a callback after a
// debounce period. Events within the window are coalesced so the callback
// fires once with the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 200 * time.Millisecond

// defaultIgnores are always excluded: debug snapshots, VCS metadata, installed
// packages and editor noise.
var defaultIgnores = []string{
	"**/.debug/**",
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Paths are watched recursively when they are folders and on their
		// own when they are files, typically the build watch list.
		Paths []string

		// Ignore are doublestar patterns matched against paths relative to the
		// enclosing watched folder and against the absolute slash path.
		// They are merged with the built-in ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the
		// callback fires.
		Debounce time.Duration

		// OnChange receives the sorted absolute paths that changed. A nil
		// callback is a no-op; an error is logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error

		Logger *slog.Logger
	}

	// Watcher monitors the configured paths. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *slog.Logger
		debounce time.Duration
		started  atomic.Bool

		mu    sync.Mutex
		roots []string
		files map[string]struct{}
	}
)

// New validates cfg and registers its paths.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
		files:    map[string]struct{}{},
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	if err := w.Track(cfg.Paths...); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			w.logger.Warn("watch: close after init failure", "error", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Track adds paths that are not watched yet. It is safe to call while Run is
// active, for example after a rebuild discovered new override files.
// Missing paths are skipped.
func (w *Watcher) Track(paths ...string) error {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: resolve %q: %w", p, err)
		}

		info, err := os.Stat(abs)
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("watch: skipping missing path", "path", abs)
			continue
		}
		if err != nil {
			return fmt.Errorf("watch: stat %q: %w", abs, err)
		}

		if info.IsDir() {
			if err := w.addRoot(abs); err != nil {
				return err
			}
			continue
		}
		if err := w.addFile(abs); err != nil {
			return err
		}
	}
	return nil
}

// Watched returns the watched folders and files, sorted.
func (w *Watcher) Watched() (roots, files []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(slices.Values(w.roots)), slices.Sorted(maps.Keys(w.files))
}

func (w *Watcher) addRoot(root string) error {
	w.mu.Lock()
	if slices.ContainsFunc(w.roots, func(r string) bool { return within(root, r) }) {
		w.mu.Unlock()
		return nil
	}
	w.roots = append(w.roots, root)
	w.mu.Unlock()

	return w.addDirectories(root)
}

func (w *Watcher) addFile(file string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[file]; ok {
		return nil
	}
	// fsnotify loses single-file watches on atomic saves; watch the folder.
	if err := w.fsw.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("watch: add folder of %q: %w", file, err)
	}
	w.files[file] = struct{}{}
	return nil
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on cancellation and
// propagates fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation through time.AfterFunc. The busy guard
	// keeps callbacks from overlapping when a rebuild outlasts the debounce.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Info("watch: rebuild still in progress, retrying")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("watch: rebuild failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("watch: close fsnotify", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			if !w.relevant(evt.Name) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending[filepath.ToSlash(evt.Name)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// relevant reports whether an event on p concerns a watched file or a
// non-ignored path below a watched folder.
func (w *Watcher) relevant(p string) bool {
	w.mu.Lock()
	_, isFile := w.files[p]
	root := w.rootOf(p)
	w.mu.Unlock()

	if !isFile && root == "" {
		return false
	}
	return !w.isIgnored(p, root)
}

// rootOf returns the watched folder containing p. Callers hold w.mu.
func (w *Watcher) rootOf(p string) string {
	for _, r := range w.roots {
		if within(p, r) {
			return r
		}
	}
	return ""
}

// addDirectories adds root and every non-ignored folder below it.
func (w *Watcher) addDirectories(root string) error {
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("watch: skipping inaccessible path", "path", p, "error", walkDirErr)
			return nil //nolint:nilerr // inaccessible folders are not watched
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (w.isIgnored(p, root) || w.isIgnored(p+"/", root)) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(p); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %q: %w", root, walkErr)
	}
	return nil
}

// maybeAddDir extends the recursive watch to folders created after startup.
func (w *Watcher) maybeAddDir(p string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return
	}
	w.mu.Lock()
	root := w.rootOf(p)
	w.mu.Unlock()
	if root == "" {
		return
	}
	if err := w.addDirectories(p); err != nil {
		w.logger.Warn("watch: add new directory", "path", p, "error", err)
	}
}

// isIgnored matches p, relative to root when it has one, against the ignore
// patterns.
func (w *Watcher) isIgnored(p, root string) bool {
	candidates := []string{filepath.ToSlash(p)}
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil {
			candidates = append(candidates, filepath.ToSlash(rel))
		}
	}
	for _, pat := range w.ignores {
		for _, c := range candidates {
			if matched, matchErr := doublestar.Match(pat, c); matchErr == nil && matched {
				return true
			}
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid ignore pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}

// within reports whether p is root or lies below it.
func within(p, root string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
