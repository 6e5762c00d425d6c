package registry

import (
	"crypto/sha256"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher monitors the grammar files of every registered language and
// reloads a language's vocabulary when its file changes on disk. It uses
// polling (not fsnotify) to keep dependencies minimal; name lists change
// rarely and a few seconds of lag is fine.
type Watcher struct {
	reg      *Registry
	interval time.Duration

	mu       sync.Mutex
	seen     map[string]fileState
	done     chan struct{}
	stopOnce sync.Once
}

type fileState struct {
	mtime time.Time
	hash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher starts watching the grammar files of reg in a background
// goroutine. The initial file states are recorded without triggering a
// reload; the registry already holds the current vocabularies.
func NewWatcher(reg *Registry, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		reg:      reg,
		interval: 5 * time.Second,
		seen:     make(map[string]fileState),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, code := range reg.Languages() {
		path, ok := reg.GrammarFile(code)
		if !ok {
			continue
		}
		if st, err := stateOf(path); err == nil {
			w.seen[code] = st
		}
	}

	go w.poll()
	return w
}

// Stop stops the watcher goroutine.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check scans every watched grammar file and reloads languages whose file
// content changed since the last scan. An invalid file (e.g. emptied by a
// half-finished edit) is logged and skipped; the old vocabulary stays live.
func (w *Watcher) check() {
	for _, code := range w.reg.Languages() {
		path, ok := w.reg.GrammarFile(code)
		if !ok {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			slog.Warn("grammar watcher: cannot stat file", "code", code, "path", path, "err", err)
			continue
		}

		w.mu.Lock()
		prev, known := w.seen[code]
		w.mu.Unlock()

		// Quick mtime check first to avoid hashing unchanged files.
		if known && info.ModTime().Equal(prev.mtime) {
			continue
		}

		st, err := stateOf(path)
		if err != nil {
			slog.Warn("grammar watcher: cannot read file", "code", code, "path", path, "err", err)
			continue
		}

		if known && st.hash == prev.hash {
			// File was touched but content is identical.
			w.mu.Lock()
			w.seen[code] = st
			w.mu.Unlock()
			continue
		}

		if err := w.reg.Reload(code); err != nil {
			slog.Warn("grammar watcher: reload failed, keeping previous vocabulary", "code", code, "err", err)
			continue
		}

		w.mu.Lock()
		w.seen[code] = st
		w.mu.Unlock()
	}
}

func stateOf(path string) (fileState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileState{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{mtime: info.ModTime(), hash: sha256.Sum256(data)}, nil
}
