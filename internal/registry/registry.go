// Package registry owns the loaded acoustic models and their grammars, one
// pair per configured language, and tracks which language is active.
//
// All models load at startup; a missing model directory or a rejected model
// bundle aborts the process rather than limping along with a partial
// language set. Selection is user-facing state owned by the app layer,
// which guards it against changing mid-capture.
package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/config"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/grammar"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr"
)

// ErrUnknownLanguage is returned (wrapped) when a language identifier was
// never registered. Recoverable: the previous selection stays active.
var ErrUnknownLanguage = fmt.Errorf("registry: unknown language")

// ModelLoader loads the acoustic model bundle at dir. Production wiring
// passes vosk.LoadModel; tests pass a fake.
type ModelLoader func(dir string) (asr.Model, error)

// Entry is the active model+grammar pair handed to a recognition session.
type Entry struct {
	// Code is the language identifier.
	Code string

	// Model is the loaded acoustic model for the language.
	Model asr.Model

	// Grammar is the closed vocabulary for the language.
	Grammar *grammar.Grammar
}

// langState is the mutable per-language record behind an Entry.
type langState struct {
	cfg     config.LanguageConfig
	model   asr.Model
	grammar *grammar.Grammar
}

// Registry maps language identifiers to loaded model+grammar pairs.
// Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	langs  map[string]*langState
	order  []string
	active string
}

// New loads every configured language eagerly. Any model or grammar load
// failure is returned as a fatal error; the caller aborts startup.
func New(cfg *config.Config, load ModelLoader) (*Registry, error) {
	r := &Registry{langs: make(map[string]*langState, len(cfg.Languages))}

	for _, lc := range cfg.Languages {
		model, err := load(lc.ModelDir)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("registry: load model for %s: %w", lc.Code, err)
		}

		g, err := grammar.Load(lc.GrammarFile)
		if err != nil {
			model.Close()
			r.Close()
			return nil, fmt.Errorf("registry: load grammar for %s: %w", lc.Code, err)
		}

		r.langs[lc.Code] = &langState{cfg: lc, model: model, grammar: g}
		r.order = append(r.order, lc.Code)
		slog.Info("language registered", "code", lc.Code, "model_dir", lc.ModelDir, "names", g.Len())
	}

	r.active = cfg.DefaultLanguage
	return r, nil
}

// Select makes code the active language and returns its entry. On
// [ErrUnknownLanguage] the previous selection is left unchanged.
func (r *Registry) Select(code string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ls, ok := r.langs[code]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	r.active = code
	return Entry{Code: code, Model: ls.model, Grammar: ls.grammar}, nil
}

// Lookup returns the entry for code without changing the selection.
func (r *Registry) Lookup(code string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ls, ok := r.langs[code]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	return Entry{Code: code, Model: ls.model, Grammar: ls.grammar}, nil
}

// Active returns the currently selected entry.
func (r *Registry) Active() Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ls := r.langs[r.active]
	return Entry{Code: r.active, Model: ls.model, Grammar: ls.grammar}
}

// Languages returns the registered language codes in configuration order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make([]string, len(r.order))
	copy(cp, r.order)
	return cp
}

// Reload re-reads the grammar file for code. The model is untouched; model
// changes require a restart.
func (r *Registry) Reload(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ls, ok := r.langs[code]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}

	g, err := grammar.Load(ls.cfg.GrammarFile)
	if err != nil {
		return fmt.Errorf("registry: reload grammar for %s: %w", code, err)
	}
	ls.grammar = g
	slog.Info("grammar reloaded", "code", code, "names", g.Len())
	return nil
}

// AppendName appends name to the grammar file for code and reloads the
// vocabulary. It reports whether the file was modified (false when the name
// was already present).
func (r *Registry) AppendName(code, name string) (bool, error) {
	r.mu.RLock()
	ls, ok := r.langs[code]
	r.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}

	added, err := grammar.Append(ls.cfg.GrammarFile, name)
	if err != nil {
		return false, err
	}
	if !added {
		return false, nil
	}
	return true, r.Reload(code)
}

// GrammarFile returns the grammar file path for code. Used by the grammar
// watcher.
func (r *Registry) GrammarFile(code string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ls, ok := r.langs[code]
	if !ok {
		return "", false
	}
	return ls.cfg.GrammarFile, true
}

// Close frees every loaded model. Safe to call on a partially-built
// registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, ls := range r.langs {
		if err := ls.model.Close(); err != nil {
			slog.Warn("model close error", "code", code, "err", err)
		}
	}
	r.langs = map[string]*langState{}
	r.order = nil
	return nil
}
