package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/config"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr"
	asrmock "github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr/mock"
)

// testSetup writes grammar files for two languages and returns a config
// pointing at them plus a loader backed by mocks.
func testSetup(t *testing.T) (*config.Config, ModelLoader, map[string]*asrmock.Model) {
	t.Helper()
	dir := t.TempDir()

	esGrammar := filepath.Join(dir, "es_names.txt")
	brGrammar := filepath.Join(dir, "br_names.txt")
	if err := os.WriteFile(esGrammar, []byte("garcia\nfernandez\n"), 0o644); err != nil {
		t.Fatalf("write grammar: %v", err)
	}
	if err := os.WriteFile(brGrammar, []byte("souza\nsilva\n"), 0o644); err != nil {
		t.Fatalf("write grammar: %v", err)
	}

	cfg := &config.Config{
		DefaultLanguage: "es-ES",
		Languages: []config.LanguageConfig{
			{Code: "es-ES", ModelDir: filepath.Join(dir, "model-es"), GrammarFile: esGrammar, VoiceID: "Lucia"},
			{Code: "pt-BR", ModelDir: filepath.Join(dir, "model-br"), GrammarFile: brGrammar, VoiceID: "Camila"},
		},
	}

	models := map[string]*asrmock.Model{
		cfg.Languages[0].ModelDir: {},
		cfg.Languages[1].ModelDir: {},
	}
	load := func(dir string) (asr.Model, error) {
		m, ok := models[dir]
		if !ok {
			return nil, fmt.Errorf("no model at %s", dir)
		}
		return m, nil
	}
	return cfg, load, models
}

func TestNew_LoadsAllLanguages(t *testing.T) {
	cfg, load, _ := testSetup(t)

	r, err := New(cfg, load)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	langs := r.Languages()
	if len(langs) != 2 || langs[0] != "es-ES" || langs[1] != "pt-BR" {
		t.Fatalf("Languages() = %v, want [es-ES pt-BR]", langs)
	}

	active := r.Active()
	if active.Code != "es-ES" {
		t.Errorf("default active = %q, want es-ES", active.Code)
	}
	if active.Grammar.Len() != 2 {
		t.Errorf("es grammar should have 2 names, got %d", active.Grammar.Len())
	}
}

func TestNew_ModelLoadFailureIsFatal(t *testing.T) {
	cfg, _, _ := testSetup(t)

	load := func(dir string) (asr.Model, error) {
		return nil, errors.New("model directory rejected")
	}
	if _, err := New(cfg, load); err == nil {
		t.Fatal("expected startup failure when a model cannot load")
	}
}

func TestNew_GrammarLoadFailureClosesModel(t *testing.T) {
	cfg, load, models := testSetup(t)
	if err := os.Remove(cfg.Languages[0].GrammarFile); err != nil {
		t.Fatalf("remove grammar: %v", err)
	}

	if _, err := New(cfg, load); err == nil {
		t.Fatal("expected startup failure when a grammar file is missing")
	}
	if !models[cfg.Languages[0].ModelDir].Closed {
		t.Error("model loaded before the failing grammar must be closed")
	}
}

func TestSelect_SwitchesActive(t *testing.T) {
	cfg, load, _ := testSetup(t)
	r, err := New(cfg, load)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	entry, err := r.Select("pt-BR")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if entry.Code != "pt-BR" {
		t.Errorf("entry.Code = %q, want pt-BR", entry.Code)
	}
	if r.Active().Code != "pt-BR" {
		t.Errorf("Active() = %q, want pt-BR", r.Active().Code)
	}
}

func TestSelect_UnknownLeavesSelectionUnchanged(t *testing.T) {
	cfg, load, _ := testSetup(t)
	r, err := New(cfg, load)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	_, err = r.Select("fr-FR")
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
	if r.Active().Code != "es-ES" {
		t.Errorf("failed Select must not change the active language, got %q", r.Active().Code)
	}
}

func TestReload_PicksUpFileChanges(t *testing.T) {
	cfg, load, _ := testSetup(t)
	r, err := New(cfg, load)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	if err := os.WriteFile(cfg.Languages[0].GrammarFile, []byte("garcia\nfernandez\nrossi\n"), 0o644); err != nil {
		t.Fatalf("rewrite grammar: %v", err)
	}
	if err := r.Reload("es-ES"); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := r.Active().Grammar.Len(); got != 3 {
		t.Errorf("grammar after reload has %d names, want 3", got)
	}
}

func TestReload_InvalidFileKeepsOldVocabulary(t *testing.T) {
	cfg, load, _ := testSetup(t)
	r, err := New(cfg, load)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	if err := os.WriteFile(cfg.Languages[0].GrammarFile, []byte("\n\n"), 0o644); err != nil {
		t.Fatalf("rewrite grammar: %v", err)
	}
	if err := r.Reload("es-ES"); err == nil {
		t.Fatal("expected reload error for empty grammar file")
	}
	if got := r.Active().Grammar.Len(); got != 2 {
		t.Errorf("failed reload must keep the old vocabulary, got %d names", got)
	}
}

func TestAppendName_AddsAndReloads(t *testing.T) {
	cfg, load, _ := testSetup(t)
	r, err := New(cfg, load)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	added, err := r.AppendName("es-ES", "rossi")
	if err != nil {
		t.Fatalf("AppendName: %v", err)
	}
	if !added {
		t.Fatal("expected rossi to be added")
	}
	if !r.Active().Grammar.Contains("rossi") {
		t.Error("vocabulary should contain rossi after append")
	}

	added, err = r.AppendName("es-ES", "ROSSI")
	if err != nil {
		t.Fatalf("AppendName duplicate: %v", err)
	}
	if added {
		t.Error("duplicate append must report false")
	}
}

func TestClose_FreesAllModels(t *testing.T) {
	cfg, load, models := testSetup(t)
	r, err := New(cfg, load)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for dir, m := range models {
		if !m.Closed {
			t.Errorf("model %s not closed", dir)
		}
	}
}

func TestWatcher_ReloadsOnFileChange(t *testing.T) {
	cfg, load, _ := testSetup(t)
	r, err := New(cfg, load)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	w := NewWatcher(r, WithInterval(10*time.Millisecond))
	defer w.Stop()

	if err := os.WriteFile(cfg.Languages[1].GrammarFile, []byte("souza\nsilva\npereira\n"), 0o644); err != nil {
		t.Fatalf("rewrite grammar: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entry, err := r.Select("pt-BR")
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if entry.Grammar.Len() == 3 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("watcher did not reload grammar within deadline")
}
