package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/config"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/registry"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr"
	asrmock "github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr/mock"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts"
	ttsmock "github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts/mock"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	dir := t.TempDir()
	grammarFile := filepath.Join(dir, "names.txt")
	if err := os.WriteFile(grammarFile, []byte("garcia\n"), 0o644); err != nil {
		t.Fatalf("write grammar: %v", err)
	}

	cfg := &config.Config{
		DefaultLanguage: "es-ES",
		Languages: []config.LanguageConfig{
			{Code: "es-ES", ModelDir: "m", GrammarFile: grammarFile, VoiceID: "Lucia"},
		},
	}
	reg, err := registry.New(cfg, func(string) (asr.Model, error) {
		return &asrmock.Model{}, nil
	})
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestModelsChecker(t *testing.T) {
	reg := testRegistry(t)
	c := ModelsChecker(reg)
	if c.Name != "models" {
		t.Errorf("checker name = %q, want models", c.Name)
	}
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("check with loaded registry: %v", err)
	}

	_ = reg.Close()
	if err := c.Check(context.Background()); err == nil {
		t.Error("check with closed registry should fail")
	}
}

func TestSynthesizerChecker_Healthy(t *testing.T) {
	synth := &ttsmock.Synthesizer{
		VoicesResult: []tts.Voice{{ID: "Lucia", Language: "es-ES"}},
	}
	c := SynthesizerChecker(synth, "es-ES")
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("check: %v", err)
	}
}

func TestSynthesizerChecker_CredentialFailure(t *testing.T) {
	synth := &ttsmock.Synthesizer{VoicesErr: errors.New("token expired")}
	c := SynthesizerChecker(synth, "es-ES")
	if err := c.Check(context.Background()); err == nil {
		t.Error("credential failure must fail the check")
	}
}

func TestSynthesizerChecker_NoVoices(t *testing.T) {
	synth := &ttsmock.Synthesizer{}
	c := SynthesizerChecker(synth, "es-ES")
	if err := c.Check(context.Background()); err == nil {
		t.Error("empty voice list must fail the check")
	}
}
