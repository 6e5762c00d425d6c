package health

import (
	"context"
	"fmt"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/registry"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts"
)

// ModelsChecker verifies that the registry still holds at least one
// language. Models load at startup, so this mostly guards against a
// registry that was closed during shutdown racing a probe.
func ModelsChecker(reg *registry.Registry) Checker {
	return Checker{
		Name: "models",
		Check: func(ctx context.Context) error {
			if len(reg.Languages()) == 0 {
				return fmt.Errorf("no languages loaded")
			}
			return nil
		},
	}
}

// SynthesizerChecker verifies cloud synthesis credentials by listing the
// voices available for lang. A credential failure surfaces here before the
// first user-facing synthesis request.
func SynthesizerChecker(synth tts.Synthesizer, lang string) Checker {
	return Checker{
		Name: "synthesizer",
		Check: func(ctx context.Context) error {
			voices, err := synth.Voices(ctx, lang)
			if err != nil {
				return err
			}
			if len(voices) == 0 {
				return fmt.Errorf("no voices available for %s", lang)
			}
			return nil
		},
	}
}
