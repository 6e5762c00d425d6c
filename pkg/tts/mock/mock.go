// Package mock provides a test double for the tts.Synthesizer interface.
//
// Use Synthesizer to feed controlled audio bytes to consumers and to verify
// the text, language, and slow flag passed to the backend.
package mock

import (
	"context"
	"sync"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts"
)

// SynthesizeCall records a single invocation of Synthesizer.Synthesize.
type SynthesizeCall struct {
	// Text is the text passed to Synthesize.
	Text string
	// Lang is the language identifier passed to Synthesize.
	Lang string
	// Slow is the slow flag passed to Synthesize.
	Slow bool
}

// Synthesizer is a mock implementation of tts.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// Audio is returned from Synthesize on success.
	Audio []byte

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// VoicesResult is returned from Voices.
	VoicesResult []tts.Voice

	// VoicesErr, if non-nil, is returned as the error from Voices.
	VoicesErr error

	// SynthesizeCalls records every call to Synthesize.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns Audio, SynthesizeErr.
func (s *Synthesizer) Synthesize(_ context.Context, text, lang string, slow bool) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = append(s.SynthesizeCalls, SynthesizeCall{Text: text, Lang: lang, Slow: slow})
	if s.SynthesizeErr != nil {
		return nil, s.SynthesizeErr
	}
	return s.Audio, nil
}

// Voices returns VoicesResult, VoicesErr.
func (s *Synthesizer) Voices(_ context.Context, _ string) ([]tts.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.VoicesResult, s.VoicesErr
}

var _ tts.Synthesizer = (*Synthesizer)(nil)
