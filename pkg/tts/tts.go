// Package tts defines the Synthesizer interface for cloud text-to-speech
// backends.
//
// A Synthesizer maps a language identifier to a provider voice through a
// static mapping fixed at construction, sends text to the cloud API, and
// returns the encoded audio bytes of the response. Synthesis calls are
// stateless and independent; implementations must be safe for concurrent
// use. No retry policy is applied — a single failure is surfaced to the
// caller as-is.
package tts

import (
	"context"
	"errors"
)

// ErrUnknownLanguage is returned (wrapped) when a language identifier has no
// entry in the voice mapping.
var ErrUnknownLanguage = errors.New("tts: unknown language")

// ErrCredentials is returned (wrapped) when cloud authentication is invalid
// or expired. Fatal for the current operation; the operator must fix the
// credential profile.
var ErrCredentials = errors.New("tts: cloud credentials invalid or expired")

// ErrSynthesis is returned (wrapped) for any other API-reported failure:
// rate limiting, unsupported text, network failure.
var ErrSynthesis = errors.New("tts: synthesis failed")

// Voice describes one voice in the provider's catalogue.
type Voice struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Language is the BCP-47 language tag the voice speaks.
	Language string

	// Engines lists the synthesis engines the voice supports
	// (e.g. "neural", "standard").
	Engines []string
}

// Synthesizer is the abstraction over any cloud TTS backend.
type Synthesizer interface {
	// Synthesize renders text in the voice mapped to lang and returns the
	// encoded audio bytes. slow selects a reduced speaking rate; because the
	// neural engine does not support the slow-rate parameter, slow requests
	// are routed through the standard engine.
	//
	// Fails with [ErrUnknownLanguage] when lang is unmapped, [ErrCredentials]
	// on authentication failure, and [ErrSynthesis] on any other API failure.
	Synthesize(ctx context.Context, text, lang string, slow bool) ([]byte, error)

	// Voices lists the provider's catalogue for one language. Used by the
	// readiness probe and by startup validation of the voice mapping.
	Voices(ctx context.Context, lang string) ([]Voice, error)
}
