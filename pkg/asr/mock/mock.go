// Package mock provides test doubles for the asr package interfaces.
//
// Use Model to verify decoder construction parameters and Decoder to script
// the exact point at which the engine reports end of utterance.
//
// Example:
//
//	dec := &mock.Decoder{AcceptAfter: 3, FinalText: "garcia"}
//	model := &mock.Model{Decoder: dec}
package mock

import (
	"sync"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr"
)

// NewDecoderCall records a single invocation of Model.NewDecoder.
type NewDecoderCall struct {
	// Cfg is the DecoderConfig passed to NewDecoder.
	Cfg asr.DecoderConfig
}

// Model is a mock implementation of asr.Model.
type Model struct {
	mu sync.Mutex

	// Decoder is returned by NewDecoder. If nil, NewDecoder returns a fresh
	// default Decoder that accepts on the first frame.
	Decoder asr.Decoder

	// NewDecoderErr, if non-nil, is returned as the error from NewDecoder.
	NewDecoderErr error

	// NewDecoderCalls records every call to NewDecoder.
	NewDecoderCalls []NewDecoderCall

	// Closed reports whether Close has been called.
	Closed bool
}

// NewDecoder records the call and returns Decoder, NewDecoderErr.
func (m *Model) NewDecoder(cfg asr.DecoderConfig) (asr.Decoder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NewDecoderCalls = append(m.NewDecoderCalls, NewDecoderCall{Cfg: cfg})
	if m.NewDecoderErr != nil {
		return nil, m.NewDecoderErr
	}
	if m.Decoder != nil {
		return m.Decoder, nil
	}
	return &Decoder{AcceptAfter: 1}, nil
}

// Close marks the model closed.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

var _ asr.Model = (*Model)(nil)

// Decoder is a scripted implementation of asr.Decoder.
type Decoder struct {
	mu sync.Mutex

	// AcceptAfter is the number of AcceptWaveform calls after which the
	// decoder reports end of utterance. Zero means it never reports it and
	// the session must be stopped explicitly.
	AcceptAfter int

	// AcceptErr, if non-nil, is returned from AcceptWaveform on every call.
	AcceptErr error

	// Partial is returned from PartialResult.
	Partial string

	// FinalText and FinalErr are returned from FinalResult.
	FinalText string
	FinalErr  error

	// Frames holds a copy of every frame fed via AcceptWaveform.
	Frames [][]byte

	// CloseCalls counts invocations of Close.
	CloseCalls int
}

// AcceptWaveform records the frame and reports end of utterance once
// AcceptAfter frames have been fed.
func (d *Decoder) AcceptWaveform(pcm []byte) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.AcceptErr != nil {
		return false, d.AcceptErr
	}
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	d.Frames = append(d.Frames, cp)
	return d.AcceptAfter > 0 && len(d.Frames) >= d.AcceptAfter, nil
}

// PartialResult returns the configured Partial value.
func (d *Decoder) PartialResult() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Partial
}

// FinalResult returns the configured FinalText, FinalErr pair.
func (d *Decoder) FinalResult() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.FinalText, d.FinalErr
}

// Close increments CloseCalls.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CloseCalls++
	return nil
}

var _ asr.Decoder = (*Decoder)(nil)
