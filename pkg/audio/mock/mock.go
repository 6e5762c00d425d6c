// Package mock provides test doubles for the audio package interfaces.
//
// Use Opener to count how many device handles the caller acquires and to
// simulate unavailable devices. Use Source to feed scripted PCM frames.
package mock

import (
	"io"
	"sync"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/audio"
)

// OpenCall records a single invocation of Opener.Open.
type OpenCall struct {
	// Cfg is the capture config passed to Open.
	Cfg audio.Config
}

// Opener is a mock implementation of audio.Opener.
type Opener struct {
	mu sync.Mutex

	// Source is returned by Open. If nil, Open returns a fresh Source with
	// no frames (its Read returns io.EOF immediately).
	Source audio.Source

	// OpenErr, if non-nil, is returned as the error from Open.
	OpenErr error

	// OpenCalls records every call to Open.
	OpenCalls []OpenCall
}

// Open records the call and returns Source, OpenErr.
func (o *Opener) Open(cfg audio.Config) (audio.Source, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.OpenCalls = append(o.OpenCalls, OpenCall{Cfg: cfg})
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	if o.Source != nil {
		return o.Source, nil
	}
	return &Source{}, nil
}

// Opens returns the number of device handles acquired so far.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.OpenCalls)
}

var _ audio.Opener = (*Opener)(nil)

// Source is a scripted implementation of audio.Source. Read returns the
// configured Frames in order, then ReadErr (io.EOF when unset).
type Source struct {
	mu sync.Mutex

	// Frames is the sequence of PCM frames delivered by Read.
	Frames [][]byte

	// ReadErr is returned once Frames is exhausted. Defaults to io.EOF.
	ReadErr error

	// CloseCalls counts invocations of Close.
	CloseCalls int

	next int
}

// Read returns the next scripted frame, or ReadErr when exhausted.
func (s *Source) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next < len(s.Frames) {
		f := s.Frames[s.next]
		s.next++
		return f, nil
	}
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	return nil, io.EOF
}

// Close increments CloseCalls.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	return nil
}

// Closed reports whether Close has been called at least once.
func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CloseCalls > 0
}

var _ audio.Source = (*Source)(nil)
