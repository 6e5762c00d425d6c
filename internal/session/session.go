// Package session runs microphone capture sessions: one at a time, each
// feeding PCM frames from an audio source into a grammar-constrained
// decoder until the engine reports end of utterance or the caller stops
// the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/config"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/registry"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/audio"
)

// ErrBusy is returned when a capture session is requested while another is
// in flight. The device is exclusive; the caller should retry after the
// current session finishes.
var ErrBusy = errors.New("session: capture already in progress")

// State is the lifecycle phase of the manager.
type State int

const (
	// Idle means no capture is running and the device is released.
	Idle State = iota

	// Capturing means frames are being read from the device and fed to the
	// decoder.
	Capturing

	// Finalizing means capture has ended and the final hypothesis is being
	// extracted.
	Finalizing
)

// String returns the lowercase state name used in events and logs.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Finalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of one completed capture session.
type Result struct {
	// ID is the session identifier.
	ID string

	// Language is the language code the session decoded with.
	Language string

	// Text is the final hypothesis. May be empty when nothing was
	// recognised.
	Text string
}

// Option configures a [Manager].
type Option func(*Manager)

// WithOnPartial registers a callback invoked with interim hypotheses while
// capture is running. Called from the capture goroutine.
func WithOnPartial(fn func(sessionID, partial string)) Option {
	return func(m *Manager) { m.onPartial = fn }
}

// WithOnState registers a callback invoked on every state transition.
func WithOnState(fn func(sessionID string, s State)) Option {
	return func(m *Manager) { m.onState = fn }
}

// Manager owns the capture device and enforces the single-session
// invariant. Safe for concurrent use.
type Manager struct {
	opener audio.Opener

	onPartial func(sessionID, partial string)
	onState   func(sessionID string, s State)

	mu     sync.Mutex
	state  State
	id     string
	cancel context.CancelFunc
}

// NewManager returns a manager that opens capture sources via opener.
func NewManager(opener audio.Opener, opts ...Option) *Manager {
	m := &Manager{opener: opener}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Busy reports whether a session is in flight. Language selection is
// refused while this is true.
func (m *Manager) Busy() bool {
	return m.State() != Idle
}

// Stop requests that the in-flight session finalize with whatever it has
// decoded so far. It is a no-op when no session is running.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run executes one capture session against entry using the given capture
// parameters. It blocks until the decoder reports end of utterance, Stop is
// called, or ctx is cancelled; cancellation finalizes rather than discards.
//
// The audio source is closed on every return path: the next session must be
// able to reopen the device.
func (m *Manager) Run(ctx context.Context, entry registry.Entry, cycle config.CaptureCycle) (Result, error) {
	m.mu.Lock()
	if m.state != Idle {
		m.mu.Unlock()
		return Result{}, ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	m.state = Capturing
	m.id = id
	m.cancel = cancel
	m.mu.Unlock()

	defer func() {
		cancel()
		m.setState(id, Idle)
		m.mu.Lock()
		m.id = ""
		m.cancel = nil
		m.mu.Unlock()
	}()

	m.notifyState(id, Capturing)
	slog.Info("session started", "session", id, "language", entry.Code,
		"sample_rate", cycle.SampleRate, "block_size", cycle.BlockSize)

	dec, err := entry.Model.NewDecoder(asr.DecoderConfig{
		SampleRate: float64(cycle.SampleRate),
		Grammar:    entry.Grammar.JSON(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("session: create decoder: %w", err)
	}
	defer dec.Close()

	src, err := m.opener.Open(audio.Config{SampleRate: cycle.SampleRate, BlockSize: cycle.BlockSize})
	if err != nil {
		return Result{}, fmt.Errorf("session: open capture source: %w", err)
	}
	defer src.Close()

	if err := m.capture(ctx, id, src, dec); err != nil {
		return Result{}, err
	}

	m.setState(id, Finalizing)
	text, err := dec.FinalResult()
	if err != nil {
		return Result{}, fmt.Errorf("session: finalize: %w", err)
	}

	slog.Info("session finished", "session", id, "language", entry.Code, "text", text)
	return Result{ID: id, Language: entry.Code, Text: text}, nil
}

// capture feeds frames until end of utterance or cancellation. A cancelled
// context is not an error: the session finalizes with the frames fed so
// far.
func (m *Manager) capture(ctx context.Context, id string, src audio.Source, dec asr.Decoder) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frame, err := src.Read()
		if err != nil {
			return fmt.Errorf("session: read frame: %w", err)
		}

		done, err := dec.AcceptWaveform(frame)
		if err != nil {
			return fmt.Errorf("session: decode frame: %w", err)
		}
		if done {
			return nil
		}

		if m.onPartial != nil {
			if p := dec.PartialResult(); p != "" {
				m.onPartial(id, p)
			}
		}
	}
}

func (m *Manager) setState(id string, s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.notifyState(id, s)
}

func (m *Manager) notifyState(id string, s State) {
	if m.onState != nil {
		m.onState(id, s)
	}
}
