// Package portaudio implements the audio.Opener interface on top of the
// PortAudio bindings, capturing mono PCM16 from the default input device.
package portaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	palib "github.com/gordonklaus/portaudio"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/audio"
)

var (
	_ audio.Opener = (*Opener)(nil)
	_ audio.Source = (*source)(nil)
)

// Opener opens capture streams on the default input device. It owns the
// PortAudio library lifecycle: Initialize on New, Terminate on Close.
type Opener struct {
	mu     sync.Mutex
	closed bool
}

// New initialises the PortAudio library and verifies that an input device
// exists. The caller must call Close when capture is no longer needed.
func New() (*Opener, error) {
	if err := palib.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialise: %w", err)
	}
	if _, err := palib.DefaultInputDevice(); err != nil {
		_ = palib.Terminate()
		return nil, fmt.Errorf("portaudio: %w: %w", audio.ErrDeviceUnavailable, err)
	}
	return &Opener{}, nil
}

// Open acquires the default input device at the requested format. The device
// is held exclusively until the returned source is closed.
func (o *Opener) Open(cfg audio.Config) (audio.Source, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, errors.New("portaudio: opener is closed")
	}
	if cfg.SampleRate <= 0 || cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("portaudio: invalid capture config %+v", cfg)
	}

	s := &source{
		buf: make([]int16, cfg.BlockSize),
		out: make([]byte, cfg.BlockSize*2),
	}

	stream, err := palib.OpenDefaultStream(1, 0, float64(cfg.SampleRate), cfg.BlockSize, s.buf)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open stream: %w: %w", audio.ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("portaudio: start stream: %w: %w", audio.ErrDeviceUnavailable, err)
	}

	s.stream = stream
	return s, nil
}

// Close terminates the PortAudio library. Open sources must be closed first.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	return palib.Terminate()
}

// source is one open capture stream.
type source struct {
	mu     sync.Mutex
	stream *palib.Stream
	buf    []int16
	out    []byte
}

// Read blocks until the device has filled one frame, then returns it as
// little-endian PCM16 bytes. The slice is reused by the next Read.
func (s *source) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil, errors.New("portaudio: source is closed")
	}
	if err := s.stream.Read(); err != nil {
		return nil, fmt.Errorf("portaudio: read frame: %w", err)
	}
	for i, sample := range s.buf {
		binary.LittleEndian.PutUint16(s.out[i*2:], uint16(sample))
	}
	return s.out, nil
}

// Close stops the stream and releases the device handle. Safe to call more
// than once.
func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}
	stream := s.stream
	s.stream = nil

	if err := stream.Stop(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("portaudio: stop stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("portaudio: close stream: %w", err)
	}
	return nil
}
