// Package audio defines the capture capability interface for microphone
// input.
//
// A Source is an exclusively-owned handle on the input device for the
// duration of one recognition session: the session opens it, pulls
// fixed-size PCM16 frames from it, and is responsible for closing it on
// every exit path. The Opener indirection lets tests substitute a fake
// frame producer for real hardware.
package audio

import "errors"

// ErrDeviceUnavailable is returned (wrapped) when no audio input device is
// available or access to it is denied.
var ErrDeviceUnavailable = errors.New("audio: input device unavailable")

// Config describes the capture format for one session.
type Config struct {
	// SampleRate is the capture rate in Hz (e.g. 16000).
	SampleRate int

	// BlockSize is the number of samples per frame returned by Read.
	BlockSize int
}

// Source is an open audio input stream delivering mono PCM16 frames.
//
// A Source is owned by exactly one session and is not safe for concurrent
// use. Close releases the device handle and is safe to call more than once.
type Source interface {
	// Read blocks until one frame of 16-bit little-endian signed PCM audio
	// is available and returns it. The returned slice is only valid until
	// the next Read call.
	Read() ([]byte, error)

	// Close stops the stream and releases the device.
	Close() error
}

// Opener opens capture sources. Implementations must return an error
// wrapping [ErrDeviceUnavailable] when the device cannot be acquired.
type Opener interface {
	Open(cfg Config) (Source, error)
}
