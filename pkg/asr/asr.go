// Package asr defines the capability interfaces for offline,
// grammar-constrained speech decoding.
//
// A Model is a loaded acoustic-model bundle for one language. Decoders are
// created per recognition session from a Model plus a closed-vocabulary
// grammar, consume raw PCM frames, and produce a single final hypothesis.
// The interfaces exist so that the session state machine can be exercised in
// tests with a stub decoder instead of the real engine.
package asr

// DecoderConfig describes the audio format and vocabulary constraint for a
// new decoder.
type DecoderConfig struct {
	// SampleRate is the PCM sample rate in Hz of the frames that will be fed
	// to the decoder. Must match the capture device configuration.
	SampleRate float64

	// Grammar is the closed vocabulary as a JSON array of strings. An empty
	// string creates an unconstrained decoder.
	Grammar string
}

// Decoder consumes PCM16 mono audio frames and produces a transcript.
//
// A Decoder belongs to exactly one recognition session and is not safe for
// concurrent use. Callers must call Close when the session ends; failing to
// do so leaks native engine memory.
type Decoder interface {
	// AcceptWaveform feeds one frame of 16-bit little-endian signed PCM audio.
	// It reports true when the engine has detected end of utterance and a
	// final hypothesis is available via FinalResult.
	AcceptWaveform(pcm []byte) (bool, error)

	// PartialResult returns the engine's current interim hypothesis. It may
	// be empty. Partial hypotheses are for UI feedback only and must not be
	// treated as the session transcript.
	PartialResult() string

	// FinalResult flushes any buffered audio and returns the best final
	// hypothesis for everything fed so far.
	FinalResult() (string, error)

	// Close releases the decoder's engine resources. Calling Close more than
	// once is safe.
	Close() error
}

// Model is a loaded acoustic model from which decoders are created.
//
// Models are expensive to load and are shared across sessions; a Model must
// be safe for concurrent NewDecoder calls. Close must only be called once no
// decoders created from the model remain open.
type Model interface {
	// NewDecoder creates a decoder bound to this model and the given
	// vocabulary constraint.
	NewDecoder(cfg DecoderConfig) (Decoder, error)

	// Close frees the model.
	Close() error
}
