// Package vosk implements the asr.Model and asr.Decoder interfaces using the
// Vosk CGO bindings. Vosk is the one offline engine in common use that
// supports closed-vocabulary decoding: a recognizer created with a grammar
// (JSON array of phrases) will only ever hypothesise entries from that list
// plus the [unk] token.
//
// The libvosk shared library must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH.
package vosk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	voskapi "github.com/alphacep/vosk-api/go"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr"
)

// Compile-time assertions that the Vosk types satisfy the asr interfaces.
var (
	_ asr.Model   = (*Model)(nil)
	_ asr.Decoder = (*decoder)(nil)
)

// quietOnce silences the native engine's stderr chatter exactly once per
// process. Level -1 disables Kaldi logging entirely.
var quietOnce sync.Once

// Model wraps a loaded Vosk acoustic model. One Model is loaded per
// configured language and shared by all sessions for that language.
type Model struct {
	mu    sync.Mutex
	model *voskapi.VoskModel
}

// LoadModel loads the Vosk model bundle at dir. The directory must exist and
// contain a model the engine accepts; both failure modes are fatal to the
// caller (the registry aborts startup on any model load error).
func LoadModel(dir string) (*Model, error) {
	quietOnce.Do(func() { voskapi.SetLogLevel(-1) })

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("vosk: model directory %q: %w", dir, err)
	}

	m, err := voskapi.NewModel(dir)
	if err != nil {
		return nil, fmt.Errorf("vosk: load model %q: %w", dir, err)
	}
	return &Model{model: m}, nil
}

// NewDecoder creates a grammar-constrained decoder from this model. When
// cfg.Grammar is empty the decoder runs with the model's full vocabulary.
func (m *Model) NewDecoder(cfg asr.DecoderConfig) (asr.Decoder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model == nil {
		return nil, errors.New("vosk: model is closed")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("vosk: invalid sample rate %v", cfg.SampleRate)
	}

	var (
		rec *voskapi.VoskRecognizer
		err error
	)
	if cfg.Grammar != "" {
		rec, err = voskapi.NewRecognizerGrm(m.model, cfg.SampleRate, cfg.Grammar)
	} else {
		rec, err = voskapi.NewRecognizer(m.model, cfg.SampleRate)
	}
	if err != nil {
		return nil, fmt.Errorf("vosk: create recognizer: %w", err)
	}

	return &decoder{rec: rec}, nil
}

// Close frees the native model. Safe to call more than once.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model != nil {
		m.model.Free()
		m.model = nil
	}
	return nil
}

// decoder is a live Vosk recognizer bound to one recognition session.
type decoder struct {
	rec *voskapi.VoskRecognizer
}

// voskResult mirrors the JSON the engine returns from Result/FinalResult.
type voskResult struct {
	Text string `json:"text"`
}

// voskPartial mirrors the JSON the engine returns from PartialResult.
type voskPartial struct {
	Partial string `json:"partial"`
}

// AcceptWaveform feeds one PCM16 frame. Vosk returns non-zero once its
// internal endpointer has committed an utterance.
func (d *decoder) AcceptWaveform(pcm []byte) (bool, error) {
	if d.rec == nil {
		return false, errors.New("vosk: decoder is closed")
	}
	return d.rec.AcceptWaveform(pcm) != 0, nil
}

// PartialResult returns the current interim hypothesis, or "" when the
// engine has nothing yet or the partial JSON cannot be parsed.
func (d *decoder) PartialResult() string {
	if d.rec == nil {
		return ""
	}
	var p voskPartial
	if err := json.Unmarshal([]byte(d.rec.PartialResult()), &p); err != nil {
		return ""
	}
	return p.Partial
}

// FinalResult flushes buffered audio and returns the final hypothesis.
func (d *decoder) FinalResult() (string, error) {
	if d.rec == nil {
		return "", errors.New("vosk: decoder is closed")
	}
	var r voskResult
	if err := json.Unmarshal([]byte(d.rec.FinalResult()), &r); err != nil {
		return "", fmt.Errorf("vosk: parse final result: %w", err)
	}
	return r.Text, nil
}

// Close frees the native recognizer. Safe to call more than once.
func (d *decoder) Close() error {
	if d.rec != nil {
		d.rec.Free()
		d.rec = nil
	}
	return nil
}
