package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/grammar"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/phrase"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/registry"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/session"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/transcript"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/audio"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts"
)

// errorBody is the JSON error envelope returned by every API failure.
type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain sentinel errors to HTTP status codes. Anything
// unrecognised is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, registry.ErrUnknownLanguage),
		errors.Is(err, tts.ErrUnknownLanguage),
		errors.Is(err, grammar.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, tts.ErrCredentials):
		return http.StatusForbidden
	case errors.Is(err, tts.ErrSynthesis):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v with the given status. Encoding failures fall back to
// a plain 500; by then the header is already written.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes the JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

// decodeBody decodes a JSON request body into v. An empty body leaves v at
// its zero value.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ---- language handlers ----

type languagesResponse struct {
	Languages []string `json:"languages"`
	Active    string   `json:"active"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, languagesResponse{
		Languages: s.reg.Languages(),
		Active:    s.reg.Active().Code,
	})
}

type selectLanguageRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleSelectLanguage(w http.ResponseWriter, r *http.Request) {
	var req selectLanguageRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "code is required"})
		return
	}

	// Switching mid-capture would hand the running session a stale grammar.
	if s.sessions.Busy() {
		writeError(w, session.ErrBusy)
		return
	}

	entry, err := s.reg.Select(req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": entry.Code})
}

// ---- session handlers ----

type sessionStartRequest struct {
	// Attempt selects the capture parameter set: attempt 0 uses the first
	// configured cycle, attempt 1 the second, and so on. Attempts past the
	// last cycle reuse it.
	Attempt int `json:"attempt"`
}

type sessionStartResponse struct {
	Status     string `json:"status"`
	Language   string `json:"language"`
	Attempt    int    `json:"attempt"`
	SampleRate int    `json:"sample_rate"`
	BlockSize  int    `json:"block_size"`
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req sessionStartRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if req.Attempt < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "attempt must be non-negative"})
		return
	}

	if s.sessions.Busy() {
		writeError(w, session.ErrBusy)
		return
	}

	cycles := s.cfg.Cycles()
	idx := req.Attempt
	if idx >= len(cycles) {
		idx = len(cycles) - 1
	}
	cycle := cycles[idx]
	entry := s.reg.Active()

	go s.runSession(entry, cycle, req.Attempt)

	writeJSON(w, http.StatusAccepted, sessionStartResponse{
		Status:     "started",
		Language:   entry.Code,
		Attempt:    req.Attempt,
		SampleRate: cycle.SampleRate,
		BlockSize:  cycle.BlockSize,
	})
}

func (s *Server) handleSessionStop(w http.ResponseWriter, _ *http.Request) {
	s.sessions.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTranscript(w http.ResponseWriter, _ *http.Request) {
	t := s.lastTranscript()
	if t == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no transcript yet"})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ---- synthesis handler ----

type synthesizeRequest struct {
	// Text is synthesized verbatim. Mutually exclusive with Name.
	Text string `json:"text"`

	// Name, when set, is wrapped in the localised confirmation question
	// ("Did you say <name>?").
	Name string `json:"name"`

	// Language overrides the active language.
	Language string `json:"language"`

	// Slow requests slowed-down speech for repeat playback.
	Slow bool `json:"slow"`
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	lang := req.Language
	if lang == "" {
		lang = s.reg.Active().Code
	}

	text := req.Text
	if req.Name != "" {
		text = phrase.Confirmation(lang, req.Name)
	}
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "text or name is required"})
		return
	}

	start := time.Now()
	audioBytes, err := s.synth.Synthesize(r.Context(), text, lang, req.Slow)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		s.metrics.RecordSynthesis(r.Context(), lang, "error", elapsed)
		writeError(w, err)
		return
	}
	s.metrics.RecordSynthesis(r.Context(), lang, "ok", elapsed)

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audioBytes)
}

// ---- grammar handler ----

type grammarRequest struct {
	// Name is the surname to add to the vocabulary.
	Name string `json:"name"`

	// Language overrides the active language.
	Language string `json:"language"`
}

type grammarResponse struct {
	Added bool   `json:"added"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *Server) handleGrammar(w http.ResponseWriter, r *http.Request) {
	var req grammarRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	name := transcript.Normalize(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name is required"})
		return
	}

	lang := req.Language
	if lang == "" {
		lang = s.reg.Active().Code
	}

	added, err := s.reg.AppendName(lang, name)
	if err != nil {
		writeError(w, err)
		return
	}
	if added {
		s.metrics.RecordGrammarAppend(r.Context(), lang)
	}

	entry, err := s.reg.Lookup(lang)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grammarResponse{
		Added: added,
		Name:  name,
		Count: entry.Grammar.Len(),
	})
}
