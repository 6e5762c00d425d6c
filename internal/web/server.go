// Package web serves the single-page UI and the JSON API that drives the
// recognition workflow: language selection, capture sessions, playback
// synthesis, and vocabulary corrections.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/config"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/health"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/observe"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/registry"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/session"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/transcript"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/audio"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts"
)

//go:embed static
var staticFS embed.FS

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// Transcript is the most recent recognition outcome, as served by
// GET /api/transcript.
type Transcript struct {
	SessionID  string `json:"session_id"`
	Language   string `json:"language"`
	Text       string `json:"text"`
	Surname    string `json:"surname"`
	Attempt    int    `json:"attempt"`
	SampleRate int    `json:"sample_rate"`
	BlockSize  int    `json:"block_size"`
}

// Server wires the HTTP surface to the recognition subsystems. Construct
// with [New], serve with [Run], and stop with [Shutdown].
type Server struct {
	cfg      *config.Config
	reg      *registry.Registry
	sessions *session.Manager
	synth    tts.Synthesizer
	metrics  *observe.Metrics
	hub      *Hub
	checks   *health.Handler

	httpSrv *http.Server

	mu   sync.Mutex
	last *Transcript
}

// New builds the server and its capture session manager. The manager is
// created here so its partial and state callbacks can feed the event hub.
func New(cfg *config.Config, reg *registry.Registry, opener audio.Opener, synth tts.Synthesizer, metrics *observe.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		reg:     reg,
		synth:   synth,
		metrics: metrics,
		hub:     NewHub(),
	}
	s.sessions = session.NewManager(opener,
		session.WithOnPartial(func(id, partial string) {
			s.hub.Broadcast(Event{Type: "partial", SessionID: id, Text: partial})
		}),
		session.WithOnState(func(id string, st session.State) {
			s.hub.Broadcast(Event{Type: "state", SessionID: id, State: st.String()})
		}),
	)
	s.checks = health.New(
		health.ModelsChecker(reg),
		health.SynthesizerChecker(synth, cfg.DefaultLanguage),
	)
	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           observe.Middleware(metrics)(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Sessions exposes the capture manager, mainly so callers can check
// busyness during shutdown.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// routes builds the full request mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("POST /api/language", s.handleSelectLanguage)
	mux.HandleFunc("POST /api/session/start", s.handleSessionStart)
	mux.HandleFunc("POST /api/session/stop", s.handleSessionStop)
	mux.HandleFunc("GET /api/transcript", s.handleTranscript)
	mux.HandleFunc("POST /api/synthesize", s.handleSynthesize)
	mux.HandleFunc("POST /api/grammar", s.handleGrammar)
	mux.Handle("GET /api/events", s.hub)

	s.checks.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: embedded static tree missing: " + err.Error())
	}
	mux.Handle("GET /", http.FileServer(http.FS(static)))

	return mux
}

// Handler returns the full middleware-wrapped handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web: serve: %w", err)
	case <-ctx.Done():
	}

	s.sessions.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	return ctx.Err()
}

// Shutdown stops the HTTP server immediately honouring ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.Stop()
	return s.httpSrv.Shutdown(ctx)
}

// setTranscript stores the latest recognition outcome.
func (s *Server) setTranscript(t *Transcript) {
	s.mu.Lock()
	s.last = t
	s.mu.Unlock()
}

// lastTranscript returns the latest recognition outcome, or nil.
func (s *Server) lastTranscript() *Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// runSession executes one capture session in the background and publishes
// the outcome through the hub, the transcript endpoint, and metrics.
func (s *Server) runSession(entry registry.Entry, cycle config.CaptureCycle, attempt int) {
	ctx := context.Background()
	s.metrics.ActiveSessions.Add(ctx, 1)
	start := time.Now()

	res, err := s.sessions.Run(ctx, entry, cycle)

	s.metrics.ActiveSessions.Add(ctx, -1)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		s.metrics.RecordRecognition(ctx, entry.Code, "error", elapsed)
		slog.Error("capture session failed", "language", entry.Code, "err", err)
		s.hub.Broadcast(Event{Type: "error", Text: err.Error(), Language: entry.Code})
		return
	}

	s.metrics.RecordRecognition(ctx, entry.Code, "ok", elapsed)

	text := transcript.Normalize(res.Text)
	t := &Transcript{
		SessionID:  res.ID,
		Language:   res.Language,
		Text:       text,
		Surname:    transcript.Surname(text),
		Attempt:    attempt,
		SampleRate: cycle.SampleRate,
		BlockSize:  cycle.BlockSize,
	}
	s.setTranscript(t)
	s.hub.Broadcast(Event{
		Type:      "final",
		SessionID: res.ID,
		Text:      t.Text,
		Surname:   t.Surname,
		Language:  t.Language,
	})
}
