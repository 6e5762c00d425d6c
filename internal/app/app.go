// Package app wires all ArionVoicer subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves until the context is cancelled, and Shutdown tears
// everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithModelLoader, WithOpener, WithSynthesizer). When an option is not
// provided, New creates real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/config"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/observe"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/registry"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/internal/web"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/asr/vosk"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/audio"
	paopener "github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/audio/portaudio"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts"
	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts/polly"
)

// App owns all subsystem lifetimes.
type App struct {
	cfg *config.Config

	// Subsystems — initialised in New, torn down in Shutdown.
	reg     *registry.Registry
	watcher *registry.Watcher
	srv     *web.Server

	// Injectable backends.
	loadModel registry.ModelLoader
	opener    audio.Opener
	synth     tts.Synthesizer
	metrics   *observe.Metrics

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithModelLoader injects an acoustic model loader instead of the native
// engine.
func WithModelLoader(l registry.ModelLoader) Option {
	return func(a *App) { a.loadModel = l }
}

// WithOpener injects an audio capture opener instead of the default input
// device. The caller owns its lifecycle.
func WithOpener(o audio.Opener) Option {
	return func(a *App) { a.opener = o }
}

// WithSynthesizer injects a speech synthesizer instead of the cloud client.
func WithSynthesizer(s tts.Synthesizer) Option {
	return func(a *App) { a.synth = s }
}

// WithMetrics injects a metrics instance instead of the global default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together: the cloud
// synthesizer, the capture device, the model registry (which loads every
// configured language eagerly and aborts on failure), the grammar watcher,
// and the web server.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Cloud synthesizer ─────────────────────────────────────────────
	if a.synth == nil {
		synth, err := polly.New(ctx, polly.Config{
			Profile: cfg.AWS.Profile,
			Region:  cfg.AWS.Region,
			Voices:  cfg.VoiceMap(),
		})
		if err != nil {
			return nil, fmt.Errorf("app: init synthesizer: %w", err)
		}
		a.synth = synth
	}

	// ── 2. Capture device ────────────────────────────────────────────────
	if a.opener == nil {
		opener, err := paopener.New()
		if err != nil {
			return nil, fmt.Errorf("app: init capture device: %w", err)
		}
		a.opener = opener
		a.closers = append(a.closers, opener.Close)
	}

	// ── 3. Model registry ────────────────────────────────────────────────
	if a.loadModel == nil {
		a.loadModel = func(dir string) (asr.Model, error) { return vosk.LoadModel(dir) }
	}
	reg, err := registry.New(cfg, a.loadModel)
	if err != nil {
		a.runClosers()
		return nil, fmt.Errorf("app: init registry: %w", err)
	}
	a.reg = reg
	a.closers = append(a.closers, reg.Close)

	// ── 4. Grammar watcher ───────────────────────────────────────────────
	a.watcher = registry.NewWatcher(reg)
	a.closers = append(a.closers, func() error {
		a.watcher.Stop()
		return nil
	})

	// ── 5. Web server ────────────────────────────────────────────────────
	a.srv = web.New(cfg, reg, a.opener, a.synth, a.metrics)

	return a, nil
}

// Registry exposes the model registry.
func (a *App) Registry() *registry.Registry {
	return a.reg
}

// Server exposes the web server.
func (a *App) Server() *web.Server {
	return a.srv
}

// Run serves until ctx is cancelled. Returns the context error on a clean
// shutdown.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.srv.Run(ctx)
	})

	slog.Info("app running",
		"addr", a.cfg.ListenAddr(),
		"languages", len(a.cfg.Languages),
		"default_language", a.cfg.DefaultLanguage,
	)
	return g.Wait()
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.srv != nil {
			if err := a.srv.Shutdown(ctx); err != nil {
				slog.Warn("web server shutdown error", "err", err)
			}
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// runClosers runs accumulated closers after a failed New.
func (a *App) runClosers() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			slog.Warn("closer error during failed init", "err", err)
		}
	}
}
