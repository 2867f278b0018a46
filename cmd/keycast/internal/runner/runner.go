// Package runner connects an input source, the fade timer and a render
// surface to one overlay.State. Every entry point takes the same lock, so
// key events, ticks and frame snapshots are applied one at a time.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"keycast/internal/config"
	"keycast/internal/input"
	"keycast/internal/layout"
	"keycast/internal/logging"
	"keycast/internal/metrics"
	"keycast/internal/notify"
	"keycast/internal/overlay"
	"keycast/internal/tracker"
)

// Options configures a Runner.
type Options struct {
	Config *config.Config
	Source input.Source

	// Invalidate asks the render surface for a new frame. It may be called
	// from any goroutine and must not block.
	Invalidate func()

	Notifier notify.Notifier
	Metrics  *metrics.OverlayMetrics
	Logger   *slog.Logger

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Runner owns the overlay state for one session.
type Runner struct {
	mu     sync.Mutex
	state  *overlay.State
	params layout.Params

	source   input.Source
	ticker   *ticker
	notifier notify.Notifier
	metrics  *metrics.OverlayMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// surface adapts the invalidate callback to overlay.Window. Hiding is done
// by drawing nothing, so both calls just request a frame.
type surface struct {
	invalidate func()
}

func (s surface) Invalidate()     { s.invalidate() }
func (s surface) SetVisible(bool) { s.invalidate() }

// New builds a runner from the configuration.
func New(opts Options) (*Runner, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Invalidate == nil {
		opts.Invalidate = func() {}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewOverlayMetrics(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tc, err := cfg.TrackerConfig()
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	params, err := cfg.LayoutParams()
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	r := &Runner{
		params:   params,
		source:   opts.Source,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	r.ticker = newTicker(cfg.TickInterval(), r.tick, opts.Logger)

	tc.Logger = opts.Logger.With("component", "tracker")
	r.state, err = overlay.New(overlay.Config{
		Capacity:     cfg.History.Capacity,
		FadeDuration: cfg.FadeDuration(),
		Tracker:      tc,
		Window:       surface{invalidate: opts.Invalidate},
		Timer:        r.ticker,
		Metrics:      opts.Metrics,
		Logger:       opts.Logger,
		OnToggle:     r.announce,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// announce posts the visibility notification off the lock; D-Bus calls
// block.
func (r *Runner) announce(visible bool) {
	logging.Go(r.logger, "notify", func() {
		if err := r.notifier.Notify(visible); err != nil {
			r.logger.Warn("notification failed", "error", err)
		}
	})
}

// Run starts the source and applies its events until ctx is cancelled or
// the source closes its channel.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("runner: no input source")
	}
	if ok, reason := r.source.Available(); !ok {
		return fmt.Errorf("runner: %w: %s", input.ErrNotAvailable, reason)
	}

	events, err := r.source.Start(ctx)
	if err != nil {
		return fmt.Errorf("start input: %w", err)
	}
	defer func() {
		if err := r.source.Stop(); err != nil {
			r.logger.Warn("stop input", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.HandleEvent(ev)
		}
	}
}

// HandleEvent applies one key event at the current time.
func (r *Runner) HandleEvent(ev tracker.Event) tracker.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.HandleKey(ev, r.now())
}

func (r *Runner) tick() {
	r.Tick(r.now())
}

// Tick advances the fade.
func (r *Runner) Tick(now time.Time) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Tick(now)
}

// Snapshot returns the frame to draw and the layout parameters. The
// viewport fields are left for the renderer.
func (r *Runner) Snapshot() (overlay.Frame, layout.Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Frame(), r.params
}

// Visible reports whether the overlay is shown.
func (r *Runner) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Visible()
}

// SetVisible shows or hides the overlay without a toggle combo.
func (r *Runner) SetVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SetVisible(visible)
}

// ApplyConfig reconfigures a running session. A capacity change clears the
// history; fade, input and layout settings apply from the next event or
// frame. A running fade timer picks up a new tick interval at once.
// Logging and notification settings need a restart.
func (r *Runner) ApplyConfig(cfg *config.Config) error {
	tc, err := cfg.TrackerConfig()
	if err != nil {
		return err
	}
	params, err := cfg.LayoutParams()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.state.SetCapacity(cfg.History.Capacity); err != nil {
		return err
	}
	if err := r.state.SetFadeDuration(cfg.FadeDuration()); err != nil {
		return err
	}
	t := r.state.Tracker()
	t.SetSampling(tc.Sampling)
	t.SetToggleKey(tc.ToggleKey)
	r.params = params
	if r.ticker.SetInterval(cfg.TickInterval()) && r.ticker.Running() {
		r.ticker.Stop()
		r.ticker.Start()
	}

	r.logger.Info("config applied",
		"capacity", cfg.History.Capacity,
		"fade_ms", cfg.Fade.DurationMs,
		"justify", params.Justify.String())
	return nil
}

// Metrics returns the session's metrics.
func (r *Runner) Metrics() *metrics.OverlayMetrics {
	return r.metrics
}

// Close stops the fade timer and the notifier.
func (r *Runner) Close() error {
	r.ticker.Stop()
	return r.notifier.Close()
}
