package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keycast/internal/config"
	"keycast/internal/input"
	"keycast/internal/keysym"
	"keycast/internal/layout"
	"keycast/internal/tracker"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	seen chan bool
}

func (n *recordingNotifier) Notify(visible bool) error {
	n.seen <- visible
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

type deadSource struct{}

func (deadSource) Start(context.Context) (<-chan tracker.Event, error) { return nil, nil }
func (deadSource) Stop() error                                        { return nil }
func (deadSource) Available() (bool, string)                         { return false, "no keyboards" }

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunner(t *testing.T, script string, cfg *config.Config) (*Runner, *atomic.Int32, *recordingNotifier) {
	t.Helper()
	var src input.Source
	if script != "" {
		s, err := input.NewScripted(script, 0)
		require.NoError(t, err)
		src = s
	}
	var frames atomic.Int32
	n := &recordingNotifier{seen: make(chan bool, 4)}
	r, err := New(Options{
		Config:     cfg,
		Source:     src,
		Invalidate: func() { frames.Add(1) },
		Notifier:   n,
		Logger:     quiet(),
		Now:        func() time.Time { return base },
	})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, &frames, n
}

func TestRunAppliesScript(t *testing.T) {
	r, frames, _ := newRunner(t, "ctrl+c a shift+1", nil)
	require.NoError(t, r.Run(context.Background()))

	f, _ := r.Snapshot()
	require.Len(t, f.Entries, 3)
	assert.Equal(t, "!", f.Entries[0].Symbol.Text)
	assert.Equal(t, "a", f.Entries[1].Symbol.Text)
	assert.Equal(t, "c", f.Entries[2].Symbol.Text)
	assert.True(t, f.Entries[2].Combo.Ctrl)
	assert.Equal(t, 1.0, f.Opacity)
	assert.True(t, f.Drawable())
	assert.Positive(t, frames.Load())

	assert.Equal(t, uint64(3), r.Metrics().CombosPushed.Value())
}

func TestRunUnavailableSource(t *testing.T) {
	r, err := New(Options{Source: deadSource{}, Logger: quiet()})
	require.NoError(t, err)
	defer r.Close()

	err = r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, input.ErrNotAvailable))
	assert.Contains(t, err.Error(), "no keyboards")
}

func TestRunWithoutSource(t *testing.T) {
	r, _, _ := newRunner(t, "", nil)
	assert.Error(t, r.Run(context.Background()))
}

func TestToggleNotifies(t *testing.T) {
	r, _, n := newRunner(t, "ctrl+alt+shift+F6", nil)
	require.NoError(t, r.Run(context.Background()))

	assert.False(t, r.Visible())
	select {
	case v := <-n.seen:
		assert.False(t, v)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}

	f, _ := r.Snapshot()
	assert.False(t, f.Drawable())
	// The toggle combo is still recorded.
	require.NotEmpty(t, f.Entries)
	assert.Equal(t, "F6", f.Entries[0].Symbol.Text)
}

func TestTickClearsAfterFade(t *testing.T) {
	r, _, _ := newRunner(t, "a", nil)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 1.0, r.Tick(base.Add(200*time.Millisecond)))
	assert.Equal(t, 0.0, r.Tick(base.Add(5*time.Second)))

	f, _ := r.Snapshot()
	assert.True(t, f.Empty)
	assert.False(t, r.ticker.Running())
}

func TestApplyConfig(t *testing.T) {
	r, _, _ := newRunner(t, "a b", nil)
	require.NoError(t, r.Run(context.Background()))

	cfg := config.DefaultConfig()
	cfg.History.Capacity = 5
	cfg.Overlay.Justify = "left"
	cfg.Input.ToggleKey = "F12"
	cfg.Input.ModifierSampling = "press"
	cfg.Fade.TickMs = 40
	require.NoError(t, r.ApplyConfig(cfg))

	f, p := r.Snapshot()
	assert.True(t, f.Empty, "capacity change clears history")
	assert.Equal(t, layout.JustifyLeft, p.Justify)
	assert.Equal(t, 40*time.Millisecond, r.ticker.interval)

	res := r.HandleEvent(tracker.Event{Code: keysym.LeftControl, Transition: tracker.KeyDown})
	assert.False(t, res.Pushed)
	for _, code := range []keysym.Code{keysym.LeftAlt, keysym.LeftShift, keysym.F12} {
		r.HandleEvent(tracker.Event{Code: code, Transition: tracker.KeyDown})
	}
	res = r.HandleEvent(tracker.Event{Code: keysym.F12, Transition: tracker.KeyUp})
	assert.True(t, res.ToggleVisibility)
}

func TestApplyConfigRestartsRunningTicker(t *testing.T) {
	r, _, _ := newRunner(t, "a", nil)

	r.HandleEvent(tracker.Event{Code: keysym.KeyA, Transition: tracker.KeyDown})
	r.HandleEvent(tracker.Event{Code: keysym.KeyA, Transition: tracker.KeyUp})
	require.True(t, r.ticker.Running())

	cfg := config.DefaultConfig()
	cfg.Fade.TickMs = 25
	require.NoError(t, r.ApplyConfig(cfg))
	assert.True(t, r.ticker.Running())
	assert.Equal(t, 25*time.Millisecond, r.ticker.interval)

	assert.False(t, r.ticker.SetInterval(25*time.Millisecond))
	assert.False(t, r.ticker.SetInterval(0))
}

func TestApplyConfigRejectsBadValues(t *testing.T) {
	r, _, _ := newRunner(t, "a", nil)

	cfg := config.DefaultConfig()
	cfg.Overlay.Justify = "up"
	assert.Error(t, r.ApplyConfig(cfg))

	cfg = config.DefaultConfig()
	cfg.History.Capacity = 0
	assert.Error(t, r.ApplyConfig(cfg))
}

func TestTickerStartStop(t *testing.T) {
	var fired atomic.Int32
	tk := newTicker(time.Millisecond, func() { fired.Add(1) }, quiet())
	tk.Start()
	tk.Start()
	assert.True(t, tk.Running())
	assert.Eventually(t, func() bool { return fired.Load() > 2 }, 2*time.Second, time.Millisecond)
	tk.Stop()
	tk.Stop()
	assert.False(t, tk.Running())
}
