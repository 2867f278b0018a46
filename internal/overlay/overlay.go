// Package overlay owns the state shared by the input, timer and render
// callbacks: the modifier tracker, the combo history and the fade.
//
// State is not synchronized. The caller delivers key events, timer ticks and
// frame requests one at a time, each fully applied before the next.
package overlay

import (
	"fmt"
	"log/slog"
	"time"

	"keycast/internal/combo"
	"keycast/internal/fade"
	"keycast/internal/keysym"
	"keycast/internal/layout"
	"keycast/internal/metrics"
	"keycast/internal/tracker"
)

// Window is the surface the overlay is drawn on.
type Window interface {
	// Invalidate requests a redraw.
	Invalidate()
	SetVisible(visible bool)
}

// Timer is the periodic tick source driving the fade. Start on a running
// timer and Stop on a stopped one are no-ops.
type Timer interface {
	Start()
	Stop()
}

// Measurer returns the extent of text as the renderer will draw it. label
// selects the smaller modifier-label face.
type Measurer interface {
	Measure(text string, label bool) layout.Extent
}

type nopWindow struct{}

func (nopWindow) Invalidate()     {}
func (nopWindow) SetVisible(bool) {}

type nopTimer struct{}

func (nopTimer) Start() {}
func (nopTimer) Stop()  {}

// Config configures a State.
type Config struct {
	Capacity     int
	FadeDuration time.Duration
	Tracker      tracker.Config

	Window  Window
	Timer   Timer
	Metrics *metrics.OverlayMetrics
	Logger  *slog.Logger

	// OnToggle, if set, is called after the visibility flips.
	OnToggle func(visible bool)
}

// DefaultConfig returns a three-combo history with a one second fade.
func DefaultConfig() Config {
	return Config{
		Capacity:     3,
		FadeDuration: fade.DefaultDuration,
		Tracker:      tracker.DefaultConfig(),
	}
}

// State is the single overlay state object.
type State struct {
	history *combo.Ring
	tracker *tracker.Tracker
	fade    *fade.Animator

	visible  bool
	lastTick time.Time

	window   Window
	timer    Timer
	metrics  *metrics.OverlayMetrics
	logger   *slog.Logger
	onToggle func(bool)
}

// New builds the overlay state. The overlay starts visible with an empty
// history.
func New(cfg Config) (*State, error) {
	history, err := combo.NewRing(cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	animator, err := fade.New(cfg.FadeDuration)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tc := cfg.Tracker
	if tc.Logger == nil {
		tc.Logger = logger
	}

	s := &State{
		history:  history,
		tracker:  tracker.New(history, tc),
		fade:     animator,
		visible:  true,
		window:   cfg.Window,
		timer:    cfg.Timer,
		metrics:  cfg.Metrics,
		logger:   logger,
		onToggle: cfg.OnToggle,
	}
	if s.window == nil {
		s.window = nopWindow{}
	}
	if s.timer == nil {
		s.timer = nopTimer{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NewOverlayMetrics(nil)
	}
	return s, nil
}

// HandleKey applies one key event. Every release counts as activity: the
// fade restarts, the timer is armed and the window invalidated.
func (s *State) HandleKey(ev tracker.Event, now time.Time) tracker.Result {
	res := s.tracker.HandleEvent(ev)

	if res.Discarded {
		s.metrics.EventsDiscarded.Inc()
	}
	if res.Pushed {
		s.metrics.CombosPushed.Inc()
		if res.Evicted {
			s.metrics.HistoryOverflows.Inc()
		}
		s.metrics.HistoryDepth.Set(int64(s.history.Len()))
	}
	if res.ToggleVisibility {
		s.SetVisible(!s.visible)
		s.metrics.VisibilityToggles.Inc()
		if s.onToggle != nil {
			s.onToggle(s.visible)
		}
	}
	if res.Redraw {
		s.fade.OnActivity(now)
		s.lastTick = now
		s.timer.Start()
		s.window.Invalidate()
	}
	return res
}

// Tick advances the fade. When the opacity reaches zero the history is
// cleared and the timer stopped. It returns the new opacity.
func (s *State) Tick(now time.Time) float64 {
	if !s.lastTick.IsZero() && now.After(s.lastTick) {
		s.metrics.TickInterval.ObserveDuration(now.Sub(s.lastTick))
	}
	s.lastTick = now

	if !s.fade.Active() {
		s.timer.Stop()
		return 0
	}

	opacity, done := s.fade.Tick(now)
	if done {
		s.clearHistory("faded")
		s.timer.Stop()
	}
	s.window.Invalidate()
	return opacity
}

func (s *State) clearHistory(reason string) {
	if !s.history.IsEmpty() {
		s.metrics.HistoryResets.Inc()
		s.logger.Debug("history cleared", "reason", reason, "combos", s.history.Len())
	}
	s.history.Reset()
	s.metrics.HistoryDepth.Set(0)
}

// Visible reports whether the overlay window is shown.
func (s *State) Visible() bool {
	return s.visible
}

// SetVisible shows or hides the overlay window.
func (s *State) SetVisible(visible bool) {
	s.visible = visible
	s.window.SetVisible(visible)
	s.logger.Info("overlay visibility", "visible", visible)
}

// SetCapacity changes the history size. The history is cleared.
func (s *State) SetCapacity(n int) error {
	if n == s.history.Capacity() {
		return nil
	}
	if err := s.history.SetCapacity(n); err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	s.metrics.HistoryResets.Inc()
	s.metrics.HistoryDepth.Set(0)
	s.window.Invalidate()
	return nil
}

// Capacity returns the history size.
func (s *State) Capacity() int {
	return s.history.Capacity()
}

// SetFadeDuration changes the fade duration used from the next tick on.
func (s *State) SetFadeDuration(d time.Duration) error {
	return s.fade.SetDuration(d)
}

// Tracker exposes the tracker for runtime reconfiguration.
func (s *State) Tracker() *tracker.Tracker {
	return s.tracker
}

// Opacity returns the current fade opacity.
func (s *State) Opacity() float64 {
	return s.fade.Opacity()
}

// Entry is one combo as the renderer shows it.
type Entry struct {
	Combo  combo.KeyCombo
	Symbol keysym.Info
	Labels []combo.Modifier
}

// Frame is a settled snapshot for one render pass. Entries are newest
// first.
type Frame struct {
	Empty   bool
	Entries []Entry
	Opacity float64
	Visible bool
}

// Frame snapshots the state for rendering.
func (s *State) Frame() Frame {
	f := Frame{
		Empty:   s.history.IsEmpty(),
		Opacity: s.fade.Opacity(),
		Visible: s.visible,
	}
	if f.Empty {
		return f
	}
	f.Entries = make([]Entry, 0, s.history.Len())
	for c := range s.history.All() {
		f.Entries = append(f.Entries, Entry{
			Combo:  c,
			Symbol: c.Symbol(),
			Labels: c.Labels(),
		})
	}
	return f
}

// Drawable reports whether the frame has anything to paint.
func (f Frame) Drawable() bool {
	return f.Visible && !f.Empty && f.Opacity > 0
}

// Items measures the frame's text in entry order.
func (f Frame) Items(m Measurer) []layout.Item {
	items := make([]layout.Item, len(f.Entries))
	for i, e := range f.Entries {
		items[i].Glyph = m.Measure(e.Symbol.Text, false)
		if len(e.Labels) > 0 {
			items[i].Labels = make([]layout.Extent, len(e.Labels))
			for j, l := range e.Labels {
				items[i].Labels[j] = m.Measure(l.String(), true)
			}
		}
	}
	return items
}

// Place measures f with m and computes its placement. It returns false for
// an empty frame.
func Place(f Frame, m Measurer, p layout.Params) (layout.Placement, bool) {
	if f.Empty {
		return layout.Placement{Justify: p.Justify}, false
	}
	return layout.Compute(f.Items(m), p)
}
