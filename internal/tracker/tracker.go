// Package tracker turns raw key transitions into combos.
//
// The tracker keeps the live ctrl/alt/shift state and, when an ordinary key
// is released, records a combo of that key and the modifiers into a
// combo.Ring. Key-down events of ordinary keys do not produce anything.
package tracker

import (
	"fmt"
	"log/slog"
	"time"

	"keycast/internal/combo"
	"keycast/internal/keysym"
)

// Transition is the direction of a key event.
type Transition int

const (
	KeyDown Transition = iota
	KeyUp
)

func (t Transition) String() string {
	switch t {
	case KeyDown:
		return "down"
	case KeyUp:
		return "up"
	default:
		return fmt.Sprintf("Transition(%d)", int(t))
	}
}

// Event is one key transition delivered by an input source.
type Event struct {
	Code       keysym.Code
	Transition Transition
	// System is set for events the platform routed through its "system key"
	// channel (alt-held combinations on Windows). The tracker treats both
	// channels the same.
	System bool
	Time   time.Time
}

// ModifierState is the live held state of the three tracked modifiers.
type ModifierState struct {
	Ctrl  bool
	Alt   bool
	Shift bool
}

// All reports whether ctrl, alt and shift are all held.
func (m ModifierState) All() bool {
	return m.Ctrl && m.Alt && m.Shift
}

// Sampling selects when the modifiers of a combo are read.
type Sampling int

const (
	// SampleAtRelease reads the live modifiers when the key is released.
	SampleAtRelease Sampling = iota
	// SampleAtPress reads the modifiers when the key went down and uses
	// them at release.
	SampleAtPress
)

// ParseSampling parses "release" or "press".
func ParseSampling(s string) (Sampling, error) {
	switch s {
	case "", "release":
		return SampleAtRelease, nil
	case "press":
		return SampleAtPress, nil
	default:
		return SampleAtRelease, fmt.Errorf("unknown modifier sampling %q", s)
	}
}

func (s Sampling) String() string {
	if s == SampleAtPress {
		return "press"
	}
	return "release"
}

// Config configures a Tracker.
type Config struct {
	Sampling Sampling
	// ToggleKey released with ctrl+alt+shift held requests a visibility
	// toggle. Zero disables the toggle.
	ToggleKey keysym.Code
	Logger    *slog.Logger
}

// DefaultConfig returns release-time sampling with F6 as the toggle key.
func DefaultConfig() Config {
	return Config{
		Sampling:  SampleAtRelease,
		ToggleKey: keysym.F6,
	}
}

// Result describes what one event did.
type Result struct {
	// Combo is the recorded combo when Pushed is set.
	Combo combo.KeyCombo
	// Pushed is set when a combo was added to the history.
	Pushed bool
	// Evicted is set when the push overwrote the oldest combo.
	Evicted bool
	// Discarded is set for a release of a key without a glyph.
	Discarded bool
	// ModifierChanged is set when a modifier key changed state.
	ModifierChanged bool
	// ToggleVisibility is set when the toggle combo was released.
	ToggleVisibility bool
	// Redraw is set for every release.
	Redraw bool
}

// Tracker is the modifier and combo state machine. It is not safe for
// concurrent use; callers deliver events one at a time.
type Tracker struct {
	mods     ModifierState
	history  *combo.Ring
	sampling Sampling
	toggle   keysym.Code
	pressed  map[keysym.Code]ModifierState
	logger   *slog.Logger
}

// New returns a tracker that records combos into history.
func New(history *combo.Ring, cfg Config) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		history:  history,
		sampling: cfg.Sampling,
		toggle:   cfg.ToggleKey,
		pressed:  make(map[keysym.Code]ModifierState),
		logger:   logger,
	}
}

// Modifiers returns the live modifier state.
func (t *Tracker) Modifiers() ModifierState {
	return t.mods
}

// SetSampling changes when modifiers are sampled. Pending presses are
// forgotten.
func (t *Tracker) SetSampling(s Sampling) {
	t.sampling = s
	clear(t.pressed)
}

// SetToggleKey changes the visibility toggle key.
func (t *Tracker) SetToggleKey(code keysym.Code) {
	t.toggle = code
}

// HandleEvent applies ev and reports its effect.
func (t *Tracker) HandleEvent(ev Event) Result {
	res := Result{Redraw: ev.Transition == KeyUp}
	down := ev.Transition == KeyDown

	if keysym.IsModifier(ev.Code) {
		var held *bool
		switch ev.Code {
		case keysym.LeftControl, keysym.RightControl:
			held = &t.mods.Ctrl
		case keysym.LeftAlt, keysym.RightAlt:
			held = &t.mods.Alt
		default:
			held = &t.mods.Shift
		}
		res.ModifierChanged = *held != down
		*held = down
		return res
	}

	if down {
		if t.sampling == SampleAtPress {
			if _, held := t.pressed[ev.Code]; !held {
				t.pressed[ev.Code] = t.mods
			}
		}
		return res
	}

	mods := t.mods
	if t.sampling == SampleAtPress {
		if sampled, ok := t.pressed[ev.Code]; ok {
			mods = sampled
		}
	}
	delete(t.pressed, ev.Code)

	info := keysym.Resolve(ev.Code, mods.Shift)
	if info.Empty() {
		res.Discarded = true
		t.logger.Debug("discarded key release", "key", ev.Code, "system", ev.System)
		return res
	}

	c := combo.KeyCombo{
		Key:   ev.Code,
		Ctrl:  mods.Ctrl,
		Alt:   mods.Alt,
		Shift: mods.Shift,
	}
	res.Combo = c
	res.Pushed = true
	res.Evicted = t.history.Push(c)
	res.ToggleVisibility = t.toggle != 0 && ev.Code == t.toggle && mods.All()

	t.logger.Debug("combo",
		"key", info.Text,
		"ctrl", c.Ctrl,
		"alt", c.Alt,
		"shift", c.Shift,
		"system", ev.System,
	)
	return res
}
