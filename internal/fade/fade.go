// Package fade drives the overlay opacity after key activity.
//
// Opacity jumps to 1 on activity, holds for HoldWindow and then decays
// linearly to 0 over twice the configured duration. The decay uses the
// actual time between ticks, so irregular timer delivery is fine.
package fade

import (
	"fmt"
	"time"
)

// HoldWindow is how long the overlay stays fully opaque after activity.
const HoldWindow = 300 * time.Millisecond

// DefaultDuration is the fade duration used when none is configured.
const DefaultDuration = time.Second

// TickInterval is the nominal timer period (about 60Hz).
const TickInterval = 17 * time.Millisecond

// Animator holds the fade state. It is not safe for concurrent use.
type Animator struct {
	duration time.Duration
	opacity  float64
	start    time.Time
	lastTick time.Time
}

// New returns an animator at opacity 0. duration must be positive.
func New(duration time.Duration) (*Animator, error) {
	a := &Animator{}
	if err := a.SetDuration(duration); err != nil {
		return nil, err
	}
	return a, nil
}

// SetDuration changes the fade duration. The full decay after the hold
// window takes 2*duration.
func (a *Animator) SetDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("fade: duration must be positive, got %s", duration)
	}
	a.duration = duration
	return nil
}

// Duration returns the configured fade duration.
func (a *Animator) Duration() time.Duration {
	return a.duration
}

// Opacity returns the current opacity in [0, 1].
func (a *Animator) Opacity() float64 {
	return a.opacity
}

// Active reports whether opacity is above zero and ticks are still needed.
func (a *Animator) Active() bool {
	return a.opacity > 0
}

// OnActivity makes the overlay fully opaque and restarts the hold window.
func (a *Animator) OnActivity(now time.Time) {
	a.opacity = 1
	a.start = now
	a.lastTick = now
}

// Tick advances the fade to now. It returns the new opacity and whether the
// fade has reached zero.
func (a *Animator) Tick(now time.Time) (opacity float64, done bool) {
	if a.opacity <= 0 {
		a.lastTick = now
		return 0, true
	}

	holdEnd := a.start.Add(HoldWindow)
	from := a.lastTick
	if from.Before(holdEnd) {
		from = holdEnd
	}
	// lastTick only moves forward. A tick from an earlier instant would
	// otherwise make the next tick decay the same span twice.
	if now.After(a.lastTick) {
		a.lastTick = now
	}

	if now.After(from) {
		a.opacity -= float64(now.Sub(from)) / float64(2*a.duration)
	}
	if a.opacity <= 0 {
		a.opacity = 0
		return 0, true
	}
	return a.opacity, false
}
