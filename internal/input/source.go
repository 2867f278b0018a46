// Package input delivers global key transitions to the overlay.
//
// Platform support:
//   - Linux: reads /dev/input/event* keyboards (requires the input group or root)
//   - Windows: installs a WH_KEYBOARD_LL hook on a dedicated OS thread
//   - Elsewhere: no platform source; Scripted still works
//
// Every source emits tracker.Event values whose codes are in the keysym
// (Windows virtual-key) space.
package input

import (
	"context"
	"errors"
	"log/slog"

	"keycast/internal/tracker"
)

// Source produces key events until its context is cancelled or Stop is
// called. The returned channel is closed when the source stops.
type Source interface {
	Start(ctx context.Context) (<-chan tracker.Event, error)
	Stop() error
	// Available reports whether the source can run with the current
	// permissions, with a human-readable reason.
	Available() (bool, string)
}

var (
	// ErrNotAvailable is returned when no platform source exists.
	ErrNotAvailable = errors.New("global key input not available on this platform")
	// ErrPermissionDenied is returned when devices exist but cannot be read.
	ErrPermissionDenied = errors.New("insufficient permissions for key input")
	// ErrAlreadyRunning is returned by Start on a running source.
	ErrAlreadyRunning = errors.New("input source already running")
)

// DefaultBuffer is the event channel capacity.
const DefaultBuffer = 64

// Options configures a platform source.
type Options struct {
	// Device overrides autodetection with one evdev path. Linux only.
	Device string
	Buffer int
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Buffer <= 0 {
		o.Buffer = DefaultBuffer
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// NewPlatform returns the source for the running OS.
func NewPlatform(opts Options) Source {
	return newPlatformSource(opts.withDefaults())
}
