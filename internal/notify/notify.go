// Package notify posts a desktop notification when the overlay is hidden
// or shown with the toggle combo. The overlay itself is click-through and
// may be invisible exactly when the user wants confirmation.
package notify

import (
	"errors"
	"log/slog"
)

// AppName is sent as the notification's application name.
const AppName = "keycast"

// ErrUnavailable is returned when no notification service can be reached.
var ErrUnavailable = errors.New("notify: notification service unavailable")

// Notifier announces visibility changes.
type Notifier interface {
	Notify(visible bool) error
	Close() error
}

// Message returns the summary and body shown for a visibility change.
func Message(visible bool) (summary, body string) {
	if visible {
		return "Keycast shown", "Keystrokes are displayed again."
	}
	return "Keycast hidden", "Press ctrl+alt+shift and the toggle key to show it."
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(bool) error { return nil }
func (Nop) Close() error      { return nil }

// New returns the platform notifier, or Nop when disabled. When the
// platform service cannot be reached it logs once and falls back to Nop.
func New(enabled bool, logger *slog.Logger) Notifier {
	if !enabled {
		return Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	n, err := newPlatform()
	if err != nil {
		logger.Warn("desktop notifications disabled", "error", err)
		return Nop{}
	}
	return n
}
