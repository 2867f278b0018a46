//go:build !linux && !windows

package input

import (
	"context"

	"keycast/internal/tracker"
)

// StubSource is used on platforms without a global key source.
type StubSource struct{}

func newPlatformSource(Options) Source {
	return StubSource{}
}

// Available returns false.
func (StubSource) Available() (bool, string) {
	return false, "global key input not implemented for this platform"
}

// Start returns ErrNotAvailable.
func (StubSource) Start(context.Context) (<-chan tracker.Event, error) {
	return nil, ErrNotAvailable
}

// Stop is a no-op.
func (StubSource) Stop() error {
	return nil
}
