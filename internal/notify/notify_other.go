//go:build !linux

package notify

func newPlatform() (Notifier, error) {
	return nil, ErrUnavailable
}
