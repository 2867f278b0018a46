package runner

import (
	"log/slog"
	"sync"
	"time"

	"keycast/internal/logging"
)

// ticker is the overlay.Timer. Start and Stop are called with the runner
// lock held, so neither waits for the tick goroutine.
type ticker struct {
	fire   func()
	logger *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	stop     chan struct{}
}

func newTicker(interval time.Duration, fire func(), logger *slog.Logger) *ticker {
	return &ticker{interval: interval, fire: fire, logger: logger}
}

// Start implements overlay.Timer.
func (t *ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	interval := t.interval

	logging.Go(t.logger, "fade timer", func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
			}
			select {
			case <-stop:
				return
			default:
			}
			t.fire()
		}
	})
}

// Stop implements overlay.Timer.
func (t *ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// Running reports whether the tick goroutine is active.
func (t *ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// SetInterval takes effect the next time the timer starts. It reports
// whether the interval changed.
func (t *ticker) SetInterval(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := t.interval != d
	t.interval = d
	return changed
}
