package logging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// RecoverGoroutine recovers a panic in a background goroutine and logs it
// with its stack. It must be called directly by defer:
//
//	defer logging.RecoverGoroutine(logger, "evdev reader")
//
// The panic is not re-raised; the goroutine simply ends.
func RecoverGoroutine(logger *slog.Logger, name string) {
	v := recover()
	if v == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("goroutine panic",
		"goroutine", name,
		"panic", fmt.Sprint(v),
		"stack", string(debug.Stack()),
	)
}

// Go runs fn in a new goroutine guarded by RecoverGoroutine.
func Go(logger *slog.Logger, name string, fn func()) {
	go func() {
		defer RecoverGoroutine(logger, name)
		fn()
	}()
}
