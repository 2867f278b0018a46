//go:build linux

package input

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sys/unix"

	"keycast/internal/logging"
	"keycast/internal/tracker"
)

// pollTimeoutMs bounds how long a reader waits before rechecking its context.
const pollTimeoutMs = 100

// EvdevSource reads key events from Linux evdev keyboards.
type EvdevSource struct {
	opts Options

	mu     sync.Mutex
	cancel context.CancelFunc
	// done is closed once the current run's readers have exited, just
	// before its channel is closed. Nil when idle.
	done chan struct{}
}

func newPlatformSource(opts Options) Source {
	return &EvdevSource{opts: opts}
}

func (s *EvdevSource) devices() ([]string, error) {
	if s.opts.Device != "" {
		return []string{s.opts.Device}, nil
	}
	return findKeyboards()
}

// findKeyboards lists keyboard nodes from /proc/bus/input/devices and the
// by-id symlinks, deduplicated by resolved path.
func findKeyboards() ([]string, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	defer f.Close()

	candidates := parseInputDevices(f)
	links, _ := filepath.Glob("/dev/input/by-id/*-kbd")
	candidates = append(candidates, links...)

	var out []string
	for _, c := range candidates {
		resolved, err := filepath.EvalSymlinks(c)
		if err != nil {
			resolved = c
		}
		if !slices.Contains(out, resolved) {
			out = append(out, resolved)
		}
	}
	return out, nil
}

// Available checks that at least one keyboard can be opened.
func (s *EvdevSource) Available() (bool, string) {
	devices, err := s.devices()
	if err != nil {
		return false, fmt.Sprintf("cannot find keyboard devices: %v", err)
	}
	if len(devices) == 0 {
		return false, "no keyboard devices found"
	}
	for _, dev := range devices {
		fd, err := unix.Open(dev, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err == nil {
			unix.Close(fd)
			return true, fmt.Sprintf("found keyboard device: %s", dev)
		}
	}
	return false, "cannot read keyboard devices (need to be in 'input' group or run as root)"
}

// Start opens every readable keyboard and merges their events.
func (s *EvdevSource) Start(ctx context.Context) (<-chan tracker.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		select {
		case <-s.done:
			// Every device went away; the run is over.
			s.cancel()
			s.cancel, s.done = nil, nil
		default:
			return nil, ErrAlreadyRunning
		}
	}

	devices, err := s.devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	if len(devices) == 0 {
		return nil, ErrNotAvailable
	}

	var fds []int
	for _, dev := range devices {
		fd, err := unix.Open(dev, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			s.opts.Logger.Debug("skip input device", "device", dev, "error", err)
			continue
		}
		s.opts.Logger.Info("reading keyboard", "device", dev)
		fds = append(fds, fd)
	}
	if len(fds) == 0 {
		return nil, ErrPermissionDenied
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	out := make(chan tracker.Event, s.opts.Buffer)

	var wg sync.WaitGroup
	for _, fd := range fds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer logging.RecoverGoroutine(s.opts.Logger, "evdev reader")
			defer unix.Close(fd)
			s.readLoop(ctx, fd, out)
		}()
	}
	go func() {
		wg.Wait()
		close(done)
		close(out)
	}()

	return out, nil
}

func (s *EvdevSource) readLoop(ctx context.Context, fd int, out chan<- tracker.Event) {
	buf := make([]byte, evdevEventSize*64)
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for ctx.Err() == nil {
		n, err := unix.Poll(pfd, pollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			s.opts.Logger.Warn("poll input device", "error", err)
			return
		}
		if n == 0 {
			continue
		}
		if pfd[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			s.opts.Logger.Warn("input device went away", "fd", fd)
			return
		}

		read, err := unix.Read(fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			s.opts.Logger.Warn("read input device", "error", err)
			return
		}

		for off := 0; off+evdevEventSize <= read; off += evdevEventSize {
			ev, ok := decodeEvdev(buf[off : off+evdevEventSize])
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stop cancels the readers and waits for them to exit.
func (s *EvdevSource) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
