package input

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"keycast/internal/keysym"
	"keycast/internal/tracker"
)

// Step is one scripted chord: the modifiers go down, the key is tapped and
// the modifiers are released in reverse order.
type Step struct {
	Mods []keysym.Code
	Key  keysym.Code
}

// Events expands the step into clean down/up transitions.
func (s Step) Events() []tracker.Event {
	evs := make([]tracker.Event, 0, 2*len(s.Mods)+2)
	for _, m := range s.Mods {
		evs = append(evs, tracker.Event{Code: m, Transition: tracker.KeyDown})
	}
	if s.Key != 0 {
		evs = append(evs,
			tracker.Event{Code: s.Key, Transition: tracker.KeyDown},
			tracker.Event{Code: s.Key, Transition: tracker.KeyUp},
		)
	}
	for i := len(s.Mods) - 1; i >= 0; i-- {
		evs = append(evs, tracker.Event{Code: s.Mods[i], Transition: tracker.KeyUp})
	}
	return evs
}

var modifierNames = map[string]keysym.Code{
	"ctrl":    keysym.LeftControl,
	"control": keysym.LeftControl,
	"alt":     keysym.LeftAlt,
	"shift":   keysym.LeftShift,
}

// ParseScript parses whitespace separated chords such as
// "ctrl+c a shift+1 ! ctrl+alt+DEL". A bare shifted glyph like "!" implies
// shift. A lone modifier name taps that modifier.
func ParseScript(script string) ([]Step, error) {
	var steps []Step
	for _, tok := range strings.Fields(script) {
		step, err := parseChord(tok)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseChord(tok string) (Step, error) {
	parts := strings.Split(tok, "+")
	// "ctrl++" and "+" name the plus key itself
	if len(parts) > 1 && parts[len(parts)-1] == "" && parts[len(parts)-2] == "" {
		parts = append(parts[:len(parts)-2], "+")
	}

	var step Step
	addMod := func(code keysym.Code) {
		for _, m := range step.Mods {
			if m == code {
				return
			}
		}
		step.Mods = append(step.Mods, code)
	}

	keyName := parts[len(parts)-1]
	for _, p := range parts[:len(parts)-1] {
		code, ok := modifierNames[strings.ToLower(p)]
		if !ok {
			return Step{}, fmt.Errorf("chord %q: unknown modifier %q", tok, p)
		}
		addMod(code)
	}

	if code, ok := modifierNames[strings.ToLower(keyName)]; ok && len(parts) == 1 {
		addMod(code)
		return step, nil
	}
	if code, ok := keysym.Parse(keyName); ok {
		step.Key = code
		return step, nil
	}
	for _, k := range keysym.Table() {
		if k.Shifted != k.Plain && k.Shifted == keyName {
			addMod(keysym.LeftShift)
			step.Key = k.Code
			return step, nil
		}
	}
	return Step{}, fmt.Errorf("chord %q: unknown key %q", tok, keyName)
}

// Scripted replays a fixed list of chords. It is used by the demo mode and
// end-to-end tests.
type Scripted struct {
	Steps []Step
	// Delay separates consecutive chords.
	Delay time.Duration
	// Loop restarts the script after the last chord until stopped.
	Loop bool
	// Now stamps events; nil uses time.Now.
	Now func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScripted parses script into a Scripted source.
func NewScripted(script string, delay time.Duration) (*Scripted, error) {
	steps, err := ParseScript(script)
	if err != nil {
		return nil, err
	}
	return &Scripted{Steps: steps, Delay: delay}, nil
}

// Available always reports true.
func (s *Scripted) Available() (bool, string) {
	return true, fmt.Sprintf("scripted source with %d chords", len(s.Steps))
}

// Start begins replaying. The channel closes after the last chord unless
// Loop is set.
func (s *Scripted) Start(ctx context.Context) (<-chan tracker.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrAlreadyRunning
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true
	out := make(chan tracker.Event, DefaultBuffer)

	go func() {
		defer close(s.done)
		defer close(out)
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		for {
			for i, step := range s.Steps {
				if i > 0 && !sleep(ctx, s.Delay) {
					return
				}
				for _, ev := range step.Events() {
					ev.Time = now()
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
			if !s.Loop || len(s.Steps) == 0 || !sleep(ctx, s.Delay) {
				return
			}
		}
	}()

	return out, nil
}

// Stop cancels the replay and waits for it to finish.
func (s *Scripted) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
