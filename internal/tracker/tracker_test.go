package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keycast/internal/combo"
	"keycast/internal/keysym"
)

func newTracker(t *testing.T, capacity int, cfg Config) (*Tracker, *combo.Ring) {
	t.Helper()
	ring, err := combo.NewRing(capacity)
	require.NoError(t, err)
	return New(ring, cfg), ring
}

func down(code keysym.Code) Event { return Event{Code: code, Transition: KeyDown} }
func up(code keysym.Code) Event   { return Event{Code: code, Transition: KeyUp} }

func tap(tr *Tracker, code keysym.Code) Result {
	tr.HandleEvent(down(code))
	return tr.HandleEvent(up(code))
}

func TestModifierKeysTrackState(t *testing.T) {
	tr, ring := newTracker(t, 3, DefaultConfig())

	tests := []struct {
		ev   Event
		want ModifierState
	}{
		{down(keysym.LeftControl), ModifierState{Ctrl: true}},
		{down(keysym.RightAlt), ModifierState{Ctrl: true, Alt: true}},
		{down(keysym.RightShift), ModifierState{Ctrl: true, Alt: true, Shift: true}},
		{up(keysym.RightControl), ModifierState{Alt: true, Shift: true}},
		{up(keysym.LeftAlt), ModifierState{Shift: true}},
		{up(keysym.LeftShift), ModifierState{}},
	}

	for _, tt := range tests {
		res := tr.HandleEvent(tt.ev)
		assert.False(t, res.Pushed)
		assert.True(t, res.ModifierChanged)
		assert.Equal(t, tt.want, tr.Modifiers())
	}
	assert.True(t, ring.IsEmpty())
}

func TestRepeatedModifierDownIsNotAChange(t *testing.T) {
	tr, _ := newTracker(t, 3, DefaultConfig())
	tr.HandleEvent(down(keysym.LeftShift))
	res := tr.HandleEvent(down(keysym.LeftShift))
	assert.False(t, res.ModifierChanged)
}

func TestKeyDownProducesNothing(t *testing.T) {
	tr, ring := newTracker(t, 3, DefaultConfig())
	res := tr.HandleEvent(down(keysym.KeyA))

	assert.Equal(t, Result{}, res)
	assert.True(t, ring.IsEmpty())
}

func TestReleasePushesCombo(t *testing.T) {
	tr, ring := newTracker(t, 3, DefaultConfig())
	tr.HandleEvent(down(keysym.LeftControl))
	res := tap(tr, keysym.KeyA+2)

	require.True(t, res.Pushed)
	assert.True(t, res.Redraw)
	assert.Equal(t, combo.KeyCombo{Key: keysym.KeyA + 2, Ctrl: true}, res.Combo)

	front := ring.Snapshot()[0]
	assert.True(t, front.Ctrl)
	assert.Equal(t, "c", front.Symbol().Text)
	assert.Equal(t, []combo.Modifier{combo.ModCtrl}, front.Labels())
}

func TestUnknownKeyIsDiscarded(t *testing.T) {
	tr, ring := newTracker(t, 3, DefaultConfig())
	res := tap(tr, keysym.Escape)

	assert.True(t, res.Discarded)
	assert.False(t, res.Pushed)
	assert.True(t, res.Redraw)
	assert.True(t, ring.IsEmpty())
}

func TestHistoryEvictsOldest(t *testing.T) {
	tr, ring := newTracker(t, 3, DefaultConfig())
	var evicted []bool
	for _, c := range []keysym.Code{keysym.KeyA, keysym.KeyA + 1, keysym.KeyA + 2, keysym.KeyA + 3} {
		evicted = append(evicted, tap(tr, c).Evicted)
	}

	assert.Equal(t, []bool{false, false, false, true}, evicted)

	var got []string
	for c := range ring.All() {
		got = append(got, c.Symbol().Text)
	}
	assert.Equal(t, []string{"d", "c", "b"}, got)
}

func TestSystemChannelHandledTheSame(t *testing.T) {
	tr, ring := newTracker(t, 3, DefaultConfig())
	tr.HandleEvent(Event{Code: keysym.LeftAlt, Transition: KeyDown, System: true})
	tr.HandleEvent(Event{Code: keysym.Tab, Transition: KeyDown, System: true})
	res := tr.HandleEvent(Event{Code: keysym.Tab, Transition: KeyUp, System: true})

	require.True(t, res.Pushed)
	assert.Equal(t, combo.KeyCombo{Key: keysym.Tab, Alt: true}, ring.Snapshot()[0])
}

func TestToggleCombo(t *testing.T) {
	tr, ring := newTracker(t, 3, DefaultConfig())
	tr.HandleEvent(down(keysym.LeftControl))
	tr.HandleEvent(down(keysym.LeftAlt))

	res := tap(tr, keysym.F6)
	assert.False(t, res.ToggleVisibility, "shift not held")

	tr.HandleEvent(down(keysym.LeftShift))
	res = tap(tr, keysym.F6)
	assert.True(t, res.ToggleVisibility)
	assert.True(t, res.Pushed, "toggle combo is still recorded")
	assert.Equal(t, 2, ring.Len())

	res = tap(tr, keysym.F1)
	assert.False(t, res.ToggleVisibility)
}

func TestToggleDisabled(t *testing.T) {
	tr, _ := newTracker(t, 3, Config{})
	tr.HandleEvent(down(keysym.LeftControl))
	tr.HandleEvent(down(keysym.LeftAlt))
	tr.HandleEvent(down(keysym.LeftShift))

	assert.False(t, tap(tr, keysym.F6).ToggleVisibility)
}

func TestSetToggleKey(t *testing.T) {
	tr, _ := newTracker(t, 3, DefaultConfig())
	tr.SetToggleKey(keysym.F1 + 8)
	tr.HandleEvent(down(keysym.LeftControl))
	tr.HandleEvent(down(keysym.LeftAlt))
	tr.HandleEvent(down(keysym.LeftShift))

	assert.False(t, tap(tr, keysym.F6).ToggleVisibility)
	assert.True(t, tap(tr, keysym.F1+8).ToggleVisibility)
}

func TestReleaseSamplingUsesLiveShift(t *testing.T) {
	tr, ring := newTracker(t, 3, DefaultConfig())
	tr.HandleEvent(down(keysym.LeftShift))
	tr.HandleEvent(down(keysym.KeyA))
	tr.HandleEvent(up(keysym.LeftShift))
	tr.HandleEvent(up(keysym.KeyA))

	assert.Equal(t, "a", ring.Snapshot()[0].Symbol().Text)
}

func TestPressSamplingUsesShiftAtPress(t *testing.T) {
	tr, ring := newTracker(t, 3, Config{Sampling: SampleAtPress})
	tr.HandleEvent(down(keysym.LeftShift))
	tr.HandleEvent(down(keysym.KeyA))
	tr.HandleEvent(up(keysym.LeftShift))
	tr.HandleEvent(down(keysym.KeyA)) // autorepeat keeps the first sample
	tr.HandleEvent(up(keysym.KeyA))

	front := ring.Snapshot()[0]
	assert.True(t, front.Shift)
	assert.Equal(t, "A", front.Symbol().Text)

	// a release without a recorded press falls back to live state
	tr.HandleEvent(down(keysym.LeftControl))
	tr.HandleEvent(up(keysym.KeyA + 1))
	assert.Equal(t, combo.KeyCombo{Key: keysym.KeyA + 1, Ctrl: true}, ring.Snapshot()[0])
}

func TestSetSamplingForgetsPresses(t *testing.T) {
	tr, ring := newTracker(t, 3, Config{Sampling: SampleAtPress})
	tr.HandleEvent(down(keysym.LeftShift))
	tr.HandleEvent(down(keysym.KeyA))
	tr.HandleEvent(up(keysym.LeftShift))

	tr.SetSampling(SampleAtPress)
	tr.HandleEvent(up(keysym.KeyA))
	assert.False(t, ring.Snapshot()[0].Shift)
}

func TestParseSampling(t *testing.T) {
	s, err := ParseSampling("press")
	require.NoError(t, err)
	assert.Equal(t, SampleAtPress, s)

	s, err = ParseSampling("")
	require.NoError(t, err)
	assert.Equal(t, SampleAtRelease, s)
	assert.Equal(t, "release", s.String())

	_, err = ParseSampling("sometimes")
	assert.Error(t, err)
}

func TestTransitionString(t *testing.T) {
	assert.Equal(t, "down", KeyDown.String())
	assert.Equal(t, "up", KeyUp.String())
	assert.Equal(t, "Transition(7)", Transition(7).String())
}
