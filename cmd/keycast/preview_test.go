package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keycast/cmd/keycast/internal/term"
	"keycast/internal/combo"
	"keycast/internal/keysym"
	"keycast/internal/layout"
	"keycast/internal/overlay"
)

type fixedFrame struct {
	frame overlay.Frame
}

func (f fixedFrame) Snapshot() (overlay.Frame, layout.Params) {
	return f.frame, layout.Params{Justify: layout.JustifyLeft}
}

func testFrame() overlay.Frame {
	c := combo.KeyCombo{Key: keysym.KeyA, Ctrl: true}
	return overlay.Frame{
		Entries: []overlay.Entry{{Combo: c, Symbol: c.Symbol(), Labels: c.Labels()}},
		Opacity: 1,
		Visible: true,
	}
}

func TestPreviewModelView(t *testing.T) {
	m := newPreviewModel(fixedFrame{testFrame()}, make(chan struct{}))
	assert.Empty(t, m.View())

	next, cmd := m.Update(tea.WindowSizeMsg{Width: 30, Height: 6})
	assert.Nil(t, cmd)
	view := next.View()

	lines := strings.Split(view, "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[5], "q: quit")
	assert.Equal(t, term.Render(testFrame(), layout.JustifyLeft, 30, 5), strings.Join(lines[:5], "\n"))
}

func TestPreviewModelQuits(t *testing.T) {
	m := newPreviewModel(fixedFrame{}, make(chan struct{}))
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		require.NotNil(t, cmd, key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
}

func TestPreviewModelRedraw(t *testing.T) {
	redraw := make(chan struct{}, 1)
	m := newPreviewModel(fixedFrame{}, redraw)

	redraw <- struct{}{}
	assert.Equal(t, redrawMsg{}, m.Init()())

	_, cmd := m.Update(redrawMsg{})
	require.NotNil(t, cmd)
	redraw <- struct{}{}
	assert.Equal(t, redrawMsg{}, cmd())
}

func TestPreviewModelInputDone(t *testing.T) {
	m := newPreviewModel(fixedFrame{}, make(chan struct{}))

	next, _ := m.Update(inputDoneMsg{})
	assert.Equal(t, "input finished | q: quit", next.(previewModel).status)

	next, _ = m.Update(inputDoneMsg{err: errors.New("no keyboards")})
	assert.Equal(t, "input stopped: no keyboards | q: quit", next.(previewModel).status)
}
