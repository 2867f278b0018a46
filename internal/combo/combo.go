// Package combo holds completed key combos and the bounded history they are
// kept in.
package combo

import (
	"strings"

	"keycast/internal/keysym"
)

// KeyCombo is a key release together with the modifiers held at that moment.
type KeyCombo struct {
	Key   keysym.Code
	Ctrl  bool
	Alt   bool
	Shift bool
}

// Symbol resolves the combo's glyph with its own shift state.
func (c KeyCombo) Symbol() keysym.Info {
	return keysym.Resolve(c.Key, c.Shift)
}

// Modifier is a modifier label shown next to a glyph.
type Modifier int

const (
	ModCtrl Modifier = iota
	ModAlt
	ModShift
)

func (m Modifier) String() string {
	switch m {
	case ModCtrl:
		return "CTRL"
	case ModAlt:
		return "ALT"
	case ModShift:
		return "SHIFT"
	default:
		return ""
	}
}

// Labels returns the modifier labels to show for c, in ctrl, alt, shift
// order. SHIFT is left out when shift already changes the glyph.
func (c KeyCombo) Labels() []Modifier {
	var labels []Modifier
	if c.Ctrl {
		labels = append(labels, ModCtrl)
	}
	if c.Alt {
		labels = append(labels, ModAlt)
	}
	if c.Shift && !c.Symbol().ShiftAffectsGlyph {
		labels = append(labels, ModShift)
	}
	return labels
}

// String renders the combo the way the overlay reads, e.g. "CTRL+ALT+DEL".
func (c KeyCombo) String() string {
	var b strings.Builder
	for _, m := range c.Labels() {
		b.WriteString(m.String())
		b.WriteByte('+')
	}
	b.WriteString(c.Symbol().Text)
	return b.String()
}
