// Package layout computes where the combo chip and its text go.
//
// Compute is a pure function of the history snapshot, the measured text
// extents and the viewport. It performs no drawing and no measuring; the
// renderer measures text and feeds the extents in.
package layout

import (
	"fmt"
	"strings"
)

// Extent is the measured size of a piece of text.
type Extent struct {
	W, H float32
}

// Rect is an axis-aligned rectangle with its origin at the top-left.
type Rect struct {
	X, Y, W, H float32
}

// Max returns the bottom-right corner.
func (r Rect) Max() (x, y float32) {
	return r.X + r.W, r.Y + r.H
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Justify selects horizontal anchoring of the chip.
type Justify int

const (
	JustifyRight Justify = iota
	JustifyLeft
	JustifyCenter
)

func (j Justify) String() string {
	switch j {
	case JustifyLeft:
		return "left"
	case JustifyCenter:
		return "center"
	default:
		return "right"
	}
}

// ParseJustify parses "left", "right" or "center". The empty string is right.
func ParseJustify(s string) (Justify, error) {
	switch strings.ToLower(s) {
	case "", "right":
		return JustifyRight, nil
	case "left":
		return JustifyLeft, nil
	case "center", "centre":
		return JustifyCenter, nil
	default:
		return JustifyRight, fmt.Errorf("unknown justification %q", s)
	}
}

// Item is the measured text of one combo: its glyph and the modifier
// labels that are shown beside it, in display order.
type Item struct {
	Glyph  Extent
	Labels []Extent
}

// Params are the fixed spacing constants and the viewport.
type Params struct {
	Padding      float32
	ComboSpacing float32
	// LabelSpacing separates stacked modifier labels.
	LabelSpacing float32
	// LabelGap separates the label column from its glyph.
	LabelGap float32

	ViewportW    float32
	ViewportH    float32
	OffsetX      float32
	OffsetBottom float32
	Justify      Justify
}

// DefaultParams returns the spacing used by the overlay window, in dp.
func DefaultParams() Params {
	return Params{
		Padding:      12,
		ComboSpacing: 16,
		LabelSpacing: 2,
		LabelGap:     6,
		OffsetX:      32,
		OffsetBottom: 48,
		Justify:      JustifyRight,
	}
}

// ComboPlacement is the position of one combo inside the chip.
type ComboPlacement struct {
	// Index is the position of the combo in the input slice.
	Index  int
	Glyph  Rect
	Labels []Rect
}

// Placement is the full result for one frame.
type Placement struct {
	Box     Rect
	Justify Justify
	// Combos are ordered left to right, oldest first.
	Combos []ComboPlacement
}

// labelColumn returns the width reserved left of the glyph for labels and
// the stacked height of the labels.
func labelColumn(it Item, p Params) (width, height float32) {
	if len(it.Labels) == 0 {
		return 0, 0
	}
	var maxW float32
	for i, l := range it.Labels {
		maxW = max(maxW, l.W)
		height += l.H
		if i > 0 {
			height += p.LabelSpacing
		}
	}
	return maxW + p.LabelGap, height
}

// Size returns the chip box size for items without positioning anything.
func Size(items []Item, p Params) Extent {
	if len(items) == 0 {
		return Extent{}
	}
	w := 2 * p.Padding
	var glyphH float32
	for i, it := range items {
		col, _ := labelColumn(it, p)
		w += it.Glyph.W + col
		if i > 0 {
			w += p.ComboSpacing
		}
		glyphH = max(glyphH, it.Glyph.H)
	}
	return Extent{W: w, H: 2*p.Padding + glyphH}
}

// Compute places items, which are given newest first as the history
// iterates. An empty slice yields a zero Placement and ok == false.
func Compute(items []Item, p Params) (pl Placement, ok bool) {
	if len(items) == 0 {
		return Placement{Justify: p.Justify}, false
	}

	size := Size(items, p)
	box := Rect{W: size.W, H: size.H}
	box.Y = p.ViewportH - p.OffsetBottom - box.H
	switch p.Justify {
	case JustifyLeft:
		box.X = p.OffsetX
	case JustifyCenter:
		box.X = (p.ViewportW - box.W) / 2
	default:
		box.X = p.ViewportW - p.OffsetX - box.W
	}

	pl = Placement{
		Box:     box,
		Justify: p.Justify,
		Combos:  make([]ComboPlacement, 0, len(items)),
	}

	x := box.X + p.Padding
	top := box.Y + p.Padding
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		col, stackH := labelColumn(it, p)

		cp := ComboPlacement{Index: i}
		if len(it.Labels) > 0 {
			cp.Labels = make([]Rect, len(it.Labels))
			y := top + (it.Glyph.H-stackH)/2
			for j, l := range it.Labels {
				cp.Labels[j] = Rect{X: x, Y: y, W: l.W, H: l.H}
				y += l.H + p.LabelSpacing
			}
		}
		cp.Glyph = Rect{X: x + col, Y: top, W: it.Glyph.W, H: it.Glyph.H}
		pl.Combos = append(pl.Combos, cp)

		x += col + it.Glyph.W + p.ComboSpacing
	}
	return pl, true
}
