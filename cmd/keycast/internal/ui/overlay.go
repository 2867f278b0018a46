// Package ui draws the overlay chip with gio.
package ui

import (
	"image"
	"math"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"

	"keycast/cmd/keycast/internal/theme"
	klayout "keycast/internal/layout"
	"keycast/internal/overlay"
)

// Overlay renders frames.
type Overlay struct {
	theme *theme.Theme
}

// New creates an overlay renderer.
func New(t *theme.Theme) *Overlay {
	return &Overlay{theme: t}
}

// Measurer measures text with the gtx it was made from, in pixels.
type Measurer struct {
	gtx layout.Context
	o   *Overlay
}

// Measurer returns a Measurer bound to gtx.
func (o *Overlay) Measurer(gtx layout.Context) Measurer {
	return Measurer{gtx: gtx, o: o}
}

// Measure implements overlay.Measurer. The label is laid out into a
// discarded macro.
func (m Measurer) Measure(text string, label bool) klayout.Extent {
	gtx := m.gtx
	gtx.Constraints = layout.Constraints{Max: image.Pt(math.MaxInt32/2, math.MaxInt32/2)}
	macro := op.Record(gtx.Ops)
	dims := m.o.label(text, label).Layout(gtx)
	macro.Stop()
	return klayout.Extent{W: float32(dims.Size.X), H: float32(dims.Size.Y)}
}

func (o *Overlay) label(text string, small bool) material.LabelStyle {
	size, c := o.theme.Config.FontGlyph, o.theme.Palette.Glyph
	if small {
		size, c = o.theme.Config.FontLabel, o.theme.Palette.Label
	}
	l := material.Label(o.theme.Theme, size, text)
	l.Color = c
	l.MaxLines = 1
	return l
}

// ScaleParams converts dp spacing to pixels.
func ScaleParams(p klayout.Params, pxPerDp float32) klayout.Params {
	p.Padding *= pxPerDp
	p.ComboSpacing *= pxPerDp
	p.LabelSpacing *= pxPerDp
	p.LabelGap *= pxPerDp
	p.OffsetX *= pxPerDp
	p.OffsetBottom *= pxPerDp
	return p
}

// Rect rounds a layout rectangle to pixels.
func Rect(r klayout.Rect) image.Rectangle {
	x0 := int(math.Round(float64(r.X)))
	y0 := int(math.Round(float64(r.Y)))
	x1, y1 := r.Max()
	return image.Rect(x0, y0, int(math.Round(float64(x1))), int(math.Round(float64(y1))))
}

// Layout paints f. p is in dp; the viewport is the gtx maximum.
func (o *Overlay) Layout(gtx layout.Context, f overlay.Frame, p klayout.Params) layout.Dimensions {
	size := gtx.Constraints.Max
	paint.Fill(gtx.Ops, o.theme.Palette.Window)
	if !f.Drawable() {
		return layout.Dimensions{Size: size}
	}

	p = ScaleParams(p, gtx.Metric.PxPerDp)
	p.ViewportW = float32(size.X)
	p.ViewportH = float32(size.Y)
	pl, ok := overlay.Place(f, o.Measurer(gtx), p)
	if !ok {
		return layout.Dimensions{Size: size}
	}

	rr := clip.UniformRRect(Rect(pl.Box), gtx.Dp(o.theme.Config.CornerRadius))
	paint.FillShape(gtx.Ops, theme.Fade(o.theme.Palette.Chip, f.Opacity), rr.Op(gtx.Ops))
	paint.FillShape(gtx.Ops, theme.Fade(o.theme.Palette.ChipBorder, f.Opacity),
		clip.Stroke{Path: rr.Path(gtx.Ops), Width: float32(gtx.Dp(o.theme.Config.BorderWidth))}.Op())

	for _, cp := range pl.Combos {
		e := f.Entries[cp.Index]
		o.drawText(gtx, e.Symbol.Text, false, cp.Glyph, f.Opacity)
		for j, r := range cp.Labels {
			o.drawText(gtx, e.Labels[j].String(), true, r, f.Opacity)
		}
	}
	return layout.Dimensions{Size: size}
}

func (o *Overlay) drawText(gtx layout.Context, text string, small bool, r klayout.Rect, opacity float64) {
	px := Rect(r)
	defer op.Offset(px.Min).Push(gtx.Ops).Pop()
	// One spare pixel absorbs rounding so the label is never clipped.
	gtx.Constraints = layout.Constraints{Max: px.Size().Add(image.Pt(1, 1))}

	l := o.label(text, small)
	l.Color = theme.Fade(l.Color, opacity)
	l.Layout(gtx)
}
