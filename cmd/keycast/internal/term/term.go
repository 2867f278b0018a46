// Package term renders the overlay into a terminal cell grid for the
// preview command. One cell is one layout unit.
package term

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"keycast/internal/layout"
	"keycast/internal/overlay"
)

// Measurer measures text in terminal cells. Every line is one cell high.
type Measurer struct{}

// Measure implements overlay.Measurer.
func (Measurer) Measure(text string, _ bool) layout.Extent {
	return layout.Extent{W: float32(lipgloss.Width(text)), H: 1}
}

// Params returns cell spacing for the given justification.
func Params(j layout.Justify, width, height int) layout.Params {
	return layout.Params{
		Padding:      1,
		ComboSpacing: 2,
		LabelSpacing: 0,
		LabelGap:     1,
		OffsetX:      2,
		OffsetBottom: 1,
		ViewportW:    float32(width),
		ViewportH:    float32(height),
		Justify:      j,
	}
}

// Shade maps opacity to 256-color grey levels for the chip text and
// background. Full opacity is bright text on dark grey; zero is black.
func Shade(opacity float64) (fg, bg lipgloss.Color) {
	opacity = min(max(opacity, 0), 1)
	fgLevel := 232 + int(math.Round(opacity*23))
	bgLevel := 232 + int(math.Round(opacity*4))
	return lipgloss.Color(strconv.Itoa(fgLevel)), lipgloss.Color(strconv.Itoa(bgLevel))
}

// Render draws f into a width x height block. Label cells use a fainter
// style than glyph cells.
func Render(f overlay.Frame, j layout.Justify, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := make([]string, height)
	if !f.Drawable() {
		return strings.Join(lines, "\n")
	}

	pl, ok := overlay.Place(f, Measurer{}, Params(j, width, height))
	if !ok {
		return strings.Join(lines, "\n")
	}

	bx, by := cell(pl.Box.X), cell(pl.Box.Y)
	bw, bh := cell(pl.Box.W), cell(pl.Box.H)
	grid := make([][]rune, bh)
	faint := make([][]bool, bh)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", bw))
		faint[y] = make([]bool, bw)
	}
	put := func(r layout.Rect, text string, isLabel bool) {
		y := cell(r.Y) - by
		if y < 0 || y >= bh {
			return
		}
		x := cell(r.X) - bx
		for _, ch := range text {
			if x >= 0 && x < bw {
				grid[y][x] = ch
				faint[y][x] = isLabel
			}
			x++
		}
	}
	for _, cp := range pl.Combos {
		e := f.Entries[cp.Index]
		put(cp.Glyph, e.Symbol.Text, false)
		for i, r := range cp.Labels {
			put(r, e.Labels[i].String(), true)
		}
	}

	fg, bg := Shade(f.Opacity)
	glyphStyle := lipgloss.NewStyle().Foreground(fg).Background(bg).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(fg).Background(bg).Faint(true)

	for y := range grid {
		row := by + y
		if row < 0 || row >= height {
			continue
		}
		// Columns left of the viewport are cut.
		from := max(0, -bx)
		if from >= bw {
			continue
		}
		var b strings.Builder
		if bx > 0 {
			b.WriteString(strings.Repeat(" ", bx))
		}
		start := from
		for x := from + 1; x <= bw; x++ {
			if x < bw && faint[y][x] == faint[y][start] {
				continue
			}
			seg := string(grid[y][start:x])
			if faint[y][start] {
				b.WriteString(labelStyle.Render(seg))
			} else {
				b.WriteString(glyphStyle.Render(seg))
			}
			start = x
		}
		lines[row] = b.String()
	}
	return strings.Join(lines, "\n")
}

func cell(v float32) int {
	return int(math.Round(float64(v)))
}
