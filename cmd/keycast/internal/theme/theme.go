// Package theme holds the overlay chip's colors and metrics per OS.
package theme

import (
	"image/color"
	"runtime"

	"gioui.org/font/gofont"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"
)

// Palette defines the overlay colors. Alpha values are the fully opaque
// state; the fade scales them.
type Palette struct {
	Window     color.NRGBA
	Chip       color.NRGBA
	ChipBorder color.NRGBA
	Glyph      color.NRGBA
	Label      color.NRGBA
}

// Config defines the chip metrics.
type Config struct {
	CornerRadius unit.Dp
	BorderWidth  unit.Dp
	FontGlyph    unit.Sp
	FontLabel    unit.Sp
}

// Theme wraps the material theme with the overlay styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates a theme for the current OS. Non-zero glyph and label
// sizes override the platform defaults.
func NewTheme(glyph, label unit.Sp) *Theme {
	mt := material.NewTheme()
	mt.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	t := &Theme{Theme: mt}

	switch runtime.GOOS {
	case "darwin":
		setupMacOSTheme(t)
	default:
		setupDefaultTheme(t)
	}

	if glyph > 0 {
		t.Config.FontGlyph = glyph
	}
	if label > 0 {
		t.Config.FontLabel = label
	}
	return t
}

// Fade returns c with its alpha scaled by opacity in [0, 1].
func Fade(c color.NRGBA, opacity float64) color.NRGBA {
	opacity = min(max(opacity, 0), 1)
	c.A = uint8(float64(c.A)*opacity + 0.5)
	return c
}

func setupDefaultTheme(t *Theme) {
	t.Palette = Palette{
		Window:     color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x00},
		Chip:       color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xE6},
		ChipBorder: color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF},
		Glyph:      color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Label:      color.NRGBA{R: 0xA0, G: 0xA0, B: 0xA0, A: 0xFF},
	}

	t.Config = Config{
		CornerRadius: unit.Dp(6),
		BorderWidth:  unit.Dp(1),
		FontGlyph:    unit.Sp(36),
		FontLabel:    unit.Sp(11),
	}
}

func setupMacOSTheme(t *Theme) {
	t.Palette = Palette{
		Window:     color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x00},
		Chip:       color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xE0},
		ChipBorder: color.NRGBA{R: 0x3A, G: 0x3A, B: 0x3C, A: 0xFF},
		Glyph:      color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF7, A: 0xFF},
		Label:      color.NRGBA{R: 0x86, G: 0x86, B: 0x8B, A: 0xFF},
	}

	t.Config = Config{
		CornerRadius: unit.Dp(10), // macOS rounded corners are larger
		BorderWidth:  unit.Dp(1),
		FontGlyph:    unit.Sp(34),
		FontLabel:    unit.Sp(10),
	}
}
