package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(j Justify) Params {
	return Params{
		Padding:      10,
		ComboSpacing: 5,
		LabelSpacing: 2,
		LabelGap:     4,
		ViewportW:    800,
		ViewportH:    600,
		OffsetX:      20,
		OffsetBottom: 40,
		Justify:      j,
	}
}

// newest first: a bare glyph, then an older combo with two labels
func testItems() []Item {
	return []Item{
		{Glyph: Extent{W: 20, H: 30}},
		{Glyph: Extent{W: 10, H: 20}, Labels: []Extent{{W: 30, H: 8}, {W: 24, H: 8}}},
	}
}

func TestComputeEmpty(t *testing.T) {
	pl, ok := Compute(nil, testParams(JustifyRight))
	assert.False(t, ok)
	assert.Empty(t, pl.Combos)
	assert.True(t, pl.Box.Empty())
	assert.Equal(t, Extent{}, Size(nil, testParams(JustifyRight)))
}

func TestSize(t *testing.T) {
	got := Size(testItems(), testParams(JustifyRight))
	// 2*10 padding + 20 + (10 + 30 + 4) + 5 spacing
	assert.Equal(t, Extent{W: 89, H: 50}, got)
}

func TestSizeSingleBareCombo(t *testing.T) {
	got := Size([]Item{{Glyph: Extent{W: 14, H: 22}}}, testParams(JustifyRight))
	assert.Equal(t, Extent{W: 34, H: 42}, got)
}

func TestComputeJustification(t *testing.T) {
	tests := []struct {
		justify Justify
		wantX   float32
	}{
		{JustifyRight, 691},
		{JustifyLeft, 20},
		{JustifyCenter, 355.5},
	}

	for _, tt := range tests {
		t.Run(tt.justify.String(), func(t *testing.T) {
			pl, ok := Compute(testItems(), testParams(tt.justify))
			require.True(t, ok)
			assert.Equal(t, Rect{X: tt.wantX, Y: 510, W: 89, H: 50}, pl.Box)
			assert.Equal(t, tt.justify, pl.Justify)
		})
	}
}

func TestComputeOldestLeftmost(t *testing.T) {
	pl, ok := Compute(testItems(), testParams(JustifyRight))
	require.True(t, ok)
	require.Len(t, pl.Combos, 2)

	older, newer := pl.Combos[0], pl.Combos[1]
	assert.Equal(t, 1, older.Index)
	assert.Equal(t, 0, newer.Index)

	assert.Equal(t, []Rect{
		{X: 701, Y: 521, W: 30, H: 8},
		{X: 701, Y: 531, W: 24, H: 8},
	}, older.Labels)
	assert.Equal(t, Rect{X: 735, Y: 520, W: 10, H: 20}, older.Glyph)

	assert.Nil(t, newer.Labels)
	assert.Equal(t, Rect{X: 750, Y: 520, W: 20, H: 30}, newer.Glyph)

	// the newest glyph ends one padding short of the box edge
	gx, _ := newer.Glyph.Max()
	bx, _ := pl.Box.Max()
	assert.Equal(t, bx-10, gx)
}

func TestComputeIsDeterministic(t *testing.T) {
	items := testItems()
	p := testParams(JustifyCenter)
	a, _ := Compute(items, p)
	b, _ := Compute(items, p)
	assert.Equal(t, a, b)
	assert.Equal(t, testItems(), items, "input not modified")
}

func TestParseJustify(t *testing.T) {
	for in, want := range map[string]Justify{
		"":       JustifyRight,
		"right":  JustifyRight,
		"Left":   JustifyLeft,
		"center": JustifyCenter,
		"centre": JustifyCenter,
	} {
		got, err := ParseJustify(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseJustify("middle")
	assert.Error(t, err)
}
