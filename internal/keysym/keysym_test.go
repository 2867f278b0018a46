package keysym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveShiftDuality(t *testing.T) {
	tests := []struct {
		name  string
		code  Code
		shift bool
		want  Info
	}{
		{"digit plain", Digit0 + 1, false, Info{Text: "1", ShiftAffectsGlyph: true}},
		{"digit shifted", Digit0 + 1, true, Info{Text: "!", ShiftAffectsGlyph: true}},
		{"zero shifted", Digit0, true, Info{Text: ")", ShiftAffectsGlyph: true}},
		{"nine shifted", Digit0 + 9, true, Info{Text: "(", ShiftAffectsGlyph: true}},
		{"letter plain", KeyA + 2, false, Info{Text: "c", ShiftAffectsGlyph: true}},
		{"letter shifted", KeyA + 2, true, Info{Text: "C", ShiftAffectsGlyph: true}},
		{"arrow shifted", Left, true, Info{Text: "LEFT"}},
		{"enter plain", Enter, false, Info{Text: "ENTER"}},
		{"enter shifted", Enter, true, Info{Text: "ENTER"}},
		{"semicolon shifted", Semicolon, true, Info{Text: ":", ShiftAffectsGlyph: true}},
		{"equal plain", Equal, false, Info{Text: "=", ShiftAffectsGlyph: true}},
		{"equal shifted", Equal, true, Info{Text: "+", ShiftAffectsGlyph: true}},
		{"backslash", Backslash, false, Info{Text: `\`, ShiftAffectsGlyph: true}},
		{"quote shifted", Quote, true, Info{Text: `"`, ShiftAffectsGlyph: true}},
		{"function key", F1 + 11, true, Info{Text: "F12"}},
		{"page down", PageDown, false, Info{Text: "PG_DOWN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.code, tt.shift))
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	for _, code := range []Code{0, Escape, 0xFF, LeftShift, RightControl, LeftAlt} {
		info := Resolve(code, true)
		assert.True(t, info.Empty(), "code %s", code)
		assert.False(t, info.ShiftAffectsGlyph, "code %s", code)
	}
}

func TestShiftAffectsGlyphMatchesTable(t *testing.T) {
	for _, k := range Table() {
		plain := Resolve(k.Code, false)
		shifted := Resolve(k.Code, true)
		assert.Equal(t, plain.Text != shifted.Text, plain.ShiftAffectsGlyph, "key %s", k.Plain)
		assert.Equal(t, plain.ShiftAffectsGlyph, shifted.ShiftAffectsGlyph, "key %s", k.Plain)
	}
}

func TestTable(t *testing.T) {
	keys := Table()
	// 15 editing/navigation, 10 digits, 26 letters, 11 punctuation, 12 F-keys.
	require.Len(t, keys, 74)

	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1].Code, keys[i].Code)
	}
	for _, k := range keys {
		assert.NotEqual(t, ClassModifier, k.Class)
		assert.NotEmpty(t, k.Shifted)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ClassModifier, Classify(LeftShift))
	assert.Equal(t, ClassLetter, Classify(KeyZ))
	assert.Equal(t, ClassFunction, Classify(F6))
	assert.Equal(t, ClassNavigation, Classify(Home))
	assert.Equal(t, ClassUnknown, Classify(Escape))

	assert.True(t, IsModifier(RightAlt))
	assert.False(t, IsModifier(Space))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Code
		ok   bool
	}{
		{"F6", F6, true},
		{"f6", F6, true},
		{"a", KeyA, true},
		{"A", KeyA, true},
		{"enter", Enter, true},
		{";", Semicolon, true},
		{"", 0, false},
		{"hyper", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			code, ok := Parse(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "0x41", KeyA.String())
	assert.Equal(t, "0x08", Backspace.String())
}
