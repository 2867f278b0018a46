// Package keysym maps raw key codes to the glyphs shown on the overlay.
//
// Key codes use the Windows virtual-key numbering. Input adapters for other
// platforms translate into this space before events reach the tracker.
package keysym

import (
	"fmt"
	"sort"
	"strings"
)

// Code identifies a physical key.
type Code uint32

// Virtual-key codes with a name used outside the lookup table.
const (
	Backspace Code = 0x08
	Tab       Code = 0x09
	Enter     Code = 0x0D
	CapsLock  Code = 0x14
	Escape    Code = 0x1B
	Space     Code = 0x20
	PageUp    Code = 0x21
	PageDown  Code = 0x22
	End       Code = 0x23
	Home      Code = 0x24
	Left      Code = 0x25
	Up        Code = 0x26
	Right     Code = 0x27
	Down      Code = 0x28
	Insert    Code = 0x2D
	Delete    Code = 0x2E

	Digit0 Code = 0x30
	KeyA   Code = 0x41
	KeyZ   Code = 0x5A

	F1  Code = 0x70
	F6  Code = 0x75
	F12 Code = 0x7B

	LeftShift    Code = 0xA0
	RightShift   Code = 0xA1
	LeftControl  Code = 0xA2
	RightControl Code = 0xA3
	LeftAlt      Code = 0xA4
	RightAlt     Code = 0xA5

	Semicolon    Code = 0xBA
	Equal        Code = 0xBB
	Comma        Code = 0xBC
	Minus        Code = 0xBD
	Period       Code = 0xBE
	Slash        Code = 0xBF
	Grave        Code = 0xC0
	LeftBracket  Code = 0xDB
	Backslash    Code = 0xDC
	RightBracket Code = 0xDD
	Quote        Code = 0xDE
)

// String returns the code in hex, e.g. "0x41".
func (c Code) String() string {
	return fmt.Sprintf("0x%02X", uint32(c))
}

// Class groups keys by how they are displayed.
type Class int

const (
	ClassUnknown    Class = iota
	ClassEditing          // Backspace, Tab, Enter, Caps, Space, Insert, Delete
	ClassNavigation       // Arrows, Home, End, Page Up/Down
	ClassDigit            // 0-9
	ClassLetter           // A-Z
	ClassPunctuation      // ; = , - . / ` [ \ ] '
	ClassFunction         // F1-F12
	ClassModifier         // Shift, Ctrl, Alt (left and right)
)

func (c Class) String() string {
	switch c {
	case ClassEditing:
		return "editing"
	case ClassNavigation:
		return "navigation"
	case ClassDigit:
		return "digit"
	case ClassLetter:
		return "letter"
	case ClassPunctuation:
		return "punctuation"
	case ClassFunction:
		return "function"
	case ClassModifier:
		return "modifier"
	default:
		return "unknown"
	}
}

// Info is the display form of a key under a given shift state.
type Info struct {
	// Text is the glyph. Empty for keys the overlay does not show.
	Text string
	// ShiftAffectsGlyph reports whether the shifted glyph differs from the
	// unshifted one. When it does, no separate SHIFT label is shown.
	ShiftAffectsGlyph bool
}

// Empty reports whether the key has no glyph.
func (i Info) Empty() bool {
	return i.Text == ""
}

type entry struct {
	class   Class
	plain   string
	shifted string
}

func (e entry) info(shift bool) Info {
	if e.shifted == "" {
		return Info{Text: e.plain}
	}
	if shift {
		return Info{Text: e.shifted, ShiftAffectsGlyph: true}
	}
	return Info{Text: e.plain, ShiftAffectsGlyph: true}
}

var table = map[Code]entry{
	Backspace: {ClassEditing, "BSPC", ""},
	Tab:       {ClassEditing, "TAB", ""},
	Enter:     {ClassEditing, "ENTER", ""},
	CapsLock:  {ClassEditing, "CAPS", ""},
	Space:     {ClassEditing, "SPC", ""},
	PageUp:    {ClassNavigation, "PG_UP", ""},
	PageDown:  {ClassNavigation, "PG_DOWN", ""},
	End:       {ClassNavigation, "END", ""},
	Home:      {ClassNavigation, "HOME", ""},
	Left:      {ClassNavigation, "LEFT", ""},
	Up:        {ClassNavigation, "UP", ""},
	Right:     {ClassNavigation, "RIGHT", ""},
	Down:      {ClassNavigation, "DOWN", ""},
	Insert:    {ClassEditing, "INS", ""},
	Delete:    {ClassEditing, "DEL", ""},

	Semicolon:    {ClassPunctuation, ";", ":"},
	Equal:        {ClassPunctuation, "=", "+"}, // US layout: = unshifted, + shifted
	Comma:        {ClassPunctuation, ",", "<"},
	Minus:        {ClassPunctuation, "-", "_"},
	Period:       {ClassPunctuation, ".", ">"},
	Slash:        {ClassPunctuation, "/", "?"},
	Grave:        {ClassPunctuation, "`", "~"},
	LeftBracket:  {ClassPunctuation, "[", "{"},
	Backslash:    {ClassPunctuation, `\`, "|"},
	RightBracket: {ClassPunctuation, "]", "}"},
	Quote:        {ClassPunctuation, "'", `"`},

	LeftShift:    {ClassModifier, "", ""},
	RightShift:   {ClassModifier, "", ""},
	LeftControl:  {ClassModifier, "", ""},
	RightControl: {ClassModifier, "", ""},
	LeftAlt:      {ClassModifier, "", ""},
	RightAlt:     {ClassModifier, "", ""},
}

func init() {
	const shiftedDigits = ")!@#$%^&*("
	for i := 0; i < 10; i++ {
		table[Digit0+Code(i)] = entry{ClassDigit, string(rune('0' + i)), string(shiftedDigits[i])}
	}
	for c := KeyA; c <= KeyZ; c++ {
		upper := string(rune('A' + (c - KeyA)))
		lower := string(rune('a' + (c - KeyA)))
		table[c] = entry{ClassLetter, lower, upper}
	}
	for i := 0; i < 12; i++ {
		table[F1+Code(i)] = entry{ClassFunction, fmt.Sprintf("F%d", i+1), ""}
	}
}

// Resolve returns the glyph for code under the given shift state.
// Unknown codes and modifier keys resolve to an empty Info.
func Resolve(code Code, shiftDown bool) Info {
	e, ok := table[code]
	if !ok {
		return Info{}
	}
	return e.info(shiftDown)
}

// Classify returns the display class of code.
func Classify(code Code) Class {
	return table[code].class
}

// IsModifier reports whether code is a left or right shift, ctrl or alt key.
func IsModifier(code Code) bool {
	return Classify(code) == ClassModifier
}

// Parse looks up a code by its unshifted glyph or name, e.g. "F6", "a",
// "ENTER", "pg_up". Matching is case-insensitive.
func Parse(name string) (Code, bool) {
	if name == "" {
		return 0, false
	}
	for code, e := range table {
		if e.plain != "" && strings.EqualFold(e.plain, name) {
			return code, true
		}
	}
	return 0, false
}

// Key describes one row of the lookup table.
type Key struct {
	Code    Code
	Class   Class
	Plain   string
	Shifted string
}

// Table returns every key with a glyph, ordered by code.
func Table() []Key {
	keys := make([]Key, 0, len(table))
	for code, e := range table {
		if e.plain == "" {
			continue
		}
		shifted := e.shifted
		if shifted == "" {
			shifted = e.plain
		}
		keys = append(keys, Key{Code: code, Class: e.class, Plain: e.plain, Shifted: shifted})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Code < keys[j].Code })
	return keys
}
