package input

import (
	"bufio"
	"encoding/binary"
	"io"
	"strings"
	"time"

	"keycast/internal/keysym"
	"keycast/internal/tracker"
)

// Linux input_event layout on 64-bit kernels: struct timeval (16 bytes),
// type (2), code (2), value (4).
const (
	evdevEventSize = 24

	evKey = 0x01

	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// evdevKeys maps linux/input-event-codes.h KEY_* codes to virtual keys.
var evdevKeys = map[uint16]keysym.Code{
	1:  keysym.Escape,
	12: keysym.Minus,
	13: keysym.Equal,
	14: keysym.Backspace,
	15: keysym.Tab,
	26: keysym.LeftBracket,
	27: keysym.RightBracket,
	28: keysym.Enter,
	29: keysym.LeftControl,
	39: keysym.Semicolon,
	40: keysym.Quote,
	41: keysym.Grave,
	42: keysym.LeftShift,
	43: keysym.Backslash,
	51: keysym.Comma,
	52: keysym.Period,
	53: keysym.Slash,
	54: keysym.RightShift,
	56: keysym.LeftAlt,
	57: keysym.Space,
	58: keysym.CapsLock,
	87: keysym.F1 + 10,
	88: keysym.F12,
	97: keysym.RightControl,

	100: keysym.RightAlt,
	102: keysym.Home,
	103: keysym.Up,
	104: keysym.PageUp,
	105: keysym.Left,
	106: keysym.Right,
	107: keysym.End,
	108: keysym.Down,
	109: keysym.PageDown,
	110: keysym.Insert,
	111: keysym.Delete,
}

func init() {
	// KEY_1..KEY_9 are 2..10, KEY_0 is 11
	for i := uint16(0); i < 9; i++ {
		evdevKeys[2+i] = keysym.Digit0 + 1 + keysym.Code(i)
	}
	evdevKeys[11] = keysym.Digit0

	rows := []struct {
		first   uint16
		letters string
	}{
		{16, "qwertyuiop"},
		{30, "asdfghjkl"},
		{44, "zxcvbnm"},
	}
	for _, r := range rows {
		for i, ch := range r.letters {
			evdevKeys[r.first+uint16(i)] = keysym.KeyA + keysym.Code(ch-'a')
		}
	}

	// KEY_F1..KEY_F10 are 59..68
	for i := uint16(0); i < 10; i++ {
		evdevKeys[59+i] = keysym.F1 + keysym.Code(i)
	}
}

// TranslateEvdev maps an evdev key code to a virtual key.
func TranslateEvdev(code uint16) (keysym.Code, bool) {
	c, ok := evdevKeys[code]
	return c, ok
}

// decodeEvdev parses one input_event record. It returns false for records
// that are not key events or carry an unmapped key.
func decodeEvdev(rec []byte) (tracker.Event, bool) {
	if len(rec) < evdevEventSize {
		return tracker.Event{}, false
	}
	typ := binary.LittleEndian.Uint16(rec[16:18])
	if typ != evKey {
		return tracker.Event{}, false
	}
	code := binary.LittleEndian.Uint16(rec[18:20])
	value := int32(binary.LittleEndian.Uint32(rec[20:24]))

	var tr tracker.Transition
	switch value {
	case evValuePress, evValueRepeat:
		tr = tracker.KeyDown
	case evValueRelease:
		tr = tracker.KeyUp
	default:
		return tracker.Event{}, false
	}

	vk, ok := TranslateEvdev(code)
	if !ok {
		return tracker.Event{}, false
	}

	sec := int64(binary.LittleEndian.Uint64(rec[0:8]))
	usec := int64(binary.LittleEndian.Uint64(rec[8:16]))
	return tracker.Event{
		Code:       vk,
		Transition: tr,
		Time:       time.Unix(sec, usec*int64(time.Microsecond)),
	}, true
}

// parseInputDevices extracts keyboard event nodes from the contents of
// /proc/bus/input/devices. A device counts as a keyboard when its handlers
// include "kbd" and an event node.
func parseInputDevices(r io.Reader) []string {
	var devices []string
	var handler string
	keyboard := false

	flush := func() {
		if keyboard && handler != "" {
			devices = append(devices, "/dev/input/"+handler)
		}
		handler, keyboard = "", false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		rest, ok := strings.CutPrefix(line, "H: Handlers=")
		if !ok {
			continue
		}
		for _, h := range strings.Fields(rest) {
			switch {
			case h == "kbd":
				keyboard = true
			case strings.HasPrefix(h, "event"):
				handler = h
			}
		}
	}
	flush()
	return devices
}
