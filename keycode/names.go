package keycode

import (
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// names maps codes to their canonical names.
var names = map[Code]string{
	A: "A", B: "B", C: "C", D: "D", E: "E", F: "F", G: "G",
	H: "H", I: "I", J: "J", K: "K", L: "L", M: "M", N: "N",
	O: "O", P: "P", Q: "Q", R: "R", S: "S", T: "T", U: "U",
	V: "V", W: "W", X: "X", Y: "Y", Z: "Z",

	N1: "1", N2: "2", N3: "3", N4: "4", N5: "5",
	N6: "6", N7: "7", N8: "8", N9: "9", N0: "0",

	Enter:      "ENTER",
	Escape:     "ESCAPE",
	Backspace:  "BACKSPACE",
	Tab:        "TAB",
	Space:      "SPACE",
	Minus:      "MINUS",
	Equal:      "EQUAL",
	LeftBrace:  "LBRACKET",
	RightBrace: "RBRACKET",
	Backslash:  "BSLASH",
	NonUSHash:  "NONUS_HASH",
	Semicolon:  "SCOLON",
	Apostrophe: "QUOTE",
	Grave:      "GRAVE",
	Comma:      "COMMA",
	Period:     "DOT",
	Slash:      "SLASH",
	CapsLock:   "CAPSLOCK",

	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6",
	F7: "F7", F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",
	F13: "F13", F14: "F14", F15: "F15", F16: "F16", F17: "F17", F18: "F18",
	F19: "F19", F20: "F20", F21: "F21", F22: "F22", F23: "F23", F24: "F24",

	PrintScreen: "PSCREEN",
	ScrollLock:  "SCROLLLOCK",
	Pause:       "PAUSE",
	Insert:      "INSERT",
	Home:        "HOME",
	PageUp:      "PGUP",
	Delete:      "DELETE",
	End:         "END",
	PageDown:    "PGDOWN",

	Right: "RIGHT",
	Left:  "LEFT",
	Down:  "DOWN",
	Up:    "UP",

	NumLock:    "NUMLOCK",
	KpSlash:    "KP_SLASH",
	KpAsterisk: "KP_ASTERISK",
	KpMinus:    "KP_MINUS",
	KpPlus:     "KP_PLUS",
	KpEnter:    "KP_ENTER",
	Kp1:        "KP_1",
	Kp2:        "KP_2",
	Kp3:        "KP_3",
	Kp4:        "KP_4",
	Kp5:        "KP_5",
	Kp6:        "KP_6",
	Kp7:        "KP_7",
	Kp8:        "KP_8",
	Kp9:        "KP_9",
	Kp0:        "KP_0",
	KpDot:      "KP_DOT",

	NonUSBackslash: "NONUS_BSLASH",
	Application:    "APPLICATION",
	Power:          "POWER",
	KpEqual:        "KP_EQUAL",

	Mute:       "MUTE",
	VolumeUp:   "VOLU",
	VolumeDown: "VOLD",

	LeftCtrl:   "LCTRL",
	LeftShift:  "LSHIFT",
	LeftAlt:    "LALT",
	LeftGUI:    "LGUI",
	RightCtrl:  "RCTRL",
	RightShift: "RSHIFT",
	RightAlt:   "RALT",
	RightGUI:   "RGUI",
}

// aliases are the short forms used in keymap files.
var aliases = map[string]Code{
	"ENT":  Enter,
	"ESC":  Escape,
	"BSPC": Backspace,
	"SPC":  Space,
	"MINS": Minus,
	"EQL":  Equal,
	"LBRC": LeftBrace,
	"RBRC": RightBrace,
	"BSLS": Backslash,
	"SCLN": Semicolon,
	"QUOT": Apostrophe,
	"GRV":  Grave,
	"COMM": Comma,
	"SLSH": Slash,
	"CAPS": CapsLock,
	"PSCR": PrintScreen,
	"SLCK": ScrollLock,
	"PAUS": Pause,
	"INS":  Insert,
	"DEL":  Delete,
	"PGDN": PageDown,
	"RGHT": Right,
	"NLCK": NumLock,
	"APP":  Application,
	"PWR":  Power,
	"LCTL": LeftCtrl,
	"LSFT": LeftShift,
	"LOPT": LeftAlt,
	"LCMD": LeftGUI,
	"RCTL": RightCtrl,
	"RSFT": RightShift,
	"ROPT": RightAlt,
	"RCMD": RightGUI,
}

var byName = func() map[string]Code {
	m := make(map[string]Code, len(names)+len(aliases))
	for c, n := range names {
		m[n] = c
	}
	for n, c := range aliases {
		m[n] = c
	}
	return m
}()

// String returns the canonical name of the code, or its hex value.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "0x" + strconv.FormatUint(uint64(c), 16)
}

// Lookup resolves a key name such as "A", "KC_ESC" or "lsft".
// Names are case-insensitive and the "KC_" prefix is optional.
func Lookup(name string) (Code, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "KC_")
	if n == "" {
		return None, false
	}
	c, ok := byName[n]
	return c, ok
}

// Suggest returns the known key name closest to name, or "" when nothing is
// reasonably close.
func Suggest(name string) string {
	n := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "KC_")
	best, bestDist := "", 3
	for candidate := range byName {
		d := levenshtein.ComputeDistance(n, candidate)
		if d < bestDist || (d == bestDist && best != "" && candidate < best) {
			best, bestDist = candidate, d
		}
	}
	return best
}

// ModFromName resolves a modifier name such as "LSFT" to its bit.
func ModFromName(name string) (Mod, bool) {
	c, ok := Lookup(name)
	if !ok || !c.IsModifier() {
		return 0, false
	}
	return c.Mod(), true
}
