// Package keycode defines HID keyboard usage codes and modifier bitmasks.
//
// Codes are opaque to the interpretation core; they are carried from the
// keymap to the HID collaborator untouched. Modifier keys are ordinary codes
// in the 0xE0-0xE7 range so that holding a modifier is a plain key down.
package keycode

// Code is a USB HID usage code on the Keyboard/Keypad page.
type Code uint8

// Mod is a bitmask of modifier keys, in HID report bit order.
type Mod uint8

// Modifier key bitmasks
const (
	ModLeftCtrl   Mod = 0x01
	ModLeftShift  Mod = 0x02
	ModLeftAlt    Mod = 0x04
	ModLeftGUI    Mod = 0x08 // Windows/Command key
	ModRightCtrl  Mod = 0x10
	ModRightShift Mod = 0x20
	ModRightAlt   Mod = 0x40
	ModRightGUI   Mod = 0x80
)

// HID Usage codes for keyboard keys (USB HID Keyboard/Keypad usage page)
const (
	None Code = 0x00

	// Letters A-Z
	A Code = 0x04
	B Code = 0x05
	C Code = 0x06
	D Code = 0x07
	E Code = 0x08
	F Code = 0x09
	G Code = 0x0A
	H Code = 0x0B
	I Code = 0x0C
	J Code = 0x0D
	K Code = 0x0E
	L Code = 0x0F
	M Code = 0x10
	N Code = 0x11
	O Code = 0x12
	P Code = 0x13
	Q Code = 0x14
	R Code = 0x15
	S Code = 0x16
	T Code = 0x17
	U Code = 0x18
	V Code = 0x19
	W Code = 0x1A
	X Code = 0x1B
	Y Code = 0x1C
	Z Code = 0x1D

	// Numbers 1-0 (top row)
	N1 Code = 0x1E
	N2 Code = 0x1F
	N3 Code = 0x20
	N4 Code = 0x21
	N5 Code = 0x22
	N6 Code = 0x23
	N7 Code = 0x24
	N8 Code = 0x25
	N9 Code = 0x26
	N0 Code = 0x27

	Enter      Code = 0x28
	Escape     Code = 0x29
	Backspace  Code = 0x2A
	Tab        Code = 0x2B
	Space      Code = 0x2C
	Minus      Code = 0x2D // - and _
	Equal      Code = 0x2E // = and +
	LeftBrace  Code = 0x2F // [ and {
	RightBrace Code = 0x30 // ] and }
	Backslash  Code = 0x31 // \ and |
	NonUSHash  Code = 0x32 // Non-US # and ~
	Semicolon  Code = 0x33 // ; and :
	Apostrophe Code = 0x34 // ' and "
	Grave      Code = 0x35 // ` and ~
	Comma      Code = 0x36 // , and <
	Period     Code = 0x37 // . and >
	Slash      Code = 0x38 // / and ?
	CapsLock   Code = 0x39

	F1  Code = 0x3A
	F2  Code = 0x3B
	F3  Code = 0x3C
	F4  Code = 0x3D
	F5  Code = 0x3E
	F6  Code = 0x3F
	F7  Code = 0x40
	F8  Code = 0x41
	F9  Code = 0x42
	F10 Code = 0x43
	F11 Code = 0x44
	F12 Code = 0x45

	PrintScreen Code = 0x46
	ScrollLock  Code = 0x47
	Pause       Code = 0x48
	Insert      Code = 0x49
	Home        Code = 0x4A
	PageUp      Code = 0x4B
	Delete      Code = 0x4C
	End         Code = 0x4D
	PageDown    Code = 0x4E

	Right Code = 0x4F
	Left  Code = 0x50
	Down  Code = 0x51
	Up    Code = 0x52

	NumLock    Code = 0x53
	KpSlash    Code = 0x54
	KpAsterisk Code = 0x55
	KpMinus    Code = 0x56
	KpPlus     Code = 0x57
	KpEnter    Code = 0x58
	Kp1        Code = 0x59
	Kp2        Code = 0x5A
	Kp3        Code = 0x5B
	Kp4        Code = 0x5C
	Kp5        Code = 0x5D
	Kp6        Code = 0x5E
	Kp7        Code = 0x5F
	Kp8        Code = 0x60
	Kp9        Code = 0x61
	Kp0        Code = 0x62
	KpDot      Code = 0x63

	NonUSBackslash Code = 0x64
	Application    Code = 0x65 // Windows Menu key
	Power          Code = 0x66
	KpEqual        Code = 0x67

	F13 Code = 0x68
	F14 Code = 0x69
	F15 Code = 0x6A
	F16 Code = 0x6B
	F17 Code = 0x6C
	F18 Code = 0x6D
	F19 Code = 0x6E
	F20 Code = 0x6F
	F21 Code = 0x70
	F22 Code = 0x71
	F23 Code = 0x72
	F24 Code = 0x73

	Mute       Code = 0x7F
	VolumeUp   Code = 0x80
	VolumeDown Code = 0x81

	// Modifier keys. Bit n of Mod corresponds to LeftCtrl+n.
	LeftCtrl   Code = 0xE0
	LeftShift  Code = 0xE1
	LeftAlt    Code = 0xE2
	LeftGUI    Code = 0xE3
	RightCtrl  Code = 0xE4
	RightShift Code = 0xE5
	RightAlt   Code = 0xE6
	RightGUI   Code = 0xE7
)

// IsModifier reports whether c is one of the eight modifier key codes.
func (c Code) IsModifier() bool {
	return c >= LeftCtrl && c <= RightGUI
}

// Mod returns the modifier bit for a modifier code, or 0 for any other code.
func (c Code) Mod() Mod {
	if !c.IsModifier() {
		return 0
	}
	return Mod(1) << (c - LeftCtrl)
}

// Codes expands a modifier mask into modifier key codes, lowest bit first.
func (m Mod) Codes() []Code {
	var out []Code
	for i := 0; i < 8; i++ {
		if m&(1<<i) != 0 {
			out = append(out, LeftCtrl+Code(i))
		}
	}
	return out
}
