package hid

import (
	"io"

	"github.com/Alia5/keycore/keycode"
)

// LED bitmasks of the host output report.
const (
	LEDNumLock    = 0x01
	LEDCapsLock   = 0x02
	LEDScrollLock = 0x04
	LEDCompose    = 0x08
	LEDKana       = 0x10
)

// ReportSize is the length of an encoded keyboard input report.
const ReportSize = 34

// Report is the keyboard state sent to the host. Non-modifier keys live in a
// 256-bit bitmap for N-key rollover.
type Report struct {
	Modifiers uint8     // bit 0-7: LCtrl, LShift, LAlt, LGui, RCtrl, RShift, RAlt, RGui
	KeyBitmap [32]uint8 // 256 bits for HID usage codes 0x00-0xFF
}

// Pressed reports whether code is down in r.
func (r Report) Pressed(code keycode.Code) bool {
	if code.IsModifier() {
		return r.Modifiers&uint8(code.Mod()) != 0
	}
	return r.KeyBitmap[code/8]&(1<<(code%8)) != 0
}

// Keys returns the pressed non-modifier codes in ascending order.
func (r Report) Keys() []keycode.Code {
	var keys []keycode.Code
	for i := 0; i < 256; i++ {
		if r.KeyBitmap[i/8]&(1<<uint(i%8)) != 0 {
			keys = append(keys, keycode.Code(i))
		}
	}
	return keys
}

// Empty reports whether nothing is pressed.
func (r Report) Empty() bool {
	if r.Modifiers != 0 {
		return false
	}
	for _, b := range r.KeyBitmap {
		if b != 0 {
			return false
		}
	}
	return true
}

func (r *Report) set(code keycode.Code, down bool) {
	if code.IsModifier() {
		if down {
			r.Modifiers |= uint8(code.Mod())
		} else {
			r.Modifiers &^= uint8(code.Mod())
		}
		return
	}
	if down {
		r.KeyBitmap[code/8] |= 1 << (code % 8)
	} else {
		r.KeyBitmap[code/8] &^= 1 << (code % 8)
	}
}

// BuildReport encodes r into the 34-byte HID keyboard report.
//
// Report layout (34 bytes):
//
//	Byte 0: Modifiers (8 bits)
//	Byte 1: Reserved (0x00)
//	Bytes 2-33: Key bitmap (256 bits, 32 bytes)
func (r Report) BuildReport() []byte {
	b := make([]byte, ReportSize)
	b[0] = r.Modifiers
	copy(b[2:], r.KeyBitmap[:])
	return b
}

// MarshalBinary encodes r to the compact wire format.
//
// Wire format:
//
//	Byte 0: Modifiers
//	Byte 1: Key count
//	Bytes 2+: Key codes (HID usage codes of pressed keys)
func (r *Report) MarshalBinary() ([]byte, error) {
	keys := r.Keys()
	b := make([]byte, 2+len(keys))
	b[0] = r.Modifiers
	b[1] = uint8(len(keys))
	for i, k := range keys {
		b[2+i] = uint8(k)
	}
	return b, nil
}

// UnmarshalBinary decodes the compact wire format written by MarshalBinary.
func (r *Report) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return io.ErrUnexpectedEOF
	}
	n := int(data[1])
	if len(data) < 2+n {
		return io.ErrUnexpectedEOF
	}
	r.Modifiers = data[0]
	r.KeyBitmap = [32]uint8{}
	for _, k := range data[2 : 2+n] {
		r.KeyBitmap[k/8] |= 1 << (k % 8)
	}
	return nil
}

// LEDState is the lock-key state the host reports back.
type LEDState struct {
	NumLock    bool
	CapsLock   bool
	ScrollLock bool
	Compose    bool
	Kana       bool
}

// UnmarshalBinary decodes a 1-byte LED bitmask.
func (st *LEDState) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return io.ErrUnexpectedEOF
	}
	b := data[0]
	st.NumLock = b&LEDNumLock != 0
	st.CapsLock = b&LEDCapsLock != 0
	st.ScrollLock = b&LEDScrollLock != 0
	st.Compose = b&LEDCompose != 0
	st.Kana = b&LEDKana != 0
	return nil
}
