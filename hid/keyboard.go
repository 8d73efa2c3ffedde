// Package hid keeps the USB HID keyboard state the core drives.
//
// Several sources may hold the same key at once (a physical key and a macro
// both holding shift, say), so every code is reference counted and only
// leaves the report when the last holder lets go.
package hid

import (
	"log/slog"
	"sync"

	"github.com/Alia5/keycore/internal/log"
	"github.com/Alia5/keycore/keycode"
)

// Keyboard implements action.HID. Reads are safe from any goroutine; reports
// are delivered to the callback synchronously after each change.
type Keyboard struct {
	stateMu  sync.Mutex
	refs     [256]uint16
	state    Report
	ledState uint8

	onReport    func(Report)
	ledCallback func(LEDState)
	raw         log.RawLogger
	logger      *slog.Logger
}

// New returns an idle Keyboard. logger and raw may be nil.
func New(logger *slog.Logger, raw log.RawLogger) *Keyboard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	return &Keyboard{logger: logger, raw: raw}
}

// SetReportCallback sets a callback invoked with every changed report.
func (k *Keyboard) SetReportCallback(f func(Report)) {
	k.stateMu.Lock()
	defer k.stateMu.Unlock()
	k.onReport = f
}

// SetLEDCallback sets a callback invoked when the host changes its LEDs.
func (k *Keyboard) SetLEDCallback(f func(LEDState)) {
	k.stateMu.Lock()
	defer k.stateMu.Unlock()
	k.ledCallback = f
}

func (k *Keyboard) KeyDown(code keycode.Code) {
	k.update(code, true)
}

func (k *Keyboard) KeyUp(code keycode.Code) {
	k.update(code, false)
}

func (k *Keyboard) update(code keycode.Code, down bool) {
	k.stateMu.Lock()
	n := k.refs[code]
	switch {
	case down:
		k.refs[code]++
	case n == 0:
		k.stateMu.Unlock()
		k.logger.Warn("key up without matching down", "code", code)
		return
	default:
		k.refs[code]--
	}
	changed := (down && n == 0) || (!down && n == 1)
	if !changed {
		k.stateMu.Unlock()
		return
	}
	k.state.set(code, down)
	st := k.state
	cb := k.onReport
	k.stateMu.Unlock()

	k.raw.Log(false, st.BuildReport())
	if cb != nil {
		cb(st)
	}
}

// State returns the current report.
func (k *Keyboard) State() Report {
	k.stateMu.Lock()
	defer k.stateMu.Unlock()
	return k.state
}

// Holders returns how many sources hold code down.
func (k *Keyboard) Holders(code keycode.Code) int {
	k.stateMu.Lock()
	defer k.stateMu.Unlock()
	return int(k.refs[code])
}

// HandleOutput applies an output report from the host.
func (k *Keyboard) HandleOutput(out []byte) error {
	var st LEDState
	if err := st.UnmarshalBinary(out); err != nil {
		return err
	}
	k.raw.Log(true, out[:1])

	k.stateMu.Lock()
	k.ledState = out[0]
	cb := k.ledCallback
	k.stateMu.Unlock()

	if cb != nil {
		cb(st)
	}
	return nil
}

// GetLEDState returns the LED state last reported by the host.
func (k *Keyboard) GetLEDState() LEDState {
	k.stateMu.Lock()
	b := k.ledState
	k.stateMu.Unlock()

	var st LEDState
	_ = st.UnmarshalBinary([]byte{b})
	return st
}
