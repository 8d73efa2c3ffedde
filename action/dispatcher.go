package action

import (
	"context"
	"log/slog"

	"github.com/Alia5/keycore/keycode"
	"github.com/Alia5/keycore/keymap"
)

// HID is the USB HID output collaborator.
type HID interface {
	KeyDown(code keycode.Code)
	KeyUp(code keycode.Code)
}

// Indicator is the one-way LED/indicator collaborator. It only learns layer
// ids.
type Indicator interface {
	LayerOn(l keymap.LayerID)
	LayerOff(l keymap.LayerID)
}

// MacroPlayer runs macro scripts. The macro package's Sequencer implements it.
type MacroPlayer interface {
	Play(id keymap.MacroID, at uint64) error
	Cancel(at uint64)
}

// Sink accepts effects. Every component that produces output writes to a
// Sink, which in a running engine is the Dispatcher.
type Sink interface {
	Dispatch(e Effect)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Effect)

func (f SinkFunc) Dispatch(e Effect) { f(e) }

// Observer sees every effect before it is forwarded.
type Observer func(e Effect)

// Dispatcher forwards effects to collaborators. It keeps no state of its own
// beyond the collaborator wiring.
type Dispatcher struct {
	hid       HID
	led       Indicator
	macros    MacroPlayer
	observers []Observer
	logger    *slog.Logger
}

// NewDispatcher returns a Dispatcher. hid and led may be nil.
func NewDispatcher(hid HID, led Indicator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{hid: hid, led: led, logger: logger}
}

// SetMacroPlayer wires the macro collaborator. The player usually writes its
// own key effects back into this dispatcher, so it is attached after both
// exist.
func (d *Dispatcher) SetMacroPlayer(p MacroPlayer) {
	d.macros = p
}

// Observe registers an observer.
func (d *Dispatcher) Observe(o Observer) {
	d.observers = append(d.observers, o)
}

// Dispatch forwards one effect.
func (d *Dispatcher) Dispatch(e Effect) {
	for _, o := range d.observers {
		o(e)
	}
	d.logger.Log(context.Background(), levelTrace, "effect", "kind", e.Kind, "code", e.Code, "layer", e.Layer, "at", e.At)

	switch e.Kind {
	case KeyDown:
		if d.hid != nil {
			d.hid.KeyDown(e.Code)
		}
	case KeyUp:
		if d.hid != nil {
			d.hid.KeyUp(e.Code)
		}
	case ActivateLayer:
		if d.led != nil {
			d.led.LayerOn(e.Layer)
		}
	case DeactivateLayer:
		if d.led != nil {
			d.led.LayerOff(e.Layer)
		}
	case StartMacro:
		if d.macros == nil {
			d.logger.Warn("macro triggered without a macro player", "macro", e.Macro)
			return
		}
		if err := d.macros.Play(e.Macro, e.At); err != nil {
			d.logger.Warn("failed to start macro", "macro", e.Macro, "error", err)
		}
	case CancelMacro:
		if d.macros != nil {
			d.macros.Cancel(e.At)
		}
	default:
		d.logger.Error("unknown effect", "kind", e.Kind)
	}
}

// levelTrace mirrors the trace level of the CLI logger without importing it.
const levelTrace slog.Level = -8
