// Package action translates resolved bindings into the primitive effects the
// outside world understands, and forwards them to the HID, indicator and macro
// collaborators.
package action

import (
	"fmt"

	"github.com/Alia5/keycore/keycode"
	"github.com/Alia5/keycore/keymap"
)

// Kind is the type of an Effect.
type Kind uint8

const (
	KeyDown Kind = iota
	KeyUp
	ActivateLayer
	DeactivateLayer
	StartMacro
	CancelMacro
)

func (k Kind) String() string {
	switch k {
	case KeyDown:
		return "KeyDown"
	case KeyUp:
		return "KeyUp"
	case ActivateLayer:
		return "ActivateLayer"
	case DeactivateLayer:
		return "DeactivateLayer"
	case StartMacro:
		return "StartMacro"
	case CancelMacro:
		return "CancelMacro"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Effect is one primitive output of the core.
type Effect struct {
	Kind  Kind
	Code  keycode.Code   // KeyDown, KeyUp
	Layer keymap.LayerID // ActivateLayer, DeactivateLayer
	Macro keymap.MacroID // StartMacro
	At    uint64         // milliseconds
}

func Down(code keycode.Code, at uint64) Effect { return Effect{Kind: KeyDown, Code: code, At: at} }
func Up(code keycode.Code, at uint64) Effect   { return Effect{Kind: KeyUp, Code: code, At: at} }

func Activate(l keymap.LayerID, at uint64) Effect {
	return Effect{Kind: ActivateLayer, Layer: l, At: at}
}

func Deactivate(l keymap.LayerID, at uint64) Effect {
	return Effect{Kind: DeactivateLayer, Layer: l, At: at}
}

func Start(id keymap.MacroID, at uint64) Effect { return Effect{Kind: StartMacro, Macro: id, At: at} }
func Cancel(at uint64) Effect                   { return Effect{Kind: CancelMacro, At: at} }

func (e Effect) String() string {
	switch e.Kind {
	case KeyDown, KeyUp:
		return fmt.Sprintf("%d %s %s", e.At, e.Kind, e.Code)
	case ActivateLayer, DeactivateLayer:
		return fmt.Sprintf("%d %s %d", e.At, e.Kind, e.Layer)
	case StartMacro:
		return fmt.Sprintf("%d %s %d", e.At, e.Kind, e.Macro)
	}
	return fmt.Sprintf("%d %s", e.At, e.Kind)
}
