// Package keymap holds the static, load-time configuration of the
// interpretation core: the per-layer binding table and the macro scripts.
//
// Everything in this package is immutable once a Table has been built and
// validated. Runtime state lives in the layer, taphold and macro packages.
package keymap

import (
	"fmt"
	"strings"

	"github.com/Alia5/keycore/keycode"
)

// KeyID identifies a physical key position.
type KeyID uint16

// LayerID identifies a layer in a Table.
type LayerID uint8

// MacroID identifies a macro script in a Table.
type MacroID uint16

// Kind discriminates the Binding variant.
type Kind uint8

const (
	Transparent Kind = iota
	NoOp
	Key
	Momentary
	Toggle
	TapToggle
	Goto
	ModTap
	Macro
)

var kindNames = [...]string{
	Transparent: "TRNS",
	NoOp:        "NO",
	Key:         "KEY",
	Momentary:   "MO",
	Toggle:      "TG",
	TapToggle:   "TT",
	Goto:        "TO",
	ModTap:      "MT",
	Macro:       "M",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Timing selects when a Goto binding replaces the layer stack.
type Timing uint8

const (
	OnPress Timing = iota
	OnRelease
)

func (t Timing) String() string {
	if t == OnRelease {
		return "release"
	}
	return "press"
}

// Binding is what a key means on one layer. Only the fields relevant to Kind
// are set; the zero value is Transparent.
type Binding struct {
	Kind Kind
	// Code is the tapped/pressed key for Key and ModTap.
	Code keycode.Code
	// Mods are held alongside Code for Key, or held on Hold for ModTap.
	Mods keycode.Mod
	// Layer is the target of Momentary, Toggle, TapToggle and Goto.
	Layer LayerID
	// Threshold is the tap count that latches a TapToggle; 0 uses the
	// configured default.
	Threshold int
	When      Timing
	Macro     MacroID
}

var (
	Trans = Binding{Kind: Transparent}
	No    = Binding{Kind: NoOp}
)

func KeyCode(code keycode.Code) Binding {
	return Binding{Kind: Key, Code: code}
}

// KeyWithMods is a key sent together with modifiers, e.g. LGUI(LSFT(3)).
func KeyWithMods(mods keycode.Mod, code keycode.Code) Binding {
	return Binding{Kind: Key, Code: code, Mods: mods}
}

func MO(l LayerID) Binding { return Binding{Kind: Momentary, Layer: l} }
func TG(l LayerID) Binding { return Binding{Kind: Toggle, Layer: l} }

// TT is momentary while held and latches after n quick taps.
func TT(l LayerID, n int) Binding { return Binding{Kind: TapToggle, Layer: l, Threshold: n} }

func TO(l LayerID, when Timing) Binding { return Binding{Kind: Goto, Layer: l, When: when} }

// MT sends code when tapped and holds mods when held.
func MT(mods keycode.Mod, code keycode.Code) Binding {
	return Binding{Kind: ModTap, Code: code, Mods: mods}
}

func M(id MacroID) Binding { return Binding{Kind: Macro, Macro: id} }

// DualRole reports whether the binding's effect depends on tap-vs-hold
// resolution.
func (b Binding) DualRole() bool {
	switch b.Kind {
	case ModTap, TapToggle:
		return true
	case Goto:
		return b.When == OnRelease
	}
	return false
}

func (b Binding) String() string {
	switch b.Kind {
	case Transparent, NoOp:
		return b.Kind.String()
	case Key:
		if b.Mods == 0 {
			return b.Code.String()
		}
		return wrapMods(b.Mods, b.Code.String())
	case Momentary, Toggle:
		return fmt.Sprintf("%s(%d)", b.Kind, b.Layer)
	case TapToggle:
		if b.Threshold == 0 {
			return fmt.Sprintf("TT(%d)", b.Layer)
		}
		return fmt.Sprintf("TT(%d, %d)", b.Layer, b.Threshold)
	case Goto:
		return fmt.Sprintf("TO(%d, %s)", b.Layer, b.When)
	case ModTap:
		return fmt.Sprintf("MT(%s, %s)", modNames(b.Mods), b.Code)
	case Macro:
		return fmt.Sprintf("M(%d)", b.Macro)
	}
	return b.Kind.String()
}

func wrapMods(mods keycode.Mod, inner string) string {
	codes := mods.Codes()
	for i := len(codes) - 1; i >= 0; i-- {
		inner = codes[i].String() + "(" + inner + ")"
	}
	return inner
}

func modNames(mods keycode.Mod) string {
	codes := mods.Codes()
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = c.String()
	}
	return strings.Join(parts, "|")
}
