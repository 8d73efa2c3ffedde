package keymap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Alia5/keycore/keycode"
)

var (
	ErrNoLayers         = errors.New("keymap has no layers")
	ErrUndefinedLayer   = errors.New("undefined layer")
	ErrUndefinedMacro   = errors.New("undefined macro")
	ErrMalformedBinding = errors.New("malformed binding")
	ErrMalformedStep    = errors.New("malformed macro step")
	ErrDuplicateName    = errors.New("duplicate name")
)

// maxLayers is the number of layers a LayerID can address.
const maxLayers = 256

// Layer is one overlay of bindings. Keys missing from the map are
// transparent.
type Layer struct {
	Name string
	Keys map[KeyID]Binding
}

// Table is the validated, immutable binding table.
type Table struct {
	layers  []Layer
	def     LayerID
	scripts []Script

	layerIdx map[string]LayerID
	macroIdx map[string]MacroID
}

// NewTable validates and freezes a keymap. Every problem found is reported,
// joined into a single error.
func NewTable(def LayerID, layers []Layer, scripts []Script) (*Table, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	if len(layers) > maxLayers {
		return nil, fmt.Errorf("%d layers: %w: at most %d are addressable", len(layers), ErrUndefinedLayer, maxLayers)
	}

	t := &Table{
		layers:   make([]Layer, len(layers)),
		def:      def,
		scripts:  make([]Script, len(scripts)),
		layerIdx: make(map[string]LayerID, len(layers)),
		macroIdx: make(map[string]MacroID, len(scripts)),
	}

	var errs []error
	if int(def) >= len(layers) {
		errs = append(errs, fmt.Errorf("default layer %d: %w", def, ErrUndefinedLayer))
	}

	for i, l := range layers {
		keys := make(map[KeyID]Binding, len(l.Keys))
		for k, b := range l.Keys {
			keys[k] = b
		}
		t.layers[i] = Layer{Name: l.Name, Keys: keys}
		if l.Name == "" {
			continue
		}
		if _, dup := t.layerIdx[l.Name]; dup {
			errs = append(errs, fmt.Errorf("layer %q: %w", l.Name, ErrDuplicateName))
			continue
		}
		t.layerIdx[l.Name] = LayerID(i)
	}

	for i, s := range scripts {
		steps := make([]Step, len(s.Steps))
		copy(steps, s.Steps)
		t.scripts[i] = Script{Name: s.Name, Steps: steps}
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("macro %d (%s): %w", i, s.Name, err))
		}
		if s.Name == "" {
			continue
		}
		if _, dup := t.macroIdx[s.Name]; dup {
			errs = append(errs, fmt.Errorf("macro %q: %w", s.Name, ErrDuplicateName))
			continue
		}
		t.macroIdx[s.Name] = MacroID(i)
	}

	for i, l := range t.layers {
		for _, k := range sortedKeys(l.Keys) {
			if err := t.validateBinding(l.Keys[k]); err != nil {
				errs = append(errs, fmt.Errorf("layer %d key %d: %w", i, k, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) validateBinding(b Binding) error {
	switch b.Kind {
	case Transparent, NoOp:
		return nil
	case Key:
		if b.Code == keycode.None {
			return fmt.Errorf("%w: key without code", ErrMalformedBinding)
		}
	case ModTap:
		if b.Code == keycode.None {
			return fmt.Errorf("%w: mod-tap without tap code", ErrMalformedBinding)
		}
		if b.Mods == 0 {
			return fmt.Errorf("%w: mod-tap without modifiers", ErrMalformedBinding)
		}
	case Momentary, Toggle, TapToggle, Goto:
		if int(b.Layer) >= len(t.layers) {
			return fmt.Errorf("%s: %w %d", b.Kind, ErrUndefinedLayer, b.Layer)
		}
		if b.Kind == TapToggle && b.Threshold < 0 {
			return fmt.Errorf("%w: negative tap-toggle threshold %d", ErrMalformedBinding, b.Threshold)
		}
		if b.Kind == Goto && b.When != OnPress && b.When != OnRelease {
			return fmt.Errorf("%w: unknown goto timing %d", ErrMalformedBinding, b.When)
		}
	case Macro:
		if int(b.Macro) >= len(t.scripts) {
			return fmt.Errorf("%w %d", ErrUndefinedMacro, b.Macro)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrMalformedBinding, b.Kind)
	}
	return nil
}

// Binding returns the raw entry for key on layer l. Missing entries and
// unknown layers are Transparent.
func (t *Table) Binding(l LayerID, key KeyID) Binding {
	if int(l) >= len(t.layers) {
		return Trans
	}
	return t.layers[l].Keys[key]
}

func (t *Table) Default() LayerID { return t.def }

func (t *Table) NumLayers() int { return len(t.layers) }

// LayerName returns the configured name, or the index when unnamed.
func (t *Table) LayerName(l LayerID) string {
	if int(l) < len(t.layers) && t.layers[l].Name != "" {
		return t.layers[l].Name
	}
	return fmt.Sprintf("%d", l)
}

func (t *Table) LayerByName(name string) (LayerID, bool) {
	id, ok := t.layerIdx[name]
	return id, ok
}

func (t *Table) Script(id MacroID) (Script, bool) {
	if int(id) >= len(t.scripts) {
		return Script{}, false
	}
	return t.scripts[id], true
}

func (t *Table) NumScripts() int { return len(t.scripts) }

func (t *Table) MacroByName(name string) (MacroID, bool) {
	id, ok := t.macroIdx[name]
	return id, ok
}

// Keys returns the key ids bound on layer l, in ascending order.
func (t *Table) Keys(l LayerID) []KeyID {
	if int(l) >= len(t.layers) {
		return nil
	}
	return sortedKeys(t.layers[l].Keys)
}

func sortedKeys(m map[KeyID]Binding) []KeyID {
	out := make([]KeyID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
