package keymap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/keycore/keycode"
)

// Names resolves symbolic layer and macro references while parsing.
type Names struct {
	Layers    map[string]LayerID
	NumLayers int
	Macros    map[string]MacroID
	NumMacros int
}

// ParseBinding parses the textual form of a binding, e.g. "ESC",
// "LGUI(LSFT(3))", "MT(RSFT, ESC)", "TT(lower)" or "TO(base, release)".
func ParseBinding(s string, names Names) (Binding, error) {
	s = strings.TrimSpace(s)
	if isFill(s, '_') || isFill(s, 'O') {
		return Trans, nil
	}
	if isFill(s, 'X') {
		return No, nil
	}

	fn, args, isCall, err := splitCall(s)
	if err != nil {
		return Binding{}, fmt.Errorf("%q: %w", s, err)
	}
	if !isCall {
		return parseKey(s)
	}

	switch fn {
	case "MO", "TG", "TT", "TO":
		return parseLayerCall(fn, args, names)
	case "MT":
		if len(args) != 2 {
			return Binding{}, fmt.Errorf("%q: %w: MT takes (mods, key)", s, ErrMalformedBinding)
		}
		mods, err := parseMods(args[0])
		if err != nil {
			return Binding{}, fmt.Errorf("%q: %w", s, err)
		}
		code, err := parseCode(args[1])
		if err != nil {
			return Binding{}, fmt.Errorf("%q: %w", s, err)
		}
		return MT(mods, code), nil
	case "M":
		if len(args) != 1 {
			return Binding{}, fmt.Errorf("%q: %w: M takes (macro)", s, ErrMalformedBinding)
		}
		id, err := lookupMacro(args[0], names)
		if err != nil {
			return Binding{}, fmt.Errorf("%q: %w", s, err)
		}
		return M(id), nil
	}

	// Modifier wrappers: LGUI(LSFT(3)).
	mod, ok := keycode.ModFromName(fn)
	if !ok {
		return Binding{}, fmt.Errorf("%q: %w: unknown function %s", s, ErrMalformedBinding, fn)
	}
	if len(args) != 1 {
		return Binding{}, fmt.Errorf("%q: %w: %s takes one key", s, ErrMalformedBinding, fn)
	}
	inner, err := ParseBinding(args[0], names)
	if err != nil {
		return Binding{}, err
	}
	if inner.Kind != Key {
		return Binding{}, fmt.Errorf("%q: %w: %s wraps %s, want a key", s, ErrMalformedBinding, fn, inner.Kind)
	}
	inner.Mods |= mod
	return inner, nil
}

func parseLayerCall(fn string, args []string, names Names) (Binding, error) {
	maxArgs := 1
	if fn == "TT" || fn == "TO" {
		maxArgs = 2
	}
	if len(args) < 1 || len(args) > maxArgs {
		return Binding{}, fmt.Errorf("%s: %w: wrong number of arguments", fn, ErrMalformedBinding)
	}
	l, err := lookupLayer(args[0], names)
	if err != nil {
		return Binding{}, fmt.Errorf("%s: %w", fn, err)
	}
	switch fn {
	case "MO":
		return MO(l), nil
	case "TG":
		return TG(l), nil
	case "TT":
		n := 0
		if len(args) == 2 {
			n, err = strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil || n < 1 {
				return Binding{}, fmt.Errorf("TT: %w: bad tap count %q", ErrMalformedBinding, args[1])
			}
		}
		return TT(l, n), nil
	default:
		when := OnPress
		if len(args) == 2 {
			switch strings.ToUpper(strings.TrimSpace(args[1])) {
			case "PRESS", "ON_PRESS":
			case "RELEASE", "ON_RELEASE":
				when = OnRelease
			default:
				return Binding{}, fmt.Errorf("TO: %w: bad timing %q", ErrMalformedBinding, args[1])
			}
		}
		return TO(l, when), nil
	}
}

func parseKey(s string) (Binding, error) {
	switch strings.TrimPrefix(strings.ToUpper(s), "KC_") {
	case "", "TRNS", "TRANSPARENT":
		return Trans, nil
	case "NO":
		return No, nil
	}
	code, err := parseCode(s)
	if err != nil {
		return Binding{}, err
	}
	return KeyCode(code), nil
}

func parseCode(s string) (keycode.Code, error) {
	code, ok := keycode.Lookup(s)
	if ok {
		return code, nil
	}
	if hint := keycode.Suggest(s); hint != "" {
		return 0, fmt.Errorf("%w: unknown key %q (did you mean %s?)", ErrMalformedBinding, strings.TrimSpace(s), hint)
	}
	return 0, fmt.Errorf("%w: unknown key %q", ErrMalformedBinding, strings.TrimSpace(s))
}

func parseMods(s string) (keycode.Mod, error) {
	var mods keycode.Mod
	for _, part := range strings.Split(s, "|") {
		name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(part)), "MOD_")
		m, ok := keycode.ModFromName(name)
		if !ok {
			return 0, fmt.Errorf("%w: unknown modifier %q", ErrMalformedBinding, strings.TrimSpace(part))
		}
		mods |= m
	}
	return mods, nil
}

func lookupLayer(ref string, names Names) (LayerID, error) {
	ref = strings.TrimSpace(ref)
	if id, ok := names.Layers[ref]; ok {
		return id, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 || n >= names.NumLayers {
			return 0, fmt.Errorf("%w %d", ErrUndefinedLayer, n)
		}
		return LayerID(n), nil
	}
	return 0, fmt.Errorf("%w %q", ErrUndefinedLayer, ref)
}

func lookupMacro(ref string, names Names) (MacroID, error) {
	ref = strings.TrimSpace(ref)
	if id, ok := names.Macros[ref]; ok {
		return id, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 || n >= names.NumMacros {
			return 0, fmt.Errorf("%w %d", ErrUndefinedMacro, n)
		}
		return MacroID(n), nil
	}
	return 0, fmt.Errorf("%w %q", ErrUndefinedMacro, ref)
}

// ParseSteps parses one textual macro step. "tap X" and "T(X)" expand to a
// down/up pair, so the result may hold more than one step.
//
// Accepted forms: "down X", "up X", "tap X", "wait MS" and the call forms
// D(X), U(X), T(X), W(MS).
func ParseSteps(s string) ([]Step, error) {
	s = strings.TrimSpace(s)
	var op, arg string
	if fn, args, isCall, err := splitCall(s); err == nil && isCall && len(args) == 1 {
		op, arg = fn, args[0]
	} else {
		fields := strings.Fields(s)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%q: %w", s, ErrMalformedStep)
		}
		op, arg = strings.ToUpper(fields[0]), fields[1]
	}

	switch op {
	case "DOWN", "D":
		code, err := parseCode(arg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		return []Step{Down(code)}, nil
	case "UP", "U":
		code, err := parseCode(arg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		return []Step{Up(code)}, nil
	case "TAP", "T":
		code, err := parseCode(arg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		return Tap(code), nil
	case "WAIT", "DELAY", "W":
		ms, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w: bad delay", s, ErrMalformedStep)
		}
		return []Step{Wait(ms)}, nil
	}
	return nil, fmt.Errorf("%q: %w: unknown op %s", s, ErrMalformedStep, op)
}

// splitCall splits "FN(a, b(c))" into FN and its top-level arguments.
func splitCall(s string) (fn string, args []string, isCall bool, err error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return "", nil, false, nil
	}
	if !strings.HasSuffix(s, ")") || open == 0 {
		return "", nil, false, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedBinding)
	}
	fn = strings.ToUpper(strings.TrimSpace(s[:open]))
	body := s[open+1 : len(s)-1]

	depth, start := 0, 0
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return "", nil, false, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedBinding)
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return "", nil, false, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedBinding)
	}
	args = append(args, strings.TrimSpace(body[start:]))
	return fn, args, true, nil
}

func isFill(s string, r byte) bool {
	if len(s) < 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != r {
			return false
		}
	}
	return true
}
