package keymap_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keycore/keycode"
	"github.com/Alia5/keycore/keymap"
)

func testNames() keymap.Names {
	return keymap.Names{
		Layers:    map[string]keymap.LayerID{"base": 0, "lower": 1, "raise": 2},
		NumLayers: 3,
		Macros:    map[string]keymap.MacroID{"parens": 0},
		NumMacros: 1,
	}
}

func TestParseBinding(t *testing.T) {
	tests := []struct {
		in   string
		want keymap.Binding
	}{
		{in: "A", want: keymap.KeyCode(keycode.A)},
		{in: "KC_ESC", want: keymap.KeyCode(keycode.Escape)},
		{in: "TRNS", want: keymap.Trans},
		{in: "_______", want: keymap.Trans},
		{in: "OOOOOOOO", want: keymap.Trans},
		{in: "KC_NO", want: keymap.No},
		{in: "XXXXXXX", want: keymap.No},
		{in: "LGUI(LSFT(3))", want: keymap.KeyWithMods(keycode.ModLeftGUI|keycode.ModLeftShift, keycode.N3)},
		{in: "MO(lower)", want: keymap.MO(1)},
		{in: "TG(2)", want: keymap.TG(2)},
		{in: "TT(raise)", want: keymap.TT(2, 0)},
		{in: "TT(raise, 3)", want: keymap.TT(2, 3)},
		{in: "TO(base)", want: keymap.TO(0, keymap.OnPress)},
		{in: "TO(base, ON_RELEASE)", want: keymap.TO(0, keymap.OnRelease)},
		{in: "MT(RSFT, ESC)", want: keymap.MT(keycode.ModRightShift, keycode.Escape)},
		{in: "MT(MOD_LCTL|MOD_LSFT, A)", want: keymap.MT(keycode.ModLeftCtrl|keycode.ModLeftShift, keycode.A)},
		{in: "M(parens)", want: keymap.M(0)},
		{in: "m(0)", want: keymap.M(0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := keymap.ParseBinding(tt.in, testNames())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBindingErrors(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{in: "ESCC", wantErr: keymap.ErrMalformedBinding},
		{in: "MO(nowhere)", wantErr: keymap.ErrUndefinedLayer},
		{in: "TG(7)", wantErr: keymap.ErrUndefinedLayer},
		{in: "M(missing)", wantErr: keymap.ErrUndefinedMacro},
		{in: "MT(A, ESC)", wantErr: keymap.ErrMalformedBinding},
		{in: "MT(LSFT)", wantErr: keymap.ErrMalformedBinding},
		{in: "TT(lower, 0)", wantErr: keymap.ErrMalformedBinding},
		{in: "TO(lower, later)", wantErr: keymap.ErrMalformedBinding},
		{in: "LSFT(MO(1))", wantErr: keymap.ErrMalformedBinding},
		{in: "FOO(A)", wantErr: keymap.ErrMalformedBinding},
		{in: "MO(1", wantErr: keymap.ErrMalformedBinding},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := keymap.ParseBinding(tt.in, testNames())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseBindingSuggestsKey(t *testing.T) {
	_, err := keymap.ParseBinding("ESCAPEE", testNames())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean ESCAPE")
}

func TestParseSteps(t *testing.T) {
	tests := []struct {
		in   string
		want []keymap.Step
	}{
		{in: "down LSFT", want: []keymap.Step{keymap.Down(keycode.LeftShift)}},
		{in: "up lsft", want: []keymap.Step{keymap.Up(keycode.LeftShift)}},
		{in: "tap 9", want: keymap.Tap(keycode.N9)},
		{in: "wait 30", want: []keymap.Step{keymap.Wait(30)}},
		{in: "D(LSFT)", want: []keymap.Step{keymap.Down(keycode.LeftShift)}},
		{in: "T(LEFT)", want: keymap.Tap(keycode.Left)},
		{in: "W(5)", want: []keymap.Step{keymap.Wait(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := keymap.ParseSteps(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "down", "jump A", "wait soon", "tap NOTAKEY"} {
		_, err := keymap.ParseSteps(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewTableValidation(t *testing.T) {
	scripts := []keymap.Script{keymap.NewScript("x", keymap.Tap(keycode.X))}

	t.Run("valid", func(t *testing.T) {
		tbl, err := keymap.NewTable(0, []keymap.Layer{
			{Name: "base", Keys: map[keymap.KeyID]keymap.Binding{0: keymap.KeyCode(keycode.A), 1: keymap.MO(1), 2: keymap.M(0)}},
			{Name: "fn", Keys: map[keymap.KeyID]keymap.Binding{0: keymap.Trans}},
		}, scripts)
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.NumLayers())
		assert.Equal(t, keymap.KeyCode(keycode.A), tbl.Binding(0, 0))
		assert.Equal(t, keymap.Trans, tbl.Binding(1, 5))
		assert.Equal(t, keymap.Trans, tbl.Binding(9, 0))
		id, ok := tbl.LayerByName("fn")
		assert.True(t, ok)
		assert.Equal(t, keymap.LayerID(1), id)
		assert.Equal(t, "fn", tbl.LayerName(1))
		assert.Equal(t, []keymap.KeyID{0, 1, 2}, tbl.Keys(0))
		s, ok := tbl.Script(0)
		assert.True(t, ok)
		assert.Len(t, s.Steps, 2)
	})

	t.Run("no layers", func(t *testing.T) {
		_, err := keymap.NewTable(0, nil, nil)
		assert.ErrorIs(t, err, keymap.ErrNoLayers)
	})

	t.Run("reports every problem", func(t *testing.T) {
		_, err := keymap.NewTable(3, []keymap.Layer{
			{Keys: map[keymap.KeyID]keymap.Binding{
				0: keymap.MO(4),
				1: keymap.M(2),
				2: {Kind: keymap.Key},
				3: {Kind: keymap.ModTap, Code: keycode.A},
				4: {Kind: keymap.Kind(99)},
			}},
		}, scripts)
		require.Error(t, err)
		assert.ErrorIs(t, err, keymap.ErrUndefinedLayer)
		assert.ErrorIs(t, err, keymap.ErrUndefinedMacro)
		assert.ErrorIs(t, err, keymap.ErrMalformedBinding)
		assert.Contains(t, err.Error(), "default layer 3")
	})

	t.Run("bad macro step", func(t *testing.T) {
		_, err := keymap.NewTable(0, []keymap.Layer{{}}, []keymap.Script{{Name: "bad", Steps: []keymap.Step{{Op: keymap.StepDown}}}})
		assert.ErrorIs(t, err, keymap.ErrMalformedStep)
	})

	t.Run("duplicate names", func(t *testing.T) {
		_, err := keymap.NewTable(0, []keymap.Layer{{Name: "a"}, {Name: "a"}}, nil)
		assert.ErrorIs(t, err, keymap.ErrDuplicateName)
	})

	t.Run("table is a copy", func(t *testing.T) {
		keys := map[keymap.KeyID]keymap.Binding{0: keymap.KeyCode(keycode.A)}
		tbl, err := keymap.NewTable(0, []keymap.Layer{{Keys: keys}}, nil)
		require.NoError(t, err)
		keys[0] = keymap.KeyCode(keycode.B)
		assert.Equal(t, keymap.KeyCode(keycode.A), tbl.Binding(0, 0))
	})
}

const yamlKeymap = `
defaultLayer: base
layers:
  - name: base
    keys:
      "0": ESC
      "1": "MT(RSFT, ESC)"
      "2": "TT(lower)"
      "3": "M(parens)"
  - name: lower
    keys:
      "0": "TO(base, release)"
      "1": TRNS
macros:
  parens: ["down LSFT", "tap 9", "tap 0", "up LSFT", "tap LEFT"]
  arrow: ["T(SPC)", "T(EQL)", "D(LSFT)", "T(DOT)", "U(LSFT)"]
`

const tomlKeymap = `
defaultLayer = "1"

[[layers]]
name = "fn"
[layers.keys]
"4" = "TG(base)"

[[layers]]
name = "base"
[layers.keys]
"0" = "A"
"1" = "MO(fn)"
`

const jsonKeymap = `{"layers": [{"keys": {"0": "B", "1": "LCTL(C)"}}]}`

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		p := filepath.Join(dir, "keymap.yaml")
		require.NoError(t, os.WriteFile(p, []byte(yamlKeymap), 0o644))
		tbl, err := keymap.Load(p)
		require.NoError(t, err)

		assert.Equal(t, keymap.LayerID(0), tbl.Default())
		assert.Equal(t, keymap.KeyCode(keycode.Escape), tbl.Binding(0, 0))
		assert.Equal(t, keymap.MT(keycode.ModRightShift, keycode.Escape), tbl.Binding(0, 1))
		assert.Equal(t, keymap.TT(1, 0), tbl.Binding(0, 2))
		assert.Equal(t, keymap.TO(0, keymap.OnRelease), tbl.Binding(1, 0))

		// macros are numbered by sorted name
		parens, ok := tbl.MacroByName("parens")
		require.True(t, ok)
		assert.Equal(t, keymap.MacroID(1), parens)
		assert.Equal(t, keymap.M(parens), tbl.Binding(0, 3))
		s, _ := tbl.Script(parens)
		assert.Len(t, s.Steps, 8)
	})

	t.Run("toml", func(t *testing.T) {
		p := filepath.Join(dir, "keymap.toml")
		require.NoError(t, os.WriteFile(p, []byte(tomlKeymap), 0o644))
		tbl, err := keymap.Load(p)
		require.NoError(t, err)
		assert.Equal(t, keymap.LayerID(1), tbl.Default())
		assert.Equal(t, keymap.MO(0), tbl.Binding(1, 1))
		assert.Equal(t, keymap.TG(1), tbl.Binding(0, 4))
	})

	t.Run("json", func(t *testing.T) {
		p := filepath.Join(dir, "keymap.json")
		require.NoError(t, os.WriteFile(p, []byte(jsonKeymap), 0o644))
		tbl, err := keymap.Load(p)
		require.NoError(t, err)
		assert.Equal(t, keymap.KeyWithMods(keycode.ModLeftCtrl, keycode.C), tbl.Binding(0, 1))
	})

	t.Run("invalid binding is fatal", func(t *testing.T) {
		p := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(p, []byte(`{"layers": [{"keys": {"0": "MO(3)", "x": "A"}}]}`), 0o644))
		_, err := keymap.Load(p)
		require.Error(t, err)
		assert.ErrorIs(t, err, keymap.ErrUndefinedLayer)
		assert.ErrorIs(t, err, keymap.ErrMalformedBinding)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := keymap.Load(filepath.Join(dir, "nope.yaml"))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}
