package layer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keycore/action"
	"github.com/Alia5/keycore/keycode"
	"github.com/Alia5/keycore/keymap"
	"github.com/Alia5/keycore/layer"
)

const (
	base keymap.LayerID = iota
	l1
	l2
	l3
)

const keyK keymap.KeyID = 7

func newTable(t *testing.T) *keymap.Table {
	t.Helper()
	tbl, err := keymap.NewTable(base, []keymap.Layer{
		{Name: "base", Keys: map[keymap.KeyID]keymap.Binding{keyK: keymap.KeyCode(keycode.A), 1: keymap.KeyCode(keycode.B)}},
		{Name: "l1", Keys: map[keymap.KeyID]keymap.Binding{keyK: keymap.KeyCode(keycode.X)}},
		{Name: "l2", Keys: map[keymap.KeyID]keymap.Binding{keyK: keymap.Trans, 1: keymap.KeyCode(keycode.Y)}},
		{Name: "l3", Keys: map[keymap.KeyID]keymap.Binding{keyK: keymap.No}},
	}, nil)
	require.NoError(t, err)
	return tbl
}

type recorder struct{ effects []action.Effect }

func (r *recorder) Dispatch(e action.Effect) { r.effects = append(r.effects, e) }

func TestResolveSearchesTopDown(t *testing.T) {
	m := layer.NewManager(newTable(t), nil)

	assert.Equal(t, keymap.KeyCode(keycode.A), m.Resolve(keyK))

	require.NoError(t, m.Toggle(l1, 0))
	require.NoError(t, m.Toggle(l2, 0))
	assert.Equal(t, []keymap.LayerID{base, l1, l2}, m.Active())

	// l2 is transparent for K, so l1 answers.
	assert.Equal(t, keymap.KeyCode(keycode.X), m.Resolve(keyK))
	// l2 wins for key 1.
	assert.Equal(t, keymap.KeyCode(keycode.Y), m.Resolve(1))
	// nothing binds key 99 anywhere
	assert.Equal(t, keymap.No, m.Resolve(99))

	require.NoError(t, m.Toggle(l3, 0))
	assert.Equal(t, keymap.No, m.Resolve(keyK), "an explicit NoOp on top shadows lower layers")
}

func TestMomentary(t *testing.T) {
	rec := &recorder{}
	m := layer.NewManager(newTable(t), rec)

	require.NoError(t, m.PushMomentary(l1, 10))
	require.NoError(t, m.PushMomentary(l1, 11))
	assert.True(t, m.IsActive(l1))

	m.PopMomentary(l1, 12)
	assert.True(t, m.IsActive(l1), "second hold keeps the layer")
	m.PopMomentary(l1, 13)
	assert.False(t, m.IsActive(l1))

	// releasing again is harmless
	m.PopMomentary(l1, 14)

	assert.Equal(t, []action.Effect{action.Activate(l1, 10), action.Deactivate(l1, 13)}, rec.effects)
}

func TestToggle(t *testing.T) {
	rec := &recorder{}
	m := layer.NewManager(newTable(t), rec)

	require.NoError(t, m.Toggle(l2, 1))
	assert.Equal(t, l2, m.Top())
	require.NoError(t, m.Toggle(l2, 2))
	assert.Equal(t, base, m.Top())

	require.NoError(t, m.Toggle(base, 3))
	assert.Equal(t, []keymap.LayerID{base}, m.Active(), "default layer survives toggle")

	// toggled layers persist across momentary holds of the same layer
	require.NoError(t, m.Toggle(l1, 4))
	require.NoError(t, m.PushMomentary(l1, 5))
	m.PopMomentary(l1, 6)
	assert.True(t, m.IsActive(l1))

	assert.Equal(t, []action.Effect{
		action.Activate(l2, 1),
		action.Deactivate(l2, 2),
		action.Activate(l1, 4),
	}, rec.effects)
}

func TestTapToggleRelease(t *testing.T) {
	rec := &recorder{}
	m := layer.NewManager(newTable(t), rec)

	require.NoError(t, m.TapTogglePress(l1, 0))
	assert.True(t, m.IsActive(l1))
	fired, err := m.TapToggleRelease(l1, 1, 2, 50)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.False(t, m.IsActive(l1), "one tap below threshold leaves the layer off")

	require.NoError(t, m.TapTogglePress(l1, 100))
	rec.effects = nil
	fired, err = m.TapToggleRelease(l1, 2, 2, 150)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, m.IsActive(l1), "reaching the threshold latches the layer")
	assert.Empty(t, rec.effects, "latching keeps the layer on without a flicker")

	// tapping up to the threshold again unlatches it
	require.NoError(t, m.TapTogglePress(l1, 300))
	_, _ = m.TapToggleRelease(l1, 1, 2, 350)
	assert.True(t, m.IsActive(l1))
	require.NoError(t, m.TapTogglePress(l1, 400))
	fired, _ = m.TapToggleRelease(l1, 2, 2, 450)
	assert.True(t, fired)
	assert.False(t, m.IsActive(l1))
}

func TestGoto(t *testing.T) {
	rec := &recorder{}
	m := layer.NewManager(newTable(t), rec)

	require.NoError(t, m.Toggle(l1, 0))
	require.NoError(t, m.PushMomentary(l2, 0))
	rec.effects = nil

	require.NoError(t, m.Goto(l3, 5))
	assert.Equal(t, []keymap.LayerID{base, l3}, m.Active())
	assert.Equal(t, []action.Effect{
		action.Deactivate(l2, 5),
		action.Deactivate(l1, 5),
		action.Activate(l3, 5),
	}, rec.effects)

	// the released momentary key no longer owns anything
	m.PopMomentary(l2, 6)
	assert.Equal(t, []keymap.LayerID{base, l3}, m.Active())

	// going to an already active layer keeps it and makes it persistent
	require.NoError(t, m.PushMomentary(l1, 7))
	require.NoError(t, m.Goto(l3, 8))
	assert.Equal(t, []keymap.LayerID{base, l3}, m.Active())

	require.NoError(t, m.Goto(base, 9))
	assert.Equal(t, []keymap.LayerID{base}, m.Active())
}

func TestStackDepthIsBounded(t *testing.T) {
	m := layer.NewManager(newTable(t), nil, layer.WithMaxDepth(3))

	require.NoError(t, m.Toggle(l1, 0))
	require.NoError(t, m.Toggle(l2, 0))
	err := m.Toggle(l3, 0)
	assert.ErrorIs(t, err, layer.ErrStackFull)
	assert.Equal(t, []keymap.LayerID{base, l1, l2}, m.Active())

	err = m.PushMomentary(l3, 0)
	assert.ErrorIs(t, err, layer.ErrStackFull)
	m.PopMomentary(l3, 1)
	assert.Len(t, m.Active(), 3)
}

func TestGotoWithOnlyRoomForDefault(t *testing.T) {
	rec := &recorder{}
	m := layer.NewManager(newTable(t), rec, layer.WithMaxDepth(1))

	assert.ErrorIs(t, m.Goto(l1, 0), layer.ErrStackFull)
	assert.Equal(t, []keymap.LayerID{base}, m.Active())
	assert.Empty(t, rec.effects)

	require.NoError(t, m.Goto(base, 1))
	assert.ErrorIs(t, m.Goto(42, 2), keymap.ErrUndefinedLayer)
}

func TestPushUndefinedLayer(t *testing.T) {
	m := layer.NewManager(newTable(t), nil)
	assert.ErrorIs(t, m.PushMomentary(42, 0), keymap.ErrUndefinedLayer)
}

func TestClear(t *testing.T) {
	rec := &recorder{}
	m := layer.NewManager(newTable(t), rec)
	require.NoError(t, m.Toggle(l1, 0))
	require.NoError(t, m.PushMomentary(l2, 0))
	m.Clear(3)
	assert.Equal(t, []keymap.LayerID{base}, m.Active())
	assert.Equal(t, action.Deactivate(l1, 3), rec.effects[len(rec.effects)-1])
}
