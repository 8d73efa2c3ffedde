package action_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/keycore/action"
	"github.com/Alia5/keycore/keycode"
	"github.com/Alia5/keycore/keymap"
)

type fakeHID struct{ log []string }

func (f *fakeHID) KeyDown(c keycode.Code) { f.log = append(f.log, "down "+c.String()) }
func (f *fakeHID) KeyUp(c keycode.Code)   { f.log = append(f.log, "up "+c.String()) }

type fakeLED struct{ on map[keymap.LayerID]bool }

func (f *fakeLED) LayerOn(l keymap.LayerID)  { f.on[l] = true }
func (f *fakeLED) LayerOff(l keymap.LayerID) { delete(f.on, l) }

type fakePlayer struct {
	played    []keymap.MacroID
	cancelled int
	err       error
}

func (f *fakePlayer) Play(id keymap.MacroID, _ uint64) error {
	f.played = append(f.played, id)
	return f.err
}

func (f *fakePlayer) Cancel(uint64) { f.cancelled++ }

func TestDispatchRoutes(t *testing.T) {
	hid := &fakeHID{}
	led := &fakeLED{on: map[keymap.LayerID]bool{}}
	player := &fakePlayer{}
	d := action.NewDispatcher(hid, led, nil)
	d.SetMacroPlayer(player)

	var seen []action.Kind
	d.Observe(func(e action.Effect) { seen = append(seen, e.Kind) })

	d.Dispatch(action.Down(keycode.A, 1))
	d.Dispatch(action.Up(keycode.A, 2))
	d.Dispatch(action.Activate(2, 3))
	d.Dispatch(action.Start(4, 4))
	d.Dispatch(action.Cancel(5))

	assert.Equal(t, []string{"down A", "up A"}, hid.log)
	assert.True(t, led.on[2])
	assert.Equal(t, []keymap.MacroID{4}, player.played)
	assert.Equal(t, 1, player.cancelled)
	assert.Equal(t, []action.Kind{
		action.KeyDown, action.KeyUp, action.ActivateLayer, action.StartMacro, action.CancelMacro,
	}, seen)

	d.Dispatch(action.Deactivate(2, 6))
	assert.Empty(t, led.on)
}

func TestDispatchWithoutCollaborators(t *testing.T) {
	d := action.NewDispatcher(nil, nil, nil)
	assert.NotPanics(t, func() {
		d.Dispatch(action.Down(keycode.A, 0))
		d.Dispatch(action.Activate(1, 0))
		d.Dispatch(action.Start(0, 0))
		d.Dispatch(action.Cancel(0))
		d.Dispatch(action.Effect{Kind: action.Kind(99)})
	})
}

func TestDispatchSurvivesPlayerError(t *testing.T) {
	player := &fakePlayer{err: errors.New("unknown script")}
	d := action.NewDispatcher(nil, nil, nil)
	d.SetMacroPlayer(player)
	assert.NotPanics(t, func() { d.Dispatch(action.Start(9, 0)) })
	assert.Equal(t, []keymap.MacroID{9}, player.played)
}

func TestEffectString(t *testing.T) {
	assert.Equal(t, "10 KeyDown ESCAPE", action.Down(keycode.Escape, 10).String())
	assert.Equal(t, "11 ActivateLayer 3", action.Activate(3, 11).String())
	assert.Equal(t, "12 StartMacro 1", action.Start(1, 12).String())
	assert.Equal(t, "13 CancelMacro", action.Cancel(13).String())
	assert.Equal(t, "Kind(42)", action.Kind(42).String())
}
