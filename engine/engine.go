// Package engine drives the keyboard core: it owns the layer stack, the
// tap-hold resolver and the macro sequencer, and is their only writer.
//
// Work happens in ticks. A tick applies the newly arrived key transitions in
// arrival order, then resolves tap-hold timeouts, then advances the running
// macro. Before each transition is applied, every dual-role key whose
// deadline is at or before the transition's timestamp resolves Hold, so real
// events keep their causal order relative to timeouts.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Alia5/keycore/action"
	"github.com/Alia5/keycore/keycode"
	"github.com/Alia5/keycore/keymap"
	"github.com/Alia5/keycore/layer"
	"github.com/Alia5/keycore/macro"
	"github.com/Alia5/keycore/taphold"
)

// KeyTransition is one debounced physical key event.
type KeyTransition struct {
	Key     keymap.KeyID
	Pressed bool
	At      uint64 // monotonic milliseconds
}

func (k KeyTransition) String() string {
	dir := "up"
	if k.Pressed {
		dir = "down"
	}
	return fmt.Sprintf("%d key %d %s", k.At, k.Key, dir)
}

// heldKey is a physical key that is down. Its binding is latched at press.
type heldKey struct {
	key     keymap.KeyID
	binding keymap.Binding
	outcome taphold.Outcome
	// codes were put down on behalf of this key and are released with it.
	codes []keycode.Code
}

// Engine is not safe for concurrent use. Run serializes access when events
// come from another goroutine.
type Engine struct {
	cfg    Config
	table  *keymap.Table
	logger *slog.Logger

	dispatch *action.Dispatcher
	layers   *layer.Manager
	resolver *taphold.Resolver
	seq      *macro.Sequencer

	held  map[keymap.KeyID]*heldKey
	order []keymap.KeyID // press order of held
	now   uint64
}

// New wires an Engine. hid and led may be nil.
func New(table *keymap.Table, cfg Config, hid action.HID, led action.Indicator, logger *slog.Logger) (*Engine, error) {
	if table == nil {
		return nil, fmt.Errorf("new engine: %w", keymap.ErrNoLayers)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := action.NewDispatcher(hid, led, logger.With("component", "dispatch"))
	e := &Engine{
		cfg:      cfg,
		table:    table,
		logger:   logger,
		dispatch: d,
		layers: layer.NewManager(table, d,
			layer.WithMaxDepth(cfg.MaxLayers),
			layer.WithLogger(logger.With("component", "layer"))),
		resolver: taphold.New(cfg.resolverConfig()),
		seq:      macro.NewSequencer(table, d, logger.With("component", "macro")),
		held:     make(map[keymap.KeyID]*heldKey),
	}
	d.SetMacroPlayer(e.seq)
	return e, nil
}

// Observe registers an observer for every effect the engine emits.
func (e *Engine) Observe(o action.Observer) { e.dispatch.Observe(o) }

func (e *Engine) Config() Config { return e.cfg }

// Layers exposes the layer stack for inspection.
func (e *Engine) Layers() *layer.Manager { return e.layers }

// Resolver exposes the tap-hold state for inspection.
func (e *Engine) Resolver() *taphold.Resolver { return e.resolver }

// Sequencer exposes the macro playback state for inspection.
func (e *Engine) Sequencer() *macro.Sequencer { return e.seq }

// Held reports whether key is physically down as far as the engine knows.
func (e *Engine) Held(key keymap.KeyID) bool {
	_, ok := e.held[key]
	return ok
}

// Tick processes one scheduling step.
func (e *Engine) Tick(now uint64, events []KeyTransition) {
	for _, ev := range events {
		e.apply(ev)
	}
	e.advanceClock(now)
	e.expire(e.now)
	e.seq.Advance(e.now)
}

// Reset returns the engine to its initial state, releasing every key it put
// down. It is the abnormal-termination path.
func (e *Engine) Reset(now uint64) {
	e.advanceClock(now)
	e.logger.Debug("reset", "held", len(e.order), "pending", e.resolver.Pending())

	e.resolver.Reset()
	for i := len(e.order) - 1; i >= 0; i-- {
		e.releaseCodes(e.held[e.order[i]])
	}
	e.held = make(map[keymap.KeyID]*heldKey)
	e.order = e.order[:0]

	e.dispatch.Dispatch(action.Cancel(e.now))
	e.layers.Clear(e.now)
}

func (e *Engine) advanceClock(at uint64) {
	if at > e.now {
		e.now = at
	}
}

func (e *Engine) apply(ev KeyTransition) {
	if ev.At < e.now {
		e.logger.Debug("event older than clock", "event", ev, "now", e.now)
	}
	e.advanceClock(ev.At)
	e.expire(e.now)
	if ev.Pressed {
		e.press(ev.Key)
	} else {
		e.release(ev.Key)
	}
}

func (e *Engine) expire(now uint64) {
	for _, r := range e.resolver.Expire(now) {
		e.resolveHold(r)
	}
}

func (e *Engine) press(key keymap.KeyID) {
	if _, ok := e.held[key]; ok {
		e.logger.Debug("ignoring repeated press", "key", key)
		return
	}
	for _, r := range e.resolver.Interrupt(key, e.now) {
		e.resolveHold(r)
	}

	b := e.layers.Resolve(key)
	h := &heldKey{key: key, binding: b}
	e.held[key] = h
	e.order = append(e.order, key)
	e.logger.Log(context.Background(), levelTrace, "press", "key", key, "binding", b, "at", e.now)

	if b.DualRole() {
		st := e.resolver.Press(key, e.now)
		if b.Kind == keymap.TapToggle {
			if err := e.layers.TapTogglePress(b.Layer, e.now); err != nil {
				e.logger.Warn("tap-toggle layer not activated", "key", key, "layer", b.Layer, "error", err)
			}
		}
		e.logger.Debug("dual-role pressed", "key", key, "binding", b, "taps", st.TapCount)
		return
	}

	switch b.Kind {
	case keymap.Key:
		for _, m := range b.Mods.Codes() {
			e.down(h, m, e.now)
		}
		e.down(h, b.Code, e.now)
	case keymap.Momentary:
		if err := e.layers.PushMomentary(b.Layer, e.now); err != nil {
			e.logger.Warn("momentary layer not activated", "key", key, "layer", b.Layer, "error", err)
		}
	case keymap.Toggle:
		if err := e.layers.Toggle(b.Layer, e.now); err != nil {
			e.logger.Warn("toggle failed", "key", key, "layer", b.Layer, "error", err)
		}
	case keymap.Goto:
		e.gotoLayer(key, b.Layer)
	case keymap.Macro:
		e.dispatch.Dispatch(action.Start(b.Macro, e.now))
	}
}

func (e *Engine) release(key keymap.KeyID) {
	h, ok := e.held[key]
	if !ok {
		e.logger.Debug("ignoring release of key not held", "key", key)
		return
	}
	delete(e.held, key)
	for i, k := range e.order {
		if k == key {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	b := h.binding
	e.logger.Log(context.Background(), levelTrace, "release", "key", key, "binding", b, "at", e.now)

	taps := 0
	if b.DualRole() {
		if r, ok := e.resolver.Release(key, e.now); ok {
			if r.Outcome == taphold.Hold {
				e.hold(h, e.now)
			} else {
				h.outcome = taphold.Tap
				taps = r.TapCount
			}
		}
		e.logger.Debug("dual-role released", "key", key, "outcome", h.outcome, "taps", taps)
	}

	switch b.Kind {
	case keymap.Key:
		e.releaseCodes(h)
	case keymap.Momentary:
		e.layers.PopMomentary(b.Layer, e.now)
	case keymap.ModTap:
		if h.outcome == taphold.Tap {
			e.dispatch.Dispatch(action.Down(b.Code, e.now))
			e.dispatch.Dispatch(action.Up(b.Code, e.now))
			return
		}
		e.releaseCodes(h)
	case keymap.TapToggle:
		threshold := b.Threshold
		if threshold == 0 {
			threshold = e.cfg.TappingToggle
		}
		fired, err := e.layers.TapToggleRelease(b.Layer, taps, threshold, e.now)
		if err != nil {
			e.logger.Warn("tap-toggle failed", "key", key, "layer", b.Layer, "error", err)
		}
		if fired {
			e.resolver.ClearStreak(key)
		}
	case keymap.Goto:
		if b.When == keymap.OnRelease {
			e.gotoLayer(key, b.Layer)
		}
	}
}

func (e *Engine) gotoLayer(key keymap.KeyID, id keymap.LayerID) {
	if err := e.layers.Goto(id, e.now); err != nil {
		e.logger.Warn("goto failed", "key", key, "layer", id, "error", err)
	}
}

// resolveHold applies a Hold decided while the key is still down.
func (e *Engine) resolveHold(r taphold.Resolution) {
	h, ok := e.held[r.Key]
	if !ok {
		return
	}
	e.logger.Debug("dual-role held", "key", r.Key, "at", r.At)
	e.hold(h, r.At)
}

func (e *Engine) hold(h *heldKey, at uint64) {
	h.outcome = taphold.Hold
	if h.binding.Kind == keymap.ModTap {
		for _, m := range h.binding.Mods.Codes() {
			e.down(h, m, at)
		}
	}
}

func (e *Engine) down(h *heldKey, code keycode.Code, at uint64) {
	h.codes = append(h.codes, code)
	e.dispatch.Dispatch(action.Down(code, at))
}

// releaseCodes releases in reverse press order, so modifiers wrap the key.
func (e *Engine) releaseCodes(h *heldKey) {
	for i := len(h.codes) - 1; i >= 0; i-- {
		e.dispatch.Dispatch(action.Up(h.codes[i], e.now))
	}
	h.codes = nil
}

const levelTrace slog.Level = -8
