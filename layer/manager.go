// Package layer maintains the stack of active layers and resolves which
// binding applies to a key.
//
// The default layer is the permanent bottom of the stack. Every other layer
// is either held (momentary, counted per activating key) or toggled, and sits
// in activation order: the most recently activated layer is on top and wins.
package layer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/keycore/action"
	"github.com/Alia5/keycore/keymap"
)

// MaxDepth bounds the stack, default layer included.
const MaxDepth = 8

var ErrStackFull = errors.New("layer stack full")

type entry struct {
	id      keymap.LayerID
	holds   int
	toggled bool
}

// Manager owns the layer stack. It is not safe for concurrent use; the
// engine is its only writer.
type Manager struct {
	table    *keymap.Table
	out      action.Sink
	logger   *slog.Logger
	maxDepth int

	// entries excludes the default layer, bottom first.
	entries []entry
}

type Option func(*Manager)

// WithMaxDepth overrides MaxDepth. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.maxDepth = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns a Manager holding only the table's default layer.
func NewManager(table *keymap.Table, out action.Sink, opts ...Option) *Manager {
	m := &Manager{
		table:    table,
		out:      out,
		logger:   slog.New(slog.DiscardHandler),
		maxDepth: MaxDepth,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Resolve returns the binding for key: the first non-transparent binding
// searching from the top of the stack down, or NoOp when every active layer
// is transparent.
func (m *Manager) Resolve(key keymap.KeyID) keymap.Binding {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if b := m.table.Binding(m.entries[i].id, key); b.Kind != keymap.Transparent {
			return b
		}
	}
	if b := m.table.Binding(m.table.Default(), key); b.Kind != keymap.Transparent {
		return b
	}
	return keymap.No
}

// Active returns the stack bottom first; the default layer is always element 0.
func (m *Manager) Active() []keymap.LayerID {
	out := make([]keymap.LayerID, 0, len(m.entries)+1)
	out = append(out, m.table.Default())
	for _, e := range m.entries {
		out = append(out, e.id)
	}
	return out
}

// Top returns the layer that currently wins ties.
func (m *Manager) Top() keymap.LayerID {
	if len(m.entries) == 0 {
		return m.table.Default()
	}
	return m.entries[len(m.entries)-1].id
}

func (m *Manager) IsActive(id keymap.LayerID) bool {
	return id == m.table.Default() || m.find(id) >= 0
}

// PushMomentary activates id for as long as a matching PopMomentary has not
// been called. Nested holds of the same layer are counted.
func (m *Manager) PushMomentary(id keymap.LayerID, at uint64) error {
	if id == m.table.Default() {
		return nil
	}
	if i := m.find(id); i >= 0 {
		m.entries[i].holds++
		return nil
	}
	return m.push(entry{id: id, holds: 1}, at)
}

// PopMomentary releases one hold on id. A layer that is also toggled, or no
// longer active, is left alone.
func (m *Manager) PopMomentary(id keymap.LayerID, at uint64) {
	i := m.find(id)
	if i < 0 {
		return
	}
	if m.entries[i].holds > 0 {
		m.entries[i].holds--
	}
	if m.entries[i].holds == 0 && !m.entries[i].toggled {
		m.remove(i, at)
	}
}

// Toggle removes id when active and pushes it as a persistent layer
// otherwise. The default layer cannot be toggled off.
func (m *Manager) Toggle(id keymap.LayerID, at uint64) error {
	if id == m.table.Default() {
		m.logger.Debug("ignoring toggle of default layer", "layer", id)
		return nil
	}
	if i := m.find(id); i >= 0 {
		m.remove(i, at)
		return nil
	}
	return m.push(entry{id: id, toggled: true}, at)
}

// TapTogglePress makes id momentary while the tap-toggle key is down.
func (m *Manager) TapTogglePress(id keymap.LayerID, at uint64) error {
	return m.PushMomentary(id, at)
}

// TapToggleRelease ends the momentary hold and, once taps reaches threshold,
// latches the layer with Toggle semantics. It reports whether the toggle
// fired so the caller can restart the tap count.
func (m *Manager) TapToggleRelease(id keymap.LayerID, taps, threshold int, at uint64) (bool, error) {
	if threshold < 1 || taps < threshold {
		m.PopMomentary(id, at)
		return false, nil
	}
	if i := m.find(id); i >= 0 && !m.entries[i].toggled {
		// Latch in place; the layer never blinks off.
		m.entries[i].toggled = true
		if m.entries[i].holds > 0 {
			m.entries[i].holds--
		}
		m.logger.Debug("layer latched", "layer", id, "taps", taps)
		return true, nil
	}
	m.PopMomentary(id, at)
	return true, m.Toggle(id, at)
}

// Goto replaces every layer above the default with id alone. With a depth
// bound of 1 only the default layer fits, and Goto reports ErrStackFull.
func (m *Manager) Goto(id keymap.LayerID, at uint64) error {
	keep := id != m.table.Default()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if keep && m.entries[i].id == id {
			continue
		}
		m.remove(i, at)
	}
	if !keep {
		return nil
	}
	if i := m.find(id); i >= 0 {
		m.entries[i] = entry{id: id, toggled: true}
		return nil
	}
	return m.push(entry{id: id, toggled: true}, at)
}

// Clear drops every layer above the default.
func (m *Manager) Clear(at uint64) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		m.remove(i, at)
	}
}

func (m *Manager) find(id keymap.LayerID) int {
	for i, e := range m.entries {
		if e.id == id {
			return i
		}
	}
	return -1
}

func (m *Manager) push(e entry, at uint64) error {
	if int(e.id) >= m.table.NumLayers() {
		return fmt.Errorf("push layer %d: %w", e.id, keymap.ErrUndefinedLayer)
	}
	if len(m.entries)+1 >= m.maxDepth {
		m.logger.Warn("layer stack full", "layer", e.id, "depth", len(m.entries)+1)
		return fmt.Errorf("push layer %d: %w", e.id, ErrStackFull)
	}
	m.entries = append(m.entries, e)
	m.logger.Debug("layer on", "layer", e.id, "toggled", e.toggled)
	m.emit(action.Activate(e.id, at))
	return nil
}

func (m *Manager) remove(i int, at uint64) {
	id := m.entries[i].id
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	m.logger.Debug("layer off", "layer", id)
	m.emit(action.Deactivate(id, at))
}

func (m *Manager) emit(e action.Effect) {
	if m.out != nil {
		m.out.Dispatch(e)
	}
}
