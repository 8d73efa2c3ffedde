// Package taphold decides whether a dual-role key was tapped or held.
//
// Each key moves through Idle -> Pressed -> {Tap, Hold} -> Idle. A release
// before the tapping term resolves Tap; the term elapsing while the key is
// still down resolves Hold, inclusive of the boundary. Under the interrupt
// policy any other key press forces every unresolved key to Hold.
//
// Time is the caller's monotonic millisecond clock. The resolver never reads
// a clock itself; Expire must be called with the timestamp of each incoming
// event and once per tick.
package taphold

import (
	"fmt"
	"strings"

	"github.com/Alia5/keycore/keymap"
)

// Outcome of a dual-role key press.
type Outcome uint8

const (
	Unresolved Outcome = iota
	Tap
	Hold
)

func (o Outcome) String() string {
	switch o {
	case Tap:
		return "tap"
	case Hold:
		return "hold"
	}
	return "unresolved"
}

// Policy decides what an intervening key press does to unresolved keys.
type Policy uint8

const (
	// Interrupt forces Hold on every unresolved key when another key is
	// pressed.
	Interrupt Policy = iota
	// Ignore resolves purely on each key's own timing.
	Ignore
)

func (p Policy) String() string {
	if p == Ignore {
		return "ignore"
	}
	return "interrupt"
}

// ParsePolicy accepts "interrupt" or "ignore".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interrupt", "":
		return Interrupt, nil
	case "ignore":
		return Ignore, nil
	}
	return Interrupt, fmt.Errorf("unknown mod-tap interrupt policy %q", s)
}

// DefaultTerm is the tapping term in milliseconds.
const DefaultTerm = 200

// Config of a Resolver.
type Config struct {
	Term   uint64 // milliseconds
	Policy Policy
}

// State is the live record of one pressed, unresolved key.
type State struct {
	Key       keymap.KeyID
	PressedAt uint64
	// TapCount is the number of consecutive quick taps before this press.
	TapCount int
	Outcome  Outcome
}

// Deadline is the instant the key resolves Hold if still down.
func (s State) Deadline(term uint64) uint64 { return s.PressedAt + term }

// Resolution reports a decided key.
type Resolution struct {
	Key     keymap.KeyID
	Outcome Outcome
	At      uint64
	// TapCount includes this tap when Outcome is Tap.
	TapCount int
}

type streak struct {
	count       int
	lastRelease uint64
}

// Resolver tracks every dual-role key independently.
type Resolver struct {
	cfg Config
	// pending is kept in arrival order, which is also deadline order.
	pending []State
	streaks map[keymap.KeyID]streak
}

// New returns a Resolver. A zero Term uses DefaultTerm.
func New(cfg Config) *Resolver {
	if cfg.Term == 0 {
		cfg.Term = DefaultTerm
	}
	return &Resolver{cfg: cfg, streaks: make(map[keymap.KeyID]streak)}
}

func (r *Resolver) Config() Config { return r.cfg }

// Press starts resolving key. Pressing a key that is already pending
// restarts it.
func (r *Resolver) Press(key keymap.KeyID, at uint64) State {
	r.drop(key)
	if s, ok := r.streaks[key]; ok && at-s.lastRelease > r.cfg.Term {
		delete(r.streaks, key)
	}
	st := State{Key: key, PressedAt: at, TapCount: r.streaks[key].count}
	r.pending = append(r.pending, st)
	return st
}

// Release resolves key at its release. The result is Tap unless the key was
// down for at least the tapping term. ok is false when key was not pending,
// e.g. because it already resolved Hold.
func (r *Resolver) Release(key keymap.KeyID, at uint64) (res Resolution, ok bool) {
	i := r.index(key)
	if i < 0 {
		return Resolution{}, false
	}
	st := r.pending[i]
	r.pending = append(r.pending[:i], r.pending[i+1:]...)

	if at >= st.Deadline(r.cfg.Term) {
		delete(r.streaks, key)
		return Resolution{Key: key, Outcome: Hold, At: at}, true
	}
	s := streak{count: st.TapCount + 1, lastRelease: at}
	r.streaks[key] = s
	return Resolution{Key: key, Outcome: Tap, At: at, TapCount: s.count}, true
}

// Interrupt applies the interrupt policy for a press of key by. Every other
// unresolved key resolves Hold, in arrival order. Under Ignore it does
// nothing.
func (r *Resolver) Interrupt(by keymap.KeyID, at uint64) []Resolution {
	if r.cfg.Policy != Interrupt {
		return nil
	}
	var out []Resolution
	kept := r.pending[:0]
	for _, st := range r.pending {
		if st.Key == by {
			kept = append(kept, st)
			continue
		}
		delete(r.streaks, st.Key)
		out = append(out, Resolution{Key: st.Key, Outcome: Hold, At: at})
	}
	r.pending = kept
	return out
}

// Expire resolves Hold for every pending key whose deadline is at or before
// now, in deadline order, and forgets tap streaks older than the term.
func (r *Resolver) Expire(now uint64) []Resolution {
	var out []Resolution
	kept := r.pending[:0]
	for _, st := range r.pending {
		if d := st.Deadline(r.cfg.Term); d <= now {
			delete(r.streaks, st.Key)
			out = append(out, Resolution{Key: st.Key, Outcome: Hold, At: d})
			continue
		}
		kept = append(kept, st)
	}
	r.pending = kept

	for k, s := range r.streaks {
		if now-s.lastRelease > r.cfg.Term && r.index(k) < 0 {
			delete(r.streaks, k)
		}
	}
	return out
}

// State returns the pending state of key.
func (r *Resolver) State(key keymap.KeyID) (State, bool) {
	if i := r.index(key); i >= 0 {
		return r.pending[i], true
	}
	return State{}, false
}

// Pending returns the number of unresolved keys.
func (r *Resolver) Pending() int { return len(r.pending) }

// TapCount returns the current quick-tap streak of key.
func (r *Resolver) TapCount(key keymap.KeyID) int { return r.streaks[key].count }

// ClearStreak restarts the tap count of key, e.g. after a tap-toggle latched.
func (r *Resolver) ClearStreak(key keymap.KeyID) { delete(r.streaks, key) }

// Reset forgets all pending keys and streaks without resolving them.
func (r *Resolver) Reset() {
	r.pending = r.pending[:0]
	for k := range r.streaks {
		delete(r.streaks, k)
	}
}

func (r *Resolver) drop(key keymap.KeyID) {
	if i := r.index(key); i >= 0 {
		r.pending = append(r.pending[:i], r.pending[i+1:]...)
	}
}

func (r *Resolver) index(key keymap.KeyID) int {
	for i, st := range r.pending {
		if st.Key == key {
			return i
		}
	}
	return -1
}
