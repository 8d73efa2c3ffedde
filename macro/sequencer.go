// Package macro plays macro scripts one step at a time.
package macro

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/keycore/action"
	"github.com/Alia5/keycore/keycode"
	"github.com/Alia5/keycore/keymap"
)

var ErrUnknownScript = errors.New("unknown macro script")

// Scripts looks up scripts by id. *keymap.Table implements it.
type Scripts interface {
	Script(id keymap.MacroID) (keymap.Script, bool)
}

// playback is the state of the one live script.
type playback struct {
	id       keymap.MacroID
	script   keymap.Script
	step     int
	waiting  bool
	deadline uint64
}

// Sequencer runs at most one script at a time. Starting a script cancels the
// one in flight. Every key a script puts down is released when the script
// ends, whether it finished, was cancelled or was pre-empted.
type Sequencer struct {
	scripts Scripts
	out     action.Sink
	logger  *slog.Logger

	cur *playback
	// down is kept in press order so releases are emitted deterministically.
	down []keycode.Code
}

// NewSequencer returns a Sequencer writing key effects to out.
func NewSequencer(scripts Scripts, out action.Sink, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sequencer{scripts: scripts, out: out, logger: logger}
}

// Play cancels any running script and starts id at its first step. Steps run
// immediately up to the first delay.
func (s *Sequencer) Play(id keymap.MacroID, now uint64) error {
	script, ok := s.scripts.Script(id)
	if !ok {
		return fmt.Errorf("play macro %d: %w", id, ErrUnknownScript)
	}
	if s.cur != nil {
		s.logger.Debug("macro pre-empted", "macro", s.cur.script.Name, "by", script.Name)
		s.Cancel(now)
	}
	s.logger.Debug("macro start", "macro", script.Name, "steps", len(script.Steps))
	s.cur = &playback{id: id, script: script}
	s.run(now)
	return nil
}

// Cancel stops the running script and releases every key it holds down.
func (s *Sequencer) Cancel(now uint64) {
	if s.cur != nil {
		s.logger.Debug("macro cancelled", "macro", s.cur.script.Name, "step", s.cur.step)
	}
	s.cur = nil
	s.releaseAll(now)
}

// Advance resumes the running script once its delay has elapsed.
func (s *Sequencer) Advance(now uint64) {
	if s.cur == nil {
		return
	}
	s.run(now)
}

// Playing reports the running script.
func (s *Sequencer) Playing() (keymap.MacroID, bool) {
	if s.cur == nil {
		return 0, false
	}
	return s.cur.id, true
}

// Down returns the keys the running script currently holds.
func (s *Sequencer) Down() []keycode.Code {
	return append([]keycode.Code(nil), s.down...)
}

func (s *Sequencer) run(now uint64) {
	p := s.cur
	for p.step < len(p.script.Steps) {
		st := p.script.Steps[p.step]
		switch st.Op {
		case keymap.StepDown:
			s.press(st.Code, now)
		case keymap.StepUp:
			s.release(st.Code, now)
		case keymap.StepDelay:
			if !p.waiting {
				p.waiting = true
				p.deadline = now + st.Delay
			}
			if now < p.deadline {
				return
			}
			p.waiting = false
		}
		p.step++
		if s.cur != p {
			// A collaborator restarted or cancelled playback.
			return
		}
	}
	s.logger.Debug("macro done", "macro", p.script.Name)
	s.cur = nil
	s.releaseAll(now)
}

func (s *Sequencer) press(code keycode.Code, now uint64) {
	if s.isDown(code) {
		s.logger.Debug("macro skipped duplicate down", "code", code)
		return
	}
	s.down = append(s.down, code)
	s.out.Dispatch(action.Down(code, now))
}

func (s *Sequencer) release(code keycode.Code, now uint64) {
	for i, c := range s.down {
		if c == code {
			s.down = append(s.down[:i], s.down[i+1:]...)
			s.out.Dispatch(action.Up(code, now))
			return
		}
	}
	s.logger.Debug("macro skipped up of key not down", "code", code)
}

func (s *Sequencer) releaseAll(now uint64) {
	for len(s.down) > 0 {
		last := len(s.down) - 1
		code := s.down[last]
		s.down = s.down[:last]
		s.out.Dispatch(action.Up(code, now))
	}
}

func (s *Sequencer) isDown(code keycode.Code) bool {
	for _, c := range s.down {
		if c == code {
			return true
		}
	}
	return false
}

var _ action.MacroPlayer = (*Sequencer)(nil)
