package keymap

import (
	"fmt"

	"github.com/Alia5/keycore/keycode"
)

// StepOp is the operation of a macro step.
type StepOp uint8

const (
	StepDown StepOp = iota
	StepUp
	StepDelay
)

// Step is one instruction of a macro script.
type Step struct {
	Op    StepOp
	Code  keycode.Code
	Delay uint64 // milliseconds, StepDelay only
}

func Down(code keycode.Code) Step { return Step{Op: StepDown, Code: code} }
func Up(code keycode.Code) Step   { return Step{Op: StepUp, Code: code} }
func Wait(ms uint64) Step         { return Step{Op: StepDelay, Delay: ms} }

// Tap expands to a down/up pair.
func Tap(code keycode.Code) []Step {
	return []Step{Down(code), Up(code)}
}

func (s Step) String() string {
	switch s.Op {
	case StepDown:
		return "down " + s.Code.String()
	case StepUp:
		return "up " + s.Code.String()
	case StepDelay:
		return fmt.Sprintf("wait %d", s.Delay)
	}
	return fmt.Sprintf("step(%d)", s.Op)
}

// Script is an ordered macro.
type Script struct {
	Name  string
	Steps []Step
}

// NewScript builds a script from steps and step groups such as Tap.
func NewScript(name string, parts ...any) Script {
	s := Script{Name: name}
	for _, p := range parts {
		switch v := p.(type) {
		case Step:
			s.Steps = append(s.Steps, v)
		case []Step:
			s.Steps = append(s.Steps, v...)
		default:
			panic(fmt.Sprintf("keymap: unsupported script part %T", p))
		}
	}
	return s
}

func (s Script) validate() error {
	for i, st := range s.Steps {
		switch st.Op {
		case StepDown, StepUp:
			if st.Code == keycode.None {
				return fmt.Errorf("step %d: %w: missing key code", i, ErrMalformedStep)
			}
		case StepDelay:
		default:
			return fmt.Errorf("step %d: %w: unknown op %d", i, ErrMalformedStep, st.Op)
		}
	}
	return nil
}
