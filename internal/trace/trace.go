// Package trace reads and writes recorded key transitions.
//
// One transition per line:
//
//	<ms> <key> <down|up>
//
// The timestamp may be omitted when the reader stamps transitions itself.
// Blank lines and lines starting with '#' are ignored. Keys are numeric key
// ids.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Alia5/keycore/engine"
	"github.com/Alia5/keycore/keymap"
)

var ErrMalformedLine = errors.New("malformed trace line")

// Line is one parsed line.
type Line struct {
	Event engine.KeyTransition
	// Timed is false when the line carried no timestamp.
	Timed bool
}

// ParseLine parses a single non-comment line.
func ParseLine(s string) (Line, error) {
	f := strings.Fields(s)
	var l Line
	switch len(f) {
	case 2:
	case 3:
		at, err := strconv.ParseUint(f[0], 10, 64)
		if err != nil {
			return l, fmt.Errorf("%w: timestamp %q", ErrMalformedLine, f[0])
		}
		l.Event.At, l.Timed = at, true
		f = f[1:]
	default:
		return l, fmt.Errorf("%w: %q", ErrMalformedLine, s)
	}

	key, err := strconv.ParseUint(f[0], 10, 16)
	if err != nil {
		return l, fmt.Errorf("%w: key %q", ErrMalformedLine, f[0])
	}
	l.Event.Key = keymap.KeyID(key)

	switch strings.ToLower(f[1]) {
	case "down", "d", "press":
		l.Event.Pressed = true
	case "up", "u", "release":
	default:
		return l, fmt.Errorf("%w: direction %q", ErrMalformedLine, f[1])
	}
	return l, nil
}

// Scanner reads lines one at a time, for live input.
type Scanner struct {
	s    *bufio.Scanner
	line int
	cur  Line
	err  error
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{s: bufio.NewScanner(r)}
}

// Scan advances to the next transition. It returns false at EOF or on the
// first error.
func (s *Scanner) Scan() bool {
	for s.s.Scan() {
		s.line++
		text := strings.TrimSpace(s.s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		l, err := ParseLine(text)
		if err != nil {
			s.err = fmt.Errorf("line %d: %w", s.line, err)
			return false
		}
		s.cur = l
		return true
	}
	s.err = s.s.Err()
	return false
}

func (s *Scanner) Line() Line { return s.cur }
func (s *Scanner) Err() error { return s.err }

// Read parses a whole timed trace. Timestamps must not go backwards.
func Read(r io.Reader) ([]engine.KeyTransition, error) {
	var (
		out  []engine.KeyTransition
		last uint64
	)
	sc := NewScanner(r)
	for sc.Scan() {
		l := sc.Line()
		if !l.Timed {
			return nil, fmt.Errorf("line %d: %w: missing timestamp", sc.line, ErrMalformedLine)
		}
		if l.Event.At < last {
			return nil, fmt.Errorf("line %d: %w: timestamp %d before %d", sc.line, ErrMalformedLine, l.Event.At, last)
		}
		last = l.Event.At
		out = append(out, l.Event)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Write formats transitions in the format Read accepts.
func Write(w io.Writer, evs []engine.KeyTransition) error {
	bw := bufio.NewWriter(w)
	for _, ev := range evs {
		dir := "up"
		if ev.Pressed {
			dir = "down"
		}
		if _, err := fmt.Fprintf(bw, "%d %d %s\n", ev.At, ev.Key, dir); err != nil {
			return err
		}
	}
	return bw.Flush()
}
