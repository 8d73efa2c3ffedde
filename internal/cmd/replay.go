package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Alia5/keycore/engine"
	"github.com/Alia5/keycore/hid"
	"github.com/Alia5/keycore/internal/log"
	"github.com/Alia5/keycore/internal/trace"
	"github.com/Alia5/keycore/keymap"
	"github.com/Alia5/keycore/led"
)

// Replay feeds a recorded trace through the engine and prints what it emits.
type Replay struct {
	Keymap  string        `arg:"" name:"keymap" help:"Keymap file (yaml, toml or json)" type:"existingfile"`
	Trace   string        `arg:"" name:"trace" help:"Key transition trace ('-' for stdin)"`
	Engine  engine.Config `embed:"" prefix:"engine."`
	LEDs    int           `name:"leds" help:"Number of layer indicator LEDs" default:"3" env:"KEYCORE_LEDS"`
	Reports bool          `help:"Print every HID report change" env:"KEYCORE_REPORTS"`
	Color   string        `help:"Colorize output" enum:"auto,always,never" default:"auto" env:"KEYCORE_COLOR"`

	out io.Writer
}

// Run is called by Kong when the replay command is executed.
func (r *Replay) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	table, err := keymap.Load(r.Keymap)
	if err != nil {
		return err
	}
	evs, err := r.readTrace()
	if err != nil {
		return err
	}

	w := r.out
	if w == nil {
		w = os.Stdout
	}
	p := newPrinter(w, r.Color)

	kb := hid.New(logger.With("component", "hid"), rawLogger)
	if r.Reports {
		kb.SetReportCallback(p.report)
	}
	ind := led.New(r.LEDs, p.leds, logger.With("component", "led"))

	eng, err := engine.New(table, r.Engine, kb, ind, logger)
	if err != nil {
		return err
	}
	eng.Observe(p.effect)

	logger.Debug("replaying", "trace", r.Trace, "transitions", len(evs))
	end := replay(eng, evs)

	p.linef("%d transitions, layers %v at %d ms", len(evs), eng.Layers().Active(), end)
	if st := kb.State(); !st.Empty() {
		p.warnf("keys still down at end of trace: mods=%08b keys=%v", st.Modifiers, st.Keys())
	}
	return nil
}

func (r *Replay) readTrace() ([]engine.KeyTransition, error) {
	if r.Trace == "-" {
		return trace.Read(os.Stdin)
	}
	f, err := os.Open(r.Trace)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	evs, err := trace.Read(f)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", r.Trace, err)
	}
	return evs, nil
}

// maxMacroDrain bounds how long a replay waits for a macro to finish after
// the last transition.
const maxMacroDrain = 60_000

// replay simulates the event loop on the trace's own clock: one tick every
// TickInterval, each tick taking every transition stamped at or before it.
// It keeps ticking past the last transition until pending tap-holds and the
// running macro have settled, and returns the final tick time.
func replay(eng *engine.Engine, evs []engine.KeyTransition) uint64 {
	cfg := eng.Config()
	tick := max(uint64(cfg.TickInterval/time.Millisecond), 1)
	term := uint64(cfg.TappingTerm / time.Millisecond)

	var now, until uint64
	if len(evs) > 0 {
		now = evs[0].At
		until = evs[len(evs)-1].At + term
	}

	i := 0
	for {
		j := i
		for j < len(evs) && evs[j].At <= now {
			j++
		}
		eng.Tick(now, evs[i:j])
		i = j

		if i == len(evs) && now >= until {
			if _, playing := eng.Sequencer().Playing(); !playing || now >= until+maxMacroDrain {
				return now
			}
		}
		now += tick
	}
}
