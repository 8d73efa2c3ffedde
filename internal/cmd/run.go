package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alia5/keycore/engine"
	"github.com/Alia5/keycore/hid"
	"github.com/Alia5/keycore/internal/log"
	"github.com/Alia5/keycore/internal/trace"
	"github.com/Alia5/keycore/keymap"
	"github.com/Alia5/keycore/led"
	"github.com/Alia5/keycore/pointer"
)

// Run drives the engine from a live transition stream.
type Run struct {
	Keymap  string         `arg:"" name:"keymap" help:"Keymap file (yaml, toml or json)" type:"existingfile"`
	Input   string         `help:"Key transition source, one per line ('-' for stdin)" default:"-" env:"KEYCORE_INPUT"`
	Output  string         `help:"HID report sink such as /dev/hidg0; reports are only logged when empty" env:"KEYCORE_OUTPUT"`
	LEDs    int            `name:"leds" help:"Number of layer indicator LEDs" default:"3" env:"KEYCORE_LEDS"`
	Engine  engine.Config  `embed:"" prefix:"engine."`
	Pointer pointer.Config `embed:"" prefix:"pointer."`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := io.Reader(os.Stdin)
	if r.Input != "-" {
		f, err := os.Open(r.Input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	var out io.Writer
	var host io.Reader
	if r.Output != "" {
		// A HID gadget hands the host's LED output reports back on reads.
		f, err := os.OpenFile(r.Output, os.O_RDWR, 0)
		if err != nil {
			return fmt.Errorf("open HID output: %w", err)
		}
		defer f.Close()
		out, host = f, f
	}
	return r.serve(ctx, in, out, host, logger, rawLogger)
}

func (r *Run) serve(ctx context.Context, in io.Reader, out io.Writer, host io.Reader, logger *slog.Logger, rawLogger log.RawLogger) error {
	table, err := keymap.Load(r.Keymap)
	if err != nil {
		return err
	}
	if err := pointer.Apply(&pointer.LogDevice{Logger: logger.With("component", "pointer")}, r.Pointer); err != nil {
		return err
	}

	kb := hid.New(logger.With("component", "hid"), rawLogger)
	if out != nil {
		kb.SetReportCallback(hid.NewWriter(out, logger).Write)
	}
	kb.SetLEDCallback(func(st hid.LEDState) {
		logger.Info("host LEDs", "num", st.NumLock, "caps", st.CapsLock, "scroll", st.ScrollLock)
	})
	if host != nil {
		go readHostLEDs(host, kb, logger)
	}
	ind := led.New(r.LEDs, func(mask uint8) {
		logger.Info("layer indicator", "leds", fmt.Sprintf("%03b", mask))
	}, logger.With("component", "led"))

	eng, err := engine.New(table, r.Engine, kb, ind, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting keycore", "keymap", r.Keymap, "layers", table.NumLayers(), "macros", table.NumScripts())

	clock := engine.MonotonicClock()
	events := make(chan engine.KeyTransition, 64)
	go readTransitions(ctx, in, events, clock, logger)

	err = eng.Run(ctx, events, clock)
	if errors.Is(err, context.Canceled) {
		logger.Info("Shutting down", "hostLEDs", kb.GetLEDState())
		return nil
	}
	return err
}

// readHostLEDs applies LED output reports until host fails or is closed.
func readHostLEDs(host io.Reader, kb *hid.Keyboard, logger *slog.Logger) {
	buf := make([]byte, 8)
	for {
		n, err := host.Read(buf)
		if n > 0 {
			if herr := kb.HandleOutput(buf[:n]); herr != nil {
				logger.Warn("bad LED report", "error", herr)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logger.Debug("host LED reports stopped", "error", err)
			}
			return
		}
	}
}

// timebase moves transition timestamps onto the engine clock. Untimed lines
// are stamped with the clock; timed lines keep their spacing, offset so the
// first one lands on the clock's current reading.
type timebase struct {
	clock  engine.Clock
	offset int64
	synced bool
}

func (tb *timebase) stamp(l trace.Line) uint64 {
	now := tb.clock()
	if !l.Timed {
		return now
	}
	if !tb.synced {
		tb.offset = int64(now) - int64(l.Event.At)
		tb.synced = true
	}
	at := int64(l.Event.At) + tb.offset
	if at < 0 {
		return 0
	}
	return uint64(at)
}

// readTransitions forwards transitions until EOF, a malformed line or ctx
// is done, then closes events.
func readTransitions(ctx context.Context, in io.Reader, events chan<- engine.KeyTransition, clock engine.Clock, logger *slog.Logger) {
	defer close(events)
	tb := &timebase{clock: clock}
	sc := trace.NewScanner(in)
	for sc.Scan() {
		l := sc.Line()
		l.Event.At = tb.stamp(l)
		select {
		case events <- l.Event:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		logger.Error("input stopped", "error", err)
	}
}
