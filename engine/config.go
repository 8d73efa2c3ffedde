package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Alia5/keycore/layer"
	"github.com/Alia5/keycore/taphold"
)

// Config is the load-time configuration surface of the engine.
type Config struct {
	TappingTerm     time.Duration `help:"Time a dual-role key must be held to count as a hold" default:"200ms" env:"KEYCORE_TAPPING_TERM"`
	TappingToggle   int           `help:"Quick taps that latch a tap-toggle layer" default:"2" env:"KEYCORE_TAPPING_TOGGLE"`
	ModTapInterrupt string        `help:"What another key press does to an unresolved dual-role key" enum:"interrupt,ignore" default:"interrupt" env:"KEYCORE_MOD_TAP_INTERRUPT"`
	TickInterval    time.Duration `help:"Scheduling tick of the event loop" default:"1ms" env:"KEYCORE_TICK_INTERVAL"`
	MaxLayers       int           `help:"Layer stack depth, default layer included" default:"8" env:"KEYCORE_MAX_LAYERS"`
}

// DefaultConfig mirrors the flag defaults for callers that do not go
// through the CLI.
func DefaultConfig() Config {
	return Config{
		TappingTerm:     taphold.DefaultTerm * time.Millisecond,
		TappingToggle:   2,
		ModTapInterrupt: "interrupt",
		TickInterval:    time.Millisecond,
		MaxLayers:       layer.MaxDepth,
	}
}

// Validate reports every invalid option.
func (c Config) Validate() error {
	var errs []error
	if c.TappingTerm < time.Millisecond {
		errs = append(errs, fmt.Errorf("tapping term %s: must be at least 1ms", c.TappingTerm))
	}
	if c.TappingToggle < 1 {
		errs = append(errs, fmt.Errorf("tapping toggle %d: must be at least 1", c.TappingToggle))
	}
	if _, err := taphold.ParsePolicy(c.ModTapInterrupt); err != nil {
		errs = append(errs, err)
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval %s: must be positive", c.TickInterval))
	}
	if c.MaxLayers < 1 {
		errs = append(errs, fmt.Errorf("max layers %d: must be at least 1", c.MaxLayers))
	}
	return errors.Join(errs...)
}

func (c Config) resolverConfig() taphold.Config {
	p, _ := taphold.ParsePolicy(c.ModTapInterrupt)
	return taphold.Config{Term: uint64(c.TappingTerm / time.Millisecond), Policy: p}
}
