// Package pointer carries the tuning of the pointing-device (mouse key)
// collaborator. The core does not interpret these values; it validates and
// passes them through.
package pointer

import (
	"errors"
	"fmt"
	"log/slog"
)

// Config mirrors the mouse key tuning options of the keyboard firmware.
// Times are in milliseconds.
type Config struct {
	MoveDelta      int `help:"Pointer step per report" default:"5" env:"KEYCORE_POINTER_MOVE_DELTA"`
	WheelDelta     int `help:"Wheel step per report" default:"1" env:"KEYCORE_POINTER_WHEEL_DELTA"`
	Delay          int `help:"Delay before the pointer starts repeating (ms)" default:"0" env:"KEYCORE_POINTER_DELAY"`
	Interval       int `help:"Repeat interval (ms)" default:"5" env:"KEYCORE_POINTER_INTERVAL"`
	MaxSpeed       int `help:"Maximum pointer speed multiplier" default:"7" env:"KEYCORE_POINTER_MAX_SPEED"`
	TimeToMax      int `help:"Repeats until maximum speed" default:"70" env:"KEYCORE_POINTER_TIME_TO_MAX"`
	WheelMaxSpeed  int `help:"Maximum wheel speed multiplier" default:"16" env:"KEYCORE_POINTER_WHEEL_MAX_SPEED"`
	WheelTimeToMax int `help:"Wheel repeats until maximum speed" default:"40" env:"KEYCORE_POINTER_WHEEL_TIME_TO_MAX"`
}

// Defaults matches the flag defaults.
func Defaults() Config {
	return Config{
		MoveDelta:      5,
		WheelDelta:     1,
		Delay:          0,
		Interval:       5,
		MaxSpeed:       7,
		TimeToMax:      70,
		WheelMaxSpeed:  16,
		WheelTimeToMax: 40,
	}
}

// Validate rejects values no pointing device could use.
func (c Config) Validate() error {
	var errs []error
	check := func(name string, v, lo int) {
		if v < lo {
			errs = append(errs, fmt.Errorf("pointer %s %d: must be at least %d", name, v, lo))
		}
	}
	check("move delta", c.MoveDelta, 1)
	check("wheel delta", c.WheelDelta, 1)
	check("delay", c.Delay, 0)
	check("interval", c.Interval, 1)
	check("max speed", c.MaxSpeed, 1)
	check("time to max", c.TimeToMax, 0)
	check("wheel max speed", c.WheelMaxSpeed, 1)
	check("wheel time to max", c.WheelTimeToMax, 0)
	return errors.Join(errs...)
}

// LogValue implements slog.LogValuer.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("moveDelta", c.MoveDelta),
		slog.Int("wheelDelta", c.WheelDelta),
		slog.Int("delay", c.Delay),
		slog.Int("interval", c.Interval),
		slog.Int("maxSpeed", c.MaxSpeed),
		slog.Int("timeToMax", c.TimeToMax),
		slog.Int("wheelMaxSpeed", c.WheelMaxSpeed),
		slog.Int("wheelTimeToMax", c.WheelTimeToMax),
	)
}

// Device is the pointing-device collaborator.
type Device interface {
	Configure(c Config) error
}

// Apply validates c and hands it to d unchanged.
func Apply(d Device, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := d.Configure(c); err != nil {
		return fmt.Errorf("configure pointing device: %w", err)
	}
	return nil
}

// LogDevice is a Device that only records the configuration, for hosts
// without a pointing device.
type LogDevice struct {
	Logger *slog.Logger
	Last   Config
}

func (d *LogDevice) Configure(c Config) error {
	d.Last = c
	if d.Logger != nil {
		d.Logger.Debug("pointer configured", "pointer", c)
	}
	return nil
}
