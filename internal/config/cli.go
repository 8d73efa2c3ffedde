// Package config holds the command-line surface of the keycore binary.
package config

import (
	"github.com/Alia5/keycore/internal/cmd"
	"github.com/Alia5/keycore/internal/log"
)

// CLI is the root kong command. Flags and env vars override values loaded
// from config files.
type CLI struct {
	ConfigFile string     `name:"config" help:"Configuration file (json, yaml or toml)" type:"path" env:"KEYCORE_CONFIG"`
	Log        log.Config `embed:"" prefix:"log."`

	Run       cmd.Run           `cmd:"" help:"Run the engine on a live key transition stream"`
	Replay    cmd.Replay        `cmd:"" help:"Replay a recorded key transition trace and print the effects"`
	Check     cmd.Check         `cmd:"" help:"Validate a keymap file"`
	Config    cmd.ConfigCommand `cmd:"" help:"Configuration helpers"`
	Install   cmd.Install       `cmd:"" help:"Install keycore as a systemd service"`
	Uninstall cmd.Uninstall     `cmd:"" help:"Remove the keycore systemd service"`
}
