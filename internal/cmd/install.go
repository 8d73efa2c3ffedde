package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Install registers keycore as a system service running the run command.
type Install struct {
	Keymap string `arg:"" name:"keymap" help:"Keymap file (yaml, toml or json)" type:"existingfile"`
	Input  string `help:"Key transition source the service reads, e.g. a FIFO fed by the matrix scanner" required:""`
	Output string `help:"HID report sink" default:"/dev/hidg0"`
}

// Run is called by Kong when the install command is executed.
func (i *Install) Run(logger *slog.Logger) error {
	keymapPath, err := filepath.Abs(i.Keymap)
	if err != nil {
		return fmt.Errorf("resolve keymap path: %w", err)
	}
	exePath, err := currentExecutable()
	if err != nil {
		return err
	}
	return install(logger, serviceSpec{exe: exePath, keymap: keymapPath, input: i.Input, output: i.Output})
}

// Uninstall removes the service installed by Install.
type Uninstall struct{}

// Run is called by Kong when the uninstall command is executed.
func (u *Uninstall) Run(logger *slog.Logger) error {
	return uninstall(logger)
}

type serviceSpec struct {
	exe    string
	keymap string
	input  string
	output string
}

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
