//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	serviceName = "keycore.service"
	servicePath = "/etc/systemd/system/keycore.service"
)

func install(logger *slog.Logger, spec serviceSpec) error {
	unit := systemdUnitContent(spec)
	if err := os.WriteFile(servicePath, []byte(unit), 0o644); err != nil {
		return err
	}

	steps := [][]string{
		{"daemon-reload"},
		{"enable", serviceName},
		{"restart", serviceName},
	}

	for _, args := range steps {
		if err := runSystemctl(args...); err != nil {
			return err
		}
	}

	logger.Info("keycore systemd service installed", "path", servicePath, "exe", spec.exe, "keymap", spec.keymap)
	return nil
}

func uninstall(logger *slog.Logger) error {
	var errs []error

	if err := runSystemctl("stop", serviceName); err != nil {
		errs = append(errs, err)
	}
	if err := runSystemctl("disable", serviceName); err != nil {
		errs = append(errs, err)
	}

	if err := os.Remove(servicePath); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}

	if err := runSystemctl("daemon-reload"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Info("keycore systemd service removed", "path", servicePath)
	return nil
}

func systemdUnitContent(spec serviceSpec) string {
	return fmt.Sprintf(`[Unit]
Description=keycore keyboard engine
After=sys-kernel-config.mount

[Service]
Type=simple
ExecStart=%q run %q --input %q --output %q
WorkingDirectory=%s
Restart=on-failure

[Install]
WantedBy=multi-user.target
`, spec.exe, spec.keymap, spec.input, spec.output, filepath.Dir(spec.exe))
}

func runSystemctl(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
