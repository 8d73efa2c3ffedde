package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Alia5/keycore/keymap"
)

// Check validates a keymap file.
type Check struct {
	Keymap  string `arg:"" name:"keymap" help:"Keymap file (yaml, toml or json)" type:"existingfile"`
	Verbose bool   `short:"v" help:"List every binding"`

	out io.Writer
}

// Run is called by Kong when the check command is executed.
func (c *Check) Run(logger *slog.Logger) error {
	table, err := keymap.Load(c.Keymap)
	if err != nil {
		return err
	}
	logger.Debug("keymap loaded", "path", c.Keymap, "layers", table.NumLayers(), "macros", table.NumScripts())

	w := c.out
	if w == nil {
		w = os.Stdout
	}
	printTable(w, table, c.Verbose)
	return nil
}

func printTable(w io.Writer, t *keymap.Table, verbose bool) {
	fmt.Fprintf(w, "%d layers, %d macros, default layer %s\n", t.NumLayers(), t.NumScripts(), layerLabel(t, t.Default()))
	for l := 0; l < t.NumLayers(); l++ {
		id := keymap.LayerID(l)
		keys := t.Keys(id)
		fmt.Fprintf(w, "  layer %s: %d bindings\n", layerLabel(t, id), len(keys))
		if !verbose {
			continue
		}
		for _, k := range keys {
			fmt.Fprintf(w, "    %3d  %s\n", k, t.Binding(id, k))
		}
	}
	for m := 0; m < t.NumScripts(); m++ {
		s, _ := t.Script(keymap.MacroID(m))
		fmt.Fprintf(w, "  macro %d %s: %d steps\n", m, s.Name, len(s.Steps))
		if !verbose {
			continue
		}
		for _, st := range s.Steps {
			fmt.Fprintf(w, "    %s\n", st)
		}
	}
}

func layerLabel(t *keymap.Table, l keymap.LayerID) string {
	return fmt.Sprintf("%d (%s)", l, t.LayerName(l))
}
