package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/Alia5/keycore/action"
	"github.com/Alia5/keycore/hid"
)

// printer writes a human readable effect log.
type printer struct {
	w io.Writer

	down, up, layer, macro, dim, warn *color.Color
}

func newPrinter(w io.Writer, mode string) *printer {
	p := &printer{
		w:     w,
		down:  color.New(color.FgGreen),
		up:    color.New(color.FgRed),
		layer: color.New(color.FgCyan),
		macro: color.New(color.FgMagenta),
		dim:   color.New(color.Faint),
		warn:  color.New(color.FgYellow, color.Bold),
	}
	enabled := useColor(w, mode)
	for _, c := range []*color.Color{p.down, p.up, p.layer, p.macro, p.dim, p.warn} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// useColor resolves auto to whether w is a terminal.
func useColor(w io.Writer, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) effect(e action.Effect) {
	c := p.dim
	switch e.Kind {
	case action.KeyDown:
		c = p.down
	case action.KeyUp:
		c = p.up
	case action.ActivateLayer, action.DeactivateLayer:
		c = p.layer
	case action.StartMacro, action.CancelMacro:
		c = p.macro
	}
	fmt.Fprintf(p.w, "%8d  %s\n", e.At, c.Sprint(strings.TrimPrefix(e.String(), fmt.Sprintf("%d ", e.At))))
}

func (p *printer) report(r hid.Report) {
	b, _ := r.MarshalBinary()
	keys := make([]string, 0, len(b)-2)
	for _, k := range r.Keys() {
		keys = append(keys, k.String())
	}
	p.dim.Fprintf(p.w, "%8s  report mods=%08b keys=[%s] %s\n", "", r.Modifiers, strings.Join(keys, " "), hex.EncodeToString(b))
}

func (p *printer) leds(mask uint8) {
	p.dim.Fprintf(p.w, "%8s  leds %03b\n", "", mask)
}

func (p *printer) warnf(format string, args ...any) {
	p.warn.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) linef(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
