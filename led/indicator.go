// Package led shows the highest active layer on the board's indicator LEDs.
//
// LED n is lit while layer n is the highest active layer, for n from 1 to the
// number of LEDs. Higher layers and the default layer leave every LED off.
package led

import (
	"log/slog"

	"github.com/Alia5/keycore/keymap"
)

// DefaultCount is the number of indicator LEDs on common split boards.
const DefaultCount = 3

// Output drives the physical LEDs. Bit n-1 of mask is LED n.
type Output func(mask uint8)

// Indicator implements action.Indicator.
type Indicator struct {
	count  int
	out    Output
	logger *slog.Logger

	active map[keymap.LayerID]bool
	mask   uint8
}

// New returns an Indicator with count LEDs, clamped to 1..8.
func New(count int, out Output, logger *slog.Logger) *Indicator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	count = min(max(count, 1), 8)
	return &Indicator{count: count, out: out, logger: logger, active: make(map[keymap.LayerID]bool)}
}

func (i *Indicator) LayerOn(l keymap.LayerID) {
	i.active[l] = true
	i.refresh()
}

func (i *Indicator) LayerOff(l keymap.LayerID) {
	delete(i.active, l)
	i.refresh()
}

// Highest returns the highest active layer, or false when only the default
// layer is active.
func (i *Indicator) Highest() (keymap.LayerID, bool) {
	var top keymap.LayerID
	found := false
	for l := range i.active {
		if !found || l > top {
			top, found = l, true
		}
	}
	return top, found
}

// Mask returns the LEDs currently lit.
func (i *Indicator) Mask() uint8 { return i.mask }

func (i *Indicator) refresh() {
	var mask uint8
	if top, ok := i.Highest(); ok && top >= 1 && int(top) <= i.count {
		mask = 1 << (top - 1)
	}
	if mask == i.mask {
		return
	}
	i.mask = mask
	i.logger.Debug("indicator", "mask", mask)
	if i.out != nil {
		i.out(mask)
	}
}
