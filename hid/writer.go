package hid

import (
	"io"
	"log/slog"
)

// Writer streams encoded reports to w, e.g. a Linux USB gadget such as
// /dev/hidg0. Write errors are logged and otherwise ignored; a dropped report
// is superseded by the next one.
type Writer struct {
	w      io.Writer
	logger *slog.Logger
}

func NewWriter(w io.Writer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{w: w, logger: logger}
}

// Write encodes and writes r. Its signature fits SetReportCallback.
func (w *Writer) Write(r Report) {
	if _, err := w.w.Write(r.BuildReport()); err != nil {
		w.logger.Error("failed to write HID report", "error", err)
	}
}
