package keystate

import (
	"io"
	"log/slog"
)

// ----------------------------------------------------------------------

// Prober reports whether a physical key is held right now, independent of
// any event queue. It is only ever asked about true keys, never about a
// generic modifier.
type Prober interface {
	IsPressed(key Key) bool
}

// ProbeFunc adapts a plain function to the Prober interface.
type ProbeFunc func(key Key) bool

func (f ProbeFunc) IsPressed(key Key) bool {
	return f(key)
}

// ----------------------------------------------------------------------

// Released is a Prober that reports every key as released. It is the
// fallback when no platform probe is available.
var Released Prober = ProbeFunc(func(Key) bool { return false })

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
