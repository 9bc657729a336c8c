// Package dbg provides opt-in diagnostic logging for the encoder.
//
// Logging is gated on the Enabled flag so that it costs nothing on the hot
// path when disabled; tests and callers that want a trace of buffer growth,
// recursion depth, or map-sort activity can flip it on.
package dbg

import (
	"fmt"
	"log"
	"os"
)

// Enabled turns on diagnostic logging to stderr. Off by default.
var Enabled = os.Getenv("WIREENC_DEBUG") != ""

var logger = log.New(os.Stderr, "wireenc: ", log.Lmicroseconds)

// Log writes a diagnostic line if Enabled is true.
//
// op names the operation (e.g. "grow", "depth"); format/args describe it.
func Log(op, format string, args ...any) {
	if !Enabled {
		return
	}
	logger.Printf("%s: "+format, append([]any{op}, args...)...)
}

// Assert panics with a formatted message if cond is false.
//
// Unlike Log, this always runs; it guards invariants that must never be
// violated regardless of whether diagnostic logging is enabled.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("wireenc: internal assertion failed: "+format, args...))
	}
}
