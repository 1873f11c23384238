package transport

import (
	"fmt"
	"os"
)

// debugEnabled turns on verbose packet/frame tracing to stderr, independent
// of the qlog-style LogEvent hook (see log.go) which callers wire up for
// structured output. Useful when bisecting interop failures by eye.
var debugEnabled = os.Getenv("QUIC_DEBUG") != ""

func debug(format string, args ...interface{}) {
	if !debugEnabled {
		return
	}
	fmt.Fprintf(os.Stderr, "quic: "+format+"\n", args...)
}
