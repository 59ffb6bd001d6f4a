package chordnode

import (
	"log"

	"github.com/golang/glog"
)

// logInfo emits a verbose diagnostic trace gated by glog's -v flag rather
// than always-on logging: ring membership chatter is noisy enough that it
// should stay off by default.
func logInfo(format string, args ...interface{}) {
	if glog.V(2) {
		glog.Infof(format, args...)
	}
}

// logErr reports an operational error encountered during a tick. No error
// propagates out of the event loop past the tick that produced it; this is
// the terminal point such errors are reported to instead.
func logErr(format string, args ...interface{}) {
	log.Printf("[ERR] "+format, args...)
}

// logWarn reports a recoverable condition worth operator attention but
// not an outright failure (e.g. a failed accept or UDP send).
func logWarn(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}
