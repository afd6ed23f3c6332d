package ffs

import "log"

// Logger is a tiny leveled wrapper around the standard log package. Restore
// logs only at decision points (a sector was dropped for a corrupt header or
// as an extra scratch sector, the scratch sector was adopted, a sector's
// scan stopped at a corrupt record) and never for records that decode and
// reconcile normally. Dummy creation and sweep removals are not logged.
type Logger struct {
	verbose bool
}

// NewLogger returns a Logger. When verbose is false, Debugf calls are
// silently dropped.
func NewLogger(verbose bool) *Logger {
	return &Logger{verbose: verbose}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	log.Printf("ffs: "+format, args...)
}

// Printf always logs, unlike Debugf: it's for unconditional, low-frequency
// messages (e.g. a caller-visible warning), regardless of verbose.
func (l *Logger) Printf(format string, args ...any) {
	log.Printf("ffs: "+format, args...)
}
