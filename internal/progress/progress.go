// Package progress provides the leveled progress/warning output used while
// a build runs, mirroring the verbose-flag plumbing tombatools wires into
// its cobra commands.
package progress

import "log"

// Reporter receives progress updates during a build. The zero value of
// Silent discards everything; Verbose logs through the standard logger the
// same way the teacher's builder does with log.Printf/log.Panicf.
type Reporter interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Silent discards all progress and warning output.
type Silent struct{}

func (Silent) Infof(string, ...any) {}
func (Silent) Warnf(string, ...any) {}

// Verbose logs every message through the standard library logger.
type Verbose struct{}

func (Verbose) Infof(format string, args ...any) {
	log.Printf(format, args...)
}

func (Verbose) Warnf(format string, args ...any) {
	log.Printf("warning: "+format, args...)
}
