package main

import "log"

// stderrLogger is the default archive.Logger: it wraps the standard
// log package the way cmd/distri's subcommands do, rather than pulling
// in a structured-logging library no example repo uses.
type stderrLogger struct {
	verbose bool
}

func (l stderrLogger) Infof(format string, args ...interface{}) {
	if l.verbose {
		log.Printf(format, args...)
	}
}

func (l stderrLogger) Warnf(format string, args ...interface{}) {
	log.Printf("warning: "+format, args...)
}

func (l stderrLogger) Errorf(format string, args ...interface{}) {
	log.Printf("error: "+format, args...)
}
