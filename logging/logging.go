// Package logging wires up the *logrus.Entry the processor and both
// engines thread through their operations (spec §2's ambient stack).
//
// Grounded on testutil.SetupLogger's flag-driven setup (file, level,
// stderr), generalized from a test-only helper into one a running
// processor can call at startup, and given a "component" field so a
// caller running several engines side by side can tell them apart in
// one log stream.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config controls where log output goes and how much of it there is.
type Config struct {
	// File is the path to log to. Ignored when Stderr is true. Empty
	// with Stderr false means logging is discarded.
	File string

	// Level is one of trace, debug, info, warn, error, fatal, panic.
	// Empty defaults to info.
	Level string

	// Stderr sends output to os.Stderr instead of File.
	Stderr bool
}

// New builds a *logrus.Logger per cfg.
func New(cfg Config) (*logrus.Logger, error) {
	l := logrus.New()

	var out io.Writer
	switch {
	case cfg.Stderr:
		out = os.Stderr
	case cfg.File != "":
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, fmt.Errorf("logging: %s: %w", cfg.File, err)
		}
		out = f
	default:
		out = io.Discard
	}
	l.SetOutput(out)

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	ll, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	l.SetLevel(ll)

	return l, nil
}

// Component returns the entry a named processor component (a
// sqlengine.Engine, an iterengine.Engine, or the processor itself)
// should log through, tagging every line with its name.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Discard is a *logrus.Entry that drops everything, used as the
// default when a caller constructs an engine or processor without
// supplying one of its own.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
