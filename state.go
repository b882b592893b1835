package atmos

import (
	"io"

	"github.com/sirupsen/logrus"
)

// State represents the shared state for one dispatch. It carries the arguments that followed the
// directive, the optional sub-method and the streams handlers should write to.
type State struct {
	// Args contains the arguments after the directive token.
	Args []string

	// Method is the sub-method selected with the directive:method syntax. Empty when none was
	// given.
	Method string

	// Standard I/O streams.
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	// Config is the configuration of the engine that dispatched the handler.
	Config Config

	// Logger is scoped to the current pass.
	Logger *logrus.Entry
}

// Arg returns the i-th argument, or def when there are not enough arguments.
func (s *State) Arg(i int, def string) string {
	if i < 0 || i >= len(s.Args) {
		return def
	}
	return s.Args[i]
}

func (s *State) logger() *logrus.Entry {
	if s.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return logrus.NewEntry(l)
	}
	return s.Logger
}
