package atmos

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Handler is the invocable bound to an [Option]. It is a closed set of two variants chosen at
// registration time: [FunctionHandler] for plain callbacks and [ObjectHandler] for stateful
// commands with lifecycle hooks.
type Handler interface {
	invoke(ctx context.Context, s *State) error
}

// FunctionHandler is a plain callback. The sub-method of the state, if any, is ignored.
type FunctionHandler ExecFunc

func (f FunctionHandler) invoke(ctx context.Context, s *State) error {
	return f(ctx, s)
}

// ObjectHandler wraps a [Command] and dispatches to its entry points through the lifecycle hooks.
type ObjectHandler struct {
	cmd Command
}

// Command returns the wrapped command.
func (h ObjectHandler) Command() Command {
	return h.cmd
}

func (h ObjectHandler) invoke(ctx context.Context, s *State) error {
	return dispatch(ctx, h.cmd, s)
}

// Func binds a plain callback.
func Func(fn ExecFunc) Handler {
	return FunctionHandler(fn)
}

// Object binds a stateful command.
func Object(cmd Command) Handler {
	return ObjectHandler{cmd: cmd}
}

// Option is an immutable binding of an identifier, one or more directive aliases, a description and
// a handler.
type Option struct {
	id          string
	directives  []string
	description string
	handler     Handler
}

// NewOption validates and builds an Option. Directives must be non-empty, contain no blank entries
// and be unique within the option.
func NewOption(id string, directives []string, description string, handler Handler) (*Option, error) {
	if id == "" {
		return nil, errors.New("option id must not be empty")
	}
	if len(directives) == 0 {
		return nil, fmt.Errorf("option %q has no directives", id)
	}
	if handler == nil || isNilHandler(handler) {
		return nil, fmt.Errorf("option %q has no handler", id)
	}
	seen := make(map[string]bool, len(directives))
	for _, d := range directives {
		if strings.TrimSpace(d) == "" {
			return nil, fmt.Errorf("option %q has a blank directive", id)
		}
		if seen[d] {
			return nil, fmt.Errorf("option %q lists directive %q twice", id, d)
		}
		seen[d] = true
	}
	return &Option{
		id:          id,
		directives:  slices.Clone(directives),
		description: description,
		handler:     handler,
	}, nil
}

// MustOption is like [NewOption] but panics on invalid input.
func MustOption(id string, directives []string, description string, handler Handler) *Option {
	opt, err := NewOption(id, directives, description, handler)
	if err != nil {
		panic(err)
	}
	return opt
}

func isNilHandler(h Handler) bool {
	switch h := h.(type) {
	case FunctionHandler:
		return h == nil
	case ObjectHandler:
		return h.cmd == nil
	}
	return false
}

func (o *Option) ID() string          { return o.id }
func (o *Option) Description() string { return o.description }
func (o *Option) Handler() Handler    { return o.handler }

// Directives returns a copy of the directive aliases in declaration order.
func (o *Option) Directives() []string {
	return slices.Clone(o.directives)
}

// HasDirective reports whether token is one of the option's directives. The comparison is exact and
// case-sensitive; callers normalise the token.
func (o *Option) HasDirective(token string) bool {
	return slices.Contains(o.directives, token)
}

// Execute runs the bound handler with the given state.
func (o *Option) Execute(ctx context.Context, s *State) error {
	return o.handler.invoke(ctx, s)
}
