package atmos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultDescription is reported by commands that do not describe themselves.
const DefaultDescription = "No available description..."

// ExecFunc is the signature shared by plain callbacks and command sub-methods. It receives the
// [State] of the current dispatch and returns an error if execution fails.
type ExecFunc func(ctx context.Context, s *State) error

// Command is the contract implemented by stateful handlers, either written in Go and provided to
// the engine with [Engine.Provide], or backed by a descriptor file (see [ScriptCommand]).
//
// Embed [BaseCommand] to get no-op hooks, no alias, no sub-methods and the default description,
// then implement Main.
type Command interface {
	// Alias is an optional secondary directive. Empty means none.
	Alias() string
	// Description is shown next to the directives in the help listing.
	Description() string
	// Main is the default entry point, run when no sub-method was selected.
	Main(ctx context.Context, s *State) error
	// Methods returns the named sub-methods, selected with directive:method.
	Methods() map[string]ExecFunc

	OnBefore(ctx context.Context, s *State) error
	OnAfter(ctx context.Context, s *State) error
	OnError(ctx context.Context, s *State) error
}

// BaseCommand provides the defaults of the [Command] contract. It does not implement Main.
type BaseCommand struct{}

func (BaseCommand) Alias() string                                { return "" }
func (BaseCommand) Description() string                          { return DefaultDescription }
func (BaseCommand) Methods() map[string]ExecFunc                 { return nil }
func (BaseCommand) OnBefore(ctx context.Context, s *State) error { return nil }
func (BaseCommand) OnAfter(ctx context.Context, s *State) error  { return nil }
func (BaseCommand) OnError(ctx context.Context, s *State) error  { return nil }

// dispatch drives one invocation of cmd. OnBefore always runs first, then exactly one branch:
//
//   - a known sub-method runs, followed by OnAfter;
//   - an unknown sub-method runs OnError and fails with ErrUnknownSubMethod;
//   - without a sub-method, Main runs, followed by OnAfter.
//
// A failing step stops the invocation; OnAfter does not run after a failed Main or sub-method.
func dispatch(ctx context.Context, cmd Command, s *State) error {
	if err := cmd.OnBefore(ctx, s); err != nil {
		return fmt.Errorf("before hook: %w", err)
	}
	run := cmd.Main
	if s.Method != "" {
		fn := lookupMethod(cmd.Methods(), s.Method)
		if fn == nil {
			unknown := formatUnknownMethodError(cmd, s.Method)
			if err := cmd.OnError(ctx, s); err != nil {
				return errors.Join(unknown, fmt.Errorf("error hook: %w", err))
			}
			return unknown
		}
		run = fn
	}
	if err := run(ctx, s); err != nil {
		return err
	}
	if err := cmd.OnAfter(ctx, s); err != nil {
		return fmt.Errorf("after hook: %w", err)
	}
	return nil
}

// lookupMethod finds the sub-method called name. Names are compared without regard to case since
// directive tokens are lowercased; an exact match wins over a folded one.
func lookupMethod(methods map[string]ExecFunc, name string) ExecFunc {
	if fn, ok := methods[name]; ok {
		return fn
	}
	for key, fn := range methods {
		if strings.EqualFold(key, name) {
			return fn
		}
	}
	return nil
}

func formatUnknownMethodError(cmd Command, method string) error {
	known := methodNames(cmd)
	if len(known) == 0 {
		return Errorf(ErrUnknownSubMethod, "unknown sub-method %q", method)
	}
	return Errorf(ErrUnknownSubMethod, "unknown sub-method %q, available: %v", method, known)
}

func methodNames(cmd Command) []string {
	var names []string
	for name := range cmd.Methods() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
