package atmos

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Descriptor is the content of a handler descriptor file. The type name of the handler is the file
// name without its extension.
type Descriptor struct {
	// Type optionally names the provided factory to instantiate, overriding
	// "<namespace>.<TypeName>".
	Type        string `yaml:"type" toml:"type"`
	Alias       string `yaml:"alias" toml:"alias"`
	Description string `yaml:"description" toml:"description"`
	// Main is the shell line of the default entry point.
	Main string `yaml:"main" toml:"main"`
	// Methods maps sub-method names to shell lines.
	Methods map[string]string `yaml:"methods" toml:"methods"`
	Hooks   Hooks             `yaml:"hooks" toml:"hooks"`
}

// Hooks are the lifecycle shell lines of a descriptor.
type Hooks struct {
	Before string `yaml:"before" toml:"before"`
	After  string `yaml:"after" toml:"after"`
	Error  string `yaml:"error" toml:"error"`
}

// ScriptCommand is a [Command] backed by a [Descriptor]: each entry point is a shell line run with
// the handler arguments as positional parameters.
type ScriptCommand struct {
	typeName string
	shell    string
	desc     Descriptor
	args     []string
}

var _ Command = (*ScriptCommand)(nil)

// NewScriptCommand builds the command for descriptor d of the given type. args are the arguments
// that followed the directive when the command was discovered.
func NewScriptCommand(typeName string, d Descriptor, shell string, args []string) *ScriptCommand {
	if shell == "" {
		shell = "sh"
	}
	return &ScriptCommand{typeName: typeName, shell: shell, desc: d, args: args}
}

func (c *ScriptCommand) TypeName() string { return c.typeName }
func (c *ScriptCommand) Alias() string    { return c.desc.Alias }

func (c *ScriptCommand) Description() string {
	if c.desc.Description == "" {
		return DefaultDescription
	}
	return c.desc.Description
}

func (c *ScriptCommand) Main(ctx context.Context, s *State) error {
	return c.run(ctx, s, "main", c.desc.Main)
}

func (c *ScriptCommand) Methods() map[string]ExecFunc {
	if len(c.desc.Methods) == 0 {
		return nil
	}
	methods := make(map[string]ExecFunc, len(c.desc.Methods))
	for name, line := range c.desc.Methods {
		name, line := name, line
		methods[name] = func(ctx context.Context, s *State) error {
			return c.run(ctx, s, name, line)
		}
	}
	return methods
}

func (c *ScriptCommand) OnBefore(ctx context.Context, s *State) error {
	return c.run(ctx, s, "before", c.desc.Hooks.Before)
}

func (c *ScriptCommand) OnAfter(ctx context.Context, s *State) error {
	return c.run(ctx, s, "after", c.desc.Hooks.After)
}

func (c *ScriptCommand) OnError(ctx context.Context, s *State) error {
	return c.run(ctx, s, "error", c.desc.Hooks.Error)
}

// ScriptError reports a shell line that did not succeed.
type ScriptError struct {
	Type  string
	Entry string
	Code  int
	Err   error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s %s: exit status %d", e.Type, e.Entry, e.Code)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// ExitCode implements [ExitCoder].
func (e *ScriptError) ExitCode() int { return e.Code }

func (c *ScriptCommand) run(ctx context.Context, s *State, entry, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	args := s.Args
	if args == nil {
		args = c.args
	}
	// sh -c line name args...: the name becomes $0 and args become $1..$n.
	cmd := exec.CommandContext(ctx, c.shell, append([]string{"-c", line, c.typeName}, args...)...)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	s.logger().WithFields(logrus.Fields{"type": c.typeName, "entry": entry}).Debug("running script line")
	err := cmd.Run()
	if err == nil {
		return nil
	}
	code := 1
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() > 0 {
		code = ee.ExitCode()
	}
	return &ScriptError{Type: c.typeName, Entry: entry, Code: code, Err: err}
}
