package atmos

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/atmoscli/atmos/pkg/console"
	"github.com/atmoscli/atmos/pkg/devserver"
	"github.com/atmoscli/atmos/pkg/scaffold"
)

// clearScreen erases the terminal and moves the cursor home.
const clearScreen = "\033[2J\033[;H"

// registerBuiltins registers the built-in options. They are always registered before anything
// else so they win every directive collision.
func (e *Engine) registerBuiltins() {
	e.registry.
		Register(MustOption("version", []string{"-v", "--version"},
			"Return the current version of the CLI.", Func(e.versionCmd))).
		Register(MustOption("clear", []string{"-x", "--clear"},
			"Clear the terminal screen.", Func(e.clearCmd))).
		Register(MustOption("help", []string{"-h", "--help"},
			"Return the list of all available options.", Func(e.helpCmd))).
		Register(MustOption("make", []string{"-m", "--make"},
			"Generate a new handler file: --make <name>.", Func(e.makeCmd))).
		Register(MustOption("config", []string{"-c", "--config"},
			"Return a configuration property: --config <key>.", Func(e.configCmd))).
		Register(MustOption("serve", []string{"-s", "--serve"},
			fmt.Sprintf("Start the development server: --serve [port] [-root dir] [-no-reload] (default port %d).", DefaultPort),
			Func(e.serveCmd)))
}

func (e *Engine) versionCmd(ctx context.Context, s *State) error {
	out := console.New(s.Stdout)
	out.Print(console.Log, "current release ")
	out.Println(console.Warn, "v"+e.version)
	return nil
}

func (e *Engine) clearCmd(ctx context.Context, s *State) error {
	_, err := fmt.Fprint(s.Stdout, clearScreen)
	return err
}

func (e *Engine) helpCmd(ctx context.Context, s *State) error {
	out := console.New(s.Stdout)
	out.Print(console.Log, strings.ToUpper(e.program)+" CLI ")
	out.Println(console.Warn, "v"+e.version)
	out.Log("A directive dispatcher for command-line scripts.")
	out.LineBreak()
	out.Warn("Usage:")
	out.Log(fmt.Sprintf("    %s [directive][:method] [param1] [param2] ...", e.program))
	out.LineBreak()
	out.Warn("Options:")
	e.registry.ListAll(s.Stdout)
	out.LineBreak()
	return nil
}

func (e *Engine) makeCmd(ctx context.Context, s *State) error {
	if len(s.Args) == 0 {
		return Errorf(ErrInvalidArgument, "please enter a name to create a new handler file")
	}
	path, err := scaffold.Generate(scaffold.Request{
		Dir:       e.config.Directory,
		Name:      s.Args[0],
		Namespace: e.config.Namespace,
		Keyword:   Keyword,
	})
	switch {
	case errors.Is(err, scaffold.ErrInvalidName):
		return NewError(ErrInvalidScaffoldName, err)
	case errors.Is(err, scaffold.ErrExists):
		return NewError(ErrScaffoldAlreadyExists, err)
	case err != nil:
		return err
	}
	console.New(s.Stdout).Success("New handler file was successfully created: " + path)
	return nil
}

func (e *Engine) configCmd(ctx context.Context, s *State) error {
	if len(s.Args) == 0 {
		return Errorf(ErrInvalidArgument, "missing configuration key")
	}
	key := s.Args[0]
	value, err := e.Config(key)
	if err != nil {
		return err
	}
	out := console.New(s.Stdout)
	out.Print(console.Info, capitalize(key)+":")
	out.Log(" " + value)
	return nil
}

func (e *Engine) serveCmd(ctx context.Context, s *State) error {
	args, err := parseServeArgs(s.Args, e.config.Serve)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort("", strconv.Itoa(args.port))
	console.New(s.Stdout).Info(fmt.Sprintf("Serving %s on http://localhost:%d", args.root, args.port))
	return e.serve(ctx, devserver.Options{
		Addr:   addr,
		Root:   args.root,
		Reload: args.reload,
		Ignore: e.config.Ignore,
		Logger: s.Logger,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
