package atmos

import (
	"flag"
	"io"
	"strconv"
	"strings"

	"github.com/mfridman/xflag"
)

// ParseDirective lowercases token and splits it on the first ':' into the directive and the
// optional sub-method.
//
//	ParseDirective("MyTool:Cleanup") // "mytool", "cleanup"
func ParseDirective(token string) (directive, method string) {
	directive, method, _ = strings.Cut(strings.ToLower(token), ":")
	return directive, method
}

// serveArgs are the parsed arguments of the serve built-in.
type serveArgs struct {
	port   int
	root   string
	reload bool
}

// parseServeArgs parses "[port] [-root dir] [-no-reload]". Flags may appear before or after the
// port.
func parseServeArgs(args []string, cfg ServeConfig) (serveArgs, error) {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	root := fset.String("root", cfg.Root, "directory to serve")
	noReload := fset.Bool("no-reload", false, "disable live reload")
	if err := xflag.ParseToEnd(fset, args); err != nil {
		return serveArgs{}, Errorf(ErrInvalidArgument, "serve: %v", err)
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	switch rest := fset.Args(); len(rest) {
	case 0:
	case 1:
		p, err := strconv.Atoi(rest[0])
		if err != nil || p < 1 || p > 65535 {
			return serveArgs{}, Errorf(ErrInvalidArgument, "serve: invalid port %q", rest[0])
		}
		port = p
	default:
		return serveArgs{}, Errorf(ErrInvalidArgument, "serve: unexpected arguments %q", rest[1:])
	}
	if *root == "" {
		*root = "."
	}
	return serveArgs{port: port, root: *root, reload: !*noReload}, nil
}
