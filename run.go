package atmos

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atmoscli/atmos/pkg/console"
	"github.com/atmoscli/atmos/pkg/devserver"
	"github.com/atmoscli/atmos/pkg/suggest"
)

// Version is the engine version reported by the version built-in.
const Version = "1.0.0"

// RunOptions specifies options for running the engine.
type RunOptions struct {
	// Stdin, Stdout, and Stderr are the standard input, output, and error streams for the engine
	// and the handlers it runs. If any of these are nil, the default streams ([os.Stdin],
	// [os.Stdout], and [os.Stderr], respectively) are used.
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	// Logger receives diagnostics. When nil, a logger writing to Stderr at the configured level is
	// created.
	Logger *logrus.Logger

	// Serve runs the development server for the serve built-in. Defaults to [devserver.Run].
	Serve func(ctx context.Context, opts devserver.Options) error
}

// Engine parses the leading directive of an argument vector, registers the built-in options,
// discovers handlers and runs the matching one. Build it once at the entry point with [New] and
// [Engine.Init], then call [Engine.Execute].
//
// An Engine runs at most once: executed, running and ended form a run-once, terminate-once state
// machine.
type Engine struct {
	version string
	program string
	config  Config
	args    []string

	registry  *Registry
	extra     []*Option
	factories map[string]Factory

	stdin          io.Reader
	stdout, stderr io.Writer
	out, errOut    *console.Console
	logger         *logrus.Logger
	serve          func(ctx context.Context, opts devserver.Options) error

	initialized bool
	executed    bool
	running     bool
	ended       bool
	status      int
}

// New creates an engine for cfg. The options parameter may be nil, in which case default values are
// used. See [RunOptions] for more details.
func New(cfg Config, options *RunOptions) *Engine {
	options = checkAndSetRunOptions(options)
	logger := options.Logger
	if logger == nil {
		logger = newLogger(cfg.LogLevel, options.Stderr)
	}
	serve := options.Serve
	if serve == nil {
		serve = func(ctx context.Context, opts devserver.Options) error {
			return devserver.Run(ctx, opts, nil)
		}
	}
	return &Engine{
		version:   Version,
		program:   "atmos",
		config:    cfg,
		registry:  NewRegistry(),
		factories: make(map[string]Factory),
		stdin:     options.Stdin,
		stdout:    options.Stdout,
		stderr:    options.Stderr,
		out:       console.New(options.Stdout),
		errOut:    console.New(options.Stderr),
		logger:    logger,
		serve:     serve,
	}
}

func newLogger(level string, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if level == "" {
		return logger
	}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("invalid log level %s, defaulting to warn", level)
	}
	return logger
}

func checkAndSetRunOptions(opt *RunOptions) *RunOptions {
	if opt == nil {
		opt = &RunOptions{}
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	return opt
}

// Init stores the raw argument vector, dropping the program name in argv[0]. Only the first call
// has an effect; later calls return the engine unchanged.
func (e *Engine) Init(argv []string) *Engine {
	if e.initialized {
		return e
	}
	e.initialized = true
	if len(argv) > 0 {
		if name := filepath.Base(argv[0]); name != "." && name != string(filepath.Separator) {
			e.program = name
		}
		e.args = slices.Clone(argv[1:])
	}
	return e
}

// Args returns the argument vector without the program name.
func (e *Engine) Args() []string {
	return slices.Clone(e.args)
}

// Version returns the engine version.
func (e *Engine) Version() string {
	return e.version
}

// Registry returns the registry the engine matches against.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Config returns the configuration value for key, or an ErrUnknownConfigKey error.
func (e *Engine) Config(key string) (string, error) {
	if v, ok := e.config.Lookup(key); ok {
		return v, nil
	}
	return "", Errorf(ErrUnknownConfigKey, "undefined configuration key %q, available: %s",
		key, strings.Join(e.config.Keys(), ", "))
}

// Provide makes a Go-written command available to discovery under the qualified type name
// "<namespace>.<TypeName>". A descriptor file named <TypeName> then instantiates it instead of
// running shell lines.
func (e *Engine) Provide(qualifiedType string, f Factory) *Engine {
	e.factories[qualifiedType] = f
	return e
}

// Register adds an option of the embedding program. Such options are registered after the
// built-ins and before discovered handlers.
func (e *Engine) Register(opt *Option) *Engine {
	if opt == nil {
		panic("atmos: register of nil option")
	}
	e.extra = append(e.extra, opt)
	return e
}

// Status returns the exit status of the pass and whether the pass has ended.
func (e *Engine) Status() (int, bool) {
	return e.status, e.ended
}

// Execute runs the pass: parse the directive, register the built-ins, the embedder options and the
// discovered handlers, match and execute. Only the first call does any work. Failures are reported
// on Stderr once and returned so the entry point can pick the exit status with [ExitCode].
func (e *Engine) Execute(ctx context.Context) error {
	if e.executed {
		return nil
	}
	e.executed = true
	return e.runtime(ctx)
}

func (e *Engine) runtime(ctx context.Context) error {
	if !e.executed || e.running {
		return nil
	}
	log := e.logger.WithField("run", uuid.NewString())

	if len(e.args) == 0 {
		return e.terminate(log, Errorf(ErrNoMatchingDirective,
			"no directive given, run %q for usage", e.program+" --help"))
	}
	directive, method := ParseDirective(e.args[0])
	args := slices.Clone(e.args[1:])
	log = log.WithField("directive", directive)

	e.registerBuiltins()
	for _, opt := range e.extra {
		e.registry.Register(opt)
	}
	discovered, err := Discover(e.config.Directory, args, DiscoverOptions{
		Namespace: e.config.Namespace,
		Factories: e.factories,
		Shell:     e.config.Shell,
		Ignore:    e.config.Ignore,
		Logger:    log,
	})
	if err != nil {
		return e.terminate(log, err)
	}
	for _, opt := range discovered {
		e.registry.Register(opt)
	}
	log.WithField("options", e.registry.Len()).Debug("registry ready")

	if !e.registry.Match(directive) {
		return e.terminate(log, e.formatUnknownDirectiveError(directive))
	}
	opt := e.registry.Current()
	log.WithFields(logrus.Fields{"option": opt.ID(), "method": method}).Debug("executing option")
	s := &State{
		Args:   args,
		Method: method,
		Stdin:  e.stdin,
		Stdout: e.stdout,
		Stderr: e.stderr,
		Config: e.config,
		Logger: log,
	}
	return e.terminate(log, opt.Execute(ctx, s))
}

func (e *Engine) formatUnknownDirectiveError(directive string) error {
	suggestions := suggest.FindSimilar(directive, e.registry.Directives(), 3)
	if len(suggestions) > 0 {
		return Errorf(ErrNoMatchingDirective, "unknown directive %q. Did you mean one of these?\n\t%s",
			directive, strings.Join(suggestions, "\n\t"))
	}
	return Errorf(ErrNoMatchingDirective, "unknown directive %q, run %q for usage", directive, e.program+" --help")
}

// terminate reports err, marks the pass as running and ends it.
func (e *Engine) terminate(log *logrus.Entry, err error) error {
	if err != nil {
		e.errOut.Error(err.Error())
		if code, ok := CodeOf(err); ok {
			log = log.WithField("code", code.String())
		}
		log.WithError(err).Debug("pass failed")
	}
	e.running = true
	e.end(err)
	return err
}

// end records the exit status exactly once.
func (e *Engine) end(err error) {
	if e.running && !e.ended {
		e.ended = true
		e.status = ExitCode(err)
	}
}
