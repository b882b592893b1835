package atmos

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoscli/atmos/pkg/devserver"
)

type testEngine struct {
	*Engine
	stdout, stderr *bytes.Buffer
	served         []devserver.Options
}

// newTestEngine builds an engine over dir with captured streams. args exclude the program name.
func newTestEngine(t *testing.T, dir string, args ...string) *testEngine {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := DefaultConfig()
	cfg.Directory = dir
	te := &testEngine{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	te.Engine = New(cfg, &RunOptions{
		Stdout: te.stdout,
		Stderr: te.stderr,
		Logger: logger,
		Serve: func(ctx context.Context, opts devserver.Options) error {
			te.served = append(te.served, opts)
			return nil
		},
	})
	te.Init(append([]string{"/usr/local/bin/atmos"}, args...))
	return te
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	got, ok := CodeOf(err)
	require.True(t, ok, "expected an *Error, got %v", err)
	require.Equal(t, code, got)
}

func TestEngineBuiltins(t *testing.T) {
	t.Parallel()

	t.Run("version", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, t.TempDir(), "-v")
		require.NoError(t, e.Execute(context.Background()))
		require.Equal(t, "current release v1.0.0\n", e.stdout.String())
		status, ended := e.Status()
		require.True(t, ended)
		require.Equal(t, 0, status)
	})
	t.Run("directive is lowercased", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, t.TempDir(), "--VERSION")
		require.NoError(t, e.Execute(context.Background()))
		require.Contains(t, e.stdout.String(), "v1.0.0")
	})
	t.Run("clear", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, t.TempDir(), "--clear")
		require.NoError(t, e.Execute(context.Background()))
		require.Equal(t, "\033[2J\033[;H", e.stdout.String())
	})
	t.Run("help", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"CleanCache.yaml": "alias: cc\ndescription: Clean the cache.\n"})
		e := newTestEngine(t, dir, "-h")
		require.NoError(t, e.Execute(context.Background()))
		out := e.stdout.String()
		require.True(t, strings.HasPrefix(out, "ATMOS CLI v1.0.0\n"))
		require.Contains(t, out, "Usage:\n    atmos [directive][:method] [param1] [param2] ...\n")
		require.Contains(t, out, "Options:\n    -v, --version")
		require.Contains(t, out, "    clean-cache, cc"+strings.Repeat(" ", 17)+"- Clean the cache.\n")
		// Built-ins come first, in registration order.
		assert.Less(t, strings.Index(out, "--version"), strings.Index(out, "--clear"))
		assert.Less(t, strings.Index(out, "--serve"), strings.Index(out, "clean-cache"))
	})
	t.Run("config", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		e := newTestEngine(t, dir, "-c", "directory")
		require.NoError(t, e.Execute(context.Background()))
		require.Equal(t, "Directory: "+dir+"\n", e.stdout.String())

		e = newTestEngine(t, dir, "--config", "nope")
		err := e.Execute(context.Background())
		requireCode(t, err, ErrUnknownConfigKey)
		require.Contains(t, e.stderr.String(), `undefined configuration key "nope"`)
		require.Equal(t, 1, ExitCode(err))

		e = newTestEngine(t, dir, "--config")
		requireCode(t, e.Execute(context.Background()), ErrInvalidArgument)
	})
	t.Run("serve", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, t.TempDir(), "-s", "9000", "-no-reload")
		require.NoError(t, e.Execute(context.Background()))
		require.Len(t, e.served, 1)
		assert.Equal(t, ":9000", e.served[0].Addr)
		assert.Equal(t, ".", e.served[0].Root)
		assert.False(t, e.served[0].Reload)
		assert.Contains(t, e.stdout.String(), "http://localhost:9000")

		e = newTestEngine(t, t.TempDir(), "--serve")
		require.NoError(t, e.Execute(context.Background()))
		require.Len(t, e.served, 1)
		assert.Equal(t, ":8080", e.served[0].Addr)
		assert.True(t, e.served[0].Reload)

		e = newTestEngine(t, t.TempDir(), "--serve", "port")
		err := e.Execute(context.Background())
		requireCode(t, err, ErrInvalidArgument)
		require.Empty(t, e.served)
		require.Equal(t, 2, ExitCode(err))
	})
}

func TestEngineMake(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e := newTestEngine(t, dir, "-m", "report")
	require.NoError(t, e.Execute(context.Background()))
	path := filepath.Join(dir, "Report.yaml")
	require.Contains(t, e.stdout.String(), "New handler file was successfully created: "+path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	e = newTestEngine(t, dir, "--make", "Report")
	err = e.Execute(context.Background())
	requireCode(t, err, ErrScaffoldAlreadyExists)
	after, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Equal(t, content, after)
	require.Contains(t, e.stderr.String(), "handler file already exists")

	e = newTestEngine(t, dir, "-m", "bad_name")
	requireCode(t, e.Execute(context.Background()), ErrInvalidScaffoldName)

	e = newTestEngine(t, dir, "-m")
	requireCode(t, e.Execute(context.Background()), ErrInvalidArgument)

	// The scaffolded handler is discovered on the next run and does nothing yet.
	e = newTestEngine(t, dir, "report")
	require.NoError(t, e.Execute(context.Background()))
	require.Empty(t, e.stdout.String())
	require.Empty(t, e.stderr.String())
}

func TestEngineNoMatch(t *testing.T) {
	t.Parallel()

	t.Run("unknown directive", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, t.TempDir(), "frobnicate")
		err := e.Execute(context.Background())
		requireCode(t, err, ErrNoMatchingDirective)
		require.Equal(t, 1, strings.Count(e.stderr.String(), "unknown directive"))
		require.Contains(t, e.stderr.String(), `unknown directive "frobnicate", run "atmos --help" for usage`)
		require.Equal(t, 2, ExitCode(err))
		status, ended := e.Status()
		require.True(t, ended)
		require.Equal(t, 2, status)
	})
	t.Run("suggestion", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, t.TempDir(), "--versoin")
		err := e.Execute(context.Background())
		requireCode(t, err, ErrNoMatchingDirective)
		require.Contains(t, e.stderr.String(), "Did you mean one of these?")
		require.Contains(t, e.stderr.String(), "\t--version")
	})
	t.Run("colliding directives are suggested once", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"Version.yaml": "alias: --version\n"})
		e := newTestEngine(t, dir, "--versio")
		requireCode(t, e.Execute(context.Background()), ErrNoMatchingDirective)
		require.Equal(t, 1, strings.Count(e.stderr.String(), "\t--version\n"))
	})
	t.Run("empty arguments", func(t *testing.T) {
		t.Parallel()
		// No discovery happens, so a missing directory is not reported.
		e := newTestEngine(t, filepath.Join(t.TempDir(), "missing"))
		err := e.Execute(context.Background())
		requireCode(t, err, ErrNoMatchingDirective)
		require.Equal(t, 0, e.Registry().Len())
		require.Equal(t, 2, ExitCode(err))
	})
}

func TestEngineDirectoryMissing(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, filepath.Join(t.TempDir(), "missing"), "-v")
	err := e.Execute(context.Background())
	requireCode(t, err, ErrDirectoryMissing)
	require.Empty(t, e.stdout.String())
	require.Contains(t, e.stderr.String(), "is missing")
	require.Equal(t, 1, ExitCode(err))
	// Built-ins were registered before discovery failed, nothing was matched.
	require.Equal(t, 6, e.Registry().Len())
	require.Nil(t, e.Registry().Current())
}

func TestEngineRunsOnce(t *testing.T) {
	t.Parallel()

	var count int
	e := newTestEngine(t, t.TempDir(), "count")
	e.Register(MustOption("count", []string{"count"}, "", Func(func(ctx context.Context, s *State) error {
		count++
		return nil
	})))
	require.NoError(t, e.Execute(context.Background()))
	registered := e.Registry().Len()
	require.NoError(t, e.Execute(context.Background()))
	require.NoError(t, e.Execute(context.Background()))
	require.Equal(t, 1, count)
	require.Equal(t, registered, e.Registry().Len())
	require.True(t, e.running)
	require.True(t, e.ended)

	// Every path out of the pass, failures included, marks it running and ended.
	for _, args := range [][]string{nil, {"frobnicate"}, {"-c", "nope"}} {
		failed := newTestEngine(t, t.TempDir(), args...)
		require.Error(t, failed.Execute(context.Background()))
		require.True(t, failed.running)
		require.True(t, failed.ended)
	}
}

func TestEngineInitOnce(t *testing.T) {
	t.Parallel()

	e := New(DefaultConfig(), &RunOptions{Stdout: io.Discard, Stderr: io.Discard})
	require.Same(t, e, e.Init([]string{"atmos", "first", "x"}))
	require.Same(t, e, e.Init([]string{"other", "second"}))
	require.Equal(t, []string{"first", "x"}, e.Args())

	empty := New(DefaultConfig(), &RunOptions{Stdout: io.Discard, Stderr: io.Discard}).Init(nil)
	require.Empty(t, empty.Args())
}

func TestEnginePrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Report.yaml": "alias: -v\nmain: echo discovered\n",
	})
	var ran []string
	e := newTestEngine(t, dir, "report")
	e.Register(MustOption("report", []string{"report", "-h"}, "", Func(func(ctx context.Context, s *State) error {
		ran = append(ran, "embedder")
		return nil
	})))
	require.NoError(t, e.Execute(context.Background()))
	require.Equal(t, []string{"embedder"}, ran)
	require.Empty(t, e.stdout.String())

	// A discovered alias never shadows a built-in.
	e = newTestEngine(t, dir, "-v")
	require.NoError(t, e.Execute(context.Background()))
	require.Equal(t, "current release v1.0.0\n", e.stdout.String())
}

func TestEngineSubMethods(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Mytool.yaml": ""})
	run := func(t *testing.T, token string) (*recorder, error) {
		rec := &recorder{}
		e := newTestEngine(t, dir, token, "arg")
		e.Provide("console.Mytool", func(args []string) Command { return rec })
		return rec, e.Execute(context.Background())
	}

	t.Run("known", func(t *testing.T) {
		t.Parallel()
		rec, err := run(t, "mytool:cleanup")
		require.NoError(t, err)
		require.Equal(t, []string{"before", "cleanup:arg", "after"}, rec.calls)
	})
	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		rec, err := run(t, "mytool:frob")
		requireCode(t, err, ErrUnknownSubMethod)
		require.Equal(t, []string{"before", "error"}, rec.calls)
	})
	t.Run("main", func(t *testing.T) {
		t.Parallel()
		rec, err := run(t, "MyTool")
		require.NoError(t, err)
		require.Equal(t, []string{"before", "main", "after"}, rec.calls)
	})
}

func TestEngineScriptHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Greet.toml": "alias = \"hi\"\nmain = 'echo \"hello, $1\"'\n\n[methods]\nfail = 'echo oops >&2; exit 3'\n",
	})

	e := newTestEngine(t, dir, "hi", "Ada")
	require.NoError(t, e.Execute(context.Background()))
	require.Equal(t, "hello, Ada\n", e.stdout.String())

	e = newTestEngine(t, dir, "greet:fail")
	err := e.Execute(context.Background())
	require.Error(t, err)
	require.Equal(t, 3, ExitCode(err))
	require.Contains(t, e.stderr.String(), "oops")
	require.Contains(t, e.stderr.String(), "Greet fail: exit status 3")
	status, _ := e.Status()
	require.Equal(t, 3, status)
}

func TestEngineConfigLookup(t *testing.T) {
	t.Parallel()

	e := New(DefaultConfig(), &RunOptions{Stdout: io.Discard, Stderr: io.Discard})
	v, err := e.Config("namespace")
	require.NoError(t, err)
	require.Equal(t, DefaultNamespace, v)
	_, err = e.Config("missing")
	requireCode(t, err, ErrUnknownConfigKey)
	require.Equal(t, Version, e.Version())
}

func TestEngineMixedCaseDescriptor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Report.yaml": "alias: Rep\nmethods:\n  cleanUp: echo cleaned \"$1\"\n",
	})

	e := newTestEngine(t, dir, "report:cleanUp", "tmp")
	require.NoError(t, e.Execute(context.Background()))
	require.Equal(t, "cleaned tmp\n", e.stdout.String())

	e = newTestEngine(t, dir, "Rep:CLEANUP", "logs")
	require.NoError(t, e.Execute(context.Background()))
	require.Equal(t, "cleaned logs\n", e.stdout.String())
}
