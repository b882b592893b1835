package atmos

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
)

// Factory instantiates a Go-written [Command] for a discovered descriptor. args are the arguments
// that followed the directive.
type Factory func(args []string) Command

// DiscoverOptions tunes [Discover].
type DiscoverOptions struct {
	// Namespace qualifies type names when looking up Factories.
	Namespace string
	// Factories maps qualified type names ("<namespace>.<TypeName>") to constructors. Descriptors
	// without a factory become [ScriptCommand] values.
	Factories map[string]Factory
	// Shell runs script command lines.
	Shell string
	// Ignore holds doublestar patterns matched against file names.
	Ignore []string
	// Logger receives skipped-file warnings and debug traces. May be nil.
	Logger *logrus.Entry
}

// DescriptorExtensions are the file extensions recognised as handler descriptors.
var DescriptorExtensions = []string{".yaml", ".yml", ".toml"}

var typeNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// Discover lists the descriptor files directly inside dir and returns one option per handler, in
// file name order. The keyword of each handler is derived from its type name with [Keyword]; its
// alias, when set, is a second directive.
//
// A missing dir fails with ErrDirectoryMissing, an unreadable one with ErrDirectoryUnreadable.
// Individual files that cannot be used are skipped with a warning.
func Discover(dir string, args []string, opts DiscoverOptions) ([]*Option, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Errorf(ErrDirectoryMissing, "console directory %q is missing", dir)
		}
		return nil, NewError(ErrDirectoryUnreadable, err)
	}
	if !info.IsDir() {
		return nil, Errorf(ErrDirectoryUnreadable, "console directory %q is not a directory", dir)
	}
	// ReadDir returns entries sorted by filename, which fixes collision precedence.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, NewError(ErrDirectoryUnreadable, err)
	}

	var options []*Option
	seen := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isDescriptor(name) || ignored(name, opts.Ignore) {
			continue
		}
		typeName := strings.TrimSuffix(name, filepath.Ext(name))
		fields := logrus.Fields{"file": name, "type": typeName}
		if !typeNamePattern.MatchString(typeName) {
			log.WithFields(fields).Warn("skipping descriptor: file name is not a type name")
			continue
		}
		if first, ok := seen[typeName]; ok {
			log.WithFields(fields).Warnf("skipping descriptor: type already provided by %s", first)
			continue
		}
		seen[typeName] = name

		d, err := readDescriptor(filepath.Join(dir, name))
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("skipping descriptor")
			continue
		}
		opt, err := newDiscoveredOption(typeName, d, args, opts)
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("skipping descriptor")
			continue
		}
		log.WithFields(fields).WithField("directives", opt.directives).Debug("discovered handler")
		options = append(options, opt)
	}
	return options, nil
}

func newDiscoveredOption(typeName string, d Descriptor, args []string, opts DiscoverOptions) (*Option, error) {
	qualified := d.Type
	if qualified == "" {
		qualified = opts.Namespace + "." + typeName
	}
	var cmd Command
	if factory, ok := opts.Factories[qualified]; ok && factory != nil {
		cmd = factory(args)
	} else if d.Type != "" {
		return nil, errors.New("no factory provided for type " + d.Type)
	} else {
		cmd = NewScriptCommand(typeName, d, opts.Shell, args)
	}
	if cmd == nil {
		return nil, errors.New("factory for " + qualified + " returned nil")
	}

	keyword := Keyword(typeName)
	directives := []string{keyword}
	alias := d.Alias
	if alias == "" {
		alias = cmd.Alias()
	}
	// Directive tokens are lowercased before matching.
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias != "" && alias != keyword {
		directives = append(directives, alias)
	}
	description := d.Description
	if description == "" {
		description = cmd.Description()
	}
	return NewOption(keyword, directives, description, Object(cmd))
}

func readDescriptor(path string) (Descriptor, error) {
	var d Descriptor
	content, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	err = decodeFile(path, content, &d)
	return d, err
}

func isDescriptor(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range DescriptorExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func ignored(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if match, _ := doublestar.Match(pattern, name); match {
			return true
		}
	}
	return false
}
