package atmos

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the engine configuration. It is usually loaded from an atmos.yaml or atmos.toml file
// next to the scripts, see [FindConfig] and [LoadConfig].
type Config struct {
	// Directory is scanned for handler descriptors and receives scaffolded ones.
	Directory string `yaml:"directory" toml:"directory"`
	// Namespace qualifies discovered type names when looking up provided factories:
	// "<namespace>.<TypeName>".
	Namespace string `yaml:"namespace" toml:"namespace"`
	// Shell runs the lines of script handlers.
	Shell string `yaml:"shell" toml:"shell"`
	// LogLevel is any level accepted by logrus.ParseLevel.
	LogLevel string `yaml:"log_level" toml:"log_level"`
	// Ignore holds doublestar patterns matched against descriptor file names.
	Ignore []string `yaml:"ignore" toml:"ignore"`

	Serve ServeConfig `yaml:"serve" toml:"serve"`
}

// ServeConfig holds the defaults of the serve built-in.
type ServeConfig struct {
	Port int    `yaml:"port" toml:"port"`
	Root string `yaml:"root" toml:"root"`
}

const (
	DefaultDirectory = "console"
	DefaultNamespace = "console"
	DefaultPort      = 8080
)

// ConfigFileNames are the file names [FindConfig] looks for, in order.
var ConfigFileNames = []string{"atmos.yaml", "atmos.yml", "atmos.toml"}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		Directory: DefaultDirectory,
		Namespace: DefaultNamespace,
		Shell:     "sh",
		LogLevel:  "warn",
		Ignore:    []string{"_*", ".*"},
		Serve: ServeConfig{
			Port: DefaultPort,
			Root: ".",
		},
	}
}

// FindConfig returns the first of [ConfigFileNames] present in dir.
func FindConfig(dir string) (string, bool) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// LoadConfig reads the file at path over [DefaultConfig]. The format is chosen by extension: .yaml
// and .yml are YAML, .toml is TOML. A relative directory is resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := decodeFile(path, content, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Directory != "" && !filepath.IsAbs(cfg.Directory) {
		cfg.Directory = filepath.Join(filepath.Dir(path), cfg.Directory)
	}
	return cfg, nil
}

var errUnsupportedFormat = errors.New("unsupported file format")

// decodeFile decodes YAML or TOML content into v depending on the extension of path.
func decodeFile(path string, content []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(content, v)
	case ".toml":
		return toml.Unmarshal(content, v)
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFormat, filepath.Ext(path))
	}
}

// Keys returns the keys understood by [Config.Lookup].
func (c Config) Keys() []string {
	return []string{"directory", "namespace", "shell", "log_level", "ignore", "serve.port", "serve.root"}
}

// Lookup returns the value of key rendered as a string. Unknown keys report false.
func (c Config) Lookup(key string) (string, bool) {
	switch key {
	case "directory":
		return c.Directory, true
	case "namespace":
		return c.Namespace, true
	case "shell":
		return c.Shell, true
	case "log_level":
		return c.LogLevel, true
	case "ignore":
		return strings.Join(c.Ignore, ", "), true
	case "serve.port":
		return strconv.Itoa(c.Serve.Port), true
	case "serve.root":
		return c.Serve.Root, true
	}
	return "", false
}
