// Package scaffold writes the skeleton of a new handler descriptor.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrInvalidName is returned for names that are not identifiers.
	ErrInvalidName = errors.New("name must start with a letter and contain only letters and digits")
	// ErrExists is returned when a descriptor of the same type is already present.
	ErrExists = errors.New("handler file already exists")
)

// Extension is the extension of generated descriptors.
const Extension = ".yaml"

// existing lists the extensions that make a type name taken.
var existing = []string{".yaml", ".yml", ".toml"}

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

var skeleton = template.Must(template.New("handler").Parse(`# {{.Qualified}} handler.
#
# Run it with "atmos {{.Keyword}} [param...]". Shell lines receive the params as $1..$n.
description: {{.Description}}
# alias: ""
main: ""
# methods:
#   name: echo "atmos {{.Keyword}}:name"
# hooks:
#   before: ""
#   after: ""
#   error: ""
`))

// Request describes the handler to generate.
type Request struct {
	// Dir receives the new file.
	Dir string
	// Name is the requested handler name; its first letter is upper-cased to form the type name.
	Name string
	// Namespace qualifies the type name in the file header.
	Namespace string
	// Keyword is the directive the handler will answer to, shown in the file header.
	Keyword func(typeName string) string
}

// TypeName validates name and returns the type name it produces.
func TypeName(name string) (string, error) {
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return cases.Title(language.Und, cases.NoLower).String(name), nil
}

// Generate creates the descriptor for req and returns its path. It never overwrites: when a
// descriptor of the same type exists under any recognised extension, it fails with ErrExists and
// leaves the directory untouched.
func Generate(req Request) (string, error) {
	typeName, err := TypeName(req.Name)
	if err != nil {
		return "", err
	}
	for _, ext := range existing {
		path := filepath.Join(req.Dir, typeName+ext)
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%w: %s", ErrExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}

	keyword := typeName
	if req.Keyword != nil {
		keyword = req.Keyword(typeName)
	}
	qualified := typeName
	if req.Namespace != "" {
		qualified = req.Namespace + "." + typeName
	}
	var buf bytes.Buffer
	if err := skeleton.Execute(&buf, map[string]string{
		"Qualified":   qualified,
		"Keyword":     keyword,
		"Description": "No available description...",
	}); err != nil {
		return "", err
	}

	path := filepath.Join(req.Dir, typeName+Extension)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return path, fmt.Errorf("%w: %s", ErrExists, path)
		}
		return "", err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
