package atmos

import (
	"regexp"
	"strings"
)

var (
	// lowerUpper splits "fooBar" and "foo2Bar".
	lowerUpper = regexp.MustCompile(`([a-z\d])([A-Z])`)
	// acronymWord splits "HTTPServer" before the last capital of the acronym.
	acronymWord = regexp.MustCompile(`([^-])([A-Z][a-z])`)
)

// Keyword derives the directive keyword of a handler from its type name by splitting on case
// boundaries and lowercasing: "FooBarBaz" is "foo-bar-baz", "HTTPServer" is "http-server" and
// "XMLHttpRequest" is "xml-http-request". It is pure and defined for every input.
func Keyword(typeName string) string {
	s := lowerUpper.ReplaceAllString(typeName, "${1}-${2}")
	s = acronymWord.ReplaceAllString(s, "${1}-${2}")
	return strings.ToLower(s)
}
