// Package textutil formats text for terminal listings.
package textutil

import "strings"

// Wrap splits text into lines of at most width bytes, breaking on whitespace. Runs of whitespace
// collapse to one space. A word longer than width is kept whole on a line of its own. A width of
// zero or less disables wrapping.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var (
		lines []string
		line  strings.Builder
	)
	for _, word := range words {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	return append(lines, line.String())
}
