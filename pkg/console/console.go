// Package console writes coloured status messages to a terminal. Colours are only emitted when the
// destination writer is a terminal that supports them.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Kind selects the colour of a message.
type Kind int

const (
	Log Kind = iota
	Success
	Warn
	Error
	Info
)

var colors = map[Kind]lipgloss.Color{
	Success: lipgloss.Color("2"),
	Warn:    lipgloss.Color("3"),
	Error:   lipgloss.Color("1"),
	Info:    lipgloss.Color("4"),
}

// Console renders messages for one writer.
type Console struct {
	w      io.Writer
	styles map[Kind]lipgloss.Style
}

// New returns a console writing to w.
func New(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	styles := make(map[Kind]lipgloss.Style, len(colors)+1)
	styles[Log] = r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	for kind, color := range colors {
		styles[kind] = r.NewStyle().TabWidth(lipgloss.NoTabConversion).Foreground(color)
	}
	return &Console{w: w, styles: styles}
}

// Render returns msg styled as kind without writing it. Lines are styled one at a time so tabs and
// line lengths are preserved.
func (c *Console) Render(kind Kind, msg string) string {
	if msg == "" {
		return ""
	}
	style := c.styles[kind]
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// Print writes msg styled as kind, without a line break.
func (c *Console) Print(kind Kind, msg string) {
	fmt.Fprint(c.w, c.Render(kind, msg))
}

// Println writes msg styled as kind followed by a line break.
func (c *Console) Println(kind Kind, msg string) {
	fmt.Fprintln(c.w, c.Render(kind, msg))
}

func (c *Console) Log(msg string)     { c.Println(Log, msg) }
func (c *Console) Success(msg string) { c.Println(Success, msg) }
func (c *Console) Warn(msg string)    { c.Println(Warn, msg) }
func (c *Console) Error(msg string)   { c.Println(Error, msg) }
func (c *Console) Info(msg string)    { c.Println(Info, msg) }

// LineBreak writes an empty line.
func (c *Console) LineBreak() {
	fmt.Fprintln(c.w)
}
