package atmos

import (
	"fmt"
	"io"
	"strings"

	"github.com/atmoscli/atmos/pkg/console"
	"github.com/atmoscli/atmos/pkg/textutil"
)

const (
	// directiveColumn is the minimum width of the directive column, indent included.
	directiveColumn = 36
	listIndent      = "    "
	listSeparator   = "- "
	terminalWidth   = 80
)

// usageRow is the layout of one option in the help listing.
type usageRow struct {
	directives string
	pad        string
	body       []string
}

func (r *Registry) rows() []usageRow {
	rows := make([]usageRow, 0, len(r.options))
	for _, opt := range r.options {
		row := usageRow{directives: strings.Join(opt.directives, ", ")}
		if n := directiveColumn - len(listIndent) - len(row.directives); n > 0 {
			row.pad = strings.Repeat(" ", n)
		}
		column := len(listIndent) + len(row.directives) + len(row.pad) + len(listSeparator)
		row.body = textutil.Wrap(opt.description, max(terminalWidth-column, 20))
		rows = append(rows, row)
	}
	return rows
}

// Lines renders every registered option as a two-column line: the joined directive aliases padded to
// a fixed minimum width, then the description. Long descriptions wrap onto continuation lines
// aligned with the description column.
func (r *Registry) Lines() []string {
	var lines []string
	for _, row := range r.rows() {
		lines = append(lines, row.lines(row.directives)...)
	}
	return lines
}

// ListAll writes [Registry.Lines] to w, one per line, with the directives in the success colour.
func (r *Registry) ListAll(w io.Writer) {
	out := console.New(w)
	for _, row := range r.rows() {
		for _, line := range row.lines(out.Render(console.Success, row.directives)) {
			fmt.Fprintln(w, line)
		}
	}
}

// lines lays the row out with directives standing for the possibly styled directive text.
func (row usageRow) lines(directives string) []string {
	head := listIndent + directives + row.pad + listSeparator
	if len(row.body) == 0 {
		return []string{strings.TrimRight(head, " ")}
	}
	lines := []string{head + row.body[0]}
	indent := strings.Repeat(" ", len(listIndent)+len(row.directives)+len(row.pad)+len(listSeparator))
	for _, line := range row.body[1:] {
		lines = append(lines, indent+line)
	}
	return lines
}
