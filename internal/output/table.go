package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/ansi"
)

// Table outputs aligned tabular data in text format. Cells may arrive
// already styled; widths are measured on printable runes only, so escape
// sequences never skew the alignment.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with headers.
func NewTable(w io.Writer, headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = ansi.PrintableRuneWidth(h)
	}
	return &Table{
		writer:  w,
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) {
			if w := ansi.PrintableRuneWidth(c); w > t.widths[i] {
				t.widths[i] = w
			}
		}
	}
	t.rows = append(t.rows, cols)
}

// Render outputs the table.
func (t *Table) Render() {
	t.printRow(t.headers, true)

	seps := make([]string, len(t.widths))
	for i, w := range t.widths {
		seps[i] = strings.Repeat("-", w)
	}
	t.printRow(seps, false)

	for _, row := range t.rows {
		t.printRow(row, false)
	}
}

func (t *Table) printRow(cols []string, header bool) {
	parts := make([]string, len(t.headers))
	for i := range t.headers {
		cell := ""
		if i < len(cols) {
			cell = cols[i]
		}
		padded := cell + strings.Repeat(" ", t.widths[i]-ansi.PrintableRuneWidth(cell))
		if header {
			padded = Bold(padded)
		}
		parts[i] = padded
	}
	fmt.Fprintln(t.writer, "  "+strings.TrimRight(strings.Join(parts, "  "), " "))
}
