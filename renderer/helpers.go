package renderer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// table writes a markdown table header with its alignment row.
// Alignments are "l", "c" or "r".
func table(w io.Writer, align string, headers ...string) {
	fmt.Fprintf(w, "| %s |\n", strings.Join(headers, " | "))
	cols := make([]string, len(headers))
	for i := range cols {
		switch {
		case i < len(align) && align[i] == 'r':
			cols[i] = "---:"
		case i < len(align) && align[i] == 'c':
			cols[i] = ":---:"
		default:
			cols[i] = ":---"
		}
	}
	fmt.Fprintf(w, "|%s|\n", strings.Join(cols, "|"))
}

// row writes one table row, escaping pipes in cells.
func row(w io.Writer, cells ...string) {
	for i, c := range cells {
		if c == "" {
			c = " "
		}
		cells[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
}

// orDash returns "-" for empty values.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
