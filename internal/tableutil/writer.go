package tableutil

import (
	"io"
	"strings"

	"github.com/liggitt/tabwriter"
)

// New creates a tabwriter with devenv's default spacing settings.
func New(out io.Writer, stripEscape bool) *tabwriter.Writer {
	var flags uint
	if stripEscape {
		flags = tabwriter.StripEscape
	}
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', flags)
}

// WriteRow writes cells as one tab-separated line. An empty cell is
// rendered as "-" so columns stay aligned.
func WriteRow(w io.Writer, cells ...string) error {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		if cell == "" {
			cell = "-"
		}
		padded[i] = cell
	}
	_, err := io.WriteString(w, strings.Join(padded, "\t")+"\n")
	return err
}
