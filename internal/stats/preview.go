package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/hyperifyio/statscrape/internal/extract"
)

// PreviewRows is the number of rows Preview prints per table.
const PreviewRows = 5

// Preview prints each table's friendly name, its header line and the first
// PreviewRows rows, cells separated by " | ".
func Preview(w io.Writer, tables extract.Extracted) error {
	for _, t := range tables {
		if _, err := fmt.Fprintf(w, "--- %s ---\n%s\n", FriendlyName(t.ID), strings.Join(t.Headers, " | ")); err != nil {
			return err
		}
		for i, row := range t.Rows {
			if i == PreviewRows {
				break
			}
			cells := make([]string, len(t.Headers))
			for j, h := range t.Headers {
				cells[j], _ = row.Get(h)
			}
			if _, err := fmt.Fprintln(w, strings.Join(cells, " | ")); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
