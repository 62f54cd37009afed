package export

import "fmt"

// Dataset is a tabular export grouped under optional headings, e.g. one group per weekday.
type Dataset struct {
	Title   string
	Headers []string
	Groups  []Group
}

// Group holds the rows rendered under one heading.
type Group struct {
	Heading string
	Rows    [][]string
}

// RowCount returns the number of data rows across all groups.
func (d Dataset) RowCount() int {
	total := 0
	for _, g := range d.Groups {
		total += len(g.Rows)
	}
	return total
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for _, g := range d.Groups {
		for i, row := range g.Rows {
			if len(row) > len(d.Headers) {
				return fmt.Errorf("group %q row %d has %d columns, want at most %d", g.Heading, i, len(row), len(d.Headers))
			}
		}
	}
	return nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
