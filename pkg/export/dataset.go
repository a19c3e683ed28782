package export

import "fmt"

// Align controls how a column is laid out in tabular renderers.
type Align string

const (
	AlignLeft  Align = "L"
	AlignRight Align = "R"
)

// Column names one export column.
type Column struct {
	Title string
	Align Align
}

// Dataset is an ordered table. Every row holds one cell per column.
type Dataset struct {
	Columns []Column
	Rows    [][]string
}

// Append adds a row in column order.
func (d *Dataset) Append(cells ...string) {
	d.Rows = append(d.Rows, cells)
}

// Titles returns the header line.
func (d Dataset) Titles() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Title
	}
	return out
}

func (d Dataset) validate() error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Columns))
		}
	}
	return nil
}
