package grid

import "strconv"

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one spreadsheet cell as it arrived from the workbook or CSV
// reader. Everything downstream works over the stringified form, so the
// original value is kept only long enough to normalize it once.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

func TextCell(value string) Cell {
	if value == "" {
		return EmptyCell()
	}

	return Cell{Kind: CellText, Text: value}
}

func NumberCell(value float64, original string) Cell {
	return Cell{Kind: CellNumber, Number: value, Text: original}
}

func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		if c.Text != "" {
			return c.Text
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Rows is a decoded 2-D grid of cells, outer slice per spreadsheet row.
type Rows [][]Cell

// Strings normalizes every cell to its string form so that all later
// parsing deals with a single type.
func (r Rows) Strings() [][]string {
	out := make([][]string, len(r))
	for i, row := range r {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cell.String()
		}
		out[i] = cells
	}

	return out
}
