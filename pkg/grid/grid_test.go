package grid

import (
	"strings"
	"testing"
)

func TestDecodeCSV(t *testing.T) {
	content := "Route,Downtown Terminal,Main & 5th\n101,07:00,07:25\n,,\n102,\"08:00\",08:30\n"

	rows, err := DecodeCSV(strings.NewReader(content))
	if err != nil {
		t.Fatalf("DecodeCSV returned error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	cells := rows.Strings()
	if cells[0][1] != "Downtown Terminal" {
		t.Errorf("header cell = %q", cells[0][1])
	}
	if cells[1][1] != "07:00" {
		t.Errorf("time cell = %q", cells[1][1])
	}
	if cells[3][1] != "08:00" {
		t.Errorf("quoted cell = %q", cells[3][1])
	}

	if !rows[2][0].IsEmpty() {
		t.Errorf("blank cell classified as %v", rows[2][0].Kind)
	}
	if rows[1][0].Kind != CellNumber {
		t.Errorf("numeric cell classified as %v", rows[1][0].Kind)
	}
}

func TestDecodeCSVRaggedRows(t *testing.T) {
	content := "a,b,c\nonly one\nx,y\n"

	rows, err := DecodeCSV(strings.NewReader(content))
	if err != nil {
		t.Fatalf("DecodeCSV returned error for ragged rows: %v", err)
	}
	if len(rows[0]) != 3 || len(rows[1]) != 1 || len(rows[2]) != 2 {
		t.Errorf("row widths = %d,%d,%d", len(rows[0]), len(rows[1]), len(rows[2]))
	}
}

func TestCellString(t *testing.T) {
	for _, tc := range []struct {
		cell Cell
		want string
	}{
		{cell: EmptyCell(), want: ""},
		{cell: TextCell("Downtown"), want: "Downtown"},
		{cell: NumberCell(12.5, "12.5"), want: "12.5"},
		{cell: NumberCell(7, ""), want: "7"},
	} {
		if got := tc.cell.String(); got != tc.want {
			t.Errorf("Cell.String() = %q, want %q", got, tc.want)
		}
	}
}
