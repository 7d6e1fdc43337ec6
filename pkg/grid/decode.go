package grid

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var ErrNoSheets = errors.New("workbook contains no sheets")

// DecodeWorkbook turns raw upload bytes into a cell grid, picking the
// decoder from the file extension. Only the first sheet of a workbook is
// read, with the header row kept as data.
func DecodeWorkbook(data []byte, fileName string) (Rows, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return DecodeCSV(bytes.NewReader(data))
	case ".xls":
		return DecodeXLS(data)
	default:
		return DecodeXLSX(data)
	}
}

func DecodeXLSX(data []byte) (Rows, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	// Formatted values, so time styled cells arrive as clock strings.
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	grid := make(Rows, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, value := range row {
			cells[j] = classifyCell(value)
		}
		grid[i] = cells
	}

	return grid, nil
}

func DecodeXLS(data []byte) (Rows, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy workbook: %w", err)
	}

	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoSheets
	}

	grid := Rows{}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, []Cell{})
			continue
		}

		cells := []Cell{}
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, classifyCell(row.Col(j)))
		}
		grid = append(grid, cells)
	}

	return grid, nil
}

func DecodeCSV(reader io.Reader) (Rows, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	grid := make(Rows, len(records))
	for i, record := range records {
		cells := make([]Cell, len(record))
		for j, value := range record {
			cells[j] = classifyCell(value)
		}
		grid[i] = cells
	}

	return grid, nil
}

func classifyCell(value string) Cell {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return EmptyCell()
	}

	if number, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return NumberCell(number, value)
	}

	return TextCell(value)
}
