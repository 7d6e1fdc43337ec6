package quickadjust

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

type ColumnRole int

const (
	RoleOther ColumnRole = iota
	RoleArrive
	RoleDepart
	RoleTime
	RoleRecovery
)

// ColumnDescriptor captures what one column of a day section means. It is
// inferred once from the event, stop name and stop id header rows, then every
// data row underneath is parsed as a lookup over these descriptors.
type ColumnDescriptor struct {
	Column int
	Role   ColumnRole
	StopID string
	Name   string
}

var stopIDRegex = regexp.MustCompile(`^\d+$`)

const (
	stopNameMarker     = "stop name"
	serviceHoursMarker = "service hours"
)

type sectionBounds struct {
	dayType schedule.DayType
	start   int
	end     int
}

// section is one day type block of the export, with its column meanings and
// the row range holding trip data.
type section struct {
	dayType   schedule.DayType
	columns   []ColumnDescriptor
	dataStart int
	dataEnd   int
}

// discoverSections splits the export wherever a row carries a day type
// label. Each section runs until the next label or the end of the file.
func discoverSections(rows [][]string) []sectionBounds {
	var bounds []sectionBounds

	for rowIndex, row := range rows {
		day, ok := dayTypeForRow(row)
		if !ok {
			continue
		}

		if len(bounds) > 0 {
			bounds[len(bounds)-1].end = rowIndex
		}
		bounds = append(bounds, sectionBounds{dayType: day, start: rowIndex, end: len(rows)})
	}

	return bounds
}

func dayTypeForRow(row []string) (schedule.DayType, bool) {
	for _, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		if normalized == "" {
			continue
		}

		switch {
		case strings.Contains(normalized, "weekday"):
			return schedule.DayTypeWeekday, true
		case strings.Contains(normalized, "saturday"):
			return schedule.DayTypeSaturday, true
		case strings.Contains(normalized, "sunday"):
			return schedule.DayTypeSunday, true
		}
	}

	return "", false
}

// buildSection anchors the three aligned header rows off the literal
// "stop name" cell: the event row sits immediately above it, the stop id row
// immediately below, and trip data follows until a service hours row or the
// section end.
func buildSection(rows [][]string, bounds sectionBounds) (*section, error) {
	nameRow := -1
	for rowIndex := bounds.start; rowIndex < bounds.end; rowIndex++ {
		if rowHasStopNameCell(rows[rowIndex]) {
			nameRow = rowIndex
			break
		}
	}
	if nameRow == -1 {
		return nil, fmt.Errorf("%s section: %w", bounds.dayType, ErrNoStopNameRow)
	}
	if nameRow+1 >= bounds.end {
		return nil, fmt.Errorf("%s section: stop id row missing below the stop name row: %w",
			bounds.dayType, ErrNoStopNameRow)
	}

	var eventRow []string
	if nameRow > 0 {
		eventRow = rows[nameRow-1]
	}

	dataStart := nameRow + 2
	dataEnd := bounds.end
	for rowIndex := dataStart; rowIndex < bounds.end; rowIndex++ {
		if rowMentionsServiceHours(rows[rowIndex]) {
			dataEnd = rowIndex
			break
		}
	}

	return &section{
		dayType:   bounds.dayType,
		columns:   buildColumns(eventRow, rows[nameRow], rows[nameRow+1]),
		dataStart: dataStart,
		dataEnd:   dataEnd,
	}, nil
}

// buildColumns zips the three header rows into column descriptors. A stop id
// cell of exactly "R" marks recovery minutes for the nearest timepoint on its
// left; a numeric stop id marks a timepoint column typed by the event label;
// everything else is ignored for trip extraction.
func buildColumns(eventRow []string, nameRow []string, idRow []string) []ColumnDescriptor {
	width := len(idRow)
	if len(nameRow) > width {
		width = len(nameRow)
	}
	if len(eventRow) > width {
		width = len(eventRow)
	}

	columns := make([]ColumnDescriptor, 0, width)

	lastStopID := ""
	for column := 0; column < width; column++ {
		descriptor := ColumnDescriptor{Column: column, Role: RoleOther}

		id := strings.TrimSpace(cellAt(idRow, column))
		switch {
		case strings.EqualFold(id, "r"):
			if lastStopID != "" {
				descriptor.Role = RoleRecovery
				descriptor.StopID = lastStopID
			}
		case stopIDRegex.MatchString(id):
			descriptor.StopID = id
			descriptor.Name = strings.TrimSpace(cellAt(nameRow, column))
			lastStopID = id

			event := strings.ToLower(cellAt(eventRow, column))
			switch {
			case strings.Contains(event, "arr"):
				descriptor.Role = RoleArrive
			case strings.Contains(event, "dep"):
				descriptor.Role = RoleDepart
			default:
				descriptor.Role = RoleTime
			}
		}

		columns = append(columns, descriptor)
	}

	return columns
}

// timePointColumns returns the section's timepoint bearing columns in order,
// revisits included.
func (s *section) timePointColumns() []ColumnDescriptor {
	var columns []ColumnDescriptor
	for _, column := range s.columns {
		switch column.Role {
		case RoleArrive, RoleDepart, RoleTime:
			columns = append(columns, column)
		}
	}

	return columns
}

// uniqueStops returns the distinct stop ids in first appearance order plus
// their display names.
func (s *section) uniqueStops() ([]string, map[string]string) {
	seen := set.New[string](8)
	var order []string
	names := map[string]string{}

	for _, column := range s.timePointColumns() {
		if !seen.Contains(column.StopID) {
			seen.Insert(column.StopID)
			order = append(order, column.StopID)
		}
		if names[column.StopID] == "" && column.Name != "" {
			names[column.StopID] = column.Name
		}
	}

	return order, names
}

// isLoopRoute reports whether the section's first and last timepoint columns
// reference the same physical stop.
func (s *section) isLoopRoute() bool {
	columns := s.timePointColumns()
	if len(columns) < 2 {
		return false
	}

	return columns[0].StopID == columns[len(columns)-1].StopID
}

func rowHasStopNameCell(row []string) bool {
	for _, cell := range row {
		if strings.EqualFold(strings.TrimSpace(cell), stopNameMarker) {
			return true
		}
	}

	return false
}

func rowMentionsServiceHours(row []string) bool {
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), serviceHoursMarker) {
			return true
		}
	}

	return false
}

func cellAt(row []string, column int) string {
	if column < 0 || column >= len(row) {
		return ""
	}

	return row[column]
}
