package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

// DetectorOptions bound the header and timepoint column scan.
type DetectorOptions struct {
	MaxRowsToScan int
	MinTimePoints int
	MaxTimePoints int
}

func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		MaxRowsToScan: 5,
		MinTimePoints: 2,
		MaxTimePoints: 50,
	}
}

// DetectedFormat describes how a raw grid encodes a schedule. It is computed
// once per grid and never mutated afterwards.
type DetectedFormat struct {
	HasHeader    bool `groups:"basic" bson:"hasHeader"`
	HeaderRow    int  `groups:"basic" bson:"headerRow"`
	DataStartRow int  `groups:"basic" bson:"dataStartRow"`

	// MatrixHeaderRow is set when the grid is the half-hour travel time
	// matrix shape, -1 otherwise.
	MatrixHeaderRow int `groups:"basic" bson:"matrixHeaderRow"`

	TimePointColumns []int           `groups:"basic" bson:"timePointColumns"`
	DayTypeColumns   []DayTypeColumn `groups:"basic" bson:"dayTypeColumns,omitempty"`
	TimeFormat       string          `groups:"basic" bson:"timeFormat"`

	Confidence int      `groups:"basic" bson:"confidence"`
	Errors     []string `groups:"basic" bson:"errors,omitempty"`
	Warnings   []string `groups:"basic" bson:"warnings,omitempty"`
}

// DayTypeColumn records that a grid column carries values for one day type.
type DayTypeColumn struct {
	Column  int              `groups:"basic" bson:"column"`
	DayType schedule.DayType `groups:"basic" bson:"dayType"`
}

// DayTypeFor returns the day type a column was classified under, defaulting
// to weekday.
func (f *DetectedFormat) DayTypeFor(column int) schedule.DayType {
	for _, entry := range f.DayTypeColumns {
		if entry.Column == column {
			return entry.DayType
		}
	}

	return schedule.DayTypeWeekday
}

const (
	TimeFormatMixed   = "mixed"
	TimeFormatUnknown = "unknown"
)

var (
	timePeriodRegex  = regexp.MustCompile(`^\d{1,2}:\d{2}\s*-\s*\d{1,2}:\d{2}$`)
	addressRegex     = regexp.MustCompile(`(?i)^\d+(st|nd|rd|th)?\s+\w+`)
	lettersOnlyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z\s.'&-]{2,}$`)
)

var stopNameKeywords = []string{
	"stop", "station", "terminal", "depot", "interchange", "exchange",
	"centre", "center", "mall", "plaza", "square", "park",
	"school", "college", "university", "hospital", "downtown",
	"street", "avenue", "road", "boulevard", "drive", "crossing",
}

var (
	weekdayKeywords  = []string{"weekday", "monday", "tuesday", "wednesday", "thursday", "friday", "mon-fri", "m-f"}
	saturdayKeywords = []string{"saturday", "sat"}
	sundayKeywords   = []string{"sunday", "sun"}
)

// DetectFormat inspects a stringified grid and infers where the header sits,
// which columns carry timepoint times, the time value format and any per day
// type columns, together with a 0-100 confidence score.
func DetectFormat(rows [][]string, options DetectorOptions) *DetectedFormat {
	format := &DetectedFormat{
		HeaderRow:       -1,
		MatrixHeaderRow: -1,
		TimeFormat:      TimeFormatUnknown,
	}

	detectHeader(rows, options, format)
	detectTimePointColumns(rows, options, format)
	detectTimeFormat(rows, format)
	detectDayTypeColumns(rows, format)

	if len(format.TimePointColumns) < options.MinTimePoints {
		format.Errors = append(format.Errors, fmt.Sprintf(
			"insufficient timepoint columns: found %d, need at least %d",
			len(format.TimePointColumns), options.MinTimePoints))
	}

	format.Confidence = scoreConfidence(format, options)

	return format
}

func detectHeader(rows [][]string, options DetectorOptions, format *DetectedFormat) {
	scan := min(len(rows), options.MaxRowsToScan)

	for i := 0; i < scan; i++ {
		nonEmpty := 0
		timeLike := 0
		textual := 0

		for _, cell := range rows[i] {
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" {
				continue
			}
			nonEmpty++
			if schedule.IsClockTime(trimmed) {
				timeLike++
			} else {
				textual++
			}
		}

		if nonEmpty >= options.MinTimePoints && textual >= timeLike {
			format.HasHeader = true
			format.HeaderRow = i
			format.DataStartRow = i + 1
			return
		}
	}

	format.Warnings = append(format.Warnings, "no header row found, treating every row as data")
}

func detectTimePointColumns(rows [][]string, options DetectorOptions, format *DetectedFormat) {
	columns := detectMatrixColumns(rows, format)

	if format.MatrixHeaderRow < 0 {
		if format.HasHeader {
			columns = detectHeaderNameColumns(rows[format.HeaderRow])

			// Sparse or cryptic headers defeat the name heuristics, so fall
			// back to looking for time values in the data itself.
			if len(columns) < options.MinTimePoints {
				if scanned := detectTimeValueColumns(rows, format.DataStartRow); len(scanned) > len(columns) {
					columns = scanned
				}
			}
		} else {
			columns = detectTimeValueColumns(rows, format.DataStartRow)
		}
	}

	if len(columns) > options.MaxTimePoints {
		format.Warnings = append(format.Warnings, fmt.Sprintf(
			"found %d candidate timepoint columns, keeping the first %d",
			len(columns), options.MaxTimePoints))
		columns = columns[:options.MaxTimePoints]
	}

	format.TimePointColumns = columns
}

// detectMatrixColumns recognises the travel time matrix export, identified
// by a "half-hour" label in the first cell of an early row followed by
// "HH:MM - HH:MM" period columns.
func detectMatrixColumns(rows [][]string, format *DetectedFormat) []int {
	scan := min(len(rows), 10)

	for i := 0; i < scan; i++ {
		if len(rows[i]) == 0 {
			continue
		}
		if !strings.Contains(strings.ToLower(rows[i][0]), "half-hour") {
			continue
		}

		var columns []int
		for j, cell := range rows[i] {
			if timePeriodRegex.MatchString(strings.TrimSpace(cell)) {
				columns = append(columns, j)
			}
		}

		if len(columns) > 0 {
			format.MatrixHeaderRow = i
			if i+1 > format.DataStartRow {
				format.DataStartRow = i + 1
			}
			return columns
		}
	}

	return nil
}

func detectHeaderNameColumns(header []string) []int {
	var columns []int
	for j, cell := range header {
		if isLikelyTimePointName(cell) {
			columns = append(columns, j)
		}
	}

	return columns
}

func detectTimeValueColumns(rows [][]string, dataStartRow int) []int {
	end := min(len(rows), dataStartRow+10)

	width := 0
	for i := dataStartRow; i < end; i++ {
		width = max(width, len(rows[i]))
	}

	var columns []int
	for j := 0; j < width; j++ {
		for i := dataStartRow; i < end; i++ {
			if j >= len(rows[i]) {
				continue
			}
			if schedule.IsClockTime(rows[i][j]) {
				columns = append(columns, j)
				break
			}
		}
	}

	return columns
}

func isLikelyTimePointName(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || schedule.IsClockTime(trimmed) {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, keyword := range stopNameKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return addressRegex.MatchString(trimmed) || lettersOnlyRegex.MatchString(trimmed)
}

func detectTimeFormat(rows [][]string, format *DetectedFormat) {
	formats := map[string]bool{}
	sampled := 0

	for i := format.DataStartRow; i < len(rows) && sampled < 20; i++ {
		for _, column := range format.TimePointColumns {
			if column >= len(rows[i]) {
				continue
			}
			if name := classifyTimeFormat(rows[i][column]); name != "" {
				formats[name] = true
			}
		}
		sampled++
	}

	switch len(formats) {
	case 0:
		format.TimeFormat = TimeFormatUnknown
		format.Warnings = append(format.Warnings, "could not determine the time value format")
	case 1:
		for name := range formats {
			format.TimeFormat = name
		}
	default:
		format.TimeFormat = TimeFormatMixed
		format.Warnings = append(format.Warnings, "multiple time value formats present")
	}
}

var (
	plainTimeRegex    = regexp.MustCompile(`^(\d{1,2}):\d{2}$`)
	secondsTimeRegex  = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)
	meridiemTimeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}\s*[AaPp][Mm]?$`)
)

func classifyTimeFormat(value string) string {
	trimmed := strings.TrimSpace(value)

	switch {
	case secondsTimeRegex.MatchString(trimmed):
		return "HH:MM:SS"
	case meridiemTimeRegex.MatchString(trimmed):
		return "H:MM AM/PM"
	default:
		match := plainTimeRegex.FindStringSubmatch(trimmed)
		if match == nil {
			return ""
		}
		if len(match[1]) == 1 {
			return "H:MM"
		}
		return "HH:MM"
	}
}

func detectDayTypeColumns(rows [][]string, format *DetectedFormat) {
	if !format.HasHeader {
		return
	}

	for j, cell := range rows[format.HeaderRow] {
		lower := strings.ToLower(strings.TrimSpace(cell))
		if lower == "" {
			continue
		}

		switch {
		case containsAny(lower, weekdayKeywords):
			format.DayTypeColumns = append(format.DayTypeColumns, DayTypeColumn{Column: j, DayType: schedule.DayTypeWeekday})
		case containsAny(lower, saturdayKeywords):
			format.DayTypeColumns = append(format.DayTypeColumns, DayTypeColumn{Column: j, DayType: schedule.DayTypeSaturday})
		case containsAny(lower, sundayKeywords):
			format.DayTypeColumns = append(format.DayTypeColumns, DayTypeColumn{Column: j, DayType: schedule.DayTypeSunday})
		}
	}
}

func containsAny(value string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}

	return false
}

func scoreConfidence(format *DetectedFormat, options DetectorOptions) int {
	confidence := 0

	if len(format.Errors) == 0 {
		confidence += 30
	}
	if format.HasHeader {
		confidence += 20
	}
	if len(format.TimePointColumns) >= options.MinTimePoints {
		confidence += 25
	}
	if format.TimeFormat != TimeFormatMixed && format.TimeFormat != TimeFormatUnknown {
		confidence += 15
	}
	if len(format.DayTypeColumns) > 0 {
		confidence += 10
	}

	confidence -= 5 * len(format.Warnings)
	confidence -= 20 * len(format.Errors)

	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}

	return confidence
}
