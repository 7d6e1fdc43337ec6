package extract

import (
	"reflect"
	"testing"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

func TestDetectFormatWithNamedHeader(t *testing.T) {
	rows := [][]string{
		{"Route", "Downtown Terminal", "Main Street Station", "Airport Stop"},
		{"101", "07:00", "07:25", "07:48"},
		{"102", "08:00", "08:26", "08:50"},
	}

	format := DetectFormat(rows, DefaultDetectorOptions())

	if !format.HasHeader || format.HeaderRow != 0 {
		t.Fatalf("expected header at row 0, got %+v", format)
	}
	if format.DataStartRow != 1 {
		t.Errorf("DataStartRow = %d, want 1", format.DataStartRow)
	}
	if !reflect.DeepEqual(format.TimePointColumns, []int{0, 1, 2, 3}) {
		t.Errorf("TimePointColumns = %v", format.TimePointColumns)
	}
	if format.TimeFormat != "HH:MM" {
		t.Errorf("TimeFormat = %q, want HH:MM", format.TimeFormat)
	}
	if format.Confidence != 90 {
		t.Errorf("Confidence = %d, want 90", format.Confidence)
	}
	if len(format.Errors) != 0 || len(format.Warnings) != 0 {
		t.Errorf("unexpected diagnostics: errors=%v warnings=%v", format.Errors, format.Warnings)
	}
}

func TestDetectFormatShortHeaderFallsBackToDataScan(t *testing.T) {
	rows := [][]string{
		{"", "A", "B", "C"},
		{"", "08:00", "08:30", "08:45"},
	}

	format := DetectFormat(rows, DefaultDetectorOptions())

	if !format.HasHeader {
		t.Fatal("expected the single letter row to count as a header")
	}
	if !reflect.DeepEqual(format.TimePointColumns, []int{1, 2, 3}) {
		t.Errorf("TimePointColumns = %v, want [1 2 3]", format.TimePointColumns)
	}
	if format.Confidence != 90 {
		t.Errorf("Confidence = %d, want 90", format.Confidence)
	}
}

func TestDetectFormatWithoutHeader(t *testing.T) {
	rows := [][]string{
		{"07:00", "07:25"},
		{"08:00", "08:26"},
	}

	format := DetectFormat(rows, DefaultDetectorOptions())

	if format.HasHeader {
		t.Fatal("rows of times should not be mistaken for a header")
	}
	if format.DataStartRow != 0 {
		t.Errorf("DataStartRow = %d, want 0", format.DataStartRow)
	}
	if !reflect.DeepEqual(format.TimePointColumns, []int{0, 1}) {
		t.Errorf("TimePointColumns = %v, want [0 1]", format.TimePointColumns)
	}
	if len(format.Warnings) != 1 {
		t.Errorf("Warnings = %v, want the missing header warning", format.Warnings)
	}
	if format.Confidence != 65 {
		t.Errorf("Confidence = %d, want 65", format.Confidence)
	}
}

func TestDetectFormatHalfHourMatrix(t *testing.T) {
	rows := [][]string{
		{"Half-Hour Travel Times", "07:00 - 07:30", "07:30 - 08:00", "08:00 - 08:30"},
		{"Segment A", "12", "15", "18"},
	}

	format := DetectFormat(rows, DefaultDetectorOptions())

	if format.MatrixHeaderRow != 0 {
		t.Fatalf("MatrixHeaderRow = %d, want 0", format.MatrixHeaderRow)
	}
	if !reflect.DeepEqual(format.TimePointColumns, []int{1, 2, 3}) {
		t.Errorf("TimePointColumns = %v, want [1 2 3]", format.TimePointColumns)
	}
	if format.DataStartRow != 1 {
		t.Errorf("DataStartRow = %d, want 1", format.DataStartRow)
	}
	if format.TimeFormat != TimeFormatUnknown {
		t.Errorf("TimeFormat = %q, want unknown for duration cells", format.TimeFormat)
	}
}

func TestDetectFormatDayTypeColumns(t *testing.T) {
	rows := [][]string{
		{"Stop Name", "Weekday Times", "Saturday Times", "Sunday Times"},
		{"Downtown", "07:00", "08:00", "09:00"},
	}

	format := DetectFormat(rows, DefaultDetectorOptions())

	wantDays := []DayTypeColumn{
		{Column: 1, DayType: schedule.DayTypeWeekday},
		{Column: 2, DayType: schedule.DayTypeSaturday},
		{Column: 3, DayType: schedule.DayTypeSunday},
	}
	if !reflect.DeepEqual(format.DayTypeColumns, wantDays) {
		t.Errorf("DayTypeColumns = %v, want %v", format.DayTypeColumns, wantDays)
	}

	if format.DayTypeFor(1) != schedule.DayTypeWeekday {
		t.Errorf("DayTypeFor(1) = %v", format.DayTypeFor(1))
	}
	if format.DayTypeFor(0) != schedule.DayTypeWeekday {
		t.Errorf("DayTypeFor(0) should default to weekday")
	}
	if format.DayTypeFor(3) != schedule.DayTypeSunday {
		t.Errorf("DayTypeFor(3) = %v", format.DayTypeFor(3))
	}
}

func TestDetectFormatInsufficientColumns(t *testing.T) {
	rows := [][]string{
		{"x"},
		{"y"},
	}

	format := DetectFormat(rows, DefaultDetectorOptions())

	if len(format.Errors) != 1 {
		t.Fatalf("Errors = %v, want the insufficient columns error", format.Errors)
	}
	if format.Confidence != 0 {
		t.Errorf("Confidence = %d, want 0", format.Confidence)
	}
}

func TestDetectFormatTruncatesColumnExcess(t *testing.T) {
	header := make([]string, 6)
	data := make([]string, 6)
	header[0] = "Route"
	data[0] = "101"
	for i := 1; i < 6; i++ {
		header[i] = "Stop"
		data[i] = "07:00"
	}

	options := DefaultDetectorOptions()
	options.MaxTimePoints = 3

	format := DetectFormat([][]string{header, data}, options)

	if len(format.TimePointColumns) != 3 {
		t.Errorf("TimePointColumns = %v, want 3 columns", format.TimePointColumns)
	}
	if len(format.Warnings) != 1 {
		t.Errorf("Warnings = %v, want the truncation warning", format.Warnings)
	}
}

func TestDetectFormatMixedTimeFormats(t *testing.T) {
	rows := [][]string{
		{"First Stop", "Second Stop"},
		{"7:00", "07:25"},
	}

	format := DetectFormat(rows, DefaultDetectorOptions())

	if format.TimeFormat != TimeFormatMixed {
		t.Errorf("TimeFormat = %q, want mixed", format.TimeFormat)
	}
}
