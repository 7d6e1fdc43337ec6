package quickadjust

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

func rebuildOrFail(t *testing.T, rows [][]string, assign BlockAssigner) *Result {
	t.Helper()

	result, err := Rebuild(rows, assign)
	if err != nil {
		t.Fatalf("Rebuild returned error: %v", err)
	}

	return result
}

func sequentialBlocks(trips []schedule.Trip, _ []schedule.TimePoint) []schedule.Trip {
	for i := range trips {
		trips[i].BlockNumber = i + 1
	}

	return trips
}

func linearExportRows() [][]string {
	return [][]string{
		{"Route 7 Eastbound", "", "", "", "", ""},
		{"Weekday Service", "", "", "", "", ""},
		{"", "DEPART", "", "ARRIVE", "", ""},
		{"Stop Name", "Downtown Terminal", "Main & Fifth", "Riverside Loop", "", "Notes"},
		{"Stop ID", "101", "102", "103", "R", ""},
		{"", "7:00", "7:12", "7:25", "5", ""},
		{"", "7:30", "7:42", "7:55", "5", "short turn"},
		{"", "", "", "", "", ""},
		{"", "8:00", "8:12", "8:27", "4.6", ""},
		{"Service Hours", "6:00 - 22:00", "", "", "", ""},
		{"Saturday Service", "", "", "", "", ""},
		{"", "DEPART", "", "ARRIVE", "", ""},
		{"Stop Name", "Downtown Terminal", "Main & Fifth", "Riverside Loop", "", ""},
		{"Stop ID", "101", "102", "103", "R", ""},
		{"", "9:00AM", "9:12AM", "9:24AM", "3", ""},
		{"", "25:99", "", "", "", ""},
	}
}

func TestRebuildLinearExport(t *testing.T) {
	result := rebuildOrFail(t, linearExportRows(), sequentialBlocks)

	expectedTimePoints := []schedule.TimePoint{
		{ID: "101", Name: "Downtown Terminal", Sequence: 0},
		{ID: "102", Name: "Main & Fifth", Sequence: 1},
		{ID: "103", Name: "Riverside Loop", Sequence: 2},
	}
	if !reflect.DeepEqual(result.TimePoints, expectedTimePoints) {
		t.Errorf("unexpected timepoints: %+v", result.TimePoints)
	}
	if result.IsLoopRoute {
		t.Error("linear route reported as loop")
	}

	weekday := result.Trips[schedule.DayTypeWeekday]
	if len(weekday) != 3 {
		t.Fatalf("expected 3 weekday trips, got %d", len(weekday))
	}

	first := weekday[0]
	if first.TripNumber != 1 || first.BlockNumber != 1 {
		t.Errorf("unexpected trip numbering: trip=%d block=%d", first.TripNumber, first.BlockNumber)
	}
	if first.DepartureTime != "07:00" {
		t.Errorf("expected departure 07:00, got %q", first.DepartureTime)
	}
	if first.ServiceBand != "07:00 - 07:29" {
		t.Errorf("unexpected service band %q", first.ServiceBand)
	}
	if !reflect.DeepEqual(first.DepartureTimes, map[string]string{"101": "07:00", "102": "07:12"}) {
		t.Errorf("unexpected departures: %+v", first.DepartureTimes)
	}
	if !reflect.DeepEqual(first.ArrivalTimes, map[string]string{"102": "07:12", "103": "07:25"}) {
		t.Errorf("unexpected arrivals: %+v", first.ArrivalTimes)
	}
	if !reflect.DeepEqual(first.RecoveryTimes, map[string]int{"103": 5}) {
		t.Errorf("unexpected recoveries: %+v", first.RecoveryTimes)
	}

	if got := weekday[2].RecoveryTimes["103"]; got != 5 {
		t.Errorf("expected fractional recovery rounded to 5, got %d", got)
	}
	if !reflect.DeepEqual(result.Durations[schedule.DayTypeWeekday], []int{25, 25, 27}) {
		t.Errorf("unexpected weekday durations: %v", result.Durations[schedule.DayTypeWeekday])
	}

	saturday := result.Trips[schedule.DayTypeSaturday]
	if len(saturday) != 1 {
		t.Fatalf("expected 1 saturday trip, got %d", len(saturday))
	}
	if saturday[0].DepartureTime != "09:00" {
		t.Errorf("expected meridiem time normalized to 09:00, got %q", saturday[0].DepartureTime)
	}

	expectedWeekdayMatrix := [][]string{
		{"07:00", "07:12", "07:25"},
		{"07:30", "07:42", "07:55"},
		{"08:00", "08:12", "08:27"},
	}
	if !reflect.DeepEqual(result.Summary.Weekday, expectedWeekdayMatrix) {
		t.Errorf("unexpected weekday matrix: %+v", result.Summary.Weekday)
	}
	if !reflect.DeepEqual(result.Summary.Saturday, [][]string{{"09:00", "09:12", "09:24"}}) {
		t.Errorf("unexpected saturday matrix: %+v", result.Summary.Saturday)
	}
	if len(result.Summary.Sunday) != 0 {
		t.Errorf("expected empty sunday matrix, got %+v", result.Summary.Sunday)
	}

	metadata := result.Summary.Metadata
	if metadata.WeekdayTrips != 3 || metadata.SaturdayTrips != 1 || metadata.SundayTrips != 0 {
		t.Errorf("unexpected trip counts: %+v", metadata)
	}
	expectedHours := schedule.TimeWindow{Start: "07:00", End: "09:24"}
	if metadata.OperatingHours != expectedHours {
		t.Errorf("unexpected operating hours: %+v", metadata.OperatingHours)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "saturday row 16") {
		t.Errorf("unexpected warning: %q", result.Warnings[0])
	}
}

func TestRebuildLoopRouteAddsTerminalAlias(t *testing.T) {
	rows := [][]string{
		{"Sunday", "", "", "", ""},
		{"", "DEPART", "", "ARRIVE", ""},
		{"Stop Name", "Transit Mall", "Airport", "Transit Mall", ""},
		{"Stop ID", "100", "205", "100", "R"},
		{"", "6:00", "6:20", "6:40", "5"},
		{"", "7:00", "7:20", "7:40", "6"},
	}

	result := rebuildOrFail(t, rows, nil)

	if !result.IsLoopRoute {
		t.Fatal("expected loop route")
	}
	if len(result.TimePoints) != 3 {
		t.Fatalf("expected 2 stops plus terminal alias, got %d timepoints", len(result.TimePoints))
	}

	terminal := result.TimePoints[2]
	if terminal.ID != "100__terminal" || terminal.AliasFor != "100" || !terminal.IsAlias() {
		t.Errorf("unexpected terminal timepoint: %+v", terminal)
	}
	if terminal.Name != "Transit Mall (Terminal)" || terminal.Sequence != 2 {
		t.Errorf("unexpected terminal naming: %+v", terminal)
	}

	trips := result.Trips[schedule.DayTypeSunday]
	if len(trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(trips))
	}

	expectedArrivals := []string{"06:40", "07:40"}
	expectedRecoveries := []int{5, 6}
	for i, trip := range trips {
		if got := trip.ArrivalTimes["100__terminal"]; got != expectedArrivals[i] {
			t.Errorf("trip %d: expected terminal arrival %s, got %q", i, expectedArrivals[i], got)
		}
		if _, ok := trip.ArrivalTimes["100"]; ok {
			t.Errorf("trip %d: origin still holds the return arrival", i)
		}
		if got := trip.RecoveryTimes["100__terminal"]; got != expectedRecoveries[i] {
			t.Errorf("trip %d: expected terminal recovery %d, got %d", i, expectedRecoveries[i], got)
		}
	}
	if trips[0].DepartureTimes["100"] != "06:00" || trips[1].DepartureTimes["100"] != "07:00" {
		t.Errorf("origin departures were not preserved: %+v, %+v",
			trips[0].DepartureTimes, trips[1].DepartureTimes)
	}

	if !reflect.DeepEqual(result.Durations[schedule.DayTypeSunday], []int{40, 40}) {
		t.Errorf("unexpected durations: %v", result.Durations[schedule.DayTypeSunday])
	}

	expectedMatrix := [][]string{
		{"06:00", "06:20", "06:40"},
		{"07:00", "07:20", "07:40"},
	}
	if !reflect.DeepEqual(result.Summary.Sunday, expectedMatrix) {
		t.Errorf("unexpected sunday matrix: %+v", result.Summary.Sunday)
	}
	expectedHours := schedule.TimeWindow{Start: "06:00", End: "07:40"}
	if result.Summary.Metadata.OperatingHours != expectedHours {
		t.Errorf("unexpected operating hours: %+v", result.Summary.Metadata.OperatingHours)
	}
}

func TestRebuildLoopTimeColumnsSplitDeparture(t *testing.T) {
	rows := [][]string{
		{"Sunday", "", "", "", ""},
		{"", "DEPART", "", "", ""},
		{"Stop Name", "Loop Plaza", "Midpoint", "Loop Plaza", ""},
		{"Stop ID", "100", "205", "100", "R"},
		{"", "6:00", "6:20", "6:40", "5"},
		{"", "7:00", "7:20", "", ""},
	}

	result := rebuildOrFail(t, rows, nil)

	trips := result.Trips[schedule.DayTypeSunday]
	if len(trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(trips))
	}

	full := trips[0]
	if full.DepartureTimes["100"] != "06:00" {
		t.Errorf("origin departure not restored: %+v", full.DepartureTimes)
	}
	if full.DepartureTimes["100__terminal"] != "06:40" {
		t.Errorf("second visit departure not moved to the alias: %+v", full.DepartureTimes)
	}
	if full.ArrivalTimes["100__terminal"] != "06:40" {
		t.Errorf("second visit arrival not moved to the alias: %+v", full.ArrivalTimes)
	}

	short := trips[1]
	if _, ok := short.ArrivalTimes["100__terminal"]; ok {
		t.Errorf("trip without a return leg gained an alias arrival: %+v", short.ArrivalTimes)
	}
	if short.DepartureTimes["100"] != "07:00" {
		t.Errorf("unexpected short trip departures: %+v", short.DepartureTimes)
	}

	if !reflect.DeepEqual(result.Durations[schedule.DayTypeSunday], []int{40, 0}) {
		t.Errorf("unexpected durations: %v", result.Durations[schedule.DayTypeSunday])
	}
}

func TestRebuildSnapshotsOriginalTimesBeforeBlocks(t *testing.T) {
	rows := [][]string{
		{"Weekday", "", ""},
		{"", "DEPART", "ARRIVE"},
		{"Stop Name", "A Terminal", "B Station"},
		{"Stop ID", "1", "2"},
		{"", "6:00", "6:30"},
	}

	mutating := func(trips []schedule.Trip, _ []schedule.TimePoint) []schedule.Trip {
		for i := range trips {
			trips[i].BlockNumber = 9
			trips[i].ArrivalTimes["2"] = "07:45"
		}

		return trips
	}

	result := rebuildOrFail(t, rows, mutating)

	trip := result.Trips[schedule.DayTypeWeekday][0]
	if trip.BlockNumber != 9 {
		t.Errorf("block assignment did not apply, got %d", trip.BlockNumber)
	}
	if trip.ArrivalTimes["2"] != "07:45" {
		t.Errorf("expected adjusted arrival, got %q", trip.ArrivalTimes["2"])
	}
	if trip.OriginalArrivalTimes["2"] != "06:30" {
		t.Errorf("original arrival was not preserved, got %q", trip.OriginalArrivalTimes["2"])
	}
	if !reflect.DeepEqual(trip.OriginalDepartureTimes, map[string]string{"1": "06:00"}) {
		t.Errorf("unexpected original departures: %+v", trip.OriginalDepartureTimes)
	}
}

func TestRebuildWarnsOnTimepointMismatch(t *testing.T) {
	rows := [][]string{
		{"Weekday", "", ""},
		{"", "DEPART", "ARRIVE"},
		{"Stop Name", "A Terminal", "B Station"},
		{"Stop ID", "1", "2"},
		{"", "6:00", "6:30"},
		{"Saturday", "", ""},
		{"", "DEPART", ""},
		{"Stop Name", "A Terminal", ""},
		{"Stop ID", "1", ""},
		{"", "7:00", ""},
	}

	result := rebuildOrFail(t, rows, nil)

	if len(result.Trips[schedule.DayTypeSaturday]) != 1 {
		t.Errorf("mismatched section should still produce trips: %+v", result.Trips)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "saturday section has 1 timepoints") {
		t.Errorf("expected a timepoint mismatch warning, got %v", result.Warnings)
	}
}

func TestRebuildSkipsBrokenSecondarySection(t *testing.T) {
	rows := [][]string{
		{"Weekday", "", ""},
		{"", "DEPART", "ARRIVE"},
		{"Stop Name", "A Terminal", "B Station"},
		{"Stop ID", "1", "2"},
		{"", "6:00", "6:30"},
		{"Sunday", "", ""},
		{"", "7:00", "7:30"},
	}

	result := rebuildOrFail(t, rows, nil)

	if _, ok := result.Trips[schedule.DayTypeSunday]; ok {
		t.Errorf("broken section should not produce trips: %+v", result.Trips)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "sunday") {
		t.Errorf("expected a skipped section warning, got %v", result.Warnings)
	}
}

func TestRebuildCrossesMidnight(t *testing.T) {
	rows := [][]string{
		{"Weekday", "", ""},
		{"", "DEPART", "ARRIVE"},
		{"Stop Name", "A Terminal", "B Station"},
		{"Stop ID", "1", "2"},
		{"", "23:50", "0:15"},
	}

	result := rebuildOrFail(t, rows, nil)

	trip := result.Trips[schedule.DayTypeWeekday][0]
	if trip.DepartureTime != "23:50" || trip.ArrivalTimes["2"] != "00:15" {
		t.Errorf("unexpected trip times: %+v", trip)
	}
	if !reflect.DeepEqual(result.Durations[schedule.DayTypeWeekday], []int{25}) {
		t.Errorf("expected a 25 minute wrapped duration, got %v", result.Durations[schedule.DayTypeWeekday])
	}
}

func TestRebuildStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want error
	}{
		{
			name: "no day sections",
			rows: [][]string{{"Route 9"}, {"Stop Name", "A"}, {"Stop ID", "1"}, {"7:00"}},
			want: ErrNoDaySections,
		},
		{
			name: "no stop name row",
			rows: [][]string{{"Weekday"}, {"", "7:00", "7:30"}},
			want: ErrNoStopNameRow,
		},
		{
			name: "stop name row without id row",
			rows: [][]string{{"Weekday"}, {"", "A", "B"}, {"Stop Name", "A", "B"}},
			want: ErrNoStopNameRow,
		},
		{
			name: "no numeric stop ids",
			rows: [][]string{{"Weekday"}, {"", "x"}, {"Stop Name", "Somewhere"}, {"Stop ID", "zz"}},
			want: ErrNoTimePoints,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Rebuild(tc.rows, nil)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestBuildColumnsRoles(t *testing.T) {
	event := []string{"", "DEPART", "", "Arrives", "", ""}
	names := []string{"", "Alpha", "Beta", "Gamma", "", "Notes"}
	ids := []string{"R", "11", "12", "13", "r", "veh"}

	expected := []ColumnDescriptor{
		{Column: 0, Role: RoleOther},
		{Column: 1, Role: RoleDepart, StopID: "11", Name: "Alpha"},
		{Column: 2, Role: RoleTime, StopID: "12", Name: "Beta"},
		{Column: 3, Role: RoleArrive, StopID: "13", Name: "Gamma"},
		{Column: 4, Role: RoleRecovery, StopID: "13"},
		{Column: 5, Role: RoleOther},
	}

	columns := buildColumns(event, names, ids)
	if !reflect.DeepEqual(columns, expected) {
		t.Errorf("unexpected columns: %+v", columns)
	}
}

func TestParseRecoveryMinutes(t *testing.T) {
	tests := []struct {
		value   string
		minutes int
		ok      bool
	}{
		{"5", 5, true},
		{"4.4", 4, true},
		{"4.6", 5, true},
		{"2.5", 3, true},
		{" 3 ", 3, true},
		{"n/a", 0, false},
		{"5 min", 0, false},
	}

	for _, tc := range tests {
		minutes, ok := parseRecoveryMinutes(tc.value)
		if minutes != tc.minutes || ok != tc.ok {
			t.Errorf("parseRecoveryMinutes(%q) = %d, %t; expected %d, %t",
				tc.value, minutes, ok, tc.minutes, tc.ok)
		}
	}
}

func TestTerminalAliasIsAppendedOnce(t *testing.T) {
	timePoints := []schedule.TimePoint{
		{ID: "100", Name: "Transit Mall", Sequence: 0},
		{ID: "100__terminal", Name: "Transit Mall (Terminal)", Sequence: 1, AliasFor: "100"},
	}

	result := appendTerminalAlias(timePoints, "100")
	if len(result) != 2 {
		t.Errorf("alias was stacked: %+v", result)
	}
}
