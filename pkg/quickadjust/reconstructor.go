package quickadjust

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

var (
	ErrNoDaySections = errors.New("no day type sections found")
	ErrNoStopNameRow = errors.New("no stop name row found")
	ErrNoTimePoints  = errors.New("no timepoint columns found")
)

const terminalAliasSuffix = "__terminal"

// BlockAssigner hands a day's ordered trips and the route timepoints to the
// block assignment collaborator and returns the trips annotated with block
// numbers. Implementations must not change the number of trips.
type BlockAssigner func(trips []schedule.Trip, timePoints []schedule.TimePoint) []schedule.Trip

// Result is everything the reconstructor derives from one quick adjust
// export.
type Result struct {
	TimePoints  []schedule.TimePoint                 `groups:"basic" bson:"timePoints"`
	Trips       map[schedule.DayType][]schedule.Trip `groups:"basic" bson:"trips"`
	Durations   map[schedule.DayType][]int           `groups:"basic" bson:"durations"`
	Summary     *schedule.SummarySchedule            `groups:"basic" bson:"summary"`
	IsLoopRoute bool                                 `groups:"basic" bson:"isLoopRoute"`
	Warnings    []string                             `groups:"basic" bson:"warnings"`
}

// Rebuild reconstructs a full schedule from the positional rows of a quick
// adjust export. The first day section found is the primary one: it defines
// the route's timepoints, and later sections are measured against it. Rebuild
// fails only when the export is structurally unusable; everything recoverable
// is reported through Result.Warnings instead.
func Rebuild(rows [][]string, assignBlocks BlockAssigner) (*Result, error) {
	bounds := discoverSections(rows)
	if len(bounds) == 0 {
		return nil, ErrNoDaySections
	}

	result := &Result{
		Trips:     map[schedule.DayType][]schedule.Trip{},
		Durations: map[schedule.DayType][]int{},
	}

	var sections []*section
	for i, b := range bounds {
		built, err := buildSection(rows, b)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipped section: %s", err))
			continue
		}
		sections = append(sections, built)
	}

	primary := sections[0]
	stopOrder, stopNames := primary.uniqueStops()
	if len(stopOrder) == 0 {
		return nil, fmt.Errorf("%s section: %w", primary.dayType, ErrNoTimePoints)
	}

	timePoints := make([]schedule.TimePoint, len(stopOrder))
	for i, stopID := range stopOrder {
		name := stopNames[stopID]
		if name == "" {
			name = fmt.Sprintf("Stop %s", stopID)
		}
		timePoints[i] = schedule.TimePoint{ID: stopID, Name: name, Sequence: i}
	}

	originStopID := stopOrder[0]

	parsedByDay := map[schedule.DayType][]*parsedTrip{}
	for _, sec := range sections {
		if sec != primary {
			secOrder, _ := sec.uniqueStops()
			if len(secOrder) != len(stopOrder) {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"%s section has %d timepoints where the %s section has %d",
					sec.dayType, len(secOrder), primary.dayType, len(stopOrder)))
			}
		}

		for rowIndex := sec.dataStart; rowIndex < sec.dataEnd; rowIndex++ {
			parsed, ok := sec.parseTripRow(rows[rowIndex])
			if !ok {
				if rowLooksLikeTrip(rows[rowIndex]) {
					result.Warnings = append(result.Warnings, fmt.Sprintf(
						"discarded %s row %d: time-like values could not be parsed",
						sec.dayType, rowIndex+1))
				}
				continue
			}

			parsed.anchorDeparture(originStopID)
			if minutes, err := schedule.ParseClockTime(parsed.trip.DepartureTime); err == nil {
				parsed.trip.ServiceBand = schedule.HalfHourWindow(minutes)
			}

			parsedByDay[sec.dayType] = append(parsedByDay[sec.dayType], parsed)
		}
	}

	if primary.isLoopRoute() {
		result.IsLoopRoute = true
		timePoints = appendTerminalAlias(timePoints, originStopID)

		aliasID := originStopID + terminalAliasSuffix
		for _, parsedTrips := range parsedByDay {
			for _, parsed := range parsedTrips {
				parsed.rewriteLoopTerminal(originStopID, aliasID)
			}
		}
	}

	finalStopID := timePoints[len(timePoints)-1].ID

	for day, parsedTrips := range parsedByDay {
		trips := make([]schedule.Trip, 0, len(parsedTrips))
		durations := make([]int, 0, len(parsedTrips))

		for i, parsed := range parsedTrips {
			parsed.trip.TripNumber = i + 1
			snapshotOriginalTimes(parsed.trip)

			trips = append(trips, *parsed.trip)
			durations = append(durations, parsed.durationMinutes(originStopID, finalStopID))
		}

		if assignBlocks != nil {
			trips = assignBlocks(trips, timePoints)
		}

		result.Trips[day] = trips
		result.Durations[day] = durations
	}

	result.TimePoints = timePoints
	result.Summary = buildSummary(timePoints, result.Trips)

	log.Debug().
		Int("sections", len(sections)).
		Int("timepoints", len(timePoints)).
		Bool("loop", result.IsLoopRoute).
		Int("warnings", len(result.Warnings)).
		Msg("Rebuilt quick adjust schedule")

	return result, nil
}

// appendTerminalAlias re-sequences the timepoints and adds a synthetic
// terminal for the loop origin. It no-ops when an alias is already present,
// so rebuilding an already rewritten schedule never stacks aliases.
func appendTerminalAlias(timePoints []schedule.TimePoint, baseStopID string) []schedule.TimePoint {
	for _, timePoint := range timePoints {
		if timePoint.IsAlias() {
			return timePoints
		}
	}

	baseName := ""
	for i := range timePoints {
		timePoints[i].Sequence = i
		if timePoints[i].ID == baseStopID {
			baseName = timePoints[i].Name
		}
	}

	return append(timePoints, schedule.TimePoint{
		ID:       baseStopID + terminalAliasSuffix,
		Name:     baseName + " (Terminal)",
		Sequence: len(timePoints),
		AliasFor: baseStopID,
	})
}

// snapshotOriginalTimes freezes the trip's times before block assignment so
// later edits can always be diffed against what the export actually said.
func snapshotOriginalTimes(trip *schedule.Trip) {
	var snapshot schedule.Trip
	err := copier.CopyWithOption(&snapshot, *trip, copier.Option{IgnoreEmpty: true, DeepCopy: true})
	if err != nil {
		log.Error().Err(err).Int("trip", trip.TripNumber).Msg("Failed to snapshot trip times")
		return
	}

	trip.OriginalArrivalTimes = snapshot.ArrivalTimes
	trip.OriginalDepartureTimes = snapshot.DepartureTimes
	trip.OriginalRecoveryTimes = snapshot.RecoveryTimes
}

func buildSummary(timePoints []schedule.TimePoint, tripsByDay map[schedule.DayType][]schedule.Trip) *schedule.SummarySchedule {
	summary := &schedule.SummarySchedule{
		TimePoints: timePoints,
		Weekday:    [][]string{},
		Saturday:   [][]string{},
		Sunday:     [][]string{},
	}

	earliest := ""
	latest := ""

	for _, day := range schedule.AllDayTypes() {
		trips := tripsByDay[day]
		matrix := make([][]string, 0, len(trips))

		for _, trip := range trips {
			cells := make([]string, len(timePoints))
			for i, timePoint := range timePoints {
				cells[i] = trip.BestTime(timePoint.ID)
			}
			matrix = append(matrix, cells)

			if trip.DepartureTime != "" && (earliest == "" || trip.DepartureTime < earliest) {
				earliest = trip.DepartureTime
			}
			for _, arrival := range trip.ArrivalTimes {
				if arrival > latest {
					latest = arrival
				}
			}
		}

		switch day {
		case schedule.DayTypeWeekday:
			summary.Weekday = matrix
			summary.Metadata.WeekdayTrips = len(trips)
		case schedule.DayTypeSaturday:
			summary.Saturday = matrix
			summary.Metadata.SaturdayTrips = len(trips)
		case schedule.DayTypeSunday:
			summary.Sunday = matrix
			summary.Metadata.SundayTrips = len(trips)
		}
	}

	if latest == "" {
		// Arrival-free exports still need a closing bound.
		for _, trips := range tripsByDay {
			for _, trip := range trips {
				for _, departure := range trip.DepartureTimes {
					if departure > latest {
						latest = departure
					}
				}
			}
		}
	}

	summary.Metadata.OperatingHours = schedule.TimeWindow{Start: earliest, End: latest}

	return summary
}
