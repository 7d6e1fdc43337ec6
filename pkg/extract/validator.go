package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/util"
)

type ValidatorOptions struct {
	MinimumTimePoints     int
	MinTravelTime         int
	MaxTravelTime         int
	AllowDuplicates       bool
	RequireAllConnections bool
	StrictTimeValidation  bool

	// DayCoverageRatio and SkipRateThreshold drive the advisory coverage and
	// skip rate warnings.
	DayCoverageRatio  float64
	SkipRateThreshold float64
}

func DefaultValidatorOptions() ValidatorOptions {
	return ValidatorOptions{
		MinimumTimePoints: 2,
		MinTravelTime:     0,
		MaxTravelTime:     120,
		DayCoverageRatio:  0.5,
		SkipRateThreshold: 0.5,
	}
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

const (
	CodeInsufficientTimePoints  = "INSUFFICIENT_TIMEPOINTS"
	CodeNoTravelTimes           = "NO_TRAVEL_TIMES"
	CodeInvalidTravelTimes      = "INVALID_TRAVEL_TIMES"
	CodeDuplicateTimePointNames = "DUPLICATE_TIMEPOINT_NAMES"
	CodeOrphanedConnections     = "ORPHANED_CONNECTIONS"
	CodeDuplicateTravelTimes    = "DUPLICATE_TRAVEL_TIMES"
	CodeMissingConnections      = "MISSING_CONNECTIONS"
	CodeZeroTravelTimes         = "ZERO_TRAVEL_TIMES"
	CodeLowDayCoverage          = "LOW_DAY_COVERAGE"
	CodeHighSkipRate            = "HIGH_SKIP_RATE"
	CodeIsolatedTimePoints      = "ISOLATED_TIMEPOINTS"
)

type Issue struct {
	Code     string   `groups:"basic" bson:"code"`
	Severity Severity `groups:"basic" bson:"severity"`
	Message  string   `groups:"basic" bson:"message"`
	Details  []string `groups:"basic" bson:"details,omitempty"`
}

type Statistics struct {
	TotalTimePoints   int     `groups:"basic" bson:"totalTimePoints"`
	TotalTravelTimes  int     `groups:"basic" bson:"totalTravelTimes"`
	AverageTravelTime float64 `groups:"basic" bson:"averageTravelTime"`
	MinTravelTime     int     `groups:"basic" bson:"minTravelTime"`
	MaxTravelTime     int     `groups:"basic" bson:"maxTravelTime"`

	WeekdayEdges  int `groups:"basic" bson:"weekdayEdges"`
	SaturdayEdges int `groups:"basic" bson:"saturdayEdges"`
	SundayEdges   int `groups:"basic" bson:"sundayEdges"`
}

type ValidationResult struct {
	IsValid    bool       `groups:"basic" bson:"isValid"`
	Errors     []Issue    `groups:"basic" bson:"errors"`
	Warnings   []Issue    `groups:"basic" bson:"warnings"`
	Statistics Statistics `groups:"basic" bson:"statistics"`
}

// HasCritical reports whether any blocking issue carries the critical
// severity.
func (r *ValidationResult) HasCritical() bool {
	for _, issue := range r.Errors {
		if issue.Severity == SeverityCritical {
			return true
		}
	}

	return false
}

const issueDetailLimit = 5

// Validate checks the structural invariants of a parsed schedule and returns
// blocking errors, advisory warnings and aggregate statistics. It is a pure
// function: the same input always yields the same result.
func Validate(data *ParsedSchedule, options ValidatorOptions) *ValidationResult {
	result := &ValidationResult{
		Errors:   []Issue{},
		Warnings: []Issue{},
	}

	checkTimePointCount(data, options, result)
	checkTravelTimePresence(data, result)
	checkTravelTimeBounds(data, options, result)
	checkDuplicateNames(data, result)
	checkOrphanedConnections(data, result)
	checkDuplicateConnections(data, options, result)
	checkRequiredConnections(data, options, result)
	checkZeroTravelTimes(data, result)
	checkDayCoverage(data, options, result)
	checkSkipRate(data, options, result)
	checkIsolatedTimePoints(data, result)

	result.Statistics = computeStatistics(data)
	result.IsValid = len(result.Errors) == 0

	return result
}

func checkTimePointCount(data *ParsedSchedule, options ValidatorOptions, result *ValidationResult) {
	if len(data.TimePoints) >= options.MinimumTimePoints {
		return
	}

	result.Errors = append(result.Errors, Issue{
		Code:     CodeInsufficientTimePoints,
		Severity: SeverityCritical,
		Message: fmt.Sprintf("schedule has %d timepoints, at least %d required",
			len(data.TimePoints), options.MinimumTimePoints),
	})
}

func checkTravelTimePresence(data *ParsedSchedule, result *ValidationResult) {
	if len(data.TravelTimes) > 0 {
		return
	}

	result.Errors = append(result.Errors, Issue{
		Code:     CodeNoTravelTimes,
		Severity: SeverityCritical,
		Message:  "no travel times were extracted from the schedule",
	})
}

func checkTravelTimeBounds(data *ParsedSchedule, options ValidatorOptions, result *ValidationResult) {
	var offenders []string

	for _, edge := range data.TravelTimes {
		for _, day := range schedule.AllDayTypes() {
			value := edge.DayValue(day)
			if value == 0 && !options.StrictTimeValidation {
				continue
			}
			if value < options.MinTravelTime || value > options.MaxTravelTime {
				offenders = append(offenders, fmt.Sprintf("%s->%s %s=%d",
					edge.FromTimePoint, edge.ToTimePoint, day, value))
			}
		}
	}

	if len(offenders) == 0 {
		return
	}

	result.Errors = append(result.Errors, Issue{
		Code:     CodeInvalidTravelTimes,
		Severity: SeverityError,
		Message: fmt.Sprintf("%d travel time values fall outside %d-%d minutes",
			len(offenders), options.MinTravelTime, options.MaxTravelTime),
		Details: truncateDetails(offenders),
	})
}

func checkDuplicateNames(data *ParsedSchedule, result *ValidationResult) {
	seen := map[string]int{}
	for _, timePoint := range data.TimePoints {
		seen[strings.ToLower(timePoint.Name)]++
	}

	var duplicated []string
	for _, timePoint := range data.TimePoints {
		key := strings.ToLower(timePoint.Name)
		if seen[key] > 1 {
			duplicated = append(duplicated, timePoint.Name)
			seen[key] = 0
		}
	}

	if len(duplicated) == 0 {
		return
	}

	result.Errors = append(result.Errors, Issue{
		Code:     CodeDuplicateTimePointNames,
		Severity: SeverityError,
		Message:  fmt.Sprintf("%d timepoint names are used more than once", len(duplicated)),
		Details:  truncateDetails(duplicated),
	})
}

func checkOrphanedConnections(data *ParsedSchedule, result *ValidationResult) {
	known := set.New[string](len(data.TimePoints))
	for _, timePoint := range data.TimePoints {
		known.Insert(timePoint.ID)
	}

	var orphaned []string
	for _, edge := range data.TravelTimes {
		if !known.Contains(edge.FromTimePoint) {
			orphaned = append(orphaned, edge.FromTimePoint)
		}
		if !known.Contains(edge.ToTimePoint) {
			orphaned = append(orphaned, edge.ToTimePoint)
		}
	}
	orphaned = util.RemoveDuplicateStrings(orphaned, nil)

	if len(orphaned) == 0 {
		return
	}

	result.Errors = append(result.Errors, Issue{
		Code:     CodeOrphanedConnections,
		Severity: SeverityError,
		Message:  fmt.Sprintf("travel times reference %d unknown timepoint ids", len(orphaned)),
		Details:  truncateDetails(orphaned),
	})
}

func checkDuplicateConnections(data *ParsedSchedule, options ValidatorOptions, result *ValidationResult) {
	if options.AllowDuplicates {
		return
	}

	seen := map[string]int{}
	for _, edge := range data.TravelTimes {
		seen[fmt.Sprintf("%s|%s", edge.FromTimePoint, edge.ToTimePoint)]++
	}

	var duplicated []string
	for key, count := range seen {
		if count > 1 {
			duplicated = append(duplicated, strings.Replace(key, "|", "->", 1))
		}
	}
	sort.Strings(duplicated)

	if len(duplicated) == 0 {
		return
	}

	result.Errors = append(result.Errors, Issue{
		Code:     CodeDuplicateTravelTimes,
		Severity: SeverityError,
		Message:  fmt.Sprintf("%d timepoint pairs have more than one travel time edge", len(duplicated)),
		Details:  truncateDetails(duplicated),
	})
}

func checkRequiredConnections(data *ParsedSchedule, options ValidatorOptions, result *ValidationResult) {
	if !options.RequireAllConnections || len(data.TimePoints) < 2 {
		return
	}

	connected := set.New[string](len(data.TravelTimes))
	for _, edge := range data.TravelTimes {
		connected.Insert(fmt.Sprintf("%s|%s", edge.FromTimePoint, edge.ToTimePoint))
	}

	ordered := make([]schedule.TimePoint, len(data.TimePoints))
	copy(ordered, data.TimePoints)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	var missing []string
	for i := 0; i+1 < len(ordered); i++ {
		if !connected.Contains(fmt.Sprintf("%s|%s", ordered[i].ID, ordered[i+1].ID)) {
			missing = append(missing, fmt.Sprintf("%s->%s", ordered[i].Name, ordered[i+1].Name))
		}
	}

	if len(missing) == 0 {
		return
	}

	result.Errors = append(result.Errors, Issue{
		Code:     CodeMissingConnections,
		Severity: SeverityError,
		Message:  fmt.Sprintf("%d consecutive timepoint pairs have no travel time", len(missing)),
		Details:  truncateDetails(missing),
	})
}

func checkZeroTravelTimes(data *ParsedSchedule, result *ValidationResult) {
	zeroes := 0
	for _, edge := range data.TravelTimes {
		for _, day := range schedule.AllDayTypes() {
			if edge.DayValue(day) == 0 {
				zeroes++
			}
		}
	}

	if zeroes == 0 {
		return
	}

	result.Warnings = append(result.Warnings, Issue{
		Code:     CodeZeroTravelTimes,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%d day type values are unobserved (zero)", zeroes),
	})
}

func checkDayCoverage(data *ParsedSchedule, options ValidatorOptions, result *ValidationResult) {
	counts := dayEdgeCounts(data)

	best := 0
	for _, count := range counts {
		best = max(best, count)
	}
	if best == 0 {
		return
	}

	var sparse []string
	for _, day := range schedule.AllDayTypes() {
		if float64(counts[day]) < options.DayCoverageRatio*float64(best) {
			sparse = append(sparse, string(day))
		}
	}

	if len(sparse) == 0 {
		return
	}

	result.Warnings = append(result.Warnings, Issue{
		Code:     CodeLowDayCoverage,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("day types with sparse coverage: %s", strings.Join(sparse, ", ")),
	})
}

func checkSkipRate(data *ParsedSchedule, options ValidatorOptions, result *ValidationResult) {
	if data.Metadata.TotalRows == 0 {
		return
	}

	rate := float64(data.Metadata.SkippedRows) / float64(data.Metadata.TotalRows)
	if rate < options.SkipRateThreshold {
		return
	}

	result.Warnings = append(result.Warnings, Issue{
		Code:     CodeHighSkipRate,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("%d of %d rows were skipped (%.0f%%)",
			data.Metadata.SkippedRows, data.Metadata.TotalRows, rate*100),
	})
}

func checkIsolatedTimePoints(data *ParsedSchedule, result *ValidationResult) {
	connected := set.New[string](len(data.TimePoints))
	for _, edge := range data.TravelTimes {
		connected.Insert(edge.FromTimePoint)
		connected.Insert(edge.ToTimePoint)
	}

	var isolated []string
	for _, timePoint := range data.TimePoints {
		if !connected.Contains(timePoint.ID) {
			isolated = append(isolated, timePoint.Name)
		}
	}

	if len(isolated) == 0 {
		return
	}

	result.Warnings = append(result.Warnings, Issue{
		Code:     CodeIsolatedTimePoints,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%d timepoints have no travel times attached", len(isolated)),
		Details:  truncateDetails(isolated),
	})
}

func dayEdgeCounts(data *ParsedSchedule) map[schedule.DayType]int {
	counts := map[schedule.DayType]int{}
	for _, edge := range data.TravelTimes {
		for _, day := range schedule.AllDayTypes() {
			if edge.DayValue(day) > 0 {
				counts[day]++
			}
		}
	}

	return counts
}

func computeStatistics(data *ParsedSchedule) Statistics {
	statistics := Statistics{
		TotalTimePoints:  len(data.TimePoints),
		TotalTravelTimes: len(data.TravelTimes),
	}

	counts := dayEdgeCounts(data)
	statistics.WeekdayEdges = counts[schedule.DayTypeWeekday]
	statistics.SaturdayEdges = counts[schedule.DayTypeSaturday]
	statistics.SundayEdges = counts[schedule.DayTypeSunday]

	total := 0
	observations := 0
	for _, edge := range data.TravelTimes {
		for _, day := range schedule.AllDayTypes() {
			value := edge.DayValue(day)
			if value == 0 {
				continue
			}

			if observations == 0 || value < statistics.MinTravelTime {
				statistics.MinTravelTime = value
			}
			if value > statistics.MaxTravelTime {
				statistics.MaxTravelTime = value
			}
			total += value
			observations++
		}
	}

	if observations > 0 {
		statistics.AverageTravelTime = float64(total) / float64(observations)
	}

	return statistics
}

func truncateDetails(details []string) []string {
	for i, detail := range details {
		details[i] = util.TrimString(detail, 80)
	}

	if len(details) <= issueDetailLimit {
		return details
	}

	kept := details[:issueDetailLimit]
	kept = append(kept, fmt.Sprintf("and %d more", len(details)-issueDetailLimit))

	return kept
}
