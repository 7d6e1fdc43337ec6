package extract

import (
	"reflect"
	"testing"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

func validSchedule() *ParsedSchedule {
	return &ParsedSchedule{
		TimePoints: []schedule.TimePoint{
			{ID: "tp_1", Name: "First Stop", Sequence: 0},
			{ID: "tp_2", Name: "Second Stop", Sequence: 1},
		},
		TravelTimes: []schedule.TravelTime{
			{FromTimePoint: "tp_1", ToTimePoint: "tp_2", Weekday: 30, Saturday: 25},
		},
		Metadata: ParseMetadata{TotalRows: 10, ProcessedRows: 9, SkippedRows: 1},
	}
}

func hasIssue(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}

	return false
}

func TestValidateHealthySchedule(t *testing.T) {
	result := Validate(validSchedule(), DefaultValidatorOptions())

	if !result.IsValid {
		t.Fatalf("expected a valid schedule, errors: %+v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %+v", result.Errors)
	}

	statistics := result.Statistics
	if statistics.TotalTimePoints != 2 || statistics.TotalTravelTimes != 1 {
		t.Errorf("totals = %+v", statistics)
	}
	if statistics.AverageTravelTime != 27.5 {
		t.Errorf("AverageTravelTime = %v, want 27.5", statistics.AverageTravelTime)
	}
	if statistics.MinTravelTime != 25 || statistics.MaxTravelTime != 30 {
		t.Errorf("range = %d-%d, want 25-30", statistics.MinTravelTime, statistics.MaxTravelTime)
	}
	if statistics.WeekdayEdges != 1 || statistics.SaturdayEdges != 1 || statistics.SundayEdges != 0 {
		t.Errorf("day counts = %+v", statistics)
	}
}

func TestValidateInsufficientTimePoints(t *testing.T) {
	data := validSchedule()
	data.TimePoints = data.TimePoints[:1]

	result := Validate(data, DefaultValidatorOptions())

	if result.IsValid {
		t.Fatal("one timepoint should not validate")
	}
	if !hasIssue(result.Errors, CodeInsufficientTimePoints) {
		t.Errorf("missing %s, got %+v", CodeInsufficientTimePoints, result.Errors)
	}
	if !result.HasCritical() {
		t.Error("insufficient timepoints should be critical")
	}
}

func TestValidateNoTravelTimes(t *testing.T) {
	data := validSchedule()
	data.TravelTimes = nil

	result := Validate(data, DefaultValidatorOptions())

	if result.IsValid || !hasIssue(result.Errors, CodeNoTravelTimes) {
		t.Errorf("expected %s, got %+v", CodeNoTravelTimes, result.Errors)
	}
}

func TestValidateTravelTimeBounds(t *testing.T) {
	data := validSchedule()
	data.TravelTimes[0].Weekday = 150

	result := Validate(data, DefaultValidatorOptions())

	if result.IsValid || !hasIssue(result.Errors, CodeInvalidTravelTimes) {
		t.Errorf("expected %s, got %+v", CodeInvalidTravelTimes, result.Errors)
	}
}

func TestValidateStrictFlagsUnobservedValues(t *testing.T) {
	data := validSchedule()

	options := DefaultValidatorOptions()
	options.StrictTimeValidation = true
	options.MinTravelTime = 1

	result := Validate(data, options)

	if !hasIssue(result.Errors, CodeInvalidTravelTimes) {
		t.Errorf("strict validation should flag the zero sunday value, got %+v", result.Errors)
	}
}

func TestValidateDuplicateNames(t *testing.T) {
	data := validSchedule()
	data.TimePoints[1].Name = "first stop"

	result := Validate(data, DefaultValidatorOptions())

	if !hasIssue(result.Errors, CodeDuplicateTimePointNames) {
		t.Errorf("expected %s, got %+v", CodeDuplicateTimePointNames, result.Errors)
	}
}

func TestValidateOrphanedConnections(t *testing.T) {
	data := validSchedule()
	data.TravelTimes = append(data.TravelTimes, schedule.TravelTime{
		FromTimePoint: "tp_2", ToTimePoint: "tp_9", Weekday: 10,
	})

	result := Validate(data, DefaultValidatorOptions())

	if !hasIssue(result.Errors, CodeOrphanedConnections) {
		t.Errorf("expected %s, got %+v", CodeOrphanedConnections, result.Errors)
	}
}

func TestValidateDuplicateConnections(t *testing.T) {
	data := validSchedule()
	data.TravelTimes = append(data.TravelTimes, schedule.TravelTime{
		FromTimePoint: "tp_1", ToTimePoint: "tp_2", Saturday: 40,
	})

	result := Validate(data, DefaultValidatorOptions())
	if !hasIssue(result.Errors, CodeDuplicateTravelTimes) {
		t.Errorf("expected %s, got %+v", CodeDuplicateTravelTimes, result.Errors)
	}

	options := DefaultValidatorOptions()
	options.AllowDuplicates = true
	relaxed := Validate(data, options)
	if hasIssue(relaxed.Errors, CodeDuplicateTravelTimes) {
		t.Error("duplicates should be allowed when the option is set")
	}
}

func TestValidateRequiredConnections(t *testing.T) {
	data := validSchedule()
	data.TimePoints = append(data.TimePoints, schedule.TimePoint{ID: "tp_3", Name: "Third Stop", Sequence: 2})

	options := DefaultValidatorOptions()
	options.RequireAllConnections = true

	result := Validate(data, options)

	if !hasIssue(result.Errors, CodeMissingConnections) {
		t.Errorf("expected %s, got %+v", CodeMissingConnections, result.Errors)
	}
}

func TestValidateWarningsDoNotBlockValidity(t *testing.T) {
	data := validSchedule()
	data.TimePoints = append(data.TimePoints, schedule.TimePoint{ID: "tp_3", Name: "Third Stop", Sequence: 2})
	data.Metadata.SkippedRows = 6

	result := Validate(data, DefaultValidatorOptions())

	if !result.IsValid {
		t.Fatalf("warnings must not invalidate, errors: %+v", result.Errors)
	}
	for _, code := range []string{CodeZeroTravelTimes, CodeLowDayCoverage, CodeHighSkipRate, CodeIsolatedTimePoints} {
		if !hasIssue(result.Warnings, code) {
			t.Errorf("missing warning %s in %+v", code, result.Warnings)
		}
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	data := validSchedule()

	first := Validate(data, DefaultValidatorOptions())
	second := Validate(data, DefaultValidatorOptions())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("validation is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
