package blocks

import (
	"reflect"
	"testing"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

var routeTimePoints = []schedule.TimePoint{
	{ID: "1", Name: "A Terminal", Sequence: 0},
	{ID: "2", Name: "B Station", Sequence: 1},
}

func tripDeparting(departure string, arrival string, recovery int) schedule.Trip {
	return schedule.Trip{
		DepartureTime:  departure,
		DepartureTimes: map[string]string{"1": departure},
		ArrivalTimes:   map[string]string{"2": arrival},
		RecoveryTimes:  map[string]int{"2": recovery},
	}
}

func blockNumbers(trips []schedule.Trip) []int {
	numbers := make([]int, len(trips))
	for i, trip := range trips {
		numbers[i] = trip.BlockNumber
	}

	return numbers
}

func TestAssignBlocksInterleavesVehicles(t *testing.T) {
	trips := []schedule.Trip{
		tripDeparting("07:00", "07:25", 5),
		tripDeparting("07:20", "07:45", 5),
		tripDeparting("07:30", "07:55", 5),
		tripDeparting("07:50", "08:15", 5),
	}

	assigned := AssignBlocks(trips, routeTimePoints)

	if len(assigned) != len(trips) {
		t.Fatalf("trip count changed: %d != %d", len(assigned), len(trips))
	}
	if got := blockNumbers(assigned); !reflect.DeepEqual(got, []int{1, 2, 1, 2}) {
		t.Errorf("unexpected block numbers: %v", got)
	}
	if BlockCount(assigned) != 2 {
		t.Errorf("expected 2 blocks, got %d", BlockCount(assigned))
	}
}

func TestAssignBlocksDoesNotModifyInputs(t *testing.T) {
	trips := []schedule.Trip{tripDeparting("07:00", "07:25", 5)}

	assigned := AssignBlocks(trips, routeTimePoints)

	if trips[0].BlockNumber != 0 {
		t.Errorf("input trip gained a block number: %d", trips[0].BlockNumber)
	}

	assigned[0].ArrivalTimes["2"] = "09:00"
	if trips[0].ArrivalTimes["2"] != "07:25" {
		t.Errorf("output shares maps with the input: %+v", trips[0].ArrivalTimes)
	}
}

func TestAssignBlocksKeepsInputOrder(t *testing.T) {
	trips := []schedule.Trip{
		tripDeparting("07:30", "07:55", 5),
		tripDeparting("07:00", "07:25", 10),
	}

	assigned := AssignBlocks(trips, routeTimePoints)

	if assigned[0].DepartureTime != "07:30" || assigned[1].DepartureTime != "07:00" {
		t.Fatalf("output order changed: %v", blockNumbers(assigned))
	}
	// The 07:00 vehicle is only free at 07:35, so the 07:30 trip needs its own.
	if got := blockNumbers(assigned); !reflect.DeepEqual(got, []int{2, 1}) {
		t.Errorf("unexpected block numbers: %v", got)
	}
}

func TestAssignBlocksWrapsMidnight(t *testing.T) {
	trips := []schedule.Trip{
		tripDeparting("23:50", "00:15", 5),
		tripDeparting("23:55", "00:20", 5),
	}

	assigned := AssignBlocks(trips, routeTimePoints)

	if got := blockNumbers(assigned); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected the wrapped arrival to hold block 1, got %v", got)
	}
}

func TestBlockCountWithoutAssignments(t *testing.T) {
	if got := BlockCount(nil); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
