// Package blocks assigns vehicle blocks to reconstructed trips. A block is
// one vehicle's chain of trips: after finishing a trip and sitting out its
// recovery the vehicle can take the next departure.
package blocks

import (
	"sort"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

// AssignBlocks annotates every trip with a 1-based block number using the
// lowest numbered vehicle free at its departure. The input slice is never
// modified and the output keeps its order and length.
func AssignBlocks(trips []schedule.Trip, timePoints []schedule.TimePoint) []schedule.Trip {
	assigned := make([]schedule.Trip, 0, len(trips))
	if err := copier.CopyWithOption(&assigned, trips, copier.Option{DeepCopy: true}); err != nil {
		log.Error().Err(err).Msg("Failed to copy trips for block assignment")
		return trips
	}

	order := make([]int, len(assigned))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return departureMinutes(assigned[order[a]]) < departureMinutes(assigned[order[b]])
	})

	var blockFreeAt []int
	for _, index := range order {
		departure := departureMinutes(assigned[index])

		block := -1
		for candidate, freeAt := range blockFreeAt {
			if freeAt <= departure {
				block = candidate
				break
			}
		}
		if block == -1 {
			blockFreeAt = append(blockFreeAt, 0)
			block = len(blockFreeAt) - 1
		}

		blockFreeAt[block] = releaseMinutes(assigned[index], timePoints, departure)
		assigned[index].BlockNumber = block + 1
	}

	return assigned
}

// BlockCount reports how many vehicles a set of assigned trips needs.
func BlockCount(trips []schedule.Trip) int {
	highest := 0
	for _, trip := range trips {
		if trip.BlockNumber > highest {
			highest = trip.BlockNumber
		}
	}

	return highest
}

func departureMinutes(trip schedule.Trip) int {
	minutes, err := schedule.ParseClockTime(trip.DepartureTime)
	if err != nil {
		return 0
	}

	return minutes
}

// releaseMinutes is the moment the vehicle running a trip becomes free
// again: the arrival at the last stop it serves plus the recovery laid over
// there. Arrivals earlier on the clock than the departure are treated as the
// next day.
func releaseMinutes(trip schedule.Trip, timePoints []schedule.TimePoint, departure int) int {
	for i := len(timePoints) - 1; i >= 0; i-- {
		arrival, ok := trip.ArrivalTimes[timePoints[i].ID]
		if !ok {
			continue
		}

		minutes, err := schedule.ParseClockTime(arrival)
		if err != nil {
			continue
		}
		if minutes < departure {
			minutes += 1440
		}

		return minutes + trip.RecoveryTimes[timePoints[i].ID]
	}

	return departure
}
