package quickadjust

import (
	"math"
	"strconv"
	"strings"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

// parsedTrip keeps the raw first and last sighting of each stop alongside the
// trip under construction. The loop terminal rewrite needs both sightings to
// tell the start of a lap from the return to it.
type parsedTrip struct {
	trip      *schedule.Trip
	firstSeen map[string]string
	lastSeen  map[string]string
}

// parseTripRow turns one data row into a trip. It reports false when the row
// holds no parseable time at all, which callers treat as a discarded row.
func (s *section) parseTripRow(row []string) (*parsedTrip, bool) {
	parsed := &parsedTrip{
		trip: &schedule.Trip{
			ArrivalTimes:   map[string]string{},
			DepartureTimes: map[string]string{},
			RecoveryTimes:  map[string]int{},
		},
		firstSeen: map[string]string{},
		lastSeen:  map[string]string{},
	}

	parsedAny := false
	for _, column := range s.columns {
		value := strings.TrimSpace(cellAt(row, column.Column))
		if value == "" {
			continue
		}

		switch column.Role {
		case RoleArrive, RoleDepart, RoleTime:
			normalized, err := schedule.NormalizeClockTime(value)
			if err != nil {
				continue
			}
			parsedAny = true

			if _, seen := parsed.firstSeen[column.StopID]; !seen {
				parsed.firstSeen[column.StopID] = normalized
			}
			parsed.lastSeen[column.StopID] = normalized

			if column.Role == RoleArrive || column.Role == RoleTime {
				parsed.trip.ArrivalTimes[column.StopID] = normalized
			}
			if column.Role == RoleDepart || column.Role == RoleTime {
				parsed.trip.DepartureTimes[column.StopID] = normalized
			}

		case RoleRecovery:
			minutes, ok := parseRecoveryMinutes(value)
			if !ok {
				continue
			}
			parsed.trip.RecoveryTimes[column.StopID] += minutes
		}
	}

	if !parsedAny {
		return nil, false
	}

	return parsed, true
}

// parseRecoveryMinutes accepts plain numeric content, rounded to whole
// minutes. Anything else in a recovery cell is ignored.
func parseRecoveryMinutes(value string) (int, bool) {
	number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}

	return int(math.Round(number)), true
}

// anchorDeparture pins the trip's published departure to the first sighting
// of the route origin. Rows that never serve the origin fall back to the
// earliest time seen anywhere in the row.
func (p *parsedTrip) anchorDeparture(originStopID string) {
	if departure, ok := p.firstSeen[originStopID]; ok {
		p.trip.DepartureTime = departure
		return
	}

	earliest := ""
	for _, value := range p.firstSeen {
		if earliest == "" || value < earliest {
			earliest = value
		}
	}
	p.trip.DepartureTime = earliest
}

// rewriteLoopTerminal moves the trip's second visit to the loop origin onto
// the terminal alias, so the origin keeps the times that start the trip and
// the alias the times that end it. Trips that never return to the origin are
// left alone apart from restoring the origin departure.
func (p *parsedTrip) rewriteLoopTerminal(baseStopID string, aliasID string) {
	initial, sawBase := p.firstSeen[baseStopID]
	if !sawBase {
		return
	}

	if p.lastSeen[baseStopID] != initial {
		if arrival, ok := p.trip.ArrivalTimes[baseStopID]; ok {
			p.trip.ArrivalTimes[aliasID] = arrival
			delete(p.trip.ArrivalTimes, baseStopID)
		}
		if recovery, ok := p.trip.RecoveryTimes[baseStopID]; ok {
			p.trip.RecoveryTimes[aliasID] = recovery
			delete(p.trip.RecoveryTimes, baseStopID)
		}
		if departure, ok := p.trip.DepartureTimes[baseStopID]; ok && departure != initial {
			p.trip.DepartureTimes[aliasID] = departure
		}

		p.lastSeen[aliasID] = p.lastSeen[baseStopID]
		p.lastSeen[baseStopID] = initial
	}

	p.trip.DepartureTimes[baseStopID] = initial
}

// durationMinutes measures origin departure to final stop arrival, wrapping
// trips that cross midnight.
func (p *parsedTrip) durationMinutes(originStopID string, finalStopID string) int {
	start, hasStart := p.firstSeen[originStopID]
	end, hasEnd := p.lastSeen[finalStopID]
	if !hasStart || !hasEnd {
		return 0
	}

	startMinutes, err := schedule.ParseClockTime(start)
	if err != nil {
		return 0
	}
	endMinutes, err := schedule.ParseClockTime(end)
	if err != nil {
		return 0
	}

	return schedule.TravelMinutes(startMinutes, endMinutes)
}

func rowLooksLikeTrip(row []string) bool {
	for _, cell := range row {
		if schedule.LooksLikeTime(cell) {
			return true
		}
	}

	return false
}
