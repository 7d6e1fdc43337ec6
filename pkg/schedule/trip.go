package schedule

// Trip is one vehicle run across the route for a single day type. The time
// maps are keyed by timepoint id. The Original maps snapshot the parsed
// times immediately before block assignment.
type Trip struct {
	TripNumber    int    `groups:"basic" bson:"tripNumber"`
	BlockNumber   int    `groups:"basic" bson:"blockNumber"`
	DepartureTime string `groups:"basic" bson:"departureTime"`
	ServiceBand   string `groups:"basic" bson:"serviceBand"`

	ArrivalTimes   map[string]string `groups:"basic" bson:"arrivalTimes"`
	DepartureTimes map[string]string `groups:"basic" bson:"departureTimes"`
	RecoveryTimes  map[string]int    `groups:"basic" bson:"recoveryTimes"`

	OriginalArrivalTimes   map[string]string `groups:"detail" bson:"originalArrivalTimes,omitempty"`
	OriginalDepartureTimes map[string]string `groups:"detail" bson:"originalDepartureTimes,omitempty"`
	OriginalRecoveryTimes  map[string]int    `groups:"detail" bson:"originalRecoveryTimes,omitempty"`
}

func (t *Trip) RecoveryTotal() int {
	total := 0
	for _, minutes := range t.RecoveryTimes {
		total += minutes
	}

	return total
}

// BestTime returns the published cell value for a timepoint, preferring the
// departure over the arrival when both were scheduled.
func (t *Trip) BestTime(timePointID string) string {
	if value, ok := t.DepartureTimes[timePointID]; ok && value != "" {
		return value
	}
	if value, ok := t.ArrivalTimes[timePointID]; ok && value != "" {
		return value
	}

	return ""
}
