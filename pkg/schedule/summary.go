package schedule

type TimeWindow struct {
	Start string `groups:"basic" bson:"start"`
	End   string `groups:"basic" bson:"end"`
}

type SummaryMetadata struct {
	WeekdayTrips  int `groups:"basic" bson:"weekdayTrips"`
	SaturdayTrips int `groups:"basic" bson:"saturdayTrips"`
	SundayTrips   int `groups:"basic" bson:"sundayTrips"`

	OperatingHours TimeWindow `groups:"basic" bson:"operatingHours"`
}

// SummarySchedule is the dense published view of a reconstructed schedule,
// one row per trip and one column per timepoint per day type.
type SummarySchedule struct {
	TimePoints []TimePoint `groups:"basic" bson:"timePoints"`

	Weekday  [][]string `groups:"basic" bson:"weekday"`
	Saturday [][]string `groups:"basic" bson:"saturday"`
	Sunday   [][]string `groups:"basic" bson:"sunday"`

	Metadata SummaryMetadata `groups:"basic" bson:"metadata"`
}

func (s *SummarySchedule) Matrix(day DayType) [][]string {
	switch day {
	case DayTypeSaturday:
		return s.Saturday
	case DayTypeSunday:
		return s.Sunday
	default:
		return s.Weekday
	}
}
