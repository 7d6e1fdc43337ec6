package schedule

// TravelTime is one directed edge between two timepoints with observed
// running minutes per day type. A zero day value means "not observed", not a
// zero minute journey.
type TravelTime struct {
	FromTimePoint string `groups:"basic" bson:"fromTimePoint"`
	ToTimePoint   string `groups:"basic" bson:"toTimePoint"`

	Weekday  int `groups:"basic" bson:"weekday"`
	Saturday int `groups:"basic" bson:"saturday"`
	Sunday   int `groups:"basic" bson:"sunday"`
}

func (t *TravelTime) DayValue(day DayType) int {
	switch day {
	case DayTypeSaturday:
		return t.Saturday
	case DayTypeSunday:
		return t.Sunday
	default:
		return t.Weekday
	}
}

func (t *TravelTime) SetDayValue(day DayType, minutes int) {
	switch day {
	case DayTypeSaturday:
		t.Saturday = minutes
	case DayTypeSunday:
		t.Sunday = minutes
	default:
		t.Weekday = minutes
	}
}

// MergeObservation keeps the best case (smallest non zero) minutes seen for
// a day type. An already observed value is never regressed back to zero.
func (t *TravelTime) MergeObservation(day DayType, minutes int) {
	if minutes <= 0 {
		return
	}

	existing := t.DayValue(day)
	if existing == 0 || minutes < existing {
		t.SetDayValue(day, minutes)
	}
}
