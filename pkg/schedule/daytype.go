package schedule

type DayType string

const (
	DayTypeWeekday  DayType = "weekday"
	DayTypeSaturday DayType = "saturday"
	DayTypeSunday   DayType = "sunday"
)

func AllDayTypes() []DayType {
	return []DayType{DayTypeWeekday, DayTypeSaturday, DayTypeSunday}
}
