package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	clockTimeRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm]?)?$`)
	timeLikeRegex  = regexp.MustCompile(`\d{1,2}:\d{2}`)
)

// ParseClockTime converts a clock string ("7:05", "07:05", "07:05:30",
// "2:15pm") into minutes after midnight. Exports sometimes carry past
// midnight hours ("24:30"), which wrap onto the next day.
func ParseClockTime(value string) (int, error) {
	match := clockTimeRegex.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return 0, fmt.Errorf("unrecognised clock time %q", value)
	}

	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if minute > 59 {
		return 0, fmt.Errorf("minute out of range in clock time %q", value)
	}

	meridiem := strings.ToLower(match[4])
	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour out of range in clock time %q", value)
		}
		if strings.HasPrefix(meridiem, "p") && hour != 12 {
			hour += 12
		}
		if strings.HasPrefix(meridiem, "a") && hour == 12 {
			hour = 0
		}
	} else if hour >= 24 {
		hour -= 24
	}

	return hour*60 + minute, nil
}

// FormatClockTime renders minutes after midnight as zero padded 24 hour
// "HH:MM".
func FormatClockTime(minutes int) string {
	minutes %= 1440
	if minutes < 0 {
		minutes += 1440
	}

	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeClockTime rewrites any accepted clock string as 24 hour "HH:MM".
func NormalizeClockTime(value string) (string, error) {
	minutes, err := ParseClockTime(value)
	if err != nil {
		return "", err
	}

	return FormatClockTime(minutes), nil
}

// TravelMinutes is the forward distance between two clock times, wrapping
// past midnight when the destination time is on the next day.
func TravelMinutes(fromMinutes int, toMinutes int) int {
	diff := (toMinutes - fromMinutes) % 1440
	if diff < 0 {
		diff += 1440
	}

	return diff
}

// IsClockTime reports whether the whole cell is a single clock value.
func IsClockTime(value string) bool {
	return clockTimeRegex.MatchString(strings.TrimSpace(value))
}

// LooksLikeTime reports whether the text contains something clock shaped.
func LooksLikeTime(value string) bool {
	return timeLikeRegex.MatchString(value)
}

// HalfHourWindow is the label of the half hour period containing the given
// clock minute, eg. "07:00 - 07:29".
func HalfHourWindow(minutes int) string {
	minutes %= 1440
	if minutes < 0 {
		minutes += 1440
	}

	start := minutes - (minutes % 30)

	return fmt.Sprintf("%s - %s", FormatClockTime(start), FormatClockTime(start+29))
}
