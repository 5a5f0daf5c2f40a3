package plan

import (
	"errors"
	"time"
)

var ErrInvalidDateRange = errors.New("end date must be after start date")

// defaultCustomDaysPerWeek is assumed when a custom-frequency plan does not
// name its reading days.
const defaultCustomDaysPerWeek = 3

// ComputeSessions returns how many reading sessions fit between startDate and
// endDate for the given cadence. Days are counted over [startDate, endDate),
// so a Jan 1 to Jan 8 daily plan has exactly 7 sessions. The result is never
// less than 1.
func ComputeSessions(startDate, endDate time.Time, frequency Frequency, daysOfWeek []int) (int, error) {
	totalDays := daysBetween(startDate, endDate)
	if totalDays <= 0 {
		return 0, ErrInvalidDateRange
	}

	var sessions int
	switch frequency {
	case FrequencyDaily:
		sessions = totalDays
	case FrequencyWeekly:
		if len(daysOfWeek) > 0 {
			sessions = countMatchingWeekdays(startDate, totalDays, daysOfWeek)
		} else {
			sessions = ceilDiv(totalDays, 7)
		}
	case FrequencyCustom:
		perWeek := len(daysOfWeek)
		if perWeek == 0 {
			perWeek = defaultCustomDaysPerWeek
		}
		sessions = ceilDiv(totalDays*perWeek, 7)
	default:
		sessions = totalDays
	}

	if sessions < 1 {
		sessions = 1
	}
	return sessions, nil
}

// ComputePagesPerSession spreads pageCount over sessionCount sessions,
// rounding up so the plan always finishes by its last session.
func ComputePagesPerSession(pageCount, sessionCount int) int {
	if sessionCount < 1 {
		sessionCount = 1
	}
	pages := ceilDiv(pageCount, sessionCount)
	if pages < 1 {
		pages = 1
	}
	return pages
}

// ValidDaysOfWeek reports whether every entry is a weekday index in [0, 6].
func ValidDaysOfWeek(days []int) bool {
	for _, d := range days {
		if d < 0 || d > 6 {
			return false
		}
	}
	return true
}

func daysBetween(start, end time.Time) int {
	diff := end.Sub(start)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

func countMatchingWeekdays(start time.Time, totalDays int, daysOfWeek []int) int {
	wanted := make(map[int]bool, len(daysOfWeek))
	for _, d := range daysOfWeek {
		wanted[d] = true
	}

	count := 0
	for i := 0; i < totalDays; i++ {
		weekday := int(start.AddDate(0, 0, i).Weekday())
		if wanted[weekday] {
			count++
		}
	}
	return count
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
