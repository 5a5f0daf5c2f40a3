package utils

import "time"

// NextStreak computes the reading streak after a session recorded at now,
// given the previous session's date. Calendar days, not 24h windows: a second
// session on the same day keeps the streak, a session on the next day extends
// it, anything later resets to 1.
func NextStreak(lastSession *time.Time, currentStreak int, now time.Time) int {
	if lastSession == nil {
		return 1
	}

	last := truncateToDay(*lastSession)
	today := truncateToDay(now)

	switch int(today.Sub(last).Hours() / 24) {
	case 0:
		if currentStreak < 1 {
			return 1
		}
		return currentStreak
	case 1:
		return currentStreak + 1
	default:
		return 1
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
