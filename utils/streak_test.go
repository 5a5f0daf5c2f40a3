package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2024, time.March, 10, 20, 30, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -7)
	earlierToday := time.Date(2024, time.March, 10, 7, 0, 0, 0, time.UTC)

	t.Run("first session starts at one", func(t *testing.T) {
		assert.Equal(t, 1, NextStreak(nil, 0, now))
	})

	t.Run("second session same day keeps the streak", func(t *testing.T) {
		assert.Equal(t, 4, NextStreak(&earlierToday, 4, now))
	})

	t.Run("session the day after extends", func(t *testing.T) {
		assert.Equal(t, 5, NextStreak(&yesterday, 4, now))
	})

	t.Run("gap resets to one", func(t *testing.T) {
		assert.Equal(t, 1, NextStreak(&lastWeek, 12, now))
	})

	t.Run("same day with a zero streak floors at one", func(t *testing.T) {
		assert.Equal(t, 1, NextStreak(&earlierToday, 0, now))
	})
}
