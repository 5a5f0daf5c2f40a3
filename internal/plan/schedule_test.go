package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeSessions(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		frequency  Frequency
		daysOfWeek []int
		want       int
	}{
		{
			name:      "daily one week",
			start:     date(2024, time.January, 1),
			end:       date(2024, time.January, 8),
			frequency: FrequencyDaily,
			want:      7,
		},
		{
			name:      "daily single day",
			start:     date(2024, time.January, 1),
			end:       date(2024, time.January, 2),
			frequency: FrequencyDaily,
			want:      1,
		},
		{
			name:       "weekly with monday and wednesday over two weeks",
			start:      date(2024, time.January, 1), // a Monday
			end:        date(2024, time.January, 15),
			frequency:  FrequencyWeekly,
			daysOfWeek: []int{1, 3},
			want:       4,
		},
		{
			name:      "weekly without days falls back to one per week",
			start:     date(2024, time.January, 1),
			end:       date(2024, time.January, 15),
			frequency: FrequencyWeekly,
			want:      2,
		},
		{
			name:      "custom without days assumes three per week",
			start:     date(2024, time.January, 1),
			end:       date(2024, time.January, 15),
			frequency: FrequencyCustom,
			want:      6,
		},
		{
			name:       "custom with named days",
			start:      date(2024, time.January, 1),
			end:        date(2024, time.January, 8),
			frequency:  FrequencyCustom,
			daysOfWeek: []int{1, 3, 5, 0},
			want:       4,
		},
		{
			name:       "weekly days that never occur still yields one session",
			start:      date(2024, time.January, 1), // Monday
			end:        date(2024, time.January, 3),
			frequency:  FrequencyWeekly,
			daysOfWeek: []int{6},
			want:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSessions(tt.start, tt.end, tt.frequency, tt.daysOfWeek)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeSessionsInvalidRange(t *testing.T) {
	_, err := ComputeSessions(date(2024, time.January, 8), date(2024, time.January, 1), FrequencyDaily, nil)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = ComputeSessions(date(2024, time.January, 1), date(2024, time.January, 1), FrequencyDaily, nil)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestComputePagesPerSession(t *testing.T) {
	tests := []struct {
		name         string
		pageCount    int
		sessionCount int
		want         int
	}{
		{"rounds up", 100, 7, 15},
		{"exact division", 100, 4, 25},
		{"short book never drops below one page", 3, 10, 1},
		{"zero sessions treated as one", 250, 0, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePagesPerSession(tt.pageCount, tt.sessionCount))
		})
	}
}

func TestValidDaysOfWeek(t *testing.T) {
	assert.True(t, ValidDaysOfWeek(nil))
	assert.True(t, ValidDaysOfWeek([]int{0, 6}))
	assert.False(t, ValidDaysOfWeek([]int{7}))
	assert.False(t, ValidDaysOfWeek([]int{-1}))
}
