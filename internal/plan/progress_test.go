package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyProgress(t *testing.T) {
	t.Run("ordinary session accrues pages and koach", func(t *testing.T) {
		p := &ReadingPlan{TotalPagesRead: 20}

		result, err := ApplyProgress(p, 300, 10)
		require.NoError(t, err)

		assert.Equal(t, 30, result.TotalPagesRead)
		assert.Equal(t, 50, result.KoachEarned)
		assert.False(t, result.IsComplete)
		assert.False(t, result.JustCompleted)
	})

	t.Run("final session clamps at the book page count", func(t *testing.T) {
		p := &ReadingPlan{TotalPagesRead: 90}

		result, err := ApplyProgress(p, 100, 30)
		require.NoError(t, err)

		assert.Equal(t, 100, result.TotalPagesRead)
		assert.Equal(t, 150, result.KoachEarned, "koach is earned on the raw pages read")
		assert.True(t, result.IsComplete)
		assert.True(t, result.JustCompleted)
	})

	t.Run("exact finish completes the plan", func(t *testing.T) {
		p := &ReadingPlan{TotalPagesRead: 75}

		result, err := ApplyProgress(p, 100, 25)
		require.NoError(t, err)

		assert.Equal(t, 100, result.TotalPagesRead)
		assert.True(t, result.IsComplete)
		assert.True(t, result.JustCompleted)
	})

	t.Run("sessions after completion never re-trigger the transition", func(t *testing.T) {
		p := &ReadingPlan{TotalPagesRead: 100, IsCompleted: true}

		result, err := ApplyProgress(p, 100, 5)
		require.NoError(t, err)

		assert.Equal(t, 100, result.TotalPagesRead)
		assert.Equal(t, 25, result.KoachEarned)
		assert.True(t, result.IsComplete)
		assert.False(t, result.JustCompleted)
	})

	t.Run("zero and negative pages are rejected", func(t *testing.T) {
		p := &ReadingPlan{}

		_, err := ApplyProgress(p, 100, 0)
		assert.ErrorIs(t, err, ErrInvalidPagesRead)

		_, err = ApplyProgress(p, 100, -3)
		assert.ErrorIs(t, err, ErrInvalidPagesRead)
	})
}
