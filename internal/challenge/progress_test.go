package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyProgress(t *testing.T) {
	target := &Challenge{Target: 10, TargetType: TargetBooks}

	t.Run("forward progress below target", func(t *testing.T) {
		p := &Participant{Progress: 2, Status: StatusActive}

		result, err := ApplyProgress(p, target, 5)
		require.NoError(t, err)

		assert.Equal(t, 5, result.Progress)
		assert.False(t, result.IsComplete)
		assert.False(t, result.JustCompleted)
	})

	t.Run("reaching the target completes exactly once", func(t *testing.T) {
		p := &Participant{Progress: 8, Status: StatusActive}

		result, err := ApplyProgress(p, target, 10)
		require.NoError(t, err)

		assert.True(t, result.IsComplete)
		assert.True(t, result.JustCompleted)
	})

	t.Run("updates after completion do not re-trigger", func(t *testing.T) {
		p := &Participant{Progress: 10, Status: StatusCompleted}

		result, err := ApplyProgress(p, target, 12)
		require.NoError(t, err)

		assert.True(t, result.IsComplete)
		assert.False(t, result.JustCompleted)
	})

	t.Run("equal progress is allowed", func(t *testing.T) {
		p := &Participant{Progress: 5, Status: StatusActive}

		result, err := ApplyProgress(p, target, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, result.Progress)
	})

	t.Run("decrease is rejected", func(t *testing.T) {
		p := &Participant{Progress: 5, Status: StatusActive}

		_, err := ApplyProgress(p, target, 4)
		assert.ErrorIs(t, err, ErrProgressDecrease)
	})

	t.Run("negative progress is rejected", func(t *testing.T) {
		p := &Participant{Progress: 0, Status: StatusActive}

		_, err := ApplyProgress(p, target, -1)
		assert.ErrorIs(t, err, ErrNegativeProgress)
	})
}
