package badge

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	bronze := &Badge{ID: uuid.New(), Name: "Bookworm", Threshold: 100}
	silver := &Badge{ID: uuid.New(), Name: "Page Turner", Threshold: 500}
	gold := &Badge{ID: uuid.New(), Name: "Koach Legend", Threshold: 1000}
	catalog := []*Badge{bronze, silver, gold}

	t.Run("awards every badge at or below the total", func(t *testing.T) {
		got := Evaluate(600, catalog, map[uuid.UUID]bool{})
		assert.Equal(t, []*Badge{bronze, silver}, got)
	})

	t.Run("skips badges already awarded", func(t *testing.T) {
		awarded := map[uuid.UUID]bool{bronze.ID: true}
		got := Evaluate(600, catalog, awarded)
		assert.Equal(t, []*Badge{silver}, got)
	})

	t.Run("exact threshold counts", func(t *testing.T) {
		got := Evaluate(100, catalog, map[uuid.UUID]bool{})
		assert.Equal(t, []*Badge{bronze}, got)
	})

	t.Run("below every threshold awards nothing", func(t *testing.T) {
		got := Evaluate(99, catalog, map[uuid.UUID]bool{})
		assert.Empty(t, got)
	})

	t.Run("re-running after all awards is a no-op", func(t *testing.T) {
		awarded := map[uuid.UUID]bool{bronze.ID: true, silver.ID: true, gold.ID: true}
		got := Evaluate(5000, catalog, awarded)
		assert.Empty(t, got)
	})
}
