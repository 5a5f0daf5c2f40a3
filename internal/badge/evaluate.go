package badge

import "github.com/google/uuid"

// Evaluate compares a user's koach-point total against the badge catalog and
// returns the badges that should be awarded now: threshold reached and not
// in the already-awarded set. The caller loads the awarded set before
// evaluation and persists the result after, which keeps re-runs idempotent.
func Evaluate(koachPoints int, catalog []*Badge, awarded map[uuid.UUID]bool) []*Badge {
	var newlyAwarded []*Badge
	for _, b := range catalog {
		if awarded[b.ID] {
			continue
		}
		if koachPoints >= b.Threshold {
			newlyAwarded = append(newlyAwarded, b)
		}
	}
	return newlyAwarded
}
