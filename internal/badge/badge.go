package badge

import (
	"time"

	"github.com/google/uuid"
)

// Badge is a row of the global, immutable badge catalog. Threshold is the
// koach-point total that unlocks it.
type Badge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Icon        string    `json:"icon" db:"icon"`
	Threshold   int       `json:"threshold" db:"threshold"`
	KoachReward int       `json:"koach_reward" db:"koach_reward"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type UserBadge struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	BadgeID   uuid.UUID `json:"badge_id" db:"badge_id"`
	AwardedAt time.Time `json:"awarded_at" db:"awarded_at"`
}

type BadgeWithStatus struct {
	Badge
	Unlocked  bool       `json:"unlocked"`
	AwardedAt *time.Time `json:"awarded_at,omitempty"`
}

type CheckBadgesResponse struct {
	NewBadges  bool `json:"new_badges"`
	BadgeCount int  `json:"badge_count"`
}
