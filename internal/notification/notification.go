package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationPlanCompleted      NotificationType = "plan_completed"
	NotificationBadgeUnlocked      NotificationType = "badge_unlocked"
	NotificationChallengeCompleted NotificationType = "challenge_completed"
	NotificationChallengeUpdate    NotificationType = "challenge_update"
	NotificationFriendRequest      NotificationType = "friend_request"
	NotificationFriendFinishedBook NotificationType = "friend_finished_book"
	NotificationReadingReminder    NotificationType = "reading_reminder"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	RelatedID *uuid.UUID       `json:"related_id,omitempty" db:"related_id"`
	Data      map[string]any   `json:"data" db:"data"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
