package challenge

import (
	"time"

	"github.com/google/uuid"
)

type TargetType string

const (
	TargetKoach TargetType = "koach"
	TargetBooks TargetType = "books"
	TargetPages TargetType = "pages"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetKoach, TargetBooks, TargetPages:
		return true
	}
	return false
}

type ParticipantStatus string

const (
	StatusActive    ParticipantStatus = "active"
	StatusCompleted ParticipantStatus = "completed"
	StatusAbandoned ParticipantStatus = "abandoned"
)

type Challenge struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CreatorID   uuid.UUID  `json:"creator_id" db:"creator_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	StartDate   time.Time  `json:"start_date" db:"start_date"`
	EndDate     time.Time  `json:"end_date" db:"end_date"`
	Target      int        `json:"target" db:"target"`
	TargetType  TargetType `json:"target_type" db:"target_type"`
	IsPrivate   bool       `json:"is_private" db:"is_private"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type Participant struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	ChallengeID uuid.UUID         `json:"challenge_id" db:"challenge_id"`
	UserID      uuid.UUID         `json:"user_id" db:"user_id"`
	Progress    int               `json:"progress" db:"progress"`
	Status      ParticipantStatus `json:"status" db:"status"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
	JoinedAt    time.Time         `json:"joined_at" db:"joined_at"`
}

type ChallengeWithParticipation struct {
	Challenge
	ParticipantCount int                `json:"participant_count"`
	Joined           bool               `json:"joined"`
	Progress         *int               `json:"progress,omitempty"`
	Status           *ParticipantStatus `json:"status,omitempty"`
}

type CreateChallengeRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	StartDate   string `json:"start_date" validate:"required"` // YYYY-MM-DD
	EndDate     string `json:"end_date" validate:"required"`
	Target      int    `json:"target" validate:"required"`
	TargetType  string `json:"target_type" validate:"required,oneof=koach books pages"`
	IsPrivate   bool   `json:"is_private"`
}

type UpdateProgressRequest struct {
	Progress int `json:"progress"`
}

type UpdateProgressResponse struct {
	IsComplete bool `json:"is_complete"`
	Progress   int  `json:"progress"`
}

type LeaderboardEntry struct {
	UserID   uuid.UUID         `json:"user_id" db:"user_id"`
	Username string            `json:"username" db:"username"`
	ImageURL *string           `json:"image_url" db:"image_url"`
	Progress int               `json:"progress" db:"progress"`
	Rank     int               `json:"rank" db:"rank"`
	Status   ParticipantStatus `json:"status" db:"status"`
}
