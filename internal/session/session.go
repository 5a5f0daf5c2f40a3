package session

import (
	"time"

	"github.com/google/uuid"
)

// ReadingSession is an append-only log entry. Rows are never updated or
// deleted once written.
type ReadingSession struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	BookID        uuid.UUID  `json:"book_id" db:"book_id"`
	ReadingPlanID *uuid.UUID `json:"reading_plan_id,omitempty" db:"reading_plan_id"`
	PagesRead     int        `json:"pages_read" db:"pages_read"`
	MinutesSpent  *int       `json:"minutes_spent,omitempty" db:"minutes_spent"`
	KoachEarned   int        `json:"koach_earned" db:"koach_earned"`
	SessionDate   time.Time  `json:"session_date" db:"session_date"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type SessionListResponse struct {
	Sessions   []*ReadingSession `json:"sessions"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
}
