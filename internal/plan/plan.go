package plan

import (
	"time"

	"github.com/google/uuid"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

type ReadingPlan struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	BookID          uuid.UUID  `json:"book_id" db:"book_id"`
	StartDate       time.Time  `json:"start_date" db:"start_date"`
	EndDate         time.Time  `json:"end_date" db:"end_date"`
	Frequency       Frequency  `json:"frequency" db:"frequency"`
	DaysOfWeek      []int      `json:"days_of_week,omitempty" db:"days_of_week"`
	PagesPerSession int        `json:"pages_per_session" db:"pages_per_session"`
	TotalPagesRead  int        `json:"total_pages_read" db:"total_pages_read"`
	IsCompleted     bool       `json:"is_completed" db:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	PreferredTime   *string    `json:"preferred_time,omitempty" db:"preferred_time"`
	Format          *string    `json:"format,omitempty" db:"format"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// PlanWithBook is what plan endpoints return: the plan plus the catalog
// fields the client renders next to it.
type PlanWithBook struct {
	ReadingPlan
	BookTitle     string `json:"book_title" db:"book_title"`
	BookAuthor    string `json:"book_author" db:"book_author"`
	BookPageCount int    `json:"book_page_count" db:"book_page_count"`
}

type CreatePlanRequest struct {
	BookID        string  `json:"book_id" validate:"required"`
	StartDate     string  `json:"start_date" validate:"required"` // YYYY-MM-DD
	EndDate       string  `json:"end_date" validate:"required"`
	Frequency     string  `json:"frequency" validate:"required,oneof=daily weekly custom"`
	DaysOfWeek    []int   `json:"days_of_week,omitempty"`
	PreferredTime *string `json:"preferred_time,omitempty"`
	Format        *string `json:"format,omitempty"`
}

type RecordProgressRequest struct {
	PagesRead    int  `json:"pages_read" validate:"required"`
	MinutesSpent *int `json:"minutes_spent,omitempty"`
}

type RecordProgressResponse struct {
	KoachEarned    int  `json:"koach_earned"`
	IsComplete     bool `json:"is_complete"`
	TotalPagesRead int  `json:"total_pages_read"`
}
