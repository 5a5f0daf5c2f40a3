package leaderboard

import "github.com/google/uuid"

type LeaderboardEntry struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Username      string    `json:"username" db:"username"`
	ImageURL      *string   `json:"image_url" db:"image_url"`
	KoachPoints   int       `json:"koach_points" db:"koach_points"`
	Rank          int       `json:"rank" db:"rank"`
	ReadingStreak int       `json:"reading_streak" db:"reading_streak"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}

type LeaderboardsResponse struct {
	Global  *Leaderboard `json:"global"`
	Friends *Leaderboard `json:"friends"`
}
