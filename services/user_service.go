package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"koachReaderAPI/internal/leaderboard"
	"koachReaderAPI/internal/notification"
	"koachReaderAPI/internal/user"
)

type UserService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewUserService(db *pgxpool.Pool, notifService *NotificationService) *UserService {
	return &UserService{
		db:           db,
		notifService: notifService,
	}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at, koach_points, reading_streak, books_finished
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.KoachPoints,
		&u.ReadingStreak,
		&u.BooksFinished,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET
		username = COALESCE(NULLIF($2, ''), username),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name = COALESCE(NULLIF($4, ''), last_name),
		image_url = COALESCE(NULLIF($5, ''), image_url),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at, koach_points, reading_streak, books_finished
	`

	u := &user.User{}
	err := s.db.QueryRow(
		ctx,
		query,
		clerkID,
		req.Username,
		req.FirstName,
		req.LastName,
		req.ImageURL,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.KoachPoints,
		&u.ReadingStreak,
		&u.BooksFinished,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

// DeleteUserByClerkID removes the user. Plans, sessions, badges, challenge
// rows and notifications cascade at the database level.
func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	query := `DELETE FROM users WHERE clerk_id = $1`

	result, err := s.db.Exec(ctx, query, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	query := `
	UPDATE users
	SET email_verified = $2, updated_at = NOW()
	WHERE clerk_id = $1
	`

	_, err := s.db.Exec(ctx, query, clerkID, verified)
	return err
}

func (s *UserService) GetFriends(ctx context.Context, clerkID string) ([]*user.User, error) {
	query := `
	SELECT DISTINCT
		u.id,
		u.clerk_id,
		u.email,
		u.username,
		u.first_name,
		u.last_name,
		u.image_url,
		u.email_verified,
		u.created_at,
		u.updated_at,
		u.koach_points,
		u.reading_streak,
		u.books_finished
	FROM users u
	INNER JOIN friendships f ON (
		(f.user_id = u.id AND f.friend_id = (SELECT id FROM users WHERE clerk_id = $1))
		OR
		(f.friend_id = u.id AND f.user_id = (SELECT id FROM users WHERE clerk_id = $1))
	)
	WHERE f.status = 'accepted'
	AND u.clerk_id != $1
	ORDER BY u.username
	`

	rows, err := s.db.Query(ctx, query, clerkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []*user.User
	for rows.Next() {
		var u user.User
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Username,
			&u.FirstName,
			&u.LastName,
			&u.ImageURL,
			&u.EmailVerified,
			&u.CreatedAt,
			&u.UpdatedAt,
			&u.KoachPoints,
			&u.ReadingStreak,
			&u.BooksFinished,
		)
		if err != nil {
			return nil, err
		}
		friends = append(friends, &u)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if friends == nil {
		friends = []*user.User{}
	}

	return friends, nil
}

func (s *UserService) AddFriend(ctx context.Context, clerkID string, friendID string) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		log.Printf("AddFriend: Failed to find user with clerk_id %s: %v", clerkID, err)
		return fmt.Errorf("user not found")
	}

	friendUUID, err := uuid.Parse(friendID)
	if err != nil {
		return fmt.Errorf("invalid friend id")
	}

	var friendUsername string
	err = s.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, friendUUID).Scan(&friendUsername)
	if err != nil {
		log.Printf("AddFriend: Failed to find friend %s: %v", friendID, err)
		return fmt.Errorf("friend user not found")
	}

	if userID == friendUUID {
		return fmt.Errorf("cannot add yourself as a friend")
	}

	var exists bool
	checkQuery := `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2)
			   OR (user_id = $2 AND friend_id = $1)
		)
	`
	err = s.db.QueryRow(ctx, checkQuery, userID, friendUUID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing friendship")
	}

	if exists {
		return fmt.Errorf("friendship already exists")
	}

	insertQuery := `
		INSERT INTO friendships (user_id, friend_id, status, created_at)
		VALUES ($1, $2, 'accepted', NOW())
	`

	_, err = s.db.Exec(ctx, insertQuery, userID, friendUUID)
	if err != nil {
		return fmt.Errorf("failed to create friendship")
	}

	var username string
	s.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username)

	_, err = s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:  friendUUID,
		Type:    notification.NotificationFriendRequest,
		Title:   "New reading buddy",
		Message: fmt.Sprintf("%s added you as a friend.", username),
		Data:    map[string]any{"username": username},
	})
	if err != nil {
		log.Printf("AddFriend: failed to notify %s: %v", friendUUID, err)
	}

	return nil
}

func (s *UserService) RemoveFriend(ctx context.Context, clerkID string, friendID string) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found")
	}

	friendUUID, err := uuid.Parse(friendID)
	if err != nil {
		return fmt.Errorf("invalid friend id")
	}

	deleteQuery := `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2)
		   OR (user_id = $2 AND friend_id = $1)
	`

	result, err := s.db.Exec(ctx, deleteQuery, userID, friendUUID)
	if err != nil {
		return fmt.Errorf("failed to remove friendship")
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("friendship not found")
	}

	return nil
}

func (s *UserService) GetFriendsLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		u.id as user_id,
		u.username,
		u.image_url,
		u.koach_points,
		RANK() OVER (ORDER BY u.koach_points DESC) as rank,
		u.reading_streak
	FROM users u
	WHERE u.id = $1 OR u.id IN (
		SELECT f.friend_id FROM friendships f WHERE f.user_id = $1 AND f.status = 'accepted'
		UNION
		SELECT f.user_id FROM friendships f WHERE f.friend_id = $1 AND f.status = 'accepted'
	)
	ORDER BY u.koach_points DESC, u.reading_streak DESC
	LIMIT 50
	`

	return s.scanLeaderboard(ctx, query, userID)
}

func (s *UserService) GetGlobalLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		u.id AS user_id,
		u.username,
		u.image_url,
		u.koach_points,
		RANK() OVER (ORDER BY u.koach_points DESC) AS rank,
		u.reading_streak
	FROM users u
	ORDER BY u.koach_points DESC, u.reading_streak DESC
	LIMIT 50
	`

	return s.scanLeaderboard(ctx, query, userID)
}

func (s *UserService) scanLeaderboard(ctx context.Context, query string, userID uuid.UUID) (*leaderboard.Leaderboard, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	var userPosition *leaderboard.LeaderboardEntry

	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.ImageURL,
			&entry.KoachPoints,
			&entry.Rank,
			&entry.ReadingStreak,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, entry)

		if entry.UserID == userID {
			userPosition = entry
		}
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}

func (s *UserService) SearchUsers(ctx context.Context, clerkID string, query string) ([]*user.User, error) {
	cleanQuery := strings.TrimSpace(query)
	searchPattern := "%" + cleanQuery + "%"

	sqlQuery := `
	SELECT
		id,
		clerk_id,
		email,
		username,
		first_name,
		last_name,
		image_url,
		email_verified,
		created_at,
		updated_at,
		koach_points,
		reading_streak,
		books_finished
	FROM users
	WHERE
		(
			username ILIKE $1 OR
			first_name ILIKE $1 OR
			last_name ILIKE $1 OR
			CONCAT(COALESCE(first_name, ''), ' ', COALESCE(last_name, '')) ILIKE $1
		)
		AND clerk_id != $2
	ORDER BY username
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, sqlQuery, searchPattern, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Username,
			&u.FirstName,
			&u.LastName,
			&u.ImageURL,
			&u.EmailVerified,
			&u.CreatedAt,
			&u.UpdatedAt,
			&u.KoachPoints,
			&u.ReadingStreak,
			&u.BooksFinished,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if users == nil {
		users = []*user.User{}
	}

	return users, nil
}
