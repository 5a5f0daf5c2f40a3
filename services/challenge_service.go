package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"koachReaderAPI/internal/challenge"
	"koachReaderAPI/internal/notification"
)

var ErrChallengeNotFound = errors.New("challenge not found")

type ChallengeService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, notifService *NotificationService) *ChallengeService {
	return &ChallengeService{
		db:           db,
		notifService: notifService,
	}
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, clerkID string, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date")
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date")
	}
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("end date must be after start date")
	}

	targetType := challenge.TargetType(req.TargetType)
	if !targetType.Valid() {
		return nil, fmt.Errorf("invalid target type %q", req.TargetType)
	}
	if req.Target <= 0 {
		return nil, fmt.Errorf("target must be a positive integer")
	}

	c := &challenge.Challenge{
		ID:          uuid.New(),
		CreatorID:   userID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		Target:      req.Target,
		TargetType:  targetType,
		IsPrivate:   req.IsPrivate,
		CreatedAt:   time.Now(),
	}

	query := `
	INSERT INTO challenges (id, creator_id, name, description, start_date, end_date, target, target_type, is_private, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.Exec(ctx, query,
		c.ID, c.CreatorID, c.Name, c.Description, c.StartDate, c.EndDate,
		c.Target, c.TargetType, c.IsPrivate, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	// The creator participates in their own challenge from the start.
	_, err = s.db.Exec(ctx,
		`INSERT INTO challenge_participants (id, challenge_id, user_id, progress, status, joined_at)
		 VALUES ($1, $2, $3, 0, 'active', NOW())`,
		uuid.New(), c.ID, userID,
	)
	if err != nil {
		log.Printf("CreateChallenge: failed to enroll creator in %s: %v", c.ID, err)
	}

	return c, nil
}

// GetChallenges lists public challenges plus private ones the user created
// or already joined.
func (s *ChallengeService) GetChallenges(ctx context.Context, clerkID string) ([]*challenge.ChallengeWithParticipation, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		c.id, c.creator_id, c.name, c.description, c.start_date, c.end_date,
		c.target, c.target_type, c.is_private, c.created_at,
		(SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = c.id) as participant_count,
		CASE WHEN cp.id IS NOT NULL THEN true ELSE false END as joined,
		cp.progress,
		cp.status
	FROM challenges c
	LEFT JOIN challenge_participants cp ON cp.challenge_id = c.id AND cp.user_id = $1
	WHERE c.is_private = false OR c.creator_id = $1 OR cp.id IS NOT NULL
	ORDER BY c.start_date DESC
	LIMIT 100
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.ChallengeWithParticipation
	for rows.Next() {
		c := &challenge.ChallengeWithParticipation{}
		err := rows.Scan(
			&c.ID, &c.CreatorID, &c.Name, &c.Description, &c.StartDate, &c.EndDate,
			&c.Target, &c.TargetType, &c.IsPrivate, &c.CreatedAt,
			&c.ParticipantCount, &c.Joined, &c.Progress, &c.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}

	if challenges == nil {
		challenges = []*challenge.ChallengeWithParticipation{}
	}

	return challenges, nil
}

func (s *ChallengeService) getChallenge(ctx context.Context, challengeID uuid.UUID) (*challenge.Challenge, error) {
	query := `
	SELECT id, creator_id, name, description, start_date, end_date, target, target_type, is_private, created_at
	FROM challenges
	WHERE id = $1
	`

	c := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, query, challengeID).Scan(
		&c.ID, &c.CreatorID, &c.Name, &c.Description, &c.StartDate, &c.EndDate,
		&c.Target, &c.TargetType, &c.IsPrivate, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return c, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.ChallengeWithParticipation, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	c, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	result := &challenge.ChallengeWithParticipation{Challenge: *c}

	s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = $1`,
		challengeID,
	).Scan(&result.ParticipantCount)

	var progress int
	var status challenge.ParticipantStatus
	err = s.db.QueryRow(ctx,
		`SELECT progress, status FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID,
	).Scan(&progress, &status)
	if err == nil {
		result.Joined = true
		result.Progress = &progress
		result.Status = &status
	}

	if c.IsPrivate && c.CreatorID != userID && !result.Joined {
		allowed, err := s.isAuthorizedForPrivate(ctx, userID, c.CreatorID)
		if err != nil || !allowed {
			return nil, challenge.ErrPrivateChallenge
		}
	}

	return result, nil
}

// JoinChallenge enrolls the user with progress 0. Private challenges admit
// the creator and the creator's friends. The EXISTS precheck gives a clean
// error; the unique (challenge_id, user_id) constraint closes the race.
func (s *ChallengeService) JoinChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.Participant, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	c, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	if c.IsPrivate && c.CreatorID != userID {
		allowed, err := s.isAuthorizedForPrivate(ctx, userID, c.CreatorID)
		if err != nil {
			return nil, fmt.Errorf("failed to check challenge access: %w", err)
		}
		if !allowed {
			return nil, challenge.ErrPrivateChallenge
		}
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2)`,
		challengeID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if exists {
		return nil, challenge.ErrAlreadyJoined
	}

	p := &challenge.Participant{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		UserID:      userID,
		Progress:    0,
		Status:      challenge.StatusActive,
		JoinedAt:    time.Now(),
	}

	result, err := s.db.Exec(ctx,
		`INSERT INTO challenge_participants (id, challenge_id, user_id, progress, status, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (challenge_id, user_id) DO NOTHING`,
		p.ID, p.ChallengeID, p.UserID, p.Progress, p.Status, p.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to join challenge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, challenge.ErrAlreadyJoined
	}

	return p, nil
}

// isAuthorizedForPrivate allows friends of the creator into a private
// challenge.
func (s *ChallengeService) isAuthorizedForPrivate(ctx context.Context, userID, creatorID uuid.UUID) (bool, error) {
	var isFriend bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))
			AND status = 'accepted'
		)
	`, userID, creatorID).Scan(&isFriend)
	return isFriend, err
}

// UpdateProgress moves a participant forward. Progress is monotonic; the
// active→completed transition is guarded by status = 'active' so its side
// effects fire exactly once, even under concurrent updates.
func (s *ChallengeService) UpdateProgress(ctx context.Context, clerkID string, challengeID uuid.UUID, newProgress int) (*challenge.UpdateProgressResponse, error) {
	var userID uuid.UUID
	var username string
	err := s.db.QueryRow(ctx, `SELECT id, username FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &username)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	c, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	p := &challenge.Participant{}
	err = s.db.QueryRow(ctx,
		`SELECT id, challenge_id, user_id, progress, status, completed_at, joined_at
		 FROM challenge_participants
		 WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID,
	).Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.Progress, &p.Status, &p.CompletedAt, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("not a participant of this challenge")
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	result, err := challenge.ApplyProgress(p, c, newProgress)
	if err != nil {
		return nil, err
	}

	if result.JustCompleted {
		updated, err := s.db.Exec(ctx,
			`UPDATE challenge_participants
			 SET progress = $3, status = 'completed', completed_at = NOW()
			 WHERE challenge_id = $1 AND user_id = $2 AND status = 'active'`,
			challengeID, userID, result.Progress,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update progress: %w", err)
		}
		if updated.RowsAffected() > 0 {
			s.notifyCompletion(ctx, c, userID, username)
		}
	} else {
		_, err = s.db.Exec(ctx,
			`UPDATE challenge_participants SET progress = $3 WHERE challenge_id = $1 AND user_id = $2`,
			challengeID, userID, result.Progress,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update progress: %w", err)
		}
	}

	return &challenge.UpdateProgressResponse{
		IsComplete: result.IsComplete,
		Progress:   result.Progress,
	}, nil
}

func (s *ChallengeService) notifyCompletion(ctx context.Context, c *challenge.Challenge, userID uuid.UUID, username string) {
	challengeID := c.ID

	_, err := s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:    userID,
		Type:      notification.NotificationChallengeCompleted,
		Title:     "Challenge completed!",
		Message:   fmt.Sprintf("You reached the target of %q.", c.Name),
		RelatedID: &challengeID,
		Data:      map[string]any{"challenge_id": c.ID.String()},
	})
	if err != nil {
		log.Printf("notifyCompletion: failed to notify participant %s: %v", userID, err)
	}

	if c.CreatorID == userID {
		return
	}

	_, err = s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:    c.CreatorID,
		Type:      notification.NotificationChallengeUpdate,
		Title:     "Challenge update",
		Message:   fmt.Sprintf("%s completed your challenge %q.", username, c.Name),
		RelatedID: &challengeID,
		Data: map[string]any{
			"challenge_id": c.ID.String(),
			"username":     username,
		},
	})
	if err != nil {
		log.Printf("notifyCompletion: failed to notify creator %s: %v", c.CreatorID, err)
	}
}

func (s *ChallengeService) GetLeaderboard(ctx context.Context, clerkID string, challengeID uuid.UUID) ([]*challenge.LeaderboardEntry, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if _, err := s.getChallenge(ctx, challengeID); err != nil {
		return nil, err
	}

	query := `
	SELECT
		u.id as user_id,
		u.username,
		u.image_url,
		cp.progress,
		RANK() OVER (ORDER BY cp.progress DESC) as rank,
		cp.status
	FROM challenge_participants cp
	INNER JOIN users u ON u.id = cp.user_id
	WHERE cp.challenge_id = $1
	ORDER BY cp.progress DESC, u.username
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenge leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*challenge.LeaderboardEntry
	for rows.Next() {
		entry := &challenge.LeaderboardEntry{}
		err := rows.Scan(&entry.UserID, &entry.Username, &entry.ImageURL, &entry.Progress, &entry.Rank, &entry.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, entry)
	}

	if entries == nil {
		entries = []*challenge.LeaderboardEntry{}
	}

	return entries, nil
}
