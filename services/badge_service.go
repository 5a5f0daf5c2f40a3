package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"koachReaderAPI/internal/badge"
	"koachReaderAPI/internal/notification"
)

type BadgeService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewBadgeService(db *pgxpool.Pool, notifService *NotificationService) *BadgeService {
	return &BadgeService{
		db:           db,
		notifService: notifService,
	}
}

// CheckAndAwardBadges evaluates the user's koach-point total against the
// badge catalog and awards whatever is newly crossed. The already-awarded
// set plus the unique (user_id, badge_id) constraint make re-runs and
// concurrent calls idempotent: a badge lands at most once.
//
// The badge's koach reward is applied as an increment on top of the user's
// total, consistent with session accrual.
func (s *BadgeService) CheckAndAwardBadges(ctx context.Context, clerkID string) (*badge.CheckBadgesResponse, error) {
	var userID uuid.UUID
	var koachPoints int
	err := s.db.QueryRow(ctx, `SELECT id, koach_points FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &koachPoints)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	catalog, err := s.getCatalog(ctx)
	if err != nil {
		return nil, err
	}

	awarded, err := s.getAwardedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	newlyAwarded := badge.Evaluate(koachPoints, catalog, awarded)

	awardedCount := 0
	for _, b := range newlyAwarded {
		result, err := s.db.Exec(ctx,
			`INSERT INTO user_badges (id, user_id, badge_id, awarded_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (user_id, badge_id) DO NOTHING`,
			uuid.New(), userID, b.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to award badge %s: %w", b.ID, err)
		}
		if result.RowsAffected() == 0 {
			// Lost the race to a concurrent evaluation; that call owns the
			// side effects.
			continue
		}
		awardedCount++

		if b.KoachReward > 0 {
			_, err = s.db.Exec(ctx,
				`UPDATE users SET koach_points = koach_points + $2, updated_at = NOW() WHERE id = $1`,
				userID, b.KoachReward,
			)
			if err != nil {
				log.Printf("CheckAndAwardBadges: failed to credit reward for badge %s: %v", b.ID, err)
			}
		}

		badgeID := b.ID
		_, err = s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:    userID,
			Type:      notification.NotificationBadgeUnlocked,
			Title:     "Badge unlocked!",
			Message:   fmt.Sprintf("You earned the %q badge.", b.Name),
			RelatedID: &badgeID,
			Data: map[string]any{
				"badge_id":   b.ID.String(),
				"badge_name": b.Name,
			},
		})
		if err != nil {
			log.Printf("CheckAndAwardBadges: failed to create notification for badge %s: %v", b.ID, err)
		}
	}

	return &badge.CheckBadgesResponse{
		NewBadges:  awardedCount > 0,
		BadgeCount: awardedCount,
	}, nil
}

func (s *BadgeService) getCatalog(ctx context.Context) ([]*badge.Badge, error) {
	query := `
	SELECT id, name, description, icon, threshold, koach_reward, created_at
	FROM badges
	ORDER BY threshold ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var catalog []*badge.Badge
	for rows.Next() {
		b := &badge.Badge{}
		err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Threshold, &b.KoachReward, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		catalog = append(catalog, b)
	}

	return catalog, rows.Err()
}

func (s *BadgeService) getAwardedSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := s.db.Query(ctx, `SELECT badge_id FROM user_badges WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch awarded badges: %w", err)
	}
	defer rows.Close()

	awarded := make(map[uuid.UUID]bool)
	for rows.Next() {
		var badgeID uuid.UUID
		if err := rows.Scan(&badgeID); err != nil {
			return nil, fmt.Errorf("failed to scan awarded badge: %w", err)
		}
		awarded[badgeID] = true
	}

	return awarded, rows.Err()
}

// GetBadges returns the full catalog annotated with the user's unlock state.
func (s *BadgeService) GetBadges(ctx context.Context, clerkID string) ([]*badge.BadgeWithStatus, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		b.id,
		b.name,
		b.description,
		b.icon,
		b.threshold,
		b.koach_reward,
		b.created_at,
		CASE WHEN ub.id IS NOT NULL THEN true ELSE false END as unlocked,
		ub.awarded_at
	FROM badges b
	LEFT JOIN user_badges ub ON b.id = ub.badge_id AND ub.user_id = $1
	ORDER BY unlocked DESC, b.threshold ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.BadgeWithStatus
	for rows.Next() {
		b := &badge.BadgeWithStatus{}
		err := rows.Scan(
			&b.ID, &b.Name, &b.Description, &b.Icon, &b.Threshold, &b.KoachReward,
			&b.CreatedAt, &b.Unlocked, &b.AwardedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}

	if badges == nil {
		badges = []*badge.BadgeWithStatus{}
	}

	return badges, nil
}
