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

	"koachReaderAPI/internal/notification"
	"koachReaderAPI/internal/plan"
	"koachReaderAPI/internal/session"
	"koachReaderAPI/utils"
)

var (
	ErrPlanNotFound = errors.New("reading plan not found")
	ErrNotPlanOwner = errors.New("reading plan belongs to another user")
)

type ReadingPlanService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
	badgeService *BadgeService
}

func NewReadingPlanService(db *pgxpool.Pool, notifService *NotificationService, badgeService *BadgeService) *ReadingPlanService {
	return &ReadingPlanService{
		db:           db,
		notifService: notifService,
		badgeService: badgeService,
	}
}

// CreatePlan derives the session schedule from the book's page count and the
// requested cadence, then stores the plan with its pages-per-session figure.
func (s *ReadingPlanService) CreatePlan(ctx context.Context, clerkID string, req *plan.CreatePlanRequest) (*plan.PlanWithBook, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return nil, fmt.Errorf("invalid book id")
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", plan.ErrInvalidDateRange)
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", plan.ErrInvalidDateRange)
	}

	frequency := plan.Frequency(req.Frequency)
	if !frequency.Valid() {
		return nil, fmt.Errorf("invalid frequency %q", req.Frequency)
	}
	if !plan.ValidDaysOfWeek(req.DaysOfWeek) {
		return nil, fmt.Errorf("days of week must be integers in [0, 6]")
	}

	var bookTitle, bookAuthor string
	var bookPageCount int
	err = s.db.QueryRow(ctx, `SELECT title, author, page_count FROM books WHERE id = $1`, bookID).
		Scan(&bookTitle, &bookAuthor, &bookPageCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	sessions, err := plan.ComputeSessions(startDate, endDate, frequency, req.DaysOfWeek)
	if err != nil {
		return nil, err
	}
	pagesPerSession := plan.ComputePagesPerSession(bookPageCount, sessions)

	p := &plan.PlanWithBook{
		ReadingPlan: plan.ReadingPlan{
			ID:              uuid.New(),
			UserID:          userID,
			BookID:          bookID,
			StartDate:       startDate,
			EndDate:         endDate,
			Frequency:       frequency,
			DaysOfWeek:      req.DaysOfWeek,
			PagesPerSession: pagesPerSession,
			PreferredTime:   req.PreferredTime,
			Format:          req.Format,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		},
		BookTitle:     bookTitle,
		BookAuthor:    bookAuthor,
		BookPageCount: bookPageCount,
	}

	query := `
	INSERT INTO reading_plans (id, user_id, book_id, start_date, end_date, frequency, days_of_week,
		pages_per_session, total_pages_read, is_completed, preferred_time, format, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, false, $9, $10, $11, $12)
	`

	_, err = s.db.Exec(ctx, query,
		p.ID, p.UserID, p.BookID, p.StartDate, p.EndDate, p.Frequency, p.DaysOfWeek,
		p.PagesPerSession, p.PreferredTime, p.Format, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reading plan: %w", err)
	}

	return p, nil
}

func (s *ReadingPlanService) GetPlans(ctx context.Context, clerkID string) ([]*plan.PlanWithBook, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT rp.id, rp.user_id, rp.book_id, rp.start_date, rp.end_date, rp.frequency, rp.days_of_week,
		rp.pages_per_session, rp.total_pages_read, rp.is_completed, rp.completed_at,
		rp.preferred_time, rp.format, rp.created_at, rp.updated_at,
		b.title, b.author, b.page_count
	FROM reading_plans rp
	INNER JOIN books b ON b.id = rp.book_id
	WHERE rp.user_id = $1
	ORDER BY rp.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reading plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.PlanWithBook
	for rows.Next() {
		p := &plan.PlanWithBook{}
		err := rows.Scan(
			&p.ID, &p.UserID, &p.BookID, &p.StartDate, &p.EndDate, &p.Frequency, &p.DaysOfWeek,
			&p.PagesPerSession, &p.TotalPagesRead, &p.IsCompleted, &p.CompletedAt,
			&p.PreferredTime, &p.Format, &p.CreatedAt, &p.UpdatedAt,
			&p.BookTitle, &p.BookAuthor, &p.BookPageCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading plan: %w", err)
		}
		plans = append(plans, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if plans == nil {
		plans = []*plan.PlanWithBook{}
	}

	return plans, nil
}

func (s *ReadingPlanService) GetPlan(ctx context.Context, clerkID string, planID uuid.UUID) (*plan.PlanWithBook, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	p, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotPlanOwner
	}

	return p, nil
}

func (s *ReadingPlanService) loadPlan(ctx context.Context, planID uuid.UUID) (*plan.PlanWithBook, error) {
	query := `
	SELECT rp.id, rp.user_id, rp.book_id, rp.start_date, rp.end_date, rp.frequency, rp.days_of_week,
		rp.pages_per_session, rp.total_pages_read, rp.is_completed, rp.completed_at,
		rp.preferred_time, rp.format, rp.created_at, rp.updated_at,
		b.title, b.author, b.page_count
	FROM reading_plans rp
	INNER JOIN books b ON b.id = rp.book_id
	WHERE rp.id = $1
	`

	p := &plan.PlanWithBook{}
	err := s.db.QueryRow(ctx, query, planID).Scan(
		&p.ID, &p.UserID, &p.BookID, &p.StartDate, &p.EndDate, &p.Frequency, &p.DaysOfWeek,
		&p.PagesPerSession, &p.TotalPagesRead, &p.IsCompleted, &p.CompletedAt,
		&p.PreferredTime, &p.Format, &p.CreatedAt, &p.UpdatedAt,
		&p.BookTitle, &p.BookAuthor, &p.BookPageCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get reading plan: %w", err)
	}

	return p, nil
}

// RecordProgress logs one reading session against a plan: appends the
// immutable session row, advances the plan's total (clamped at the book's
// page count), credits koach at the fixed per-page rate, and on the single
// completing session flips the plan and notifies the owner. Koach is
// credited with an atomic SQL increment so concurrent sessions for the same
// user cannot lose updates.
//
// The statements are not wrapped in one transaction. A storage failure
// mid-sequence can leave a session row without the matching plan update;
// the completion flip itself stays exactly-once because it is guarded by
// is_completed = false.
func (s *ReadingPlanService) RecordProgress(ctx context.Context, clerkID string, planID uuid.UUID, req *plan.RecordProgressRequest) (*plan.RecordProgressResponse, error) {
	var userID uuid.UUID
	var currentStreak int
	err := s.db.QueryRow(ctx, `SELECT id, reading_streak FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &currentStreak)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	var lastSession *time.Time
	s.db.QueryRow(ctx, `SELECT MAX(session_date) FROM reading_sessions WHERE user_id = $1`, userID).Scan(&lastSession)

	p, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotPlanOwner
	}
	if req.MinutesSpent != nil && *req.MinutesSpent < 0 {
		return nil, plan.ErrInvalidPagesRead
	}

	result, err := plan.ApplyProgress(&p.ReadingPlan, p.BookPageCount, req.PagesRead)
	if err != nil {
		return nil, err
	}

	sessionQuery := `
	INSERT INTO reading_sessions (id, user_id, book_id, reading_plan_id, pages_read, minutes_spent, koach_earned, session_date, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err = s.db.Exec(ctx, sessionQuery,
		uuid.New(), userID, p.BookID, planID, req.PagesRead, req.MinutesSpent, result.KoachEarned,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE reading_plans SET total_pages_read = $2, updated_at = NOW() WHERE id = $1`,
		planID, result.TotalPagesRead,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update plan progress: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE users SET koach_points = koach_points + $2, updated_at = NOW() WHERE id = $1`,
		userID, result.KoachEarned,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to credit koach points: %w", err)
	}

	newStreak := utils.NextStreak(lastSession, currentStreak, time.Now())
	if newStreak != currentStreak {
		_, err = s.db.Exec(ctx,
			`UPDATE users SET reading_streak = $2, updated_at = NOW() WHERE id = $1`,
			userID, newStreak,
		)
		if err != nil {
			log.Printf("RecordProgress: failed to update reading streak for %s: %v", userID, err)
		}
	}

	if result.JustCompleted {
		s.completePlan(ctx, p, userID)
	}

	// Every session can push the user over a badge threshold.
	if _, err := s.badgeService.CheckAndAwardBadges(ctx, clerkID); err != nil {
		log.Printf("RecordProgress: badge evaluation failed for %s: %v", clerkID, err)
	}

	return &plan.RecordProgressResponse{
		KoachEarned:    result.KoachEarned,
		IsComplete:     result.IsComplete,
		TotalPagesRead: result.TotalPagesRead,
	}, nil
}

// completePlan flips is_completed and emits the one completion notification.
// The guarded UPDATE makes the transition exactly-once even if two sessions
// race across the finish line.
func (s *ReadingPlanService) completePlan(ctx context.Context, p *plan.PlanWithBook, userID uuid.UUID) {
	result, err := s.db.Exec(ctx,
		`UPDATE reading_plans SET is_completed = true, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND is_completed = false`,
		p.ID,
	)
	if err != nil {
		log.Printf("completePlan: failed to mark plan %s completed: %v", p.ID, err)
		return
	}
	if result.RowsAffected() == 0 {
		// Another session already completed the plan.
		return
	}

	_, err = s.db.Exec(ctx,
		`UPDATE users SET books_finished = books_finished + 1, updated_at = NOW() WHERE id = $1`,
		userID,
	)
	if err != nil {
		log.Printf("completePlan: failed to bump books_finished for %s: %v", userID, err)
	}

	planID := p.ID
	_, err = s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:    userID,
		Type:      notification.NotificationPlanCompleted,
		Title:     "Reading plan completed!",
		Message:   fmt.Sprintf("You finished %q by %s. Great job!", p.BookTitle, p.BookAuthor),
		RelatedID: &planID,
		Data: map[string]any{
			"plan_id":    p.ID.String(),
			"book_id":    p.BookID.String(),
			"book_title": p.BookTitle,
		},
	})
	if err != nil {
		log.Printf("completePlan: failed to create notification for %s: %v", userID, err)
	}

	var username string
	if err := s.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username); err == nil {
		go utils.FriendFinishedBook(s.db, s.notifService, userID, username, p.BookTitle)
	}
}

func (s *ReadingPlanService) GetSessions(ctx context.Context, clerkID string, page, pageSize int) (*session.SessionListResponse, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	offset := (page - 1) * pageSize

	query := `
	SELECT id, user_id, book_id, reading_plan_id, pages_read, minutes_spent, koach_earned, session_date, created_at
	FROM reading_sessions
	WHERE user_id = $1
	ORDER BY session_date DESC
	LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.ReadingSession
	for rows.Next() {
		sess := &session.ReadingSession{}
		err := rows.Scan(
			&sess.ID, &sess.UserID, &sess.BookID, &sess.ReadingPlanID,
			&sess.PagesRead, &sess.MinutesSpent, &sess.KoachEarned,
			&sess.SessionDate, &sess.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}

	var totalCount int
	s.db.QueryRow(ctx, `SELECT COUNT(*) FROM reading_sessions WHERE user_id = $1`, userID).Scan(&totalCount)

	if sessions == nil {
		sessions = []*session.ReadingSession{}
	}

	return &session.SessionListResponse{
		Sessions:   sessions,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
