package utils

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"koachReaderAPI/internal/notification"
)

// NotificationCreator is the one method the fan-out needs from the
// notification service.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

// FriendFinishedBook tells every friend of the reader that a book was
// finished. Runs best-effort in the background of plan completion; failures
// are logged per friend and never block the caller.
func FriendFinishedBook(db *pgxpool.Pool, notifier NotificationCreator, readerID uuid.UUID, readerName, bookTitle string) {
	bgCtx := context.Background()

	query := `
		SELECT friend_id FROM friendships WHERE user_id = $1 AND status = 'accepted'
		UNION
		SELECT user_id FROM friendships WHERE friend_id = $1 AND status = 'accepted'
	`

	rows, err := db.Query(bgCtx, query, readerID)
	if err != nil {
		log.Printf("Failed to get friends for notification: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var friendID uuid.UUID
		if err := rows.Scan(&friendID); err != nil {
			continue
		}

		req := &notification.CreateNotificationRequest{
			UserID:  friendID,
			Type:    notification.NotificationFriendFinishedBook,
			Title:   "Friend activity",
			Message: readerName + " finished reading " + bookTitle + ".",
			Data: map[string]any{
				"username":   readerName,
				"book_title": bookTitle,
			},
		}

		if _, err := notifier.CreateNotification(bgCtx, req); err != nil {
			log.Printf("Failed to create notification for friend %s: %v", friendID, err)
		}
	}
}
