package notifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bookings/entity"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &PostgresRepository{db: db}
}

// Store records a notification. Events are delivered at least once, so a
// redelivery for the same booking is silently ignored.
func (r *PostgresRepository) Store(ctx context.Context, notification entity.NotificationLog) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO notifications (notification_id, booking_id, user_id, subject, message, status, sent_at)
		VALUES (:notification_id, :booking_id, :user_id, :subject, :message, :status, :sent_at)
		ON CONFLICT (booking_id) DO NOTHING
	`, notification)
	if err != nil {
		return fmt.Errorf("could not store notification: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByBookingID(ctx context.Context, bookingID string) (entity.NotificationLog, error) {
	var notification entity.NotificationLog
	err := r.db.GetContext(ctx, &notification, `
		SELECT notification_id, booking_id, user_id, subject, message, status, sent_at
		FROM notifications
		WHERE booking_id = $1
	`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.NotificationLog{}, fmt.Errorf("notification for booking %s: %w", bookingID, entity.ErrNotFound)
	}
	if err != nil {
		return entity.NotificationLog{}, fmt.Errorf("could not get notification: %w", err)
	}

	return notification, nil
}
