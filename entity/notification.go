package entity

import "time"

// NotificationLog records a delivered (or attempted) booking notification.
// One row per booking; redeliveries of the same event are deduplicated on
// the booking id.
type NotificationLog struct {
	ID        string    `db:"notification_id"`
	BookingID string    `db:"booking_id"`
	UserID    string    `db:"user_id"`
	Subject   string    `db:"subject"`
	Message   string    `db:"message"`
	Status    string    `db:"status"`
	SentAt    time.Time `db:"sent_at"`
}

const (
	NotificationStatusSent   = "SENT"
	NotificationStatusFailed = "FAILED"
)
