package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// BookingConfirmed_v1 is published after the booking row is durably
// CONFIRMED. It goes through the outbox, so delivery is at-least-once.
type BookingConfirmed_v1 struct {
	Header      EventHeader `json:"header"`
	BookingID   string      `json:"booking_id"`
	UserID      string      `json:"user_id"`
	EventID     string      `json:"event_id"`
	Status      string      `json:"status"`
	BookingDate time.Time   `json:"booking_date"`
}
