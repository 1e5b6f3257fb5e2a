package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID          string        `json:"booking_id" db:"booking_id"`
	UserID      string        `json:"user_id" db:"user_id"`
	EventID     string        `json:"event_id" db:"event_id"`
	Status      BookingStatus `json:"status" db:"status"`
	BookingDate time.Time     `json:"booking_date" db:"booking_date"`
}

type EventStock struct {
	EventID        string `json:"event_id"`
	AvailableSeats int    `json:"available_seats"`
	HasStock       bool   `json:"has_stock"`
}

type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

const (
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

type PaymentRequest struct {
	BookingID      string `json:"booking_id"`
	Amount         Money  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
}

type PaymentResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}
