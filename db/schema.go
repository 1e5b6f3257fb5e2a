package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDatabaseSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bookings (
			booking_id UUID PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			event_id VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			booking_date TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id);
		CREATE INDEX IF NOT EXISTS bookings_event_id_idx ON bookings (event_id);

		CREATE TABLE IF NOT EXISTS notifications (
			notification_id UUID PRIMARY KEY,
			booking_id UUID NOT NULL UNIQUE,
			user_id VARCHAR(255) NOT NULL,
			subject VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			status VARCHAR(16) NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS booking_events (
			event_id UUID PRIMARY KEY,
			published_at TIMESTAMPTZ NOT NULL,
			event_name VARCHAR(255) NOT NULL,
			event_payload JSONB NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}

	return nil
}
