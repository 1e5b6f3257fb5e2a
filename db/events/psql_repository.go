package events

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresRepository archives every published booking event as raw payload,
// for auditing and read-model rebuilds.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) PostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return PostgresRepository{db: db}
}

func (r PostgresRepository) Store(ctx context.Context, eventID string, publishedAt time.Time, eventName string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO booking_events (event_id, published_at, event_name, event_payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, publishedAt, eventName, payload)
	if err != nil {
		return fmt.Errorf("could not archive %s event: %w", eventID, err)
	}

	return nil
}
