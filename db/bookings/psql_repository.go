package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bookings/entity"
	"bookings/pubsub/bus"
	"bookings/pubsub/outbox"
)

// PostgresRepository is the booking ledger: the only write path for booking
// rows. Rows are appended as PENDING and updated at most once, to CONFIRMED
// or CANCELLED.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &PostgresRepository{db: db}
}

// Add appends a new PENDING booking. The ledger assigns the id and the
// booking date.
func (r *PostgresRepository) Add(ctx context.Context, userID, eventID string) (entity.Booking, error) {
	booking := entity.Booking{
		ID:          uuid.NewString(),
		UserID:      userID,
		EventID:     eventID,
		Status:      entity.BookingStatusPending,
		BookingDate: time.Now().UTC(),
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO
		    bookings (booking_id, user_id, event_id, status, booking_date)
		VALUES (:booking_id, :user_id, :event_id, :status, :booking_date)
		`, booking)
	if err != nil {
		return entity.Booking{}, fmt.Errorf("could not add booking: %w", err)
	}

	return booking, nil
}

// Confirm transitions the booking to CONFIRMED and stores the
// BookingConfirmed event in the outbox within the same transaction, so the
// event is published only once the booking is durably confirmed.
func (r *PostgresRepository) Confirm(ctx context.Context, booking entity.Booking) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			err = errors.Join(err, rollbackErr)
			return
		}
		err = tx.Commit()
	}()

	if err := r.transition(ctx, tx, booking.ID, entity.BookingStatusConfirmed); err != nil {
		return err
	}

	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx.Tx)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	eventBus, err := bus.NewEventBus(outboxPublisher)
	if err != nil {
		return err
	}

	err = eventBus.Publish(ctx, entity.BookingConfirmed_v1{
		Header:      entity.NewEventHeaderWithIdempotencyKey(booking.ID),
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		EventID:     booking.EventID,
		Status:      string(entity.BookingStatusConfirmed),
		BookingDate: booking.BookingDate,
	})
	if err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}

	return nil
}

// Cancel transitions the booking to CANCELLED. No event is published for
// cancelled bookings.
func (r *PostgresRepository) Cancel(ctx context.Context, bookingID string) error {
	return r.transition(ctx, r.db, bookingID, entity.BookingStatusCancelled)
}

// transition updates a booking's status, guarding against transitions out of
// a terminal state: only PENDING rows may move.
func (r *PostgresRepository) transition(ctx context.Context, e sqlx.ExtContext, bookingID string, to entity.BookingStatus) error {
	res, err := e.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1
		WHERE booking_id = $2 AND status = $3
	`, to, bookingID, entity.BookingStatusPending)
	if err != nil {
		return fmt.Errorf("could not update booking status: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		var status entity.BookingStatus
		err := sqlx.GetContext(ctx, e, &status, `SELECT status FROM bookings WHERE booking_id = $1`, bookingID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("could not get booking status: %w", err)
		}

		return fmt.Errorf("booking %s is already %s: %w", bookingID, status, entity.ErrConflict)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, bookingID string) (entity.Booking, error) {
	var booking entity.Booking
	err := r.db.GetContext(ctx, &booking, `
		SELECT booking_id, user_id, event_id, status, booking_date
		FROM bookings
		WHERE booking_id = $1
	`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Booking{}, fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
	}
	if err != nil {
		return entity.Booking{}, fmt.Errorf("could not get booking: %w", err)
	}

	return booking, nil
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID string) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT booking_id, user_id, event_id, status, booking_date
		FROM bookings
		WHERE user_id = $1
		ORDER BY booking_date
	`, userID)
	return bookings, err
}

func (r *PostgresRepository) FindByEventID(ctx context.Context, eventID string) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT booking_id, user_id, event_id, status, booking_date
		FROM bookings
		WHERE event_id = $1
		ORDER BY booking_date
	`, eventID)
	return bookings, err
}
