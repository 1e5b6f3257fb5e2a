package saga

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"bookings/entity"
	"bookings/metrics"
)

type UsersService interface {
	ValidateUser(ctx context.Context, userID string) (bool, error)
}

type InventoryService interface {
	CheckStock(ctx context.Context, eventID string) (entity.EventStock, error)
	ReserveSeat(ctx context.Context, eventID string) error
	ReleaseSeat(ctx context.Context, eventID string) error
}

type PaymentsService interface {
	ProcessPayment(ctx context.Context, request entity.PaymentRequest) (entity.PaymentResult, error)
	GetPaymentByBookingID(ctx context.Context, bookingID string) (entity.PaymentResult, error)
}

type BookingsLedger interface {
	Add(ctx context.Context, userID, eventID string) (entity.Booking, error)
	Confirm(ctx context.Context, booking entity.Booking) error
	Cancel(ctx context.Context, bookingID string) error
}

// Orchestrator runs the booking saga: identity check, stock check, seat
// reservation, ledger write, payment, then commit or compensate. All steps
// run sequentially on the calling goroutine; there is no internal retry.
type Orchestrator struct {
	users     UsersService
	inventory InventoryService
	payments  PaymentsService
	ledger    BookingsLedger
}

func NewOrchestrator(
	users UsersService,
	inventory InventoryService,
	payments PaymentsService,
	ledger BookingsLedger,
) Orchestrator {
	if users == nil {
		panic("missing users service")
	}
	if inventory == nil {
		panic("missing inventory service")
	}
	if payments == nil {
		panic("missing payments service")
	}
	if ledger == nil {
		panic("missing ledger")
	}

	return Orchestrator{
		users:     users,
		inventory: inventory,
		payments:  payments,
		ledger:    ledger,
	}
}

// CreateBooking returns a CONFIRMED booking or one of the entity.Err*
// failure kinds. Every failure after the seat was reserved triggers a
// single compensating seat release; compensation is never retried.
func (o Orchestrator) CreateBooking(ctx context.Context, userID, eventID string, price entity.Money) (entity.Booking, error) {
	if userID == "" {
		return entity.Booking{}, fmt.Errorf("user id must be set")
	}
	if eventID == "" {
		return entity.Booking{}, fmt.Errorf("event id must be set")
	}

	logger := log.FromContext(ctx).WithField("user_id", userID).WithField("event_id", eventID)
	logger.Info("Creating booking")

	// Fail closed: an unreachable identity service denies the booking.
	valid, err := o.users.ValidateUser(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("User validation call failed")
		return entity.Booking{}, fmt.Errorf("%w: users service unreachable: %s", entity.ErrUserValidationFailed, err)
	}
	if !valid {
		return entity.Booking{}, fmt.Errorf("%w: user %s is not allowed to book", entity.ErrUserValidationFailed, userID)
	}

	stock, err := o.inventory.CheckStock(ctx, eventID)
	if err != nil {
		logger.WithError(err).Error("Stock check call failed")
		return entity.Booking{}, fmt.Errorf("%w: inventory service unreachable: %s", entity.ErrNoStockAvailable, err)
	}
	if !stock.HasStock {
		return entity.Booking{}, fmt.Errorf("%w: event %s has no available seats", entity.ErrNoStockAvailable, eventID)
	}

	if err := o.inventory.ReserveSeat(ctx, eventID); err != nil {
		logger.WithError(err).Error("Seat reservation failed")
		return entity.Booking{}, fmt.Errorf("%w: %s", entity.ErrReservationFailed, err)
	}

	// First durable side effect and the point of no return: from here on,
	// failures compensate instead of plainly returning.
	booking, err := o.ledger.Add(ctx, userID, eventID)
	if err != nil {
		logger.WithError(err).Error("Could not persist pending booking")
		if releaseErr := o.inventory.ReleaseSeat(ctx, eventID); releaseErr != nil {
			logger.WithError(releaseErr).Error("Seat release after ledger failure also failed")
		}
		return entity.Booking{}, fmt.Errorf("%w: %s", entity.ErrLedgerWriteFailed, err)
	}

	logger = logger.WithField("booking_id", booking.ID)
	logger.Info("Booking created as pending")

	result, err := o.payments.ProcessPayment(ctx, entity.PaymentRequest{
		BookingID:      booking.ID,
		Amount:         price,
		IdempotencyKey: booking.ID,
	})
	if err != nil {
		// The charge may or may not have applied. Ask the payment service
		// for the true outcome once before deciding to compensate.
		logger.WithError(err).Warn("Payment call failed, reconciling outcome")

		reconciled, reconcileErr := o.payments.GetPaymentByBookingID(ctx, booking.ID)
		if reconcileErr != nil || reconciled.Status != entity.PaymentStatusSuccess {
			o.compensate(ctx, booking)
			return entity.Booking{}, fmt.Errorf("%w: %s", entity.ErrPaymentOutcomeUnknown, err)
		}
		result = reconciled
	}

	if result.Status != entity.PaymentStatusSuccess {
		logger.WithField("message", result.Message).Info("Payment declined, compensating")
		o.compensate(ctx, booking)
		return entity.Booking{}, fmt.Errorf("%w: %s", entity.ErrPaymentFailed, result.Message)
	}

	if err := o.ledger.Confirm(ctx, booking); err != nil {
		// The charge went through but the booking could not be confirmed.
		// The seat stays taken; this needs operational follow-up, not a
		// seat release.
		logger.WithError(err).Error("Could not confirm paid booking")
		return entity.Booking{}, fmt.Errorf("%w: %s", entity.ErrLedgerWriteFailed, err)
	}

	booking.Status = entity.BookingStatusConfirmed
	metrics.BookingsConfirmed.Inc()
	logger.Info("Booking confirmed")

	return booking, nil
}

// compensate releases the reserved seat and cancels the ledger row. A failed
// release is logged but does not block the CANCELLED transition; the booking's
// own state wins over inventory accuracy.
func (o Orchestrator) compensate(ctx context.Context, booking entity.Booking) {
	logger := log.FromContext(ctx).WithField("booking_id", booking.ID)

	if err := o.inventory.ReleaseSeat(ctx, booking.EventID); err != nil {
		logger.WithError(err).Error("Compensating seat release failed, inventory may be inconsistent")
	}

	if err := o.ledger.Cancel(ctx, booking.ID); err != nil {
		logger.WithError(err).Error("Could not cancel booking")
		return
	}

	metrics.BookingsCancelled.Inc()
	logger.Info("Booking cancelled")
}
