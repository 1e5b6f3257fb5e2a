package saga_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookings/entity"
	"bookings/gateway"
	"bookings/saga"
)

var price = entity.Money{Amount: "100.00", Currency: "USD"}

type ledgerStub struct {
	lock sync.Mutex

	bookings map[string]entity.Booking

	AddErr     error
	ConfirmErr error
	CancelErr  error

	ConfirmedBookings []entity.Booking
	CancelledIDs      []string
}

func newLedgerStub() *ledgerStub {
	return &ledgerStub{bookings: map[string]entity.Booking{}}
}

func (l *ledgerStub) Add(ctx context.Context, userID, eventID string) (entity.Booking, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.AddErr != nil {
		return entity.Booking{}, l.AddErr
	}

	booking := entity.Booking{
		ID:      uuid.NewString(),
		UserID:  userID,
		EventID: eventID,
		Status:  entity.BookingStatusPending,
	}
	l.bookings[booking.ID] = booking

	return booking, nil
}

func (l *ledgerStub) Confirm(ctx context.Context, booking entity.Booking) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.ConfirmErr != nil {
		return l.ConfirmErr
	}

	stored := l.bookings[booking.ID]
	stored.Status = entity.BookingStatusConfirmed
	l.bookings[booking.ID] = stored
	l.ConfirmedBookings = append(l.ConfirmedBookings, stored)

	return nil
}

func (l *ledgerStub) Cancel(ctx context.Context, bookingID string) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.CancelErr != nil {
		return l.CancelErr
	}

	stored := l.bookings[bookingID]
	stored.Status = entity.BookingStatusCancelled
	l.bookings[bookingID] = stored
	l.CancelledIDs = append(l.CancelledIDs, bookingID)

	return nil
}

func (l *ledgerStub) count() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.bookings)
}

func (l *ledgerStub) statusOf(bookingID string) entity.BookingStatus {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.bookings[bookingID].Status
}

type fixture struct {
	users     *gateway.UsersMock
	inventory *gateway.InventoryMock
	payments  *gateway.PaymentsMock
	ledger    *ledgerStub

	orchestrator saga.Orchestrator
}

func newFixture(seats int) fixture {
	users := &gateway.UsersMock{Valid: true}
	inventory := gateway.NewInventoryMock(map[string]int{"EVT-1": seats})
	payments := &gateway.PaymentsMock{}
	ledger := newLedgerStub()

	return fixture{
		users:        users,
		inventory:    inventory,
		payments:     payments,
		ledger:       ledger,
		orchestrator: saga.NewOrchestrator(users, inventory, payments, ledger),
	}
}

func TestCreateBooking_EmptyInput(t *testing.T) {
	f := newFixture(5)

	_, err := f.orchestrator.CreateBooking(context.Background(), "", "EVT-1", price)
	require.Error(t, err)

	_, err = f.orchestrator.CreateBooking(context.Background(), "42", "", price)
	require.Error(t, err)

	assert.Empty(t, f.users.ValidatedUserIDs)
	assert.Equal(t, 0, f.ledger.count())
}

func TestCreateBooking_UserInvalid(t *testing.T) {
	f := newFixture(5)
	f.users.Valid = false

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrUserValidationFailed)

	assert.Empty(t, f.inventory.CheckStockCalls)
	assert.Empty(t, f.inventory.ReserveCalls)
	assert.Equal(t, 0, f.ledger.count())
}

func TestCreateBooking_UserServiceUnreachable(t *testing.T) {
	// the identity check fails closed: unreachable means denied
	f := newFixture(5)
	f.users.Err = errors.New("connection refused")

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrUserValidationFailed)

	assert.Empty(t, f.inventory.CheckStockCalls, "no inventory call may happen after a failed identity check")
	assert.Empty(t, f.inventory.ReserveCalls)
	assert.Equal(t, 0, f.ledger.count())
	assert.Empty(t, f.payments.ProcessedReqs)
}

func TestCreateBooking_NoStock(t *testing.T) {
	f := newFixture(0)

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrNoStockAvailable)

	assert.Empty(t, f.inventory.ReserveCalls)
	assert.Equal(t, 0, f.ledger.count())
}

func TestCreateBooking_StockCheckUnreachable(t *testing.T) {
	f := newFixture(5)
	f.inventory.CheckStockErr = errors.New("connection refused")

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrNoStockAvailable)

	assert.Empty(t, f.inventory.ReserveCalls)
	assert.Equal(t, 0, f.ledger.count())
}

func TestCreateBooking_ReservationFailed(t *testing.T) {
	f := newFixture(5)
	f.inventory.ReserveErr = errors.New("connection refused")

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrReservationFailed)

	assert.Equal(t, 0, f.ledger.count(), "no booking row may exist after a failed reservation")
	assert.Empty(t, f.inventory.ReleaseCalls, "a failed debit needs no compensation")
	assert.Empty(t, f.payments.ProcessedReqs)
}

func TestCreateBooking_PaymentSucceeds(t *testing.T) {
	f := newFixture(5)

	booking, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, "42", booking.UserID)
	assert.Equal(t, "EVT-1", booking.EventID)
	assert.NotEmpty(t, booking.ID)

	assert.Equal(t, 4, f.inventory.AvailableSeats("EVT-1"), "one seat should be debited")

	require.Len(t, f.payments.ProcessedReqs, 1)
	assert.Equal(t, booking.ID, f.payments.ProcessedReqs[0].BookingID)
	assert.Equal(t, price, f.payments.ProcessedReqs[0].Amount)

	require.Len(t, f.ledger.ConfirmedBookings, 1)
	assert.Equal(t, booking.ID, f.ledger.ConfirmedBookings[0].ID)
	assert.Empty(t, f.ledger.CancelledIDs)
	assert.Empty(t, f.inventory.ReleaseCalls)
}

func TestCreateBooking_PaymentDeclined(t *testing.T) {
	f := newFixture(5)
	f.payments.Status = entity.PaymentStatusFailed
	f.payments.Message = "insufficient funds"

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrPaymentFailed)

	require.Len(t, f.ledger.CancelledIDs, 1)
	assert.Equal(t, entity.BookingStatusCancelled, f.ledger.statusOf(f.ledger.CancelledIDs[0]))

	assert.Equal(t, []string{"EVT-1"}, f.inventory.ReleaseCalls, "the seat must be released exactly once")
	assert.Equal(t, 5, f.inventory.AvailableSeats("EVT-1"), "inventory must be restored to the original count")

	assert.Empty(t, f.ledger.ConfirmedBookings, "no event may be published for a cancelled booking")
}

func TestCreateBooking_PaymentAmbiguous_ReconciledAsSuccess(t *testing.T) {
	f := newFixture(5)
	f.payments.ProcessErr = errors.New("request timed out")
	f.payments.Reconciled = &entity.PaymentResult{
		TransactionID: uuid.NewString(),
		Status:        entity.PaymentStatusSuccess,
	}

	booking, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
	require.Len(t, f.payments.ReconcileIDs, 1)
	assert.Equal(t, booking.ID, f.payments.ReconcileIDs[0])
	assert.Empty(t, f.inventory.ReleaseCalls)
}

func TestCreateBooking_PaymentAmbiguous_OutcomeUnknown(t *testing.T) {
	f := newFixture(5)
	f.payments.ProcessErr = errors.New("request timed out")

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrPaymentOutcomeUnknown)

	require.Len(t, f.payments.ReconcileIDs, 1, "the true outcome must be checked before compensating")
	require.Len(t, f.ledger.CancelledIDs, 1)
	assert.Equal(t, []string{"EVT-1"}, f.inventory.ReleaseCalls)
	assert.Equal(t, 5, f.inventory.AvailableSeats("EVT-1"))
}

func TestCreateBooking_LedgerWriteFails(t *testing.T) {
	f := newFixture(5)
	f.ledger.AddErr = errors.New("storage unavailable")

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrLedgerWriteFailed)

	assert.Equal(t, []string{"EVT-1"}, f.inventory.ReleaseCalls, "the reserved seat must be given back")
	assert.Empty(t, f.payments.ProcessedReqs)
}

func TestCreateBooking_ReleaseFailureStillCancels(t *testing.T) {
	f := newFixture(5)
	f.payments.Status = entity.PaymentStatusFailed
	f.inventory.ReleaseErr = errors.New("connection refused")

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrPaymentFailed)

	require.Len(t, f.inventory.ReleaseCalls, 1, "release is attempted once, never retried")
	require.Len(t, f.ledger.CancelledIDs, 1, "the booking is cancelled even when the release fails")
}

func TestCreateBooking_ConfirmWriteFails(t *testing.T) {
	f := newFixture(5)
	f.ledger.ConfirmErr = errors.New("storage unavailable")

	_, err := f.orchestrator.CreateBooking(context.Background(), "42", "EVT-1", price)
	require.ErrorIs(t, err, entity.ErrLedgerWriteFailed)

	// the charge went through: the seat stays taken and nothing is released
	assert.Empty(t, f.inventory.ReleaseCalls)
	assert.Empty(t, f.ledger.CancelledIDs)
}
