package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/lithammer/shortuuid/v3"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bookings/db/notifications"
	"bookings/entity"
	"bookings/gateway"
	"bookings/service"
)

var (
	httpAddress = ":8080"
)

func TestComponent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("github.com/testcontainers/testcontainers-go.(*Reaper).Connect.func1"))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	dbconn, err := sqlx.Open("postgres", postgresURL)
	if err != nil {
		panic(err)
	}
	defer dbconn.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
	defer redisClient.Close()

	eventID := uuid.NewString()

	usersClient := &gateway.UsersMock{Valid: true}
	inventoryClient := gateway.NewInventoryMock(map[string]int{eventID: 2})
	paymentsClient := &gateway.PaymentsMock{}

	done := make(chan struct{})
	go func() {
		<-done
		e := syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		require.NoError(t, e)
	}()

	finished := make(chan struct{})
	go func() {
		svc := service.New(
			httpAddress,
			dbconn,
			redisClient,
			usersClient,
			inventoryClient,
			paymentsClient,
		)
		assert.NoError(t, svc.Run(ctx))
		close(finished)
	}()

	defer func() {
		close(done)
		<-finished
	}()

	waitForHttpServer(t)

	userID := uuid.NewString()

	booking, status := postBooking(t, postBookingRequest{UserID: userID, EventID: eventID})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 1, inventoryClient.AvailableSeats(eventID))

	payment, ok := lo.Find(paymentsClient.ProcessedReqs, func(r entity.PaymentRequest) bool {
		return r.BookingID == booking.ID
	})
	require.Truef(t, ok, "payment for booking %s not found", booking.ID)
	assert.Equal(t, booking.ID, payment.IdempotencyKey)

	assertBookingReadable(t, booking.ID, entity.BookingStatusConfirmed)
	assertNotificationStored(t, dbconn, booking.ID)
	assertEventArchived(t, dbconn, booking.ID)

	// a declined payment must cancel the booking and give the seat back
	paymentsClient.Status = entity.PaymentStatusFailed

	declinedUserID := uuid.NewString()

	_, status = postBooking(t, postBookingRequest{UserID: declinedUserID, EventID: eventID})
	require.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, 1, inventoryClient.AvailableSeats(eventID))

	cancelled := getBookingsByUser(t, declinedUserID)
	require.Len(t, cancelled, 1)
	assert.Equal(t, entity.BookingStatusCancelled, cancelled[0].Status)
}

func assertBookingReadable(t *testing.T, bookingID string, expected entity.BookingStatus) {
	t.Helper()

	resp, err := http.Get("http://localhost:8080/api/bookings/" + bookingID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var booking entity.Booking
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&booking))
	assert.Equal(t, expected, booking.Status)
}

func assertNotificationStored(t *testing.T, db *sqlx.DB, bookingID string) {
	notificationsRepo := notifications.NewPostgresRepository(db)

	assert.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			notification, err := notificationsRepo.GetByBookingID(context.Background(), bookingID)
			if !assert.NoError(t, err) {
				return
			}

			assert.Equal(t, entity.NotificationStatusSent, notification.Status)
		},
		10*time.Second,
		100*time.Millisecond,
	)
}

func assertEventArchived(t *testing.T, db *sqlx.DB, bookingID string) {
	assert.Eventually(
		t,
		func() bool {
			var count int
			err := db.GetContext(
				context.Background(),
				&count,
				"SELECT COUNT(*) FROM booking_events WHERE event_payload->>'booking_id' = $1",
				bookingID,
			)
			return err == nil && count > 0
		},
		10*time.Second,
		100*time.Millisecond,
	)
}

type postBookingRequest struct {
	UserID  string        `json:"user_id"`
	EventID string        `json:"event_id"`
	Amount  *entity.Money `json:"amount,omitempty"`
}

func postBooking(t *testing.T, req postBookingRequest) (entity.Booking, int) {
	t.Helper()

	payload, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(
		http.MethodPost,
		"http://localhost:8080/api/bookings",
		bytes.NewBuffer(payload),
	)
	require.NoError(t, err)

	httpReq.Header.Set("Correlation-ID", shortuuid.New())
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	var booking entity.Booking
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&booking))
	}

	return booking, resp.StatusCode
}

func getBookingsByUser(t *testing.T, userID string) []entity.Booking {
	t.Helper()

	resp, err := http.Get("http://localhost:8080/api/bookings/user/" + userID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bookings []entity.Booking
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bookings))

	return bookings
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get("http://localhost:8080/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			if assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode) {
				return
			}
		},
		time.Second*10,
		time.Millisecond*50,
	)
}
