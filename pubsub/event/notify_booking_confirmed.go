package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"

	"bookings/entity"
)

func (h Handler) NotifyBookingConfirmedHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"NotifyBookingConfirmedHandler",
		func(ctx context.Context, event *entity.BookingConfirmed_v1) error {
			log.FromContext(ctx).
				WithField("booking_id", event.BookingID).
				Info("Sending booking confirmation notification")

			notification := entity.NotificationLog{
				ID:        uuid.NewString(),
				BookingID: event.BookingID,
				UserID:    event.UserID,
				Subject:   "Booking Confirmed",
				Message: fmt.Sprintf(
					"Your booking %s for event %s is confirmed (booked at %s).",
					event.BookingID, event.EventID, event.BookingDate.Format("2006-01-02 15:04:05"),
				),
				Status: entity.NotificationStatusSent,
				SentAt: event.Header.PublishedAt,
			}

			if err := h.notificationsRepo.Store(ctx, notification); err != nil {
				return fmt.Errorf("could not record notification: %w", err)
			}

			return nil
		},
	)
}
