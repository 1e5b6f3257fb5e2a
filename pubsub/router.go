package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"bookings/entity"
	"bookings/pubsub/event"
)

type EventsArchive interface {
	Store(ctx context.Context, eventID string, publishedAt time.Time, eventName string, payload []byte) error
}

func NewWatermillRouter(
	eventProcessorConfig cqrs.EventProcessorConfig,
	eventsHandler event.Handler,
	archiveSubscriber message.Subscriber,
	eventsArchive EventsArchive,
	watermillLogger watermill.LoggerAdapter,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("could not create router: %w", err)
	}

	useMiddlewares(router, watermillLogger)

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		return nil, fmt.Errorf("could not create event processor: %w", err)
	}

	err = eventProcessor.AddHandlers(
		eventsHandler.NotifyBookingConfirmedHandler(),
	)
	if err != nil {
		return nil, fmt.Errorf("could not add handlers to event processor: %w", err)
	}

	confirmedTopic := "events." + eventProcessorConfig.Marshaler.Name(entity.BookingConfirmed_v1{})

	router.AddNoPublisherHandler(
		"events_archive",
		confirmedTopic,
		archiveSubscriber,
		func(msg *message.Message) error {
			eventName := eventProcessorConfig.Marshaler.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("could not get event name from message")
			}

			// only the header is needed here, the payload is archived as is
			var e struct {
				Header entity.EventHeader `json:"header"`
			}
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				return fmt.Errorf("could not unmarshal event header: %w", err)
			}

			return eventsArchive.Store(
				msg.Context(),
				e.Header.ID,
				e.Header.PublishedAt,
				eventName,
				msg.Payload,
			)
		},
	)

	return router, nil
}
