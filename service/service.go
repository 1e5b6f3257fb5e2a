package service

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bookings/db"
	"bookings/db/bookings"
	"bookings/db/events"
	"bookings/db/notifications"
	"bookings/http"
	"bookings/pubsub"
	"bookings/pubsub/event"
	"bookings/pubsub/outbox"
	"bookings/saga"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Service struct {
	db              *sqlx.DB
	watermillRouter *message.Router
	forwarder       *forwarder.Forwarder
	httpServer      *http.Server
}

func New(
	addr string,
	dbConn *sqlx.DB,
	redisClient *redis.Client,
	usersService saga.UsersService,
	inventoryService saga.InventoryService,
	paymentsService saga.PaymentsService,
) Service {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	bookingsRepo := bookings.NewPostgresRepository(dbConn)
	notificationsRepo := notifications.NewPostgresRepository(dbConn)
	eventsArchive := events.NewPostgresRepository(dbConn)

	redisPublisher := pubsub.NewRedisPublisher(redisClient, watermillLogger)

	fwd, err := outbox.NewForwarder(dbConn.DB, redisPublisher, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create outbox forwarder: %w", err))
	}

	eventsHandler := event.NewHandler(notificationsRepo)
	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)

	archiveSubscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        redisClient,
		ConsumerGroup: "svc-bookings.events_archive",
	}, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create archive subscriber: %w", err))
	}

	watermillRouter, err := pubsub.NewWatermillRouter(
		eventProcessorConfig,
		eventsHandler,
		archiveSubscriber,
		eventsArchive,
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	orchestrator := saga.NewOrchestrator(
		usersService,
		inventoryService,
		paymentsService,
		bookingsRepo,
	)

	httpServer := http.NewServer(
		addr,
		orchestrator,
		bookingsRepo,
	)

	return Service{
		dbConn,
		watermillRouter,
		fwd,
		httpServer,
	}
}

func (s Service) Run(ctx context.Context) error {
	if err := db.InitializeDatabaseSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		return s.forwarder.Run(ctx)
	})

	g.Go(func() error {
		// the HTTP server starts only once the router is up, so the service
		// is not reported healthy before it can process messages
		<-s.watermillRouter.Running()
		<-s.forwarder.Running()

		return s.httpServer.Run(ctx)
	})

	return g.Wait()
}
