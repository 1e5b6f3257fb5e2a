package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"bookings/gateway"
	"bookings/service"
	"bookings/tracing"
)

func main() {
	log.Init(logrus.InfoLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbConn, err := sqlx.Open("postgres", os.Getenv("POSTGRES_URL"))
	if err != nil {
		panic(err)
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_ADDR"),
	})
	defer redisClient.Close()

	traceProvider := tracing.ConfigureTraceProvider(os.Getenv("JAEGER_ENDPOINT"))
	defer func() {
		if err := traceProvider.Shutdown(context.Background()); err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown trace provider")
		}
	}()

	gateTimeout := 10 * time.Second
	if v := os.Getenv("GATE_TIMEOUT"); v != "" {
		gateTimeout, err = time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
	}
	httpClient := &http.Client{Timeout: gateTimeout}

	usersClient := gateway.NewUsersClient(httpClient, os.Getenv("USERS_SERVICE_URL"))
	inventoryClient := gateway.NewInventoryClient(httpClient, os.Getenv("INVENTORY_SERVICE_URL"))
	paymentsClient := gateway.NewPaymentsClient(httpClient, os.Getenv("PAYMENTS_SERVICE_URL"))

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	svc := service.New(
		addr,
		dbConn,
		redisClient,
		usersClient,
		inventoryClient,
		paymentsClient,
	)

	if err := svc.Run(ctx); err != nil {
		panic(err)
	}
}
