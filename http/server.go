package http

import (
	"context"
	"errors"
	"net/http"

	echoHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookings/entity"
	"bookings/saga"
)

type BookingsRepository interface {
	GetByID(ctx context.Context, bookingID string) (entity.Booking, error)
	FindByUserID(ctx context.Context, userID string) ([]entity.Booking, error)
	FindByEventID(ctx context.Context, eventID string) ([]entity.Booking, error)
}

type Server struct {
	addr         string
	e            *echo.Echo
	orchestrator saga.Orchestrator
	bookingsRepo BookingsRepository
}

func NewServer(
	addr string,
	orchestrator saga.Orchestrator,
	bookingsRepo BookingsRepository,
) *Server {
	e := echoHTTP.NewEcho()

	server := &Server{
		addr:         addr,
		e:            e,
		orchestrator: orchestrator,
		bookingsRepo: bookingsRepo,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/api/bookings", server.PostBooking)
	e.GET("/api/bookings/:id", server.GetBooking)
	e.GET("/api/bookings/user/:user_id", server.GetBookingsByUser)
	e.GET("/api/bookings/event/:event_id", server.GetBookingsByEvent)

	return server
}

func (s Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		err := s.e.Shutdown(ctx)
		if err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()
	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
