package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"bookings/entity"
)

type postBookingRequest struct {
	UserID  string        `json:"user_id"`
	EventID string        `json:"event_id"`
	Amount  *entity.Money `json:"amount,omitempty"`
}

// defaultPrice is used when the caller does not pass an amount. Price
// determination is a pricing concern, not the saga's.
var defaultPrice = entity.Money{Amount: "100.00", Currency: "USD"}

func (s Server) PostBooking(c echo.Context) error {
	var request postBookingRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	if request.UserID == "" || request.EventID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and event_id are required")
	}

	price := defaultPrice
	if request.Amount != nil {
		price = *request.Amount
	}

	booking, err := s.orchestrator.CreateBooking(c.Request().Context(), request.UserID, request.EventID, price)
	if err != nil {
		return bookingErrorToHTTP(err)
	}

	return c.JSON(http.StatusCreated, booking)
}

func bookingErrorToHTTP(err error) error {
	switch {
	case errors.Is(err, entity.ErrUserValidationFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "user is not allowed to book")
	case errors.Is(err, entity.ErrNoStockAvailable):
		return echo.NewHTTPError(http.StatusConflict, "no seats available")
	case errors.Is(err, entity.ErrReservationFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "could not reserve a seat")
	case errors.Is(err, entity.ErrPaymentFailed):
		return echo.NewHTTPError(http.StatusPaymentRequired, "payment was declined")
	case errors.Is(err, entity.ErrPaymentOutcomeUnknown):
		return echo.NewHTTPError(http.StatusBadGateway, "payment outcome unknown, booking cancelled")
	default:
		return fmt.Errorf("could not create booking: %w", err)
	}
}

func (s Server) GetBooking(c echo.Context) error {
	booking, err := s.bookingsRepo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		}
		return fmt.Errorf("could not get booking: %w", err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (s Server) GetBookingsByUser(c echo.Context) error {
	bookings, err := s.bookingsRepo.FindByUserID(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return fmt.Errorf("could not list bookings: %w", err)
	}

	return c.JSON(http.StatusOK, bookings)
}

func (s Server) GetBookingsByEvent(c echo.Context) error {
	bookings, err := s.bookingsRepo.FindByEventID(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return fmt.Errorf("could not list bookings: %w", err)
	}

	return c.JSON(http.StatusOK, bookings)
}
