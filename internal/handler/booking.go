package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Haudass/westride/internal/availability"
	"github.com/Haudass/westride/internal/model"
	"github.com/Haudass/westride/internal/queue"
	"github.com/Haudass/westride/internal/repository"
	queue_publisher "github.com/Haudass/westride/internal/service"
)

// BookingHandler serves the booking endpoints. Every operation that
// touches seat inventory goes through the availability controller; the
// handler only binds input, maps errors to HTTP statuses and publishes
// events after a successful commit.
type BookingHandler struct {
	Avail    *availability.Controller
	Bookings *repository.BookingRepo
	Rides    *repository.RideRepo
}

func NewBookingHandler(a *availability.Controller, b *repository.BookingRepo, r *repository.RideRepo) *BookingHandler {
	return &BookingHandler{Avail: a, Bookings: b, Rides: r}
}

type createBookingReq struct {
	RideID      uint64 `json:"ride_id"`
	SeatsBooked uint32 `json:"seats_booked"`
}

type bookingStatusReq struct {
	Status string `json:"status"`
}

type paymentStatusReq struct {
	PaymentStatus string `json:"payment_status"`
}

// Create books seats on a ride for the authenticated passenger.
func (h *BookingHandler) Create(c echo.Context) error {
	passengerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RideID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ride_id required"})
	}
	if req.SeatsBooked == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats_booked must be positive"})
	}

	ctx := c.Request().Context()
	b, err := h.Avail.ReserveSeats(ctx, req.RideID, passengerID, req.SeatsBooked)
	if err != nil {
		return bookingErrorResponse(c, err)
	}

	// Event publishing is best-effort and off the request path.
	if rd, rerr := h.Rides.GetByID(ctx, b.RideID); rerr == nil {
		ev := queue.BookingConfirmedEvent{
			BookingID:     b.ID,
			PassengerID:   b.PassengerID,
			RideID:        rd.ID,
			DriverID:      rd.DriverID,
			SeatsBooked:   b.SeatsBooked,
			Departure:     rd.Departure,
			Destination:   rd.Destination,
			DepartureTime: rd.DepartureTime.UTC().Format(time.RFC3339),
			PriceCents:    rd.PriceCents,
			ConfirmedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
		}
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = queue_publisher.PublishBookingConfirmed(pctx, ev)
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{"booking": b})
}

// MyBookings returns the passenger's bookings with ride details.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	passengerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	out, err := h.Bookings.ListByPassenger(c.Request().Context(), passengerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// ListByRide returns the booking manifest for a ride the driver owns.
func (h *BookingHandler) ListByRide(c echo.Context) error {
	driverID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rideID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
	}
	out, err := h.Bookings.ListByRideForDriver(c.Request().Context(), rideID, driverID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRideNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your ride"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Get returns a booking's detail to its passenger or the ride's driver.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	det, err := h.Bookings.GetDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	ok = availability.CanViewBooking(userID,
		model.Booking{PassengerID: det.PassengerID},
		model.Ride{DriverID: det.DriverID})
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": det})
}

// Cancel moves a booking to cancelled and credits its seats back. The
// booking's passenger and the ride's driver may both call it.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx := c.Request().Context()
	b, err := h.Avail.CancelBooking(ctx, id, userID)
	if err != nil {
		return bookingErrorResponse(c, err)
	}

	if rd, rerr := h.Rides.GetByID(ctx, b.RideID); rerr == nil {
		ev := queue.BookingCancelledEvent{
			BookingID:     b.ID,
			PassengerID:   b.PassengerID,
			RideID:        rd.ID,
			DriverID:      rd.DriverID,
			SeatsReleased: b.SeatsBooked,
			Departure:     rd.Departure,
			Destination:   rd.Destination,
			CancelledBy:   userID,
			CancelledAt:   time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = queue_publisher.PublishBookingCancelled(pctx, ev)
		}()
	}

	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// UpdateStatus is the driver-side status transition on a booking.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req bookingStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))

	ctx := c.Request().Context()
	b, err := h.Avail.ChangeBookingStatus(ctx, id, userID, status)
	if err != nil {
		return bookingErrorResponse(c, err)
	}

	if status == model.BookingCancelled {
		if rd, rerr := h.Rides.GetByID(ctx, b.RideID); rerr == nil {
			ev := queue.BookingCancelledEvent{
				BookingID:     b.ID,
				PassengerID:   b.PassengerID,
				RideID:        rd.ID,
				DriverID:      rd.DriverID,
				SeatsReleased: b.SeatsBooked,
				Departure:     rd.Departure,
				Destination:   rd.Destination,
				CancelledBy:   userID,
				CancelledAt:   time.Now().UTC().Format(time.RFC3339),
			}
			go func() {
				pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = queue_publisher.PublishBookingCancelled(pctx, ev)
			}()
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// UpdatePayment records a payment state change on a booking. Only the
// ride's driver may report it; seat inventory is never touched.
func (h *BookingHandler) UpdatePayment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req paymentStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.PaymentStatus))
	if !model.ValidPaymentStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment_status"})
	}

	ctx := c.Request().Context()
	det, err := h.Bookings.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	if det.DriverID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your ride"})
	}

	b, err := h.Bookings.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update payment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// bookingErrorResponse maps availability and repository sentinels to
// HTTP statuses: domain conflicts are 409, authorization 403, missing
// resources 404 and bad input 400.
func bookingErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrRideNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrInsufficientSeats):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats remaining"})
	case errors.Is(err, repository.ErrRideClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ride is not open for booking"})
	case errors.Is(err, repository.ErrRideDeparted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ride has already departed"})
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	case errors.Is(err, repository.ErrInvalidSeatCount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats_booked must be positive"})
	case errors.Is(err, repository.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
}
