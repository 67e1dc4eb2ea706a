package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Haudass/westride/internal/model"
	"github.com/Haudass/westride/internal/repository"
)

// RideHandler serves the ride inventory endpoints. Listing and search
// are public; create/update/delete require the driver role and operate
// only on rides the caller owns.
type RideHandler struct {
	Rides *repository.RideRepo
}

func NewRideHandler(r *repository.RideRepo) *RideHandler {
	return &RideHandler{Rides: r}
}

type createRideReq struct {
	Departure     string `json:"departure"`
	Destination   string `json:"destination"`
	PriceCents    uint32 `json:"price_cents"`
	TotalSeats    uint32 `json:"total_seats"`
	DepartureTime string `json:"departure_time"` // RFC 3339
}

type updateRideReq struct {
	Departure     *string `json:"departure"`
	Destination   *string `json:"destination"`
	PriceCents    *uint32 `json:"price_cents"`
	TotalSeats    *uint32 `json:"total_seats"`
	DepartureTime *string `json:"departure_time"`
	Status        *string `json:"status"`
}

// List returns upcoming open rides, soonest first.
func (h *RideHandler) List(c echo.Context) error {
	rides, err := h.Rides.ListUpcoming(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rides failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rides": rides})
}

// Get returns a single ride by id.
func (h *RideHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
	}
	rd, err := h.Rides.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRideNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ride failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ride": rd})
}

// MyRides returns every ride the authenticated driver has published.
func (h *RideHandler) MyRides(c echo.Context) error {
	driverID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rides, err := h.Rides.ListByDriver(c.Request().Context(), driverID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rides failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rides": rides})
}

// Create publishes a new ride for the authenticated driver.
func (h *RideHandler) Create(c echo.Context) error {
	driverID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createRideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Departure = strings.TrimSpace(req.Departure)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Departure == "" || req.Destination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure/destination required"})
	}
	if req.PriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be positive"})
	}
	if req.TotalSeats == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be positive"})
	}
	dep, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time must be RFC 3339"})
	}
	if !dep.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time must be in the future"})
	}

	rd := model.Ride{
		DriverID:      driverID,
		Departure:     req.Departure,
		Destination:   req.Destination,
		PriceCents:    req.PriceCents,
		TotalSeats:    req.TotalSeats,
		DepartureTime: dep.UTC(),
	}
	if err := h.Rides.Create(c.Request().Context(), &rd); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ride failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"ride": rd})
}

// Update applies a partial edit to a ride the driver owns.
func (h *RideHandler) Update(c echo.Context) error {
	driverID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
	}
	var req updateRideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	var patch repository.RidePatch
	if req.Departure != nil {
		v := strings.TrimSpace(*req.Departure)
		if v == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure cannot be empty"})
		}
		patch.Departure = &v
	}
	if req.Destination != nil {
		v := strings.TrimSpace(*req.Destination)
		if v == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "destination cannot be empty"})
		}
		patch.Destination = &v
	}
	if req.PriceCents != nil {
		if *req.PriceCents == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be positive"})
		}
		patch.PriceCents = req.PriceCents
	}
	if req.TotalSeats != nil {
		if *req.TotalSeats == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be positive"})
		}
		patch.TotalSeats = req.TotalSeats
	}
	if req.DepartureTime != nil {
		dep, err := time.Parse(time.RFC3339, *req.DepartureTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time must be RFC 3339"})
		}
		if !dep.After(time.Now()) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time must be in the future"})
		}
		u := dep.UTC()
		patch.DepartureTime = &u
	}
	if req.Status != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Status))
		patch.Status = &v
	}

	rd, err := h.Rides.UpdateForDriver(c.Request().Context(), id, driverID, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRideNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your ride"})
		case errors.Is(err, repository.ErrInvalidSeatAdjustment):
			return c.JSON(http.StatusConflict, echo.Map{"error": "total_seats below seats already booked"})
		case errors.Is(err, repository.ErrHasActiveBookings):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ride has confirmed bookings"})
		case errors.Is(err, repository.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update ride failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ride": rd})
}

// Delete removes a ride the driver owns, unless confirmed bookings
// still reference it.
func (h *RideHandler) Delete(c echo.Context) error {
	driverID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
	}
	if err := h.Rides.DeleteForDriver(c.Request().Context(), id, driverID); err != nil {
		switch {
		case errors.Is(err, repository.ErrRideNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your ride"})
		case errors.Is(err, repository.ErrHasActiveBookings):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ride has confirmed bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete ride failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Search filters bookable rides by route and optional date, paginated.
// ?departure=&destination=&date=2026-09-01&page=1&page_size=20
func (h *RideHandler) Search(c echo.Context) error {
	q := repository.RideSearchQuery{
		Departure:   strings.TrimSpace(c.QueryParam("departure")),
		Destination: strings.TrimSpace(c.QueryParam("destination")),
	}
	if q.Departure == "" || q.Destination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure and destination required"})
	}
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		q.Date = &d
	}
	if raw := c.QueryParam("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.Page = n
		}
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.PageSize = n
		}
	}

	rides, total, err := h.Rides.Search(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	return c.JSON(http.StatusOK, echo.Map{
		"rides":     rides,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}
