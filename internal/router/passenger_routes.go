package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Haudass/westride/internal/handler"
	"github.com/Haudass/westride/internal/middleware"
)

// RegisterPassenger registers passenger-scoped endpoints under /v1. All
// routes require a valid JWT and the passenger role. Passengers book
// seats on rides and list their own bookings.
func RegisterPassenger(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("passenger"),
	)
	g.POST("/bookings", b.Create)
	g.GET("/my-bookings", b.MyBookings)
}

// RegisterBookingShared registers the booking endpoints both parties
// use: the booking's passenger and the ride's driver may each read the
// detail or cancel. Role middleware only checks that a known role is
// present; the handler decides ownership.
func RegisterBookingShared(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("driver", "passenger"),
	)
	g.GET("/bookings/:id", b.Get)
	g.DELETE("/bookings/:id", b.Cancel)
}
