package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Haudass/westride/internal/handler"
	"github.com/Haudass/westride/internal/middleware"
)

// RegisterDriver registers driver-scoped endpoints under /v1. All
// routes require a valid JWT and the driver role. Drivers publish and
// manage rides, read per-ride booking manifests, transition booking
// statuses and record payment changes.
func RegisterDriver(e *echo.Echo, r *handler.RideHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("driver"),
	)

	// ---- Rides ----
	g.POST("/rides", r.Create)
	g.GET("/my-rides", r.MyRides)
	g.PUT("/rides/:id", r.Update)
	g.PATCH("/rides/:id", r.Update) // alias for clients that use PATCH
	g.DELETE("/rides/:id", r.Delete)

	// ---- Bookings on the driver's rides ----
	g.GET("/rides/:id/bookings", b.ListByRide)
	g.PATCH("/bookings/:id/status", b.UpdateStatus)
	g.PATCH("/bookings/:id/payment", b.UpdatePayment)
}
