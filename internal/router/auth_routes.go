package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Haudass/westride/internal/handler"
	"github.com/Haudass/westride/internal/middleware"
)

// RegisterAuth registers all authentication-related routes. Session
// bootstrap endpoints (register, login, refresh, logout) live under
// /v1/auth and need no token; the profile endpoints live under /v1 and
// require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token: the presented token is revoked
	// and a new pair is issued.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a JSON body with the refresh_token to invalidate.
	// No JWT required; possession of the refresh token is the proof.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.PUT("/me", a.UpdateMe)
}
