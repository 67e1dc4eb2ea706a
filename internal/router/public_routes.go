package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Haudass/westride/internal/config"
	"github.com/Haudass/westride/internal/handler"
	"github.com/Haudass/westride/internal/middleware"
)

// RegisterPublic registers the unauthenticated browse endpoints: guests
// can list upcoming rides, search by route and read a ride's details
// before registering. These are the only routes behind the Redis
// response cache; booking flows always read committed state. The token
// bucket rate limiter guards the same group against scraping.
func RegisterPublic(e *echo.Echo, r *handler.RideHandler, rdb *redis.Client,
	cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig) {

	g := e.Group(
		"/v1",
		middleware.NewTokenBucket(rlCfg, rdb),
		middleware.NewRedisCache(cacheCfg, rdb),
	)
	g.GET("/rides", r.List)
	g.GET("/rides/:id", r.Get)
	g.GET("/search/rides", r.Search)
}
