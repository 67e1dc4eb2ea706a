package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Haudass/westride/internal/availability"
	"github.com/Haudass/westride/internal/config"
	"github.com/Haudass/westride/internal/database"
	"github.com/Haudass/westride/internal/handler"
	"github.com/Haudass/westride/internal/queue"
	"github.com/Haudass/westride/internal/repository"
	"github.com/Haudass/westride/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rides := repository.NewRideRepo(db)
	bookings := repository.NewBookingRepo(db)
	avail := availability.NewController(db, rides, bookings)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	rideH := handler.NewRideHandler(rides)
	bookingH := handler.NewBookingHandler(avail, bookings, rides)

	// Redis is optional: when unreachable the cache and rate limiter
	// become pass-through middlewares.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: response cache and rate limiting disabled")
	}
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, rideH, rdb, cacheCfg, rlCfg)
	router.RegisterDriver(e, rideH, bookingH, cfg.JWTSecret)
	router.RegisterPassenger(e, bookingH, cfg.JWTSecret)
	router.RegisterBookingShared(e, bookingH, cfg.JWTSecret)

	// Booking events are consumed in the background; the consumer
	// reconnects on broker failure and never stops the server.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
