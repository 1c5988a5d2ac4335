package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/example/table-reservation/internal/booking"
	"github.com/example/table-reservation/internal/config"
	"github.com/example/table-reservation/internal/database"
	"github.com/example/table-reservation/internal/handler"
	"github.com/example/table-reservation/internal/inventory"
	"github.com/example/table-reservation/internal/middleware"
	"github.com/example/table-reservation/internal/model"
	"github.com/example/table-reservation/internal/queue"
	"github.com/example/table-reservation/internal/repository"
	"github.com/example/table-reservation/internal/router"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Table inventory and allowed hours are injected configuration.
	policy, err := inventory.Parse(cfg.InventorySpec)
	if err != nil {
		log.Fatalf("inventory: %v", err)
	}
	hours := cfg.AllowedHours
	if len(hours) == 0 {
		hours = booking.DefaultHours()
	}
	validator := booking.NewValidator(hours, policy, nil)

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	resRepo := repository.NewReservationRepo(db)
	manager := booking.NewManager(resRepo, policy, validator)

	// Seed the initial administrator account, as the original deployment
	// did, but with the password coming from configuration.
	if cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		created, err := userRepo.EnsureAdmin(ctx, "admin", cfg.AdminPassword, cfg.BcryptCost)
		cancel()
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		if created {
			log.Printf("created initial %s account \"admin\"", model.RoleAdmin)
		}
	}

	// Redis backs rate limiting and the availability cache; both degrade
	// to no-ops when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.Use(rateLimit)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewAvailabilityHandler(manager), cache)
	router.RegisterReservations(e, handler.NewReservationHandler(manager), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(manager), cfg.JWTSecret)

	// Consume reservation.confirmed events in the background.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
