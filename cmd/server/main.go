package main // Entry point package

import (
	"context" // Context for the background reconciler
	"log"     // Logging library
	"time"    // Interval arithmetic for the reconciler

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/asanahub/yoga-booking/internal/config"     // Internal config loader
	"github.com/asanahub/yoga-booking/internal/database"   // MySQL connection pool
	"github.com/asanahub/yoga-booking/internal/handler"    // HTTP handlers
	"github.com/asanahub/yoga-booking/internal/middleware" // Cache and rate limit middleware
	"github.com/asanahub/yoga-booking/internal/queue"      // RabbitMQ consumer
	"github.com/asanahub/yoga-booking/internal/repository" // Data access layer
	"github.com/asanahub/yoga-booking/internal/router"     // Route registration
	"github.com/asanahub/yoga-booking/internal/service"    // Booking and reconciliation services
)

func main() {
	// Load a local .env file when present.  Real deployments set the
	// environment directly, so a missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool and verify connectivity before serving traffic.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories wrap raw SQL access for each aggregate.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	classes := repository.NewClassRepo(db)
	bookings := repository.NewBookingRepo(db)
	audits := repository.NewAuditRepo(db)

	// Services own the transactions that keep current_participants consistent
	// with booking rows.
	orchestrator := service.NewBookingOrchestrator(db, classes, bookings, audits)
	orchestrator.Publish = service.PublishBookingConfirmed
	reconciler := service.NewCountReconciler(db, classes, bookings, audits)
	eligibility := service.NewEligibilityChecker(classes, bookings)

	// Handlers translate HTTP requests into service and repository calls.
	health := handler.NewHealthHandler(db)
	auth := handler.NewAuthHandler(cfg, users, tokens)
	public := handler.NewPublicHandler(classes)
	booking := handler.NewBookingHandler(orchestrator, eligibility, bookings)
	teacher := handler.NewTeacherHandler(classes, bookings)
	syncer := handler.NewSyncHandler(reconciler, audits)

	e := echo.New() // Create Echo instance

	// Redis backs the response cache and the token bucket rate limiter.
	// When Redis is unreachable the client is nil and both middlewares
	// degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Register application routes.
	router.RegisterRoutes(e, health)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterPublic(e, public)
	router.RegisterStudent(e, booking, cfg.JWTSecret)
	router.RegisterTeacher(e, teacher, cfg.JWTSecret)
	router.RegisterSync(e, syncer, cfg.JWTSecret)

	// Consume booking.confirmed events in the background.  The consumer
	// keeps retrying with backoff, so a missing broker only costs a log line.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	// Periodically reconcile cached participant counts when configured.
	if cfg.SyncIntervalMin > 0 {
		go reconciler.RunPeriodic(context.Background(), time.Duration(cfg.SyncIntervalMin)*time.Minute)
	}

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
