package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/config"
	"github.com/iliyamo/lodge-operations/internal/database"
	"github.com/iliyamo/lodge-operations/internal/engine"
	"github.com/iliyamo/lodge-operations/internal/handler"
	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/middleware"
	"github.com/iliyamo/lodge-operations/internal/queue"
	"github.com/iliyamo/lodge-operations/internal/repository"
	"github.com/iliyamo/lodge-operations/internal/router"
	queue_publisher "github.com/iliyamo/lodge-operations/internal/service"
	"github.com/iliyamo/lodge-operations/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	// Repositories.
	reservations := repository.NewReservationRepo(db)
	orders := repository.NewOrderRepo(db)
	rooms := repository.NewRoomRepo(db)
	announcements := repository.NewAnnouncementRepo(db)
	notifications := repository.NewNotificationRepo(db)
	admins := repository.NewAdminRepo(db)

	seedAdmin(admins, cfg)

	// Live event fan-out and engines.
	events := hub.New()
	reservationEngine := engine.NewReservationEngine(reservations, events)
	orderEngine := engine.NewOrderEngine(orders, reservations, events)
	resolver := engine.NewGuestResolver(reservations)
	notifier := queue_publisher.NewNotifier(admins, notifications, events)

	// Background consumer that audits queued guest messages.  It keeps
	// its own reconnect loop, so a missing broker only costs log noise.
	go func() {
		if err := queue.StartGuestNotifyConsumer(); err != nil {
			log.Printf("guest notify consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	adminAuth := middleware.AdminAuth(cfg.JWTSecret)
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, admins), adminAuth)
	router.RegisterGuest(e, handler.NewGuestHandler(
		resolver, reservationEngine, orderEngine, orders, announcements, events, notifier,
	), rateLimit)
	router.RegisterAdmin(e, router.AdminHandlers{
		Reservations:  handler.NewAdminReservationHandler(reservationEngine, reservations, notifier, cfg.PortalBaseURL),
		Orders:        handler.NewAdminOrderHandler(orderEngine, orders, notifier),
		Rooms:         handler.NewAdminRoomHandler(rooms),
		Announcements: handler.NewAdminAnnouncementHandler(announcements, events),
		Notifications: handler.NewAdminNotificationHandler(notifications, events),
	}, adminAuth)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin creates the bootstrap staff account when ADMIN_USERNAME and
// ADMIN_PASSWORD are set.  An existing account with the same username
// is left untouched.
func seedAdmin(admins *repository.AdminRepo, cfg config.Config) {
	if cfg.AdminUser == "" || cfg.AdminPass == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(cfg.AdminPass, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hash bootstrap admin password: %v", err)
	}
	if _, err := admins.Create(ctx, cfg.AdminUser, hash); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return
		}
		log.Fatalf("seed bootstrap admin: %v", err)
	}
	log.Printf("seeded bootstrap admin %q", cfg.AdminUser)
}
