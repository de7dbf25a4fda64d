package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/config"
	"github.com/festiva/ticketing-api/internal/database"
	"github.com/festiva/ticketing-api/internal/handler"
	"github.com/festiva/ticketing-api/internal/payment"
	"github.com/festiva/ticketing-api/internal/queue"
	"github.com/festiva/ticketing-api/internal/repository"
	"github.com/festiva/ticketing-api/internal/router"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.Pool{
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxLifetime: time.Duration(cfg.DBConnMaxLifeMin) * time.Minute,
	})
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("database migrate failed: %v", err)
	}
	cancel()

	// Redis backs the public-catalogue cache and rate limiter.  Nil is
	// tolerated: the browse endpoints simply run unprotected.
	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	tickets := repository.NewTicketRepo(db)
	regs := repository.NewRegistrationRepo(db)
	pays := repository.NewPaymentRepo(db)

	// Payment gateway (Midtrans Snap).
	gateway := payment.NewGateway(cfg.MidtransServerKey, cfg.MidtransProd)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	regH := handler.NewRegistrationHandler(cfg, users, events, tickets, regs, pays, gateway)
	cbH := handler.NewPaymentCallbackHandler(gateway, users, events, tickets, regs, pays)
	checkinH := handler.NewCheckinHandler(cfg, regs)
	orgEvH := handler.NewOrganizerEventHandler(events)
	orgTkH := handler.NewOrganizerTicketHandler(events, tickets)
	orgStH := handler.NewOrganizerStatsHandler(events, regs, pays)
	adminH := handler.NewAdminEventHandler(events)
	publicH := handler.NewPublicBrowseHandler(events, tickets)

	// Background consumer that appends confirmed registrations to the
	// activity log; it reconnects on its own when the broker drops.
	go func() {
		if err := queue.StartRegistrationConsumer(); err != nil {
			log.Printf("registration consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, rdb)
	router.RegisterAttendee(e, regH, cfg.JWTSecret)
	router.RegisterCheckin(e, checkinH, cfg.JWTSecret)
	router.RegisterOrganizer(e, orgEvH, orgTkH, orgStH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)
	router.RegisterWebhooks(e, cbH)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
