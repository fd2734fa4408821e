package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/matchpoint/court-booking/internal/config"
	"github.com/matchpoint/court-booking/internal/database"
	"github.com/matchpoint/court-booking/internal/handler"
	"github.com/matchpoint/court-booking/internal/jobs"
	"github.com/matchpoint/court-booking/internal/middleware"
	"github.com/matchpoint/court-booking/internal/queue"
	"github.com/matchpoint/court-booking/internal/repository"
	"github.com/matchpoint/court-booking/internal/router"
	"github.com/matchpoint/court-booking/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DBName); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting and response cache disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	courts := repository.NewCourtRepo(db)
	bookings := repository.NewBookingRepo(db)
	regs := repository.NewRegistrationRepo(db, users)
	reviews := repository.NewReviewRepo(db)
	tokens := repository.NewTokenRepo(db)

	publisher := service.NewEventPublisher(cfg.AMQPURL)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	bookingH := handler.NewBookingHandler(bookings, courts, users, publisher)
	courtH := handler.NewCourtHandler(courts, bookings, reviews)
	regH := handler.NewRegistrationHandler(cfg, regs, users)
	reviewH := handler.NewReviewHandler(reviews)
	adminH := handler.NewAdminHandler(regs, users, tokens, publisher)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterHealth(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, courtH, regH, middleware.NewResponseCache(config.LoadCacheConfig(), rdb))
	router.RegisterUser(e, bookingH, reviewH, cfg.JWTSecret)
	router.RegisterOwner(e, courtH, bookingH, reviewH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Background pieces.
	go queue.StartNotificationConsumer(cfg.AMQPURL)

	sched, err := jobs.New(bookings, tokens, 5*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler setup failed")
	}
	sched.Start()

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(addr); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown failed")
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server shutdown failed")
	}
}

// setupLogging configures zerolog: console output in dev, JSON elsewhere.
func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
