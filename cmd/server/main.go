package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/storage/memory"
)

func logLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	e := echo.New()
	e.HideBanner = true

	cfg, err := config.Load()
	if err != nil {
		e.Logger.Fatalf("config: %v", err)
	}
	e.Logger.SetLevel(logLevel(cfg.LogLevel))

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: `${time_rfc3339} ${id} ${remote_ip} ${method} ${uri} ${status} ${latency_human}` + "\n",
	}))
	e.Use(echomw.Recover())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events booking.EventSink
	if cfg.EventsEnabled {
		pub := service.NewPublisher(cfg.AMQPURL)
		defer pub.Close()
		events = pub

		consumer := &queue.Consumer{URL: cfg.AMQPURL, LogFile: cfg.EventLogFile, L: e.Logger}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Warnf("booking-consumer stopped: %v", err)
			}
		}()
	}

	var (
		svc     *booking.Service
		bookers handler.BookerStore
		seeder  database.Seeder
	)
	switch cfg.StorageBackend {
	case config.BackendMemory:
		st := memory.New()
		svc = booking.New(e.Logger, st, st, st, events)
		bookers, seeder = st, st
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			e.Logger.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			e.Logger.Fatalf("migrate: %v", err)
		}
		auditoriums := repository.NewAuditoriumRepo(db)
		svc = booking.New(e.Logger, auditoriums, repository.NewSeatRepo(db), repository.NewBookingRepo(db), events)
		bookers, seeder = repository.NewBookerRepo(db), auditoriums
	}

	if n, err := database.Seed(ctx, seeder, database.DefaultAuditoriums); err != nil {
		e.Logger.Fatalf("seed: %v", err)
	} else if n > 0 {
		e.Logger.Infof("seeded %d auditoriums", n)
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	} else {
		e.Logger.Info("redis unavailable; rate limiting and caching disabled")
	}
	cacheCfg := config.LoadCacheConfig()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, bookers), cfg.JWTSecret, limiter)
	router.RegisterBooking(e, handler.NewBookingHandler(svc), cfg.JWTSecret, router.BookingMiddleware{
		Limiter:    limiter,
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate: middleware.InvalidateCache(cacheCfg, rdb),
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			e.Logger.Errorf("shutdown: %v", err)
		}
	}()

	e.Logger.Infof("listening on :%s (env=%s, storage=%s)", cfg.Port, cfg.Env, cfg.StorageBackend)
	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}
