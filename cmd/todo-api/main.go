package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/api"
	"github.com/spine-examples/todo-list/config"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/storage/backend"
)

func main() {
	var cfg config.API
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := cfg.Auth.Validate(); err != nil {
		log.Fatal(err)
	}

	store, err := backend.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	redisOpts, err := cfg.Redis.Options()
	if err != nil {
		log.Fatal(err)
	}
	rc := redis.NewClient(redisOpts)
	defer rc.Close()

	var jwks *keyfunc.JWKS
	if !cfg.Auth.TestMode {
		jwks, err = keyfunc.Get(cfg.Auth.JWKSURL(), keyfunc.Options{RefreshInterval: time.Hour})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		defer jwks.EndBackground()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates := api.NewRedisUpdates(rc, cfg.Redis.UpdatesChannel)
	go func() {
		if err := updates.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("view update relay stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))
	e.Use(api.DecompressRequests())

	logger := log.New()
	logger.SetLevel(log.GetLevel())
	logger.SetFormatter(&log.JSONFormatter{})
	stopSender := api.Register(e, api.Deps{
		Auth:     api.NewAuth(cfg.Auth, jwks),
		Commands: store.Commands,
		Deduper:  api.NewRedisDeduper(rc, cfg.Redis.DeduperTTL),
		Outcomes: storage.NewOutcomes(rc, cfg.Redis.OutcomeTTL),
		Views:    storage.NewViewCache(store.Views, rc, cfg.Redis.ViewCacheTTL),
		Updates:  updates,
		Sender: api.SenderConfig{
			Workers:        cfg.Sender.Workers,
			Buffer:         cfg.Sender.Buffer,
			EnqueueTimeout: cfg.Sender.EnqueueTimeout,
			HandoffTimeout: cfg.Sender.HandoffTimeout,
		},
		Logger: logger,
	})
	defer stopSender()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	if err := e.Start(":" + cfg.ListenPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
