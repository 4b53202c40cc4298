package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/config"
	"github.com/spine-examples/todo-list/projector"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/storage/backend"
)

func main() {
	var cfg config.ReadModelUpdater
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("Read-Model Updater Service starting")

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := storage.NewViewCache(store.Views, rc, cfg.Redis.ViewCacheTTL)
	updater := projector.NewUpdater(store.Views, cache, rc, cfg.Redis.UpdatesChannel, cfg.MaxRetries)
	if err := updater.Run(ctx, store.DomainEvents, cfg.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("read model updater: %v", err)
	}
	log.Info("Read-Model Updater Service stopped")
}
