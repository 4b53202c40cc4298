package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/commands"
	"github.com/spine-examples/todo-list/config"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/storage/backend"
)

func main() {
	var cfg config.CommandHandler
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("command handler starting")

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

	svc := commands.NewService(store.Events, store.DomainEvents, storage.NewOutcomes(rc, cfg.Redis.OutcomeTTL))
	if err := svc.Run(ctx, store.Commands, cfg.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("command handler: %v", err)
	}
	log.Info("command handler stopped")
}
