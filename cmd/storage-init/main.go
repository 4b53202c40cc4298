package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/config"
	"github.com/spine-examples/todo-list/storage/backend"
)

type storageInitConfig struct {
	Debug   bool          `env:"DEBUG"`
	Timeout time.Duration `env:"STORAGE_INIT_TIMEOUT" envDefault:"2m"`
	Storage config.Storage
}

func main() {
	var cfg storageInitConfig
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.WithField("backend", cfg.Storage.Backend).Info("storage init starting")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := backend.Provision(ctx, cfg.Storage); err != nil {
		log.Fatalf("provision: %v", err)
	}

	log.Info("storage init complete")
}
