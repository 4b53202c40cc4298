// Package backend builds the storage backend selected by configuration.
package backend

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/config"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/storage/sqlite"
)

// Open connects to the backend named by cfg.Backend.
func Open(cfg config.Storage) (*storage.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case config.BackendAzure:
		tables, err := storage.NewTables(cfg.ConnectionString, cfg.EventsTable, cfg.ViewsTable)
		if err != nil {
			return nil, fmt.Errorf("tables: %w", err)
		}
		commands, err := storage.NewAzureQueue(cfg.ConnectionString, cfg.CommandQueue)
		if err != nil {
			return nil, fmt.Errorf("queue %s: %w", cfg.CommandQueue, err)
		}
		events, err := storage.NewAzureQueue(cfg.ConnectionString, cfg.DomainEventsQueue)
		if err != nil {
			return nil, fmt.Errorf("queue %s: %w", cfg.DomainEventsQueue, err)
		}
		return storage.NewBackend(tables, tables, commands, events), nil
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("using sqlite storage")
		return storage.NewBackend(db, db, db.Queue(cfg.CommandQueue), db.Queue(cfg.DomainEventsQueue), db.Close), nil
	}
	return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Backend)
}

// Provision creates the tables and queues the backend needs.
func Provision(ctx context.Context, cfg config.Storage) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	switch cfg.Backend {
	case config.BackendAzure:
		if err := storage.CreateTables(ctx, cfg.ConnectionString, []string{cfg.EventsTable, cfg.ViewsTable}); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
		if err := storage.CreateQueues(ctx, cfg.ConnectionString, []string{cfg.CommandQueue, cfg.DomainEventsQueue}); err != nil {
			return fmt.Errorf("create queues: %w", err)
		}
		return nil
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		return db.Close()
	}
	return fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Backend)
}
