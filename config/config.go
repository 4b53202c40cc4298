// Package config loads service configuration from environment variables.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// Storage backends.
const (
	BackendAzure  = "azure"
	BackendSQLite = "sqlite"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Storage selects and configures the event, view and queue backend.
type Storage struct {
	Backend           string `env:"STORAGE_BACKEND" envDefault:"azure"`
	ConnectionString  string `env:"STORAGE_CONNECTION_STRING"`
	EventsTable       string `env:"EVENTS_TABLE" envDefault:"events"`
	ViewsTable        string `env:"VIEWS_TABLE" envDefault:"views"`
	CommandQueue      string `env:"COMMAND_QUEUE" envDefault:"commands"`
	DomainEventsQueue string `env:"DOMAIN_EVENTS_QUEUE" envDefault:"domain-events"`
	SQLitePath        string `env:"SQLITE_PATH" envDefault:"todo.db"`
}

// Validate reports missing settings for the selected backend.
func (s Storage) Validate() error {
	switch s.Backend {
	case BackendAzure:
		if s.ConnectionString == "" {
			return errors.New("missing STORAGE_CONNECTION_STRING")
		}
	case BackendSQLite:
		if s.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", s.Backend)
	}
	if s.EventsTable == "" || s.ViewsTable == "" || s.CommandQueue == "" || s.DomainEventsQueue == "" {
		return errors.New("missing table or queue name")
	}
	return nil
}

// Redis configures the view cache, command outcomes, deduper and update channel.
type Redis struct {
	ConnectionString string        `env:"REDIS_CONNECTION_STRING,required"`
	ViewCacheTTL     time.Duration `env:"VIEW_CACHE_TTL" envDefault:"12h"`
	OutcomeTTL       time.Duration `env:"OUTCOME_TTL" envDefault:"24h"`
	DeduperTTL       time.Duration `env:"DEDUPER_TTL" envDefault:"24h"`
	UpdatesChannel   string        `env:"VIEW_UPDATES_CHANNEL" envDefault:"view-updates"`
}

// Options returns the go-redis options for the connection string.
func (r Redis) Options() (*redis.Options, error) {
	return RedisOptions(r.ConnectionString)
}

// RedisOptions accepts either a redis:// URL or an Azure style
// "host:port,password=...,ssl=true" connection string.
func RedisOptions(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, errors.New("missing redis config")
	}
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	if parts[0] == "" {
		return nil, fmt.Errorf("invalid redis connection string: %w", err)
	}
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts, nil
}

// Auth configures bearer token validation.
type Auth struct {
	TestMode     bool          `env:"AUTH0_TEST_MODE"`
	TestSecret   string        `env:"TEST_JWT_SECRET"`
	Audience     string        `env:"AUTH0_AUDIENCE"`
	Domain       string        `env:"AUTH0_DOMAIN"`
	JWKSCacheTTL time.Duration `env:"JWKS_CACHE_TTL" envDefault:"15m"`
}

// Validate reports missing settings for the selected auth mode.
func (a Auth) Validate() error {
	if a.TestMode {
		if a.TestSecret == "" {
			return errors.New("TEST_JWT_SECRET must be set when AUTH0_TEST_MODE=1")
		}
		return nil
	}
	if a.Audience == "" || a.Domain == "" {
		return errors.New("missing Auth0 config")
	}
	if a.JWKSCacheTTL <= 0 {
		return errors.New("invalid JWKS_CACHE_TTL")
	}
	return nil
}

// JWKSURL is the key set endpoint of the configured Auth0 tenant.
func (a Auth) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", a.Domain)
}

// Issuer is the expected token issuer.
func (a Auth) Issuer() string {
	return "https://" + a.Domain + "/"
}

// Sender tunes the API's background command enqueueing.
type Sender struct {
	Workers        int           `env:"ENQUEUE_WORKERS" envDefault:"32"`
	Buffer         int           `env:"ENQUEUE_BUFFER" envDefault:"4096"`
	EnqueueTimeout time.Duration `env:"ENQUEUE_TIMEOUT" envDefault:"60s"`
	HandoffTimeout time.Duration `env:"ENQUEUE_HANDOFF_TIMEOUT" envDefault:"15ms"`
}

// API configures the HTTP front end.
type API struct {
	Debug      bool   `env:"DEBUG"`
	ListenPort string `env:"FUNCTIONS_CUSTOMHANDLER_PORT" envDefault:"8080"`
	Storage    Storage
	Redis      Redis
	Auth       Auth
	Sender     Sender
}

// CommandHandler configures the command handling worker.
type CommandHandler struct {
	Debug        bool          `env:"DEBUG"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	Storage      Storage
	Redis        Redis
}

// ReadModelUpdater configures the projection worker.
type ReadModelUpdater struct {
	Debug        bool          `env:"DEBUG"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	MaxRetries   int           `env:"VIEW_WRITE_RETRIES" envDefault:"5"`
	Storage      Storage
	Redis        Redis
}
