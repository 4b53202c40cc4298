package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseEnvDefaults(t *testing.T) {
	t.Setenv("REDIS_CONNECTION_STRING", "localhost:6379")
	t.Setenv("STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")

	var cfg CommandHandler
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Storage.Backend != BackendAzure || cfg.Storage.CommandQueue != "commands" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Redis.OutcomeTTL != 24*time.Hour || cfg.PollInterval != time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Storage.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg CommandHandler
	if err := ParseEnv(&cfg); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected missing redis error, got %v", err)
	}

	t.Setenv("REDIS_CONNECTION_STRING", "localhost:6379")
	t.Setenv("POLL_INTERVAL", "soon")
	if err := ParseEnv(&cfg); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}

func TestStorageValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Storage
		ok   bool
	}{
		{"azure without connection", Storage{Backend: BackendAzure, EventsTable: "e", ViewsTable: "v", CommandQueue: "c", DomainEventsQueue: "d"}, false},
		{"sqlite", Storage{Backend: BackendSQLite, SQLitePath: "x.db", EventsTable: "e", ViewsTable: "v", CommandQueue: "c", DomainEventsQueue: "d"}, true},
		{"unknown backend", Storage{Backend: "mongo"}, false},
		{"missing queue", Storage{Backend: BackendSQLite, SQLitePath: "x.db", EventsTable: "e", ViewsTable: "v"}, false},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions("redis://:secret@cache:6380/2")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected url options %+v", opts)
	}

	opts, err = RedisOptions("cache.redis.cache.windows.net:6380,password=pw,ssl=True,abortConnect=False")
	if err != nil {
		t.Fatalf("azure: %v", err)
	}
	if opts.Addr != "cache.redis.cache.windows.net:6380" || opts.Password != "pw" || opts.TLSConfig == nil {
		t.Fatalf("unexpected azure options %+v", opts)
	}

	if _, err := RedisOptions(""); err == nil {
		t.Fatalf("expected error for empty connection string")
	}
}

func TestAuthValidate(t *testing.T) {
	if err := (Auth{TestMode: true}).Validate(); err == nil {
		t.Fatalf("test mode without secret must fail")
	}
	if err := (Auth{TestMode: true, TestSecret: "s"}).Validate(); err != nil {
		t.Fatalf("test mode: %v", err)
	}
	a := Auth{Audience: "api://todo", Domain: "tenant.eu.auth0.com", JWKSCacheTTL: time.Minute}
	if err := a.Validate(); err != nil {
		t.Fatalf("auth0: %v", err)
	}
	if a.JWKSURL() != "https://tenant.eu.auth0.com/.well-known/jwks.json" || a.Issuer() != "https://tenant.eu.auth0.com/" {
		t.Fatalf("unexpected urls %s %s", a.JWKSURL(), a.Issuer())
	}
}

func TestParseEnvAPISender(t *testing.T) {
	t.Setenv("REDIS_CONNECTION_STRING", "localhost:6379")
	t.Setenv("ENQUEUE_WORKERS", "4")

	var cfg API
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Sender.Workers != 4 || cfg.Sender.Buffer != 4096 || cfg.Sender.HandoffTimeout != 15*time.Millisecond {
		t.Fatalf("unexpected sender config %+v", cfg.Sender)
	}
	if cfg.ListenPort != "8080" || cfg.Auth.JWKSCacheTTL != 15*time.Minute {
		t.Fatalf("unexpected api defaults %+v", cfg)
	}
}
