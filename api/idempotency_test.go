package api

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newDeduper(t *testing.T) (*miniredis.Miniredis, *redis.Client, *RedisDeduper) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return m, client, NewRedisDeduper(client, time.Minute)
}

func TestRedisDeduperAddRemove(t *testing.T) {
	_, _, deduper := newDeduper(t)
	ctx := context.Background()

	added, err := deduper.Add(ctx, "user", "k1")
	if err != nil || !added {
		t.Fatalf("expected first add to succeed, added=%v err=%v", added, err)
	}
	added, err = deduper.Add(ctx, "user", "k1")
	if err != nil || added {
		t.Fatalf("expected duplicate, added=%v err=%v", added, err)
	}
	added, err = deduper.Add(ctx, "other", "k1")
	if err != nil || !added {
		t.Fatalf("keys must be scoped per user, added=%v err=%v", added, err)
	}

	if err := deduper.Remove(ctx, "user", "k1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	added, err = deduper.Add(ctx, "user", "k1")
	if err != nil || !added {
		t.Fatalf("expected key to be addable after remove, added=%v err=%v", added, err)
	}
}

func TestRedisDeduperKeyNamespacingAndTTL(t *testing.T) {
	m, client, deduper := newDeduper(t)
	ctx := context.Background()

	if _, err := deduper.Add(ctx, "user", "k1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	expectedKey := dedupePrefix + ":user:k1"
	exists, err := client.Exists(ctx, expectedKey).Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists != 1 {
		t.Fatalf("expected redis key %q to exist", expectedKey)
	}
	if ttl := m.TTL(expectedKey); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	m.FastForward(2 * time.Minute)
	added, err := deduper.Add(ctx, "user", "k1")
	if err != nil || !added {
		t.Fatalf("expected key to expire, added=%v err=%v", added, err)
	}
}
