package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/spine-examples/todo-list/domain"
)

const (
	outcomePrefix     = "outcome"
	defaultOutcomeTTL = 24 * time.Hour
)

// Outcomes records what happened to each command under its idempotency key.
type Outcomes struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewOutcomes returns an outcome recorder.
func NewOutcomes(client *redis.Client, ttl time.Duration) *Outcomes {
	if ttl <= 0 {
		ttl = defaultOutcomeTTL
	}
	return &Outcomes{redis: client, ttl: ttl}
}

// Record stores o for the command with idempotency key.
func (o *Outcomes) Record(ctx context.Context, userID, key string, out domain.Outcome) error {
	data, err := sonic.Marshal(out)
	if err != nil {
		return err
	}
	return o.redis.Set(ctx, outcomeKey(userID, key), data, o.ttl).Err()
}

// Get returns the outcome stored for key.
func (o *Outcomes) Get(ctx context.Context, userID, key string) (domain.Outcome, bool, error) {
	data, err := o.redis.Get(ctx, outcomeKey(userID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Outcome{}, false, nil
	}
	if err != nil {
		return domain.Outcome{}, false, err
	}
	var out domain.Outcome
	if err := sonic.Unmarshal(data, &out); err != nil {
		return domain.Outcome{}, false, err
	}
	return out, true, nil
}

func outcomeKey(userID, key string) string {
	return outcomePrefix + ":" + userID + ":" + key
}
