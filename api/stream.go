package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	streamHeartbeat  = 15 * time.Second
	streamBufferSize = 16
)

// RedisUpdates fans view update notifications published on a Redis channel
// out to local subscribers.
type RedisUpdates struct {
	client  *redis.Client
	channel string

	mu   sync.Mutex
	subs map[chan string]struct{}
}

// NewRedisUpdates creates a fan-out for channel. Run must be started for
// subscribers to receive anything.
func NewRedisUpdates(client *redis.Client, channel string) *RedisUpdates {
	return &RedisUpdates{client: client, channel: channel, subs: make(map[chan string]struct{})}
}

// Run relays published payloads until ctx is done.
func (u *RedisUpdates) Run(ctx context.Context) error {
	pubsub := u.client.Subscribe(ctx, u.channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	log.WithField("channel", u.channel).Info("listening for view updates")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("update subscription closed")
			}
			u.notify(msg.Payload)
		}
	}
}

// Subscribe registers a subscriber that is dropped when ctx is done.
func (u *RedisUpdates) Subscribe(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, streamBufferSize)
	u.mu.Lock()
	u.subs[ch] = struct{}{}
	u.mu.Unlock()
	go func() {
		<-ctx.Done()
		u.mu.Lock()
		delete(u.subs, ch)
		u.mu.Unlock()
	}()
	return ch, nil
}

// notify never blocks; a slow subscriber misses updates.
func (u *RedisUpdates) notify(payload string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for ch := range u.subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *handlers) stream(c echo.Context) error {
	authHeader := authHeaderOrQuery(c.Request().Header.Get(echo.HeaderAuthorization), c.QueryParam("token"))
	if _, err := h.Auth.UserIDFromAuthHeader(authHeader); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	updates, err := h.Updates.Subscribe(ctx)
	if err != nil {
		h.Logger.WithError(err).Error("subscribe to view updates failed")
		return c.String(http.StatusInternalServerError, "stream unavailable")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := c.Response().Write([]byte(": ping\n\n")); err != nil {
				return nil
			}
		case payload := <-updates:
			if _, err := c.Response().Write([]byte("event: view-update\ndata: " + payload + "\n\n")); err != nil {
				return nil
			}
		}
		flusher.Flush()
	}
}
