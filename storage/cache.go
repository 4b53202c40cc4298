package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/views"
)

const (
	viewCachePrefix      = "view"
	viewCachePayloadV1   = 1
	defaultViewsCacheTTL = 12 * time.Hour
)

type viewReader interface {
	GetView(ctx context.Context, key views.Key) (ViewRecord, bool, error)
}

type cachedView struct {
	Version        int                    `json:"version"`
	CachedAt       time.Time              `json:"cachedAt"`
	EventTimestamp int64                  `json:"eventTimestamp"`
	ETag           string                 `json:"etag"`
	Data           sonic.NoCopyRawMessage `json:"data"`
}

// ViewCache serves view snapshots from Redis and falls back to the backing
// store on a miss or an unreadable entry.
type ViewCache struct {
	base  viewReader
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewViewCache creates a caching reader over base.
func NewViewCache(base viewReader, client *redis.Client, ttl time.Duration) *ViewCache {
	if base == nil {
		panic("storage.NewViewCache: base storage is nil")
	}
	if ttl <= 0 {
		ttl = defaultViewsCacheTTL
	}
	return &ViewCache{base: base, redis: client, ttl: ttl, now: time.Now}
}

// GetView returns the snapshot for key.
func (c *ViewCache) GetView(ctx context.Context, key views.Key) (ViewRecord, bool, error) {
	if rec, ok := c.load(ctx, key); ok {
		return rec, true, nil
	}
	rec, found, err := c.base.GetView(ctx, key)
	if err != nil || !found {
		return rec, found, err
	}
	c.Refresh(ctx, rec)
	return rec, true, nil
}

// Refresh stores rec in the cache. Failures are logged and otherwise ignored.
func (c *ViewCache) Refresh(ctx context.Context, rec ViewRecord) {
	if c == nil || c.redis == nil {
		return
	}
	payload := cachedView{
		Version:        viewCachePayloadV1,
		CachedAt:       c.now().UTC(),
		EventTimestamp: rec.EventTimestamp,
		ETag:           rec.ETag,
		Data:           rec.Data,
	}
	data, err := sonic.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("view", rec.Key.String()).Error("failed to marshal view cache payload")
		return
	}
	if err := c.redis.Set(ctx, viewCacheKey(rec.Key), data, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("view", rec.Key.String()).Error("failed to store view cache entry")
	}
}

// Evict drops the cached snapshot for key.
func (c *ViewCache) Evict(ctx context.Context, key views.Key) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, viewCacheKey(key)).Err(); err != nil {
		log.WithError(err).WithField("view", key.String()).Error("failed to delete view cache entry")
	}
}

func (c *ViewCache) load(ctx context.Context, key views.Key) (ViewRecord, bool) {
	if c.redis == nil {
		return ViewRecord{}, false
	}
	data, err := c.redis.Get(ctx, viewCacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("view", key.String()).Warn("view cache read failed")
		}
		return ViewRecord{}, false
	}
	var cv cachedView
	if err := sonic.Unmarshal(data, &cv); err != nil || cv.Version != viewCachePayloadV1 {
		c.Evict(ctx, key)
		return ViewRecord{}, false
	}
	return ViewRecord{Key: key, Data: cv.Data, ETag: cv.ETag, EventTimestamp: cv.EventTimestamp}, true
}

func viewCacheKey(key views.Key) string {
	return viewCachePrefix + ":" + string(key.Kind) + ":" + key.ID
}
