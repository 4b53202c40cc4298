package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/spine-examples/todo-list/views"
)

type stubViews struct {
	getViewFn func(ctx context.Context, key views.Key) (ViewRecord, bool, error)
}

func (s *stubViews) GetView(ctx context.Context, key views.Key) (ViewRecord, bool, error) {
	if s.getViewFn == nil {
		return ViewRecord{}, false, errors.New("unexpected GetView call")
	}
	return s.getViewFn(ctx, key)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestViewCacheMissThenHit(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	key := views.PersonalKey
	stored := ViewRecord{Key: key, Data: []byte(`{"tasks":[]}`), ETag: "e1", EventTimestamp: 42}

	var calls int
	cache := NewViewCache(&stubViews{
		getViewFn: func(ctx context.Context, k views.Key) (ViewRecord, bool, error) {
			calls++
			if k != key {
				t.Fatalf("unexpected key: %s", k)
			}
			return stored, true, nil
		},
	}, client, time.Minute)

	for i := 0; i < 2; i++ {
		rec, found, err := cache.GetView(ctx, key)
		if err != nil || !found {
			t.Fatalf("get view: %v, %v", found, err)
		}
		if string(rec.Data) != string(stored.Data) || rec.ETag != "e1" || rec.EventTimestamp != 42 {
			t.Fatalf("unexpected record: %+v", rec)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to backend, got %d", calls)
	}
	if ttl := mr.TTL(viewCacheKey(key)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}
}

func TestViewCacheMissingViewIsNotCached(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewViewCache(&stubViews{
		getViewFn: func(ctx context.Context, k views.Key) (ViewRecord, bool, error) {
			return ViewRecord{Key: k}, false, nil
		},
	}, client, time.Minute)

	_, found, err := cache.GetView(context.Background(), views.DraftsKey)
	if err != nil || found {
		t.Fatalf("get view: %v, %v", found, err)
	}
	if mr.Exists(viewCacheKey(views.DraftsKey)) {
		t.Fatalf("missing view should not be cached")
	}
}

func TestViewCacheEvictsCorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	key := views.LabelGroupKey("l1")
	if err := mr.Set(viewCacheKey(key), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var calls int
	cache := NewViewCache(&stubViews{
		getViewFn: func(ctx context.Context, k views.Key) (ViewRecord, bool, error) {
			calls++
			return ViewRecord{Key: k, Data: []byte(`{}`), ETag: "e2"}, true, nil
		},
	}, client, time.Minute)

	rec, found, err := cache.GetView(context.Background(), key)
	if err != nil || !found || rec.ETag != "e2" {
		t.Fatalf("get view: %+v, %v, %v", rec, found, err)
	}
	if calls != 1 {
		t.Fatalf("expected fallback to backend, got %d calls", calls)
	}
	raw, err := mr.Get(viewCacheKey(key))
	if err != nil || raw == "{not json" {
		t.Fatalf("corrupt entry was not replaced: %q, %v", raw, err)
	}
}

func TestViewCacheBackendError(t *testing.T) {
	_, client := newTestRedis(t)
	boom := errors.New("boom")
	cache := NewViewCache(&stubViews{
		getViewFn: func(ctx context.Context, k views.Key) (ViewRecord, bool, error) {
			return ViewRecord{}, false, boom
		},
	}, client, time.Minute)
	if _, _, err := cache.GetView(context.Background(), views.PersonalKey); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestViewCacheRefreshAndEvict(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewViewCache(&stubViews{}, client, 0)
	rec := ViewRecord{Key: views.PersonalKey, Data: []byte(`{"tasks":[{"taskId":"t1"}]}`), ETag: "e3"}

	cache.Refresh(context.Background(), rec)
	got, found, err := cache.GetView(context.Background(), views.PersonalKey)
	if err != nil || !found || string(got.Data) != string(rec.Data) {
		t.Fatalf("refreshed view: %+v, %v, %v", got, found, err)
	}
	if ttl := mr.TTL(viewCacheKey(rec.Key)); ttl != defaultViewsCacheTTL {
		t.Fatalf("unexpected default TTL: %v", ttl)
	}

	cache.Evict(context.Background(), views.PersonalKey)
	if mr.Exists(viewCacheKey(views.PersonalKey)) {
		t.Fatalf("entry should be evicted")
	}
}

func TestNewViewCachePanicsOnNilBase(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewViewCache(nil, nil, time.Minute)
}
