// Package projector keeps the stored views in step with the domain event
// stream.
package projector

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/views"
)

const defaultMaxRetries = 5

type cacheRefresher interface {
	Refresh(ctx context.Context, rec storage.ViewRecord)
}

// Update is published on the updates channel after an event changed views.
type Update struct {
	EventID   string           `json:"eventId"`
	EventType domain.EventType `json:"eventType"`
	UserID    string           `json:"userId,omitempty"`
	Views     []string         `json:"views"`
	Timestamp int64            `json:"timestamp"`
}

// Updater folds domain events into the stored views.
type Updater struct {
	views      storage.ViewStore
	cache      cacheRefresher
	redis      *redis.Client
	channel    string
	maxRetries int
}

// NewUpdater creates an Updater. cache and rc may be nil.
func NewUpdater(store storage.ViewStore, cache cacheRefresher, rc *redis.Client, channel string, maxRetries int) *Updater {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Updater{views: store, cache: cache, redis: rc, channel: channel, maxRetries: maxRetries}
}

// Apply folds msg into every view it targets. Events of unknown type are
// poison.
func (u *Updater) Apply(ctx context.Context, msg domain.EventMessage) error {
	ev, err := domain.DecodeEvent(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrPoison, err)
	}
	groups, err := u.labelGroups(ctx)
	if err != nil {
		return err
	}
	var changed []string
	for _, key := range views.Targets(ev, groups) {
		ok, err := u.applyTo(ctx, key, ev, msg.Timestamp)
		if err != nil {
			return fmt.Errorf("apply %s to %s: %w", msg.Type, key, err)
		}
		if ok {
			changed = append(changed, key.String())
		}
	}
	log.WithFields(log.Fields{"event": msg.Type, "entity": msg.EntityID, "version": msg.Version, "views": len(changed)}).Debug("event applied")
	u.publish(ctx, Update{EventID: msg.ID, EventType: msg.Type, UserID: msg.UserID, Views: changed, Timestamp: msg.Timestamp})
	return nil
}

func (u *Updater) labelGroups(ctx context.Context) ([]domain.LabelID, error) {
	ids, err := u.views.ListViewKeys(ctx, views.KindLabelGroup)
	if err != nil {
		return nil, fmt.Errorf("list label groups: %w", err)
	}
	out := make([]domain.LabelID, len(ids))
	for i, id := range ids {
		out[i] = domain.LabelID(id)
	}
	return out, nil
}

// applyTo folds ev into the view at key and reports whether the stored
// snapshot changed.
func (u *Updater) applyTo(ctx context.Context, key views.Key, ev domain.Event, ts int64) (bool, error) {
	for attempt := 1; ; attempt++ {
		rec, found, err := u.views.GetView(ctx, key)
		if err != nil {
			return false, err
		}
		cur, err := views.Decode(key, rec.Data)
		if err != nil {
			return false, err
		}
		data, err := views.Encode(cur.Fold(ev))
		if err != nil {
			return false, err
		}
		if found && bytes.Equal(data, rec.Data) {
			return false, nil
		}
		next := storage.ViewRecord{Key: key, Data: data, ETag: rec.ETag, EventTimestamp: max(rec.EventTimestamp, ts)}
		err = u.views.PutView(ctx, next)
		if errors.Is(err, domain.ErrConcurrencyConflict) && attempt < u.maxRetries {
			log.WithFields(log.Fields{"view": key.String(), "attempt": attempt}).Debug("view write conflict; retrying")
			continue
		}
		if err != nil {
			return false, err
		}
		u.refresh(ctx, next)
		return true, nil
	}
}

// Rebuild recomputes every view from an ordered event history and overwrites
// the stored snapshots.
func (u *Updater) Rebuild(ctx context.Context, history []domain.EventMessage) error {
	events := make([]domain.Event, 0, len(history))
	var ts int64
	for _, m := range history {
		ev, err := domain.DecodeEvent(m)
		if err != nil {
			return fmt.Errorf("event %s: %w", m.ID, err)
		}
		events = append(events, ev)
		ts = max(ts, m.Timestamp)
	}
	set := views.Replay(events)
	snapshots := map[views.Key]views.Folder{
		views.PersonalKey: set.Personal,
		views.DraftsKey:   set.Drafts,
	}
	for _, id := range set.Labels() {
		snapshots[views.LabelGroupKey(id)] = set.Groups[id]
	}
	for key, v := range snapshots {
		data, err := views.Encode(v)
		if err != nil {
			return err
		}
		if err := u.overwrite(ctx, key, data, ts); err != nil {
			return fmt.Errorf("rebuild %s: %w", key, err)
		}
	}
	log.WithFields(log.Fields{"events": len(history), "views": len(snapshots)}).Info("views rebuilt")
	return nil
}

func (u *Updater) overwrite(ctx context.Context, key views.Key, data []byte, ts int64) error {
	for attempt := 1; ; attempt++ {
		rec, _, err := u.views.GetView(ctx, key)
		if err != nil {
			return err
		}
		next := storage.ViewRecord{Key: key, Data: data, ETag: rec.ETag, EventTimestamp: ts}
		err = u.views.PutView(ctx, next)
		if errors.Is(err, domain.ErrConcurrencyConflict) && attempt < u.maxRetries {
			continue
		}
		if err != nil {
			return err
		}
		u.refresh(ctx, next)
		return nil
	}
}

func (u *Updater) refresh(ctx context.Context, rec storage.ViewRecord) {
	if u.cache == nil {
		return
	}
	// the new ETag is only known to the store
	rec.ETag = ""
	u.cache.Refresh(ctx, rec)
}

func (u *Updater) publish(ctx context.Context, upd Update) {
	if u.redis == nil || len(upd.Views) == 0 {
		return
	}
	payload, err := sonic.MarshalString(upd)
	if err != nil {
		log.WithError(err).Error("failed to marshal view update")
		return
	}
	if err := u.redis.Publish(ctx, u.channel, payload).Err(); err != nil {
		log.Errorf("Unable to publish updates for %s to %s", upd.EventType, u.channel)
	}
}
