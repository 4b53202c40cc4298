package api

import (
	"context"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/views"
)

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents processing of duplicate commands.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}

// OutcomeStore keeps command outcomes by idempotency key.
type OutcomeStore interface {
	Record(ctx context.Context, userID, key string, out domain.Outcome) error
	Get(ctx context.Context, userID, key string) (domain.Outcome, bool, error)
}

// ViewReader serves view snapshots, typically through storage.ViewCache.
type ViewReader interface {
	GetView(ctx context.Context, key views.Key) (storage.ViewRecord, bool, error)
}

// UpdateSubscriber delivers view update notifications as raw payloads until
// ctx is done.
type UpdateSubscriber interface {
	Subscribe(ctx context.Context) (<-chan string, error)
}
