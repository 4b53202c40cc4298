// Package storage persists event streams and view snapshots and moves messages
// between the services.
package storage

import (
	"context"
	"errors"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/views"
)

// EventStore keeps the ordered event stream of every aggregate.
type EventStore interface {
	// Load returns the stream of one aggregate ordered by version.
	Load(ctx context.Context, entityType, entityID string) ([]domain.EventMessage, error)
	// Append stores msg. msg.Version must be one past the current stream
	// length; a taken version yields domain.ErrConcurrencyConflict.
	Append(ctx context.Context, msg domain.EventMessage) error
}

// ViewRecord is a stored view snapshot.
type ViewRecord struct {
	Key  views.Key
	Data []byte
	// ETag identifies the stored revision. It is empty for a view that has
	// never been written.
	ETag           string
	EventTimestamp int64
}

// ViewStore keeps the latest snapshot of every view.
type ViewStore interface {
	GetView(ctx context.Context, key views.Key) (ViewRecord, bool, error)
	// PutView inserts rec when rec.ETag is empty and otherwise replaces the
	// revision rec.ETag names. A lost race yields domain.ErrConcurrencyConflict.
	PutView(ctx context.Context, rec ViewRecord) error
	ListViewKeys(ctx context.Context, kind views.Kind) ([]string, error)
}

// Message is one dequeued queue message.
type Message struct {
	ID           string
	PopReceipt   string
	Text         string
	DequeueCount int64
}

// Queue is a FIFO-ish work queue with at-least-once delivery. A dequeued
// message becomes visible again unless it is deleted.
type Queue interface {
	Enqueue(ctx context.Context, text string) error
	// Dequeue returns nil when the queue is empty.
	Dequeue(ctx context.Context) (*Message, error)
	Delete(ctx context.Context, msg Message) error
}

// Backend bundles the stores and queues of one deployment.
type Backend struct {
	Events       EventStore
	Views        ViewStore
	Commands     Queue
	DomainEvents Queue

	closers []func() error
}

// NewBackend returns a Backend. closers run on Close in order.
func NewBackend(events EventStore, views ViewStore, commands, domainEvents Queue, closers ...func() error) *Backend {
	return &Backend{
		Events:       events,
		Views:        views,
		Commands:     commands,
		DomainEvents: domainEvents,
		closers:      closers,
	}
}

// Close releases the resources held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
