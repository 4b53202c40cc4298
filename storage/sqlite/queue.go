package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/spine-examples/todo-list/storage"
)

const defaultVisibility = 30 * time.Second

// Queue is a named queue stored in the queue_messages table. A dequeued
// message stays hidden for the visibility timeout and reappears unless it is
// deleted with its current pop receipt.
type Queue struct {
	store      *Store
	name       string
	visibility time.Duration
}

// Queue returns the queue called name.
func (s *Store) Queue(name string) *Queue {
	return &Queue{store: s, name: name, visibility: defaultVisibility}
}

func (q *Queue) Enqueue(ctx context.Context, text string) error {
	_, err := q.store.sqlDB.ExecContext(ctx,
		`INSERT INTO queue_messages (queue, body, visible_at) VALUES (?, ?, ?)`,
		q.name, text, q.store.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", q.name, err)
	}
	return nil
}

// Dequeue claims the oldest visible message.
func (q *Queue) Dequeue(ctx context.Context) (*storage.Message, error) {
	now := q.store.now()
	receipt := uuid.NewString()
	var (
		id    int64
		body  string
		count int64
	)
	err := q.store.sqlDB.QueryRowContext(ctx, `
UPDATE queue_messages
SET visible_at = ?, dequeue_count = dequeue_count + 1, pop_receipt = ?
WHERE id = (
	SELECT id FROM queue_messages
	WHERE queue = ? AND visible_at <= ?
	ORDER BY id
	LIMIT 1
)
RETURNING id, body, dequeue_count
`, now.Add(q.visibility).UnixMilli(), receipt, q.name, now.UnixMilli()).Scan(&id, &body, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue %s: %w", q.name, err)
	}
	return &storage.Message{
		ID:           strconv.FormatInt(id, 10),
		PopReceipt:   receipt,
		Text:         body,
		DequeueCount: count,
	}, nil
}

// Delete removes msg. A stale pop receipt leaves the message in place.
func (q *Queue) Delete(ctx context.Context, msg storage.Message) error {
	id, err := strconv.ParseInt(msg.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("delete from %s: invalid message id %q", q.name, msg.ID)
	}
	res, err := q.store.sqlDB.ExecContext(ctx,
		`DELETE FROM queue_messages WHERE queue = ? AND id = ? AND pop_receipt = ?`,
		q.name, id, msg.PopReceipt,
	)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", q.name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete from %s: message %s not found or receipt expired", q.name, msg.ID)
	}
	return nil
}

var _ storage.Queue = (*Queue)(nil)
