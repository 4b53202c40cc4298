package storage

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrPoison marks a message that can never be handled. Consume deletes it
// instead of leaving it for redelivery.
var ErrPoison = errors.New("poison message")

// MaxDequeueCount is the number of deliveries after which a failing message is
// dropped.
const MaxDequeueCount = 5

// Handler processes the text of one queue message.
type Handler func(ctx context.Context, text string) error

// Consume receives messages from q one at a time until ctx is done. A message
// is deleted once handled; a failed message is left to become visible again.
func Consume(ctx context.Context, q Queue, poll time.Duration, handle Handler) error {
	if poll <= 0 {
		poll = time.Second
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := q.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).Error("receive failed")
			if !sleep(ctx, poll) {
				return ctx.Err()
			}
			continue
		}
		if msg == nil {
			if !sleep(ctx, poll) {
				return ctx.Err()
			}
			continue
		}
		processMessage(ctx, q, *msg, handle)
	}
}

func processMessage(ctx context.Context, q Queue, msg Message, handle Handler) {
	entry := log.WithFields(log.Fields{"message": msg.ID, "dequeueCount": msg.DequeueCount})
	err := handle(ctx, msg.Text)
	switch {
	case err == nil:
	case errors.Is(err, ErrPoison):
		entry.WithError(err).Error("dropping undecodable message")
	case msg.DequeueCount >= MaxDequeueCount:
		entry.WithError(err).Error("dropping message after repeated failures")
	default:
		entry.WithError(err).Warn("message handling failed; leaving for redelivery")
		return
	}
	if err := q.Delete(ctx, msg); err != nil {
		entry.WithError(err).Error("delete failed")
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
