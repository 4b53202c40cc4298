package projector

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/storage"
)

// Run applies event messages from q until ctx is done.
func (u *Updater) Run(ctx context.Context, q storage.Queue, poll time.Duration) error {
	return storage.Consume(ctx, q, poll, u.HandleMessage)
}

// HandleMessage decodes one queued event message and applies it.
func (u *Updater) HandleMessage(ctx context.Context, text string) error {
	var msg domain.EventMessage
	if err := sonic.UnmarshalString(text, &msg); err != nil {
		return fmt.Errorf("%w: decode event: %v", storage.ErrPoison, err)
	}
	return u.Apply(ctx, msg)
}
