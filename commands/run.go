package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/storage"
)

// Run handles command envelopes from q until ctx is done.
func (s *Service) Run(ctx context.Context, q storage.Queue, poll time.Duration) error {
	return storage.Consume(ctx, q, poll, s.HandleMessage)
}

// HandleMessage decodes one queued command envelope and handles it.
func (s *Service) HandleMessage(ctx context.Context, text string) error {
	var env domain.CommandEnvelope
	if err := sonic.UnmarshalString(text, &env); err != nil {
		return fmt.Errorf("%w: decode envelope: %v", storage.ErrPoison, err)
	}
	_, err := s.Handle(ctx, env)
	return err
}
