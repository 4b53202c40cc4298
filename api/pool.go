package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/storage"
)

// SenderConfig tunes the background command sender.
type SenderConfig struct {
	Workers        int
	Buffer         int
	EnqueueTimeout time.Duration
	HandoffTimeout time.Duration
}

func (c SenderConfig) withDefaults() SenderConfig {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Buffer < 0 {
		c.Buffer = 0
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 60 * time.Second
	}
	return c
}

type enqueueJob struct {
	userID string
	cmds   []domain.CommandMessage
}

// commandSender enqueues accepted submissions on the command queue from a
// fixed set of workers. When a job fails, the commands from the failed one
// onward release their dedupe keys and get a rejected outcome so the client
// can resubmit them. Commands already on the queue keep theirs.
type commandSender struct {
	queue    storage.Queue
	deduper  Deduper
	outcomes OutcomeStore
	logger   *log.Logger
	cfg      SenderConfig

	mu     sync.RWMutex
	jobs   chan enqueueJob
	wg     sync.WaitGroup
	closed bool
}

func newCommandSender(queue storage.Queue, deduper Deduper, outcomes OutcomeStore, logger *log.Logger, cfg SenderConfig) *commandSender {
	if logger == nil {
		panic("Logger is not initialized")
	}
	cfg = cfg.withDefaults()
	s := &commandSender{
		queue:    queue,
		deduper:  deduper,
		outcomes: outcomes,
		logger:   logger,
		cfg:      cfg,
		jobs:     make(chan enqueueJob, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	logger.Infof("command sender started, workers: %d, buffer: %d, timeout: %v, handoff: %v", cfg.Workers, cfg.Buffer, cfg.EnqueueTimeout, cfg.HandoffTimeout)
	return s
}

// Close stops accepting jobs and waits for queued ones to drain.
func (s *commandSender) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *commandSender) worker(id int) {
	defer s.wg.Done()
	for j := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.EnqueueTimeout)
		sent, err := s.enqueue(ctx, j)
		cancel()
		if err != nil {
			s.logger.Errorf("enqueue failed, err: %v, user: %s, sent: %d/%d, worker: %d", err, j.userID, sent, len(j.cmds), id)
			s.rollback(context.Background(), j.userID, j.cmds[sent:], err)
		}
	}
}

// trySend hands job to a worker, waiting at most HandoffTimeout for buffer
// space. It reports false when the caller should enqueue inline.
func (s *commandSender) trySend(job enqueueJob) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.jobs <- job:
		return true
	default:
	}
	if s.cfg.HandoffTimeout <= 0 {
		return false
	}
	timer := time.NewTimer(s.cfg.HandoffTimeout)
	defer timer.Stop()
	select {
	case s.jobs <- job:
		return true
	case <-timer.C:
		return false
	}
}

// sendInline enqueues job on the calling goroutine.
func (s *commandSender) sendInline(ctx context.Context, job enqueueJob) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EnqueueTimeout)
	defer cancel()
	if sent, err := s.enqueue(ctx, job); err != nil {
		s.rollback(context.Background(), job.userID, job.cmds[sent:], err)
		return err
	}
	return nil
}

// enqueue sends job's commands in order and returns how many reached the
// queue.
func (s *commandSender) enqueue(ctx context.Context, job enqueueJob) (int, error) {
	for i, cmd := range job.cmds {
		text, err := sonic.MarshalString(domain.CommandEnvelope{UserID: job.userID, Command: cmd})
		if err != nil {
			return i, fmt.Errorf("marshal command %s: %w", cmd.IdempotencyKey, err)
		}
		if err := s.queue.Enqueue(ctx, text); err != nil {
			return i, fmt.Errorf("enqueue command %s: %w", cmd.IdempotencyKey, err)
		}
	}
	return len(job.cmds), nil
}

func (s *commandSender) rollback(ctx context.Context, userID string, cmds []domain.CommandMessage, cause error) {
	for _, cmd := range cmds {
		if s.deduper != nil {
			if err := s.deduper.Remove(ctx, userID, cmd.IdempotencyKey); err != nil {
				s.logger.Errorf("dedupe rollback failed, err : %v, key: %s, user: %s", err, cmd.IdempotencyKey, userID)
			}
		}
		if s.outcomes == nil {
			continue
		}
		out := domain.Outcome{
			Status:      domain.OutcomeRejected,
			CommandType: cmd.Type,
			Rejection: &domain.Rejection{
				Kind:       domain.InappropriateInput,
				Code:       rejectionCodeNotEnqueued,
				EntityType: cmd.EntityType,
				Message:    cause.Error(),
			},
			Timestamp: cmd.Timestamp,
		}
		if err := s.outcomes.Record(ctx, userID, cmd.IdempotencyKey, out); err != nil {
			s.logger.Warnf("record outcome failed, err: %v, key: %s", err, cmd.IdempotencyKey)
		}
	}
}
