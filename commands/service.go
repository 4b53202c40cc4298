// Package commands runs commands against their aggregates: it loads the event
// history, asks the state machine for a decision, appends the resulting event
// and publishes it for the read side.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/labels"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/tasks"
)

const (
	rejectionCodeTaskAlreadyExists  = "TASK_ALREADY_EXISTS"
	rejectionCodeLabelAlreadyExists = "LABEL_ALREADY_EXISTS"
	rejectionCodeUndecodable        = "UNDECODABLE_COMMAND"
)

// maxAttempts bounds how often a command is decided again after losing an
// append race.
const maxAttempts = 2

type outcomeRecorder interface {
	Record(ctx context.Context, userID, key string, out domain.Outcome) error
}

// Service handles commands for task and label aggregates.
type Service struct {
	events   storage.EventStore
	publish  storage.Queue
	outcomes outcomeRecorder
	now      func() time.Time
}

// NewService creates a Service. outcomes may be nil.
func NewService(events storage.EventStore, publish storage.Queue, outcomes outcomeRecorder) *Service {
	return &Service{events: events, publish: publish, outcomes: outcomes, now: time.Now}
}

// Handle decides env's command and persists the accepted event. A rejection
// is returned in the decision with a nil error. An undecodable command yields
// an error wrapping storage.ErrPoison.
func (s *Service) Handle(ctx context.Context, env domain.CommandEnvelope) (domain.Decision, error) {
	key := env.Command.IdempotencyKey
	if key == "" {
		key = env.Command.ID
	}
	entry := log.WithFields(log.Fields{"user": env.UserID, "command": env.Command.Type, "key": key})

	cmd, err := domain.DecodeCommand(env.Command)
	if err != nil {
		s.record(ctx, env.UserID, key, domain.Outcome{
			Status:      domain.OutcomeRejected,
			CommandType: env.Command.Type,
			Rejection: &domain.Rejection{
				Kind:       domain.InappropriateInput,
				Code:       rejectionCodeUndecodable,
				EntityType: env.Command.EntityType,
				Message:    err.Error(),
			},
			Timestamp: s.now().UnixNano(),
		})
		return domain.Decision{}, fmt.Errorf("%w: %v", storage.ErrPoison, err)
	}
	entry = entry.WithField("entity", cmd.TargetID())

	for attempt := 1; ; attempt++ {
		d, version, err := s.decideAndAppend(ctx, env.UserID, key, cmd)
		if errors.Is(err, domain.ErrConcurrencyConflict) && attempt < maxAttempts {
			entry.WithField("attempt", attempt).Debug("append conflict; deciding again")
			continue
		}
		if err != nil {
			return domain.Decision{}, err
		}
		if d.Accepted() {
			entry.WithFields(log.Fields{"event": d.Event.EventType(), "version": version}).Info("command accepted")
		} else {
			entry.WithFields(log.Fields{"rejection": d.Rejection.Code, "kind": d.Rejection.Kind}).Info("command rejected")
		}
		s.record(ctx, env.UserID, key, domain.OutcomeOf(cmd.CommandType(), d, version, s.now().UnixNano()))
		return d, nil
	}
}

func (s *Service) decideAndAppend(ctx context.Context, userID, key string, cmd domain.Command) (domain.Decision, int64, error) {
	history, err := s.events.Load(ctx, cmd.EntityType(), cmd.TargetID())
	if err != nil {
		return domain.Decision{}, 0, fmt.Errorf("load %s %s: %w", cmd.EntityType(), cmd.TargetID(), err)
	}
	events := make([]domain.Event, 0, len(history))
	for _, m := range history {
		ev, err := domain.DecodeEvent(m)
		if err != nil {
			return domain.Decision{}, 0, fmt.Errorf("%s %s version %d: %w", m.EntityType, m.EntityID, m.Version, err)
		}
		if key != "" && m.CausationID == key {
			// redelivered command: the event is stored, make sure it is published
			return domain.Accept(ev), m.Version, s.enqueue(ctx, m)
		}
		events = append(events, ev)
	}

	d := decide(cmd, events)
	if !d.Accepted() {
		return d, 0, nil
	}
	msg, err := domain.EncodeEvent(d.Event, s.now().UnixNano())
	if err != nil {
		return domain.Decision{}, 0, err
	}
	msg.ID = uuid.NewString()
	msg.Version = int64(len(history)) + 1
	msg.UserID = userID
	msg.CausationID = key
	if err := s.events.Append(ctx, msg); err != nil {
		return domain.Decision{}, 0, err
	}
	return d, msg.Version, s.enqueue(ctx, msg)
}

func (s *Service) enqueue(ctx context.Context, msg domain.EventMessage) error {
	payload, err := sonic.MarshalString(msg)
	if err != nil {
		return err
	}
	if err := s.publish.Enqueue(ctx, payload); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, userID, key string, out domain.Outcome) {
	if s.outcomes == nil || key == "" {
		return
	}
	if err := s.outcomes.Record(ctx, userID, key, out); err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to record command outcome")
	}
}

// decide folds the history of cmd's aggregate and decides cmd against it.
func decide(cmd domain.Command, history []domain.Event) domain.Decision {
	switch cmd.EntityType() {
	case domain.EntityTask:
		state := tasks.Replay(history)
		if c, ok := cmd.(domain.CreateBasicTaskCommand); ok && state.Created() {
			return domain.Refuse(domain.Reject(c, domain.AlreadyExists, rejectionCodeTaskAlreadyExists, "task %s already exists", c.TaskID))
		}
		return tasks.Decide(state, cmd)
	case domain.EntityLabel:
		state := labels.Replay(history)
		if c, ok := cmd.(domain.CreateBasicLabelCommand); ok && state.Created {
			return domain.Refuse(domain.Reject(c, domain.AlreadyExists, rejectionCodeLabelAlreadyExists, "label %s already exists", c.LabelID))
		}
		return labels.Decide(state, cmd)
	}
	return domain.Refuse(domain.Reject(cmd, domain.InappropriateInput, "UNSUPPORTED_COMMAND", "no aggregate handles %s", cmd.EntityType()))
}
