package domain

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// CommandMessage is the wire form of a command.
type CommandMessage struct {
	// ID carries the idempotency key when enqueued to the command queue.
	ID             string                 `json:"id,omitempty"`
	IdempotencyKey string                 `json:"idempotencyKey"`
	EntityType     string                 `json:"entityType"`
	Type           CommandType            `json:"type"`
	Data           sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp      int64                  `json:"timestamp"`
}

// CommandEnvelope wraps a command with the user performing it.
type CommandEnvelope struct {
	UserID  string         `json:"userId"`
	Command CommandMessage `json:"command"`
}

// EventMessage is the stored and queued form of an event.
type EventMessage struct {
	ID          string                 `json:"id"`
	EntityType  string                 `json:"entityType"`
	EntityID    string                 `json:"entityId"`
	Type        EventType              `json:"type"`
	Data        sonic.NoCopyRawMessage `json:"data"`
	Version     int64                  `json:"version"`
	Timestamp   int64                  `json:"timestamp"`
	UserID      string                 `json:"userId"`
	CausationID string                 `json:"causationId,omitempty"`
}

func decodeAs[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	err := sonic.Unmarshal(data, &v)
	return v, err
}

var commandDecoders = map[CommandType]func([]byte) (Command, error){
	CreateBasicTask:       asCommand(decodeAs[CreateBasicTaskCommand]),
	CreateDraft:           asCommand(decodeAs[CreateDraftCommand]),
	FinalizeDraft:         asCommand(decodeAs[FinalizeDraftCommand]),
	UpdateTaskDescription: asCommand(decodeAs[UpdateTaskDescriptionCommand]),
	UpdateTaskDueDate:     asCommand(decodeAs[UpdateTaskDueDateCommand]),
	UpdateTaskPriority:    asCommand(decodeAs[UpdateTaskPriorityCommand]),
	CompleteTask:          asCommand(decodeAs[CompleteTaskCommand]),
	ReopenTask:            asCommand(decodeAs[ReopenTaskCommand]),
	DeleteTask:            asCommand(decodeAs[DeleteTaskCommand]),
	RestoreDeletedTask:    asCommand(decodeAs[RestoreDeletedTaskCommand]),
	AssignLabelToTask:     asCommand(decodeAs[AssignLabelToTaskCommand]),
	RemoveLabelFromTask:   asCommand(decodeAs[RemoveLabelFromTaskCommand]),
	CreateBasicLabel:      asCommand(decodeAs[CreateBasicLabelCommand]),
	UpdateLabelDetails:    asCommand(decodeAs[UpdateLabelDetailsCommand]),
}

var eventDecoders = map[EventType]func([]byte) (Event, error){
	TaskCreated:            asEvent(decodeAs[TaskCreatedEvent]),
	TaskDraftCreated:       asEvent(decodeAs[TaskDraftCreatedEvent]),
	TaskDraftFinalized:     asEvent(decodeAs[TaskDraftFinalizedEvent]),
	TaskDescriptionUpdated: asEvent(decodeAs[TaskDescriptionUpdatedEvent]),
	TaskDueDateUpdated:     asEvent(decodeAs[TaskDueDateUpdatedEvent]),
	TaskPriorityUpdated:    asEvent(decodeAs[TaskPriorityUpdatedEvent]),
	TaskCompleted:          asEvent(decodeAs[TaskCompletedEvent]),
	TaskReopened:           asEvent(decodeAs[TaskReopenedEvent]),
	TaskDeleted:            asEvent(decodeAs[TaskDeletedEvent]),
	DeletedTaskRestored:    asEvent(decodeAs[DeletedTaskRestoredEvent]),
	LabelAssignedToTask:    asEvent(decodeAs[LabelAssignedToTaskEvent]),
	LabelRemovedFromTask:   asEvent(decodeAs[LabelRemovedFromTaskEvent]),
	LabelCreated:           asEvent(decodeAs[LabelCreatedEvent]),
	LabelDetailsUpdated:    asEvent(decodeAs[LabelDetailsUpdatedEvent]),
}

func asCommand[T Command](dec func([]byte) (T, error)) func([]byte) (Command, error) {
	return func(data []byte) (Command, error) {
		v, err := dec(data)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func asEvent[T Event](dec func([]byte) (T, error)) func([]byte) (Event, error) {
	return func(data []byte) (Event, error) {
		v, err := dec(data)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// DecodeCommand maps a command message to its typed command. The message
// entity type must agree with the command type.
func DecodeCommand(msg CommandMessage) (Command, error) {
	dec, ok := commandDecoders[msg.Type]
	if !ok {
		return nil, fmt.Errorf("command %q: %w", msg.Type, ErrUnknownType)
	}
	cmd, err := dec(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	if msg.EntityType != "" && msg.EntityType != cmd.EntityType() {
		return nil, fmt.Errorf("command %s addressed to %s, want %s", msg.Type, msg.EntityType, cmd.EntityType())
	}
	if cmd.TargetID() == "" {
		return nil, fmt.Errorf("command %s has no target id", msg.Type)
	}
	return cmd, nil
}

// EncodeCommand builds the wire form of cmd.
func EncodeCommand(cmd Command) (CommandMessage, error) {
	data, err := sonic.Marshal(cmd)
	if err != nil {
		return CommandMessage{}, err
	}
	return CommandMessage{
		EntityType: cmd.EntityType(),
		Type:       cmd.CommandType(),
		Data:       data,
	}, nil
}

// DecodeEvent maps an event message to its typed event.
func DecodeEvent(msg EventMessage) (Event, error) {
	dec, ok := eventDecoders[msg.Type]
	if !ok {
		return nil, fmt.Errorf("event %q: %w", msg.Type, ErrUnknownType)
	}
	ev, err := dec(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	return ev, nil
}

// EncodeEvent builds the message for ev. Version, ID and the causation fields
// are filled in by the caller.
func EncodeEvent(ev Event, timestamp int64) (EventMessage, error) {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return EventMessage{}, err
	}
	return EventMessage{
		EntityType: ev.EntityType(),
		EntityID:   ev.EntityID(),
		Type:       ev.EventType(),
		Data:       data,
		Timestamp:  timestamp,
	}, nil
}
