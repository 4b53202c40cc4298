package domain

// EventType identifies the kind of an event.
type EventType string

const (
	TaskCreated            EventType = "task-created"
	TaskDraftCreated       EventType = "task-draft-created"
	TaskDraftFinalized     EventType = "task-draft-finalized"
	TaskDescriptionUpdated EventType = "task-description-updated"
	TaskDueDateUpdated     EventType = "task-due-date-updated"
	TaskPriorityUpdated    EventType = "task-priority-updated"
	TaskCompleted          EventType = "task-completed"
	TaskReopened           EventType = "task-reopened"
	TaskDeleted            EventType = "task-deleted"
	DeletedTaskRestored    EventType = "deleted-task-restored"
	LabelAssignedToTask    EventType = "label-assigned-to-task"
	LabelRemovedFromTask   EventType = "label-removed-from-task"
	LabelCreated           EventType = "label-created"
	LabelDetailsUpdated    EventType = "label-details-updated"
)

// Event is an immutable fact produced by an accepted command.
type Event interface {
	EventType() EventType
	EntityType() string
	EntityID() string
	isEvent()
}

type taskEvent struct{}

func (taskEvent) EntityType() string { return EntityTask }
func (taskEvent) isEvent()           {}

type labelEvent struct{}

func (labelEvent) EntityType() string { return EntityLabel }
func (labelEvent) isEvent()           {}

type TaskCreatedEvent struct {
	taskEvent
	TaskID      TaskID       `json:"taskId"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
}

type TaskDraftCreatedEvent struct {
	taskEvent
	TaskID TaskID `json:"taskId"`
}

// TaskDraftFinalizedEvent carries the draft as it was when finalized so that
// views that never saw the draft can insert it.
type TaskDraftFinalizedEvent struct {
	taskEvent
	TaskID   TaskID      `json:"taskId"`
	Details  TaskDetails `json:"details"`
	LabelIDs []LabelID   `json:"labelIds,omitempty"`
}

type TaskDescriptionUpdatedEvent struct {
	taskEvent
	TaskID TaskID         `json:"taskId"`
	Change Change[string] `json:"change"`
}

type TaskDueDateUpdatedEvent struct {
	taskEvent
	TaskID TaskID          `json:"taskId"`
	Change Change[DueDate] `json:"change"`
}

type TaskPriorityUpdatedEvent struct {
	taskEvent
	TaskID TaskID               `json:"taskId"`
	Change Change[TaskPriority] `json:"change"`
}

type TaskCompletedEvent struct {
	taskEvent
	TaskID TaskID `json:"taskId"`
}

type TaskReopenedEvent struct {
	taskEvent
	TaskID TaskID `json:"taskId"`
}

type TaskDeletedEvent struct {
	taskEvent
	TaskID TaskID `json:"taskId"`
}

// DeletedTaskRestoredEvent carries the restored task so that views which
// dropped it on deletion can insert it again.
type DeletedTaskRestoredEvent struct {
	taskEvent
	TaskID   TaskID      `json:"taskId"`
	Details  TaskDetails `json:"details"`
	LabelIDs []LabelID   `json:"labelIds,omitempty"`
}

// LabelAssignedToTaskEvent carries the task details for the label group row.
type LabelAssignedToTaskEvent struct {
	taskEvent
	TaskID  TaskID      `json:"taskId"`
	LabelID LabelID     `json:"labelId"`
	Details TaskDetails `json:"details"`
}

// LabelRemovedFromTaskEvent carries the labels still assigned after the
// removal, in assignment order.
type LabelRemovedFromTaskEvent struct {
	taskEvent
	TaskID   TaskID    `json:"taskId"`
	LabelID  LabelID   `json:"labelId"`
	LabelIDs []LabelID `json:"labelIds,omitempty"`
}

type LabelCreatedEvent struct {
	labelEvent
	LabelID LabelID      `json:"labelId"`
	Details LabelDetails `json:"details"`
}

type LabelDetailsUpdatedEvent struct {
	labelEvent
	LabelID LabelID              `json:"labelId"`
	Change  Change[LabelDetails] `json:"change"`
}

func (TaskCreatedEvent) EventType() EventType            { return TaskCreated }
func (TaskDraftCreatedEvent) EventType() EventType       { return TaskDraftCreated }
func (TaskDraftFinalizedEvent) EventType() EventType     { return TaskDraftFinalized }
func (TaskDescriptionUpdatedEvent) EventType() EventType { return TaskDescriptionUpdated }
func (TaskDueDateUpdatedEvent) EventType() EventType     { return TaskDueDateUpdated }
func (TaskPriorityUpdatedEvent) EventType() EventType    { return TaskPriorityUpdated }
func (TaskCompletedEvent) EventType() EventType          { return TaskCompleted }
func (TaskReopenedEvent) EventType() EventType           { return TaskReopened }
func (TaskDeletedEvent) EventType() EventType            { return TaskDeleted }
func (DeletedTaskRestoredEvent) EventType() EventType    { return DeletedTaskRestored }
func (LabelAssignedToTaskEvent) EventType() EventType    { return LabelAssignedToTask }
func (LabelRemovedFromTaskEvent) EventType() EventType   { return LabelRemovedFromTask }
func (LabelCreatedEvent) EventType() EventType           { return LabelCreated }
func (LabelDetailsUpdatedEvent) EventType() EventType    { return LabelDetailsUpdated }

func (e TaskCreatedEvent) EntityID() string            { return string(e.TaskID) }
func (e TaskDraftCreatedEvent) EntityID() string       { return string(e.TaskID) }
func (e TaskDraftFinalizedEvent) EntityID() string     { return string(e.TaskID) }
func (e TaskDescriptionUpdatedEvent) EntityID() string { return string(e.TaskID) }
func (e TaskDueDateUpdatedEvent) EntityID() string     { return string(e.TaskID) }
func (e TaskPriorityUpdatedEvent) EntityID() string    { return string(e.TaskID) }
func (e TaskCompletedEvent) EntityID() string          { return string(e.TaskID) }
func (e TaskReopenedEvent) EntityID() string           { return string(e.TaskID) }
func (e TaskDeletedEvent) EntityID() string            { return string(e.TaskID) }
func (e DeletedTaskRestoredEvent) EntityID() string    { return string(e.TaskID) }
func (e LabelAssignedToTaskEvent) EntityID() string    { return string(e.TaskID) }
func (e LabelRemovedFromTaskEvent) EntityID() string   { return string(e.TaskID) }
func (e LabelCreatedEvent) EntityID() string           { return string(e.LabelID) }
func (e LabelDetailsUpdatedEvent) EntityID() string    { return string(e.LabelID) }
