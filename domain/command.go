package domain

// CommandType identifies the kind of a command.
type CommandType string

const (
	CreateBasicTask       CommandType = "create-basic-task"
	CreateDraft           CommandType = "create-draft"
	FinalizeDraft         CommandType = "finalize-draft"
	UpdateTaskDescription CommandType = "update-task-description"
	UpdateTaskDueDate     CommandType = "update-task-due-date"
	UpdateTaskPriority    CommandType = "update-task-priority"
	CompleteTask          CommandType = "complete-task"
	ReopenTask            CommandType = "reopen-task"
	DeleteTask            CommandType = "delete-task"
	RestoreDeletedTask    CommandType = "restore-deleted-task"
	AssignLabelToTask     CommandType = "assign-label-to-task"
	RemoveLabelFromTask   CommandType = "remove-label-from-task"
	CreateBasicLabel      CommandType = "create-basic-label"
	UpdateLabelDetails    CommandType = "update-label-details"
)

// Command is a request to change one aggregate. The set of implementations is
// closed; handlers switch on the concrete type.
type Command interface {
	CommandType() CommandType
	// EntityType names the aggregate the command is addressed to.
	EntityType() string
	// TargetID is the id of the addressed aggregate.
	TargetID() string
	isCommand()
}

type taskCommand struct{}

func (taskCommand) EntityType() string { return EntityTask }
func (taskCommand) isCommand()         {}

type labelCommand struct{}

func (labelCommand) EntityType() string { return EntityLabel }
func (labelCommand) isCommand()         {}

type CreateBasicTaskCommand struct {
	taskCommand
	TaskID      TaskID `json:"taskId"`
	Description string `json:"description"`
}

type CreateDraftCommand struct {
	taskCommand
	TaskID TaskID `json:"taskId"`
}

type FinalizeDraftCommand struct {
	taskCommand
	TaskID TaskID `json:"taskId"`
}

type UpdateTaskDescriptionCommand struct {
	taskCommand
	TaskID      TaskID           `json:"taskId"`
	Previous    Expected[string] `json:"previous"`
	Description string           `json:"description"`
}

type UpdateTaskDueDateCommand struct {
	taskCommand
	TaskID   TaskID            `json:"taskId"`
	Previous Expected[DueDate] `json:"previous"`
	DueDate  DueDate           `json:"dueDate"`
}

type UpdateTaskPriorityCommand struct {
	taskCommand
	TaskID   TaskID                 `json:"taskId"`
	Previous Expected[TaskPriority] `json:"previous"`
	Priority TaskPriority           `json:"priority"`
}

type CompleteTaskCommand struct {
	taskCommand
	TaskID TaskID `json:"taskId"`
}

type ReopenTaskCommand struct {
	taskCommand
	TaskID TaskID `json:"taskId"`
}

type DeleteTaskCommand struct {
	taskCommand
	TaskID TaskID `json:"taskId"`
}

type RestoreDeletedTaskCommand struct {
	taskCommand
	TaskID TaskID `json:"taskId"`
}

type AssignLabelToTaskCommand struct {
	taskCommand
	TaskID  TaskID  `json:"taskId"`
	LabelID LabelID `json:"labelId"`
}

type RemoveLabelFromTaskCommand struct {
	taskCommand
	TaskID  TaskID  `json:"taskId"`
	LabelID LabelID `json:"labelId"`
}

type CreateBasicLabelCommand struct {
	labelCommand
	LabelID LabelID `json:"labelId"`
	Title   string  `json:"title"`
}

type UpdateLabelDetailsCommand struct {
	labelCommand
	LabelID  LabelID                `json:"labelId"`
	Previous Expected[LabelDetails] `json:"previous"`
	Details  LabelDetails           `json:"details"`
}

func (CreateBasicTaskCommand) CommandType() CommandType       { return CreateBasicTask }
func (CreateDraftCommand) CommandType() CommandType           { return CreateDraft }
func (FinalizeDraftCommand) CommandType() CommandType         { return FinalizeDraft }
func (UpdateTaskDescriptionCommand) CommandType() CommandType { return UpdateTaskDescription }
func (UpdateTaskDueDateCommand) CommandType() CommandType     { return UpdateTaskDueDate }
func (UpdateTaskPriorityCommand) CommandType() CommandType    { return UpdateTaskPriority }
func (CompleteTaskCommand) CommandType() CommandType          { return CompleteTask }
func (ReopenTaskCommand) CommandType() CommandType            { return ReopenTask }
func (DeleteTaskCommand) CommandType() CommandType            { return DeleteTask }
func (RestoreDeletedTaskCommand) CommandType() CommandType    { return RestoreDeletedTask }
func (AssignLabelToTaskCommand) CommandType() CommandType     { return AssignLabelToTask }
func (RemoveLabelFromTaskCommand) CommandType() CommandType   { return RemoveLabelFromTask }
func (CreateBasicLabelCommand) CommandType() CommandType      { return CreateBasicLabel }
func (UpdateLabelDetailsCommand) CommandType() CommandType    { return UpdateLabelDetails }

func (c CreateBasicTaskCommand) TargetID() string       { return string(c.TaskID) }
func (c CreateDraftCommand) TargetID() string           { return string(c.TaskID) }
func (c FinalizeDraftCommand) TargetID() string         { return string(c.TaskID) }
func (c UpdateTaskDescriptionCommand) TargetID() string { return string(c.TaskID) }
func (c UpdateTaskDueDateCommand) TargetID() string     { return string(c.TaskID) }
func (c UpdateTaskPriorityCommand) TargetID() string    { return string(c.TaskID) }
func (c CompleteTaskCommand) TargetID() string          { return string(c.TaskID) }
func (c ReopenTaskCommand) TargetID() string            { return string(c.TaskID) }
func (c DeleteTaskCommand) TargetID() string            { return string(c.TaskID) }
func (c RestoreDeletedTaskCommand) TargetID() string    { return string(c.TaskID) }
func (c AssignLabelToTaskCommand) TargetID() string     { return string(c.TaskID) }
func (c RemoveLabelFromTaskCommand) TargetID() string   { return string(c.TaskID) }
func (c CreateBasicLabelCommand) TargetID() string      { return string(c.LabelID) }
func (c UpdateLabelDetailsCommand) TargetID() string    { return string(c.LabelID) }
