package tasks

import (
	"unicode"

	"github.com/spine-examples/todo-list/domain"
)

const (
	rejectionCodeTaskNotFound         = "TASK_NOT_FOUND"
	rejectionCodeTaskAlreadyExists    = "TASK_ALREADY_EXISTS"
	rejectionCodeCannotCreateDraft    = "CANNOT_CREATE_DRAFT"
	rejectionCodeCannotFinalizeDraft  = "CANNOT_FINALIZE_DRAFT"
	rejectionCodeInappropriateDesc    = "CANNOT_UPDATE_TASK_WITH_INAPPROPRIATE_DESCRIPTION"
	rejectionCodeCannotUpdateDesc     = "CANNOT_UPDATE_TASK_DESCRIPTION"
	rejectionCodeCannotUpdateDueDate  = "CANNOT_UPDATE_TASK_DUE_DATE"
	rejectionCodeCannotUpdatePriority = "CANNOT_UPDATE_TASK_PRIORITY"
	rejectionCodeCannotCompleteTask   = "CANNOT_COMPLETE_TASK"
	rejectionCodeCannotReopenTask     = "CANNOT_REOPEN_TASK"
	rejectionCodeCannotDeleteTask     = "CANNOT_DELETE_TASK"
	rejectionCodeCannotRestoreTask    = "CANNOT_RESTORE_DELETED_TASK"
	rejectionCodeCannotAssignLabel    = "CANNOT_ASSIGN_LABEL_TO_TASK"
	rejectionCodeCannotRemoveLabel    = "CANNOT_REMOVE_LABEL_FROM_TASK"
	rejectionCodeUnsupportedCommand   = "UNSUPPORTED_COMMAND"
)

const (
	rejectionMessageTaskClosed         = "task %s is %s"
	rejectionMessageInvalidTransition  = "task %s cannot move from %s to %s"
	rejectionMessageInappropriateValue = "task %s cannot take %s %q"
)

const (
	minDescriptionAlphanumericRunes = 3

	defaultPriority = domain.PriorityNormal
	draftPriority   = domain.PriorityUndefined
)

// ValidDescription reports whether s has at least three letters or digits.
func ValidDescription(s string) bool {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
			if n >= minDescriptionAlphanumericRunes {
				return true
			}
		}
	}
	return false
}

// Decide returns the decision for a task command against current state. It
// always yields exactly one event or exactly one rejection.
//
// CreateBasicTask is accepted against any state; refusing to recreate an
// existing task belongs to the caller that loads the history. Every other
// command except CreateDraft requires a created task.
func Decide(state State, cmd domain.Command) domain.Decision {
	switch c := cmd.(type) {
	case domain.CreateBasicTaskCommand:
		return domain.Accept(domain.TaskCreatedEvent{
			TaskID:      c.TaskID,
			Description: c.Description,
			Priority:    defaultPriority,
		})

	case domain.CreateDraftCommand:
		if err := EnsureNeitherCompletedNorDeleted(state.Status); err != nil {
			return refuseClosed(c, rejectionCodeCannotCreateDraft, state)
		}
		if state.Created() {
			return domain.Refuse(domain.Reject(c, domain.AlreadyExists, rejectionCodeTaskAlreadyExists, "task %s already exists", c.TaskID))
		}
		return domain.Accept(domain.TaskDraftCreatedEvent{TaskID: c.TaskID})

	case domain.FinalizeDraftCommand:
		if r := requireCreated(state, c); r != nil {
			return domain.Refuse(r)
		}
		if err := EnsureNeitherCompletedNorDeleted(state.Status); err != nil {
			return refuseClosed(c, rejectionCodeCannotFinalizeDraft, state)
		}
		if state.Status != domain.TaskStatusDraft || !IsValidTransition(state.Status, domain.TaskStatusFinalized) {
			return refuseTransition(c, rejectionCodeCannotFinalizeDraft, state, domain.TaskStatusFinalized)
		}
		return domain.Accept(domain.TaskDraftFinalizedEvent{
			TaskID:   c.TaskID,
			Details:  state.Details,
			LabelIDs: copyLabels(state.LabelIDs),
		})

	case domain.UpdateTaskDescriptionCommand:
		if !ValidDescription(c.Description) {
			return domain.Refuse(domain.Reject(c, domain.InappropriateInput, rejectionCodeInappropriateDesc,
				"description %q must contain at least %d letters or digits", c.Description, minDescriptionAlphanumericRunes))
		}
		if r := requireCreated(state, c); r != nil {
			return domain.Refuse(r)
		}
		if err := EnsureNeitherCompletedNorDeleted(state.Status); err != nil {
			return refuseClosed(c, rejectionCodeCannotUpdateDesc, state)
		}
		actual := state.Details.Description
		if !c.Previous.Matches(actual) {
			expected, _ := c.Previous.Value()
			return domain.Refuse(domain.RejectMismatch(c, rejectionCodeCannotUpdateDesc, expected, actual, c.Description))
		}
		return domain.Accept(domain.TaskDescriptionUpdatedEvent{
			TaskID: c.TaskID,
			Change: domain.Change[string]{Previous: actual, New: c.Description},
		})

	case domain.UpdateTaskDueDateCommand:
		if r := requireCreated(state, c); r != nil {
			return domain.Refuse(r)
		}
		if err := EnsureNeitherCompletedNorDeleted(state.Status); err != nil {
			return refuseClosed(c, rejectionCodeCannotUpdateDueDate, state)
		}
		actual := state.Details.DueDate
		if !c.Previous.Matches(actual) {
			expected, _ := c.Previous.Value()
			return domain.Refuse(domain.RejectMismatch(c, rejectionCodeCannotUpdateDueDate, expected, actual, c.DueDate))
		}
		return domain.Accept(domain.TaskDueDateUpdatedEvent{
			TaskID: c.TaskID,
			Change: domain.Change[domain.DueDate]{Previous: actual, New: c.DueDate},
		})

	case domain.UpdateTaskPriorityCommand:
		if r := requireCreated(state, c); r != nil {
			return domain.Refuse(r)
		}
		if err := EnsureNeitherCompletedNorDeleted(state.Status); err != nil {
			return refuseClosed(c, rejectionCodeCannotUpdatePriority, state)
		}
		if !c.Priority.Valid() {
			return domain.Refuse(domain.Reject(c, domain.InappropriateInput, rejectionCodeCannotUpdatePriority,
				rejectionMessageInappropriateValue, c.TaskID, "priority", c.Priority))
		}
		actual := state.Details.Priority
		if !c.Previous.Matches(actual) {
			expected, _ := c.Previous.Value()
			return domain.Refuse(domain.RejectMismatch(c, rejectionCodeCannotUpdatePriority, expected, actual, c.Priority))
		}
		return domain.Accept(domain.TaskPriorityUpdatedEvent{
			TaskID: c.TaskID,
			Change: domain.Change[domain.TaskPriority]{Previous: actual, New: c.Priority},
		})

	case domain.CompleteTaskCommand:
		if r := requireTransition(state, c, rejectionCodeCannotCompleteTask, domain.TaskStatusFinalized, domain.TaskStatusCompleted); r != nil {
			return domain.Refuse(r)
		}
		return domain.Accept(domain.TaskCompletedEvent{TaskID: c.TaskID})

	case domain.ReopenTaskCommand:
		if r := requireTransition(state, c, rejectionCodeCannotReopenTask, domain.TaskStatusCompleted, domain.TaskStatusFinalized); r != nil {
			return domain.Refuse(r)
		}
		return domain.Accept(domain.TaskReopenedEvent{TaskID: c.TaskID})

	case domain.DeleteTaskCommand:
		if r := requireTransition(state, c, rejectionCodeCannotDeleteTask, domain.TaskStatusFinalized, domain.TaskStatusDeleted); r != nil {
			return domain.Refuse(r)
		}
		return domain.Accept(domain.TaskDeletedEvent{TaskID: c.TaskID})

	case domain.RestoreDeletedTaskCommand:
		if r := requireTransition(state, c, rejectionCodeCannotRestoreTask, domain.TaskStatusDeleted, domain.TaskStatusFinalized); r != nil {
			return domain.Refuse(r)
		}
		return domain.Accept(domain.DeletedTaskRestoredEvent{
			TaskID:   c.TaskID,
			Details:  state.Details,
			LabelIDs: copyLabels(state.LabelIDs),
		})

	case domain.AssignLabelToTaskCommand:
		if r := requireCreated(state, c); r != nil {
			return domain.Refuse(r)
		}
		if err := EnsureNeitherCompletedNorDeleted(state.Status); err != nil {
			return refuseClosed(c, rejectionCodeCannotAssignLabel, state)
		}
		if state.HasLabel(c.LabelID) {
			return domain.Refuse(domain.Reject(c, domain.InappropriateInput, rejectionCodeCannotAssignLabel,
				"label %s is already assigned to task %s", c.LabelID, c.TaskID))
		}
		return domain.Accept(domain.LabelAssignedToTaskEvent{
			TaskID:  c.TaskID,
			LabelID: c.LabelID,
			Details: state.Details,
		})

	case domain.RemoveLabelFromTaskCommand:
		if r := requireCreated(state, c); r != nil {
			return domain.Refuse(r)
		}
		if err := EnsureNeitherCompletedNorDeleted(state.Status); err != nil {
			return refuseClosed(c, rejectionCodeCannotRemoveLabel, state)
		}
		if !state.HasLabel(c.LabelID) {
			return domain.Refuse(domain.Reject(c, domain.InappropriateInput, rejectionCodeCannotRemoveLabel,
				"label %s is not assigned to task %s", c.LabelID, c.TaskID))
		}
		remaining := make([]domain.LabelID, 0, len(state.LabelIDs))
		for _, id := range state.LabelIDs {
			if id != c.LabelID {
				remaining = append(remaining, id)
			}
		}
		return domain.Accept(domain.LabelRemovedFromTaskEvent{TaskID: c.TaskID, LabelID: c.LabelID, LabelIDs: remaining})
	}

	return domain.Refuse(domain.Reject(cmd, domain.InappropriateInput, rejectionCodeUnsupportedCommand,
		"command %s is not handled by tasks", cmd.CommandType()))
}

func requireCreated(state State, cmd domain.Command) *domain.Rejection {
	if state.Created() {
		return nil
	}
	return domain.Reject(cmd, domain.NotFound, rejectionCodeTaskNotFound, "task %s not found", cmd.TargetID())
}

// requireTransition checks that the task is in from and that from -> to is an
// edge of the transition table.
func requireTransition(state State, cmd domain.Command, code string, from, to domain.TaskStatus) *domain.Rejection {
	if r := requireCreated(state, cmd); r != nil {
		return r
	}
	if state.Status != from || !IsValidTransition(state.Status, to) {
		return domain.Reject(cmd, domain.InvalidTransition, code, rejectionMessageInvalidTransition, cmd.TargetID(), state.Status, to)
	}
	return nil
}

func refuseClosed(cmd domain.Command, code string, state State) domain.Decision {
	return domain.Refuse(domain.Reject(cmd, domain.InvalidTransition, code, rejectionMessageTaskClosed, cmd.TargetID(), state.Status))
}

func refuseTransition(cmd domain.Command, code string, state State, to domain.TaskStatus) domain.Decision {
	return domain.Refuse(domain.Reject(cmd, domain.InvalidTransition, code, rejectionMessageInvalidTransition, cmd.TargetID(), state.Status, to))
}

func copyLabels(ids []domain.LabelID) []domain.LabelID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]domain.LabelID, len(ids))
	copy(out, ids)
	return out
}
