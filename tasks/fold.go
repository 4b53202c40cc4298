package tasks

import (
	"slices"

	"github.com/spine-examples/todo-list/domain"
)

// Fold applies one event to state and returns the new state. It never fails;
// events of other aggregates are ignored.
func Fold(state State, ev domain.Event) State {
	switch e := ev.(type) {
	case domain.TaskCreatedEvent:
		state.ID = e.TaskID
		state.Status = domain.TaskStatusFinalized
		state.Details = domain.TaskDetails{Description: e.Description, Priority: e.Priority}
	case domain.TaskDraftCreatedEvent:
		state.ID = e.TaskID
		state.Status = domain.TaskStatusDraft
		state.Details = domain.TaskDetails{Priority: draftPriority}
	case domain.TaskDraftFinalizedEvent:
		state.Status = domain.TaskStatusFinalized
	case domain.TaskDescriptionUpdatedEvent:
		state.Details.Description = e.Change.New
	case domain.TaskDueDateUpdatedEvent:
		state.Details.DueDate = e.Change.New
	case domain.TaskPriorityUpdatedEvent:
		state.Details.Priority = e.Change.New
	case domain.TaskCompletedEvent:
		state.Status = domain.TaskStatusCompleted
	case domain.TaskReopenedEvent:
		state.Status = domain.TaskStatusFinalized
	case domain.TaskDeletedEvent:
		state.Status = domain.TaskStatusDeleted
	case domain.DeletedTaskRestoredEvent:
		state.Status = domain.TaskStatusFinalized
	case domain.LabelAssignedToTaskEvent:
		if !state.HasLabel(e.LabelID) {
			labels := make([]domain.LabelID, len(state.LabelIDs), len(state.LabelIDs)+1)
			copy(labels, state.LabelIDs)
			state.LabelIDs = append(labels, e.LabelID)
		}
	case domain.LabelRemovedFromTaskEvent:
		if i := slices.Index(state.LabelIDs, e.LabelID); i >= 0 {
			state.LabelIDs = slices.Delete(slices.Clone(state.LabelIDs), i, i+1)
		}
	}
	return state
}

// Replay folds events in order from the empty state.
func Replay(events []domain.Event) State {
	var state State
	for _, ev := range events {
		state = Fold(state, ev)
	}
	return state
}
