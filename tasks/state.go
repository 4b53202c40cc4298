package tasks

import (
	"slices"

	"github.com/spine-examples/todo-list/domain"
)

// State is the write-side state of one task, rebuilt by folding its events.
type State struct {
	ID       domain.TaskID
	Status   domain.TaskStatus
	Details  domain.TaskDetails
	LabelIDs []domain.LabelID
}

// Created reports whether any creation event has been applied.
func (s State) Created() bool { return s.Status != domain.TaskStatusUndefined }

// HasLabel reports whether id is assigned to the task.
func (s State) HasLabel(id domain.LabelID) bool {
	return slices.Contains(s.LabelIDs, id)
}
