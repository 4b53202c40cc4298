package tasks

import (
	"errors"
	"fmt"

	"github.com/spine-examples/todo-list/domain"
)

// transitions lists the allowed status edges. Self transitions are not edges.
var transitions = map[domain.TaskStatus][]domain.TaskStatus{
	domain.TaskStatusDraft:     {domain.TaskStatusFinalized},
	domain.TaskStatusFinalized: {domain.TaskStatusCompleted, domain.TaskStatusDeleted},
	domain.TaskStatusCompleted: {domain.TaskStatusFinalized},
	domain.TaskStatusDeleted:   {domain.TaskStatusFinalized},
}

// IsValidTransition reports whether a task may move from current to next.
func IsValidTransition(current, next domain.TaskStatus) bool {
	for _, to := range transitions[current] {
		if to == next {
			return true
		}
	}
	return false
}

// ErrTaskClosed is returned by EnsureNeitherCompletedNorDeleted.
var ErrTaskClosed = errors.New("task is completed or deleted")

// EnsureNeitherCompletedNorDeleted fails when status is COMPLETED or DELETED.
func EnsureNeitherCompletedNorDeleted(status domain.TaskStatus) error {
	switch status {
	case domain.TaskStatusCompleted, domain.TaskStatusDeleted:
		return fmt.Errorf("%w: status %s", ErrTaskClosed, status)
	}
	return nil
}
