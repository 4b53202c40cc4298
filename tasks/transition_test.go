package tasks

import (
	"errors"
	"testing"

	"github.com/spine-examples/todo-list/domain"
)

var allStatuses = []domain.TaskStatus{
	domain.TaskStatusDraft,
	domain.TaskStatusFinalized,
	domain.TaskStatusCompleted,
	domain.TaskStatusDeleted,
}

func TestIsValidTransition(t *testing.T) {
	edges := map[[2]domain.TaskStatus]bool{
		{domain.TaskStatusDraft, domain.TaskStatusFinalized}:     true,
		{domain.TaskStatusFinalized, domain.TaskStatusCompleted}: true,
		{domain.TaskStatusFinalized, domain.TaskStatusDeleted}:   true,
		{domain.TaskStatusCompleted, domain.TaskStatusFinalized}: true,
		{domain.TaskStatusDeleted, domain.TaskStatusFinalized}:   true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := edges[[2]domain.TaskStatus{from, to}]
			if got := IsValidTransition(from, to); got != want {
				t.Fatalf("IsValidTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
	if IsValidTransition(domain.TaskStatusUndefined, domain.TaskStatusFinalized) {
		t.Fatalf("undefined status must have no edges")
	}
}

func TestEnsureNeitherCompletedNorDeleted(t *testing.T) {
	for _, s := range allStatuses {
		err := EnsureNeitherCompletedNorDeleted(s)
		closed := s == domain.TaskStatusCompleted || s == domain.TaskStatusDeleted
		if closed && !errors.Is(err, ErrTaskClosed) {
			t.Fatalf("status %s: err = %v, want ErrTaskClosed", s, err)
		}
		if !closed && err != nil {
			t.Fatalf("status %s: unexpected error %v", s, err)
		}
	}
}
