package tasks

import (
	"testing"
	"time"

	"github.com/spine-examples/todo-list/domain"
)

const taskID domain.TaskID = "t1"

func stateIn(status domain.TaskStatus) State {
	events := []domain.Event{domain.TaskCreatedEvent{TaskID: taskID, Description: "Buy milk", Priority: domain.PriorityNormal}}
	switch status {
	case domain.TaskStatusDraft:
		events = []domain.Event{domain.TaskDraftCreatedEvent{TaskID: taskID}}
	case domain.TaskStatusCompleted:
		events = append(events, domain.TaskCompletedEvent{TaskID: taskID})
	case domain.TaskStatusDeleted:
		events = append(events, domain.TaskDeletedEvent{TaskID: taskID})
	}
	return Replay(events)
}

func requireEvent[T domain.Event](t *testing.T, d domain.Decision) T {
	t.Helper()
	if d.Rejection != nil {
		t.Fatalf("unexpected rejection: %v", d.Rejection)
	}
	ev, ok := d.Event.(T)
	if !ok {
		t.Fatalf("event = %T, want %T", d.Event, *new(T))
	}
	return ev
}

func requireRejection(t *testing.T, d domain.Decision, kind domain.RejectionKind) *domain.Rejection {
	t.Helper()
	if d.Event != nil {
		t.Fatalf("unexpected event %T", d.Event)
	}
	if d.Rejection == nil {
		t.Fatalf("decision has neither event nor rejection")
	}
	if d.Rejection.Kind != kind {
		t.Fatalf("rejection kind = %s, want %s (%s)", d.Rejection.Kind, kind, d.Rejection.Message)
	}
	if d.Rejection.EntityID != string(taskID) {
		t.Fatalf("rejection entity = %s, want %s", d.Rejection.EntityID, taskID)
	}
	return d.Rejection
}

func TestCreateBasicTask(t *testing.T) {
	d := Decide(State{}, domain.CreateBasicTaskCommand{TaskID: taskID, Description: "Buy milk"})
	ev := requireEvent[domain.TaskCreatedEvent](t, d)
	want := domain.TaskCreatedEvent{TaskID: taskID, Description: "Buy milk", Priority: domain.PriorityNormal}
	if ev != want {
		t.Fatalf("event = %+v, want %+v", ev, want)
	}
	st := Fold(State{}, ev)
	if st.Status != domain.TaskStatusFinalized || st.Details.Priority != domain.PriorityNormal {
		t.Fatalf("state = %+v, want FINALIZED/NORMAL", st)
	}
}

func TestLifecycleCommandsFollowTransitionTable(t *testing.T) {
	cases := []struct {
		cmd      domain.Command
		from, to domain.TaskStatus
	}{
		{domain.FinalizeDraftCommand{TaskID: taskID}, domain.TaskStatusDraft, domain.TaskStatusFinalized},
		{domain.CompleteTaskCommand{TaskID: taskID}, domain.TaskStatusFinalized, domain.TaskStatusCompleted},
		{domain.DeleteTaskCommand{TaskID: taskID}, domain.TaskStatusFinalized, domain.TaskStatusDeleted},
		{domain.ReopenTaskCommand{TaskID: taskID}, domain.TaskStatusCompleted, domain.TaskStatusFinalized},
		{domain.RestoreDeletedTaskCommand{TaskID: taskID}, domain.TaskStatusDeleted, domain.TaskStatusFinalized},
	}
	for _, tc := range cases {
		if !IsValidTransition(tc.from, tc.to) {
			t.Fatalf("%s: %s -> %s missing from the transition table", tc.cmd.CommandType(), tc.from, tc.to)
		}
		for _, status := range allStatuses {
			d := Decide(stateIn(status), tc.cmd)
			if status == tc.from {
				if !d.Accepted() {
					t.Fatalf("%s from %s: unexpected rejection %v", tc.cmd.CommandType(), status, d.Rejection)
				}
				if got := Fold(stateIn(status), d.Event).Status; got != tc.to {
					t.Fatalf("%s from %s: status = %s, want %s", tc.cmd.CommandType(), status, got, tc.to)
				}
				continue
			}
			requireRejection(t, d, domain.InvalidTransition)
		}
	}
}

func TestNonCreationCommandsRequireTask(t *testing.T) {
	cmds := []domain.Command{
		domain.FinalizeDraftCommand{TaskID: taskID},
		domain.UpdateTaskDescriptionCommand{TaskID: taskID, Description: "Buy bread"},
		domain.UpdateTaskDueDateCommand{TaskID: taskID},
		domain.UpdateTaskPriorityCommand{TaskID: taskID, Priority: domain.PriorityHigh},
		domain.CompleteTaskCommand{TaskID: taskID},
		domain.ReopenTaskCommand{TaskID: taskID},
		domain.DeleteTaskCommand{TaskID: taskID},
		domain.RestoreDeletedTaskCommand{TaskID: taskID},
		domain.AssignLabelToTaskCommand{TaskID: taskID, LabelID: "l1"},
		domain.RemoveLabelFromTaskCommand{TaskID: taskID, LabelID: "l1"},
	}
	for _, cmd := range cmds {
		requireRejection(t, Decide(State{}, cmd), domain.NotFound)
	}
}

func TestCreateDraft(t *testing.T) {
	d := Decide(State{}, domain.CreateDraftCommand{TaskID: taskID})
	ev := requireEvent[domain.TaskDraftCreatedEvent](t, d)
	st := Fold(State{}, ev)
	if st.Status != domain.TaskStatusDraft || st.Details.Priority != domain.PriorityUndefined {
		t.Fatalf("state = %+v, want DRAFT/UNDEFINED", st)
	}

	requireRejection(t, Decide(stateIn(domain.TaskStatusFinalized), domain.CreateDraftCommand{TaskID: taskID}), domain.AlreadyExists)
	requireRejection(t, Decide(stateIn(domain.TaskStatusCompleted), domain.CreateDraftCommand{TaskID: taskID}), domain.InvalidTransition)
	requireRejection(t, Decide(stateIn(domain.TaskStatusDeleted), domain.CreateDraftCommand{TaskID: taskID}), domain.InvalidTransition)
}

func TestFinalizeDraftCarriesSnapshot(t *testing.T) {
	st := stateIn(domain.TaskStatusDraft)
	st = Fold(st, domain.TaskDescriptionUpdatedEvent{TaskID: taskID, Change: domain.Change[string]{New: "Write report"}})
	st = Fold(st, domain.LabelAssignedToTaskEvent{TaskID: taskID, LabelID: "l1"})
	ev := requireEvent[domain.TaskDraftFinalizedEvent](t, Decide(st, domain.FinalizeDraftCommand{TaskID: taskID}))
	if ev.Details.Description != "Write report" {
		t.Fatalf("details = %+v, want description carried", ev.Details)
	}
	if len(ev.LabelIDs) != 1 || ev.LabelIDs[0] != "l1" {
		t.Fatalf("labels = %v, want [l1]", ev.LabelIDs)
	}
}

func TestUpdateDescription(t *testing.T) {
	st := stateIn(domain.TaskStatusFinalized)
	d := Decide(st, domain.UpdateTaskDescriptionCommand{
		TaskID:      taskID,
		Previous:    domain.Expect("Buy milk"),
		Description: "Buy bread",
	})
	ev := requireEvent[domain.TaskDescriptionUpdatedEvent](t, d)
	if ev.Change.Previous != "Buy milk" || ev.Change.New != "Buy bread" {
		t.Fatalf("change = %+v", ev.Change)
	}

	d = Decide(st, domain.UpdateTaskDescriptionCommand{TaskID: taskID, Previous: domain.NotChecked[string](), Description: "Buy eggs"})
	requireEvent[domain.TaskDescriptionUpdatedEvent](t, d)
}

func TestUpdateDescriptionRejectsInappropriateDescription(t *testing.T) {
	for _, desc := range []string{"", "ab", "a b", "!!!???", "a-1"} {
		for _, status := range allStatuses {
			d := Decide(stateIn(status), domain.UpdateTaskDescriptionCommand{TaskID: taskID, Description: desc})
			r := requireRejection(t, d, domain.InappropriateInput)
			if r.Code != rejectionCodeInappropriateDesc {
				t.Fatalf("%q on %s: code = %s, want %s", desc, status, r.Code, rejectionCodeInappropriateDesc)
			}
		}
	}
	if !ValidDescription("ab1") || !ValidDescription("Задача") {
		t.Fatalf("expected letters and digits of any script to count")
	}
}

func TestUpdatesMismatchReportsActualValue(t *testing.T) {
	st := stateIn(domain.TaskStatusFinalized)
	due := domain.DueOn(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	st = Fold(st, domain.TaskDueDateUpdatedEvent{TaskID: taskID, Change: domain.Change[domain.DueDate]{New: due}})

	cases := []struct {
		cmd                        domain.Command
		expected, actual, newValue any
	}{
		{
			domain.UpdateTaskDescriptionCommand{TaskID: taskID, Previous: domain.Expect("Buy tea"), Description: "Buy bread"},
			"Buy tea", "Buy milk", "Buy bread",
		},
		{
			domain.UpdateTaskPriorityCommand{TaskID: taskID, Previous: domain.Expect(domain.PriorityLow), Priority: domain.PriorityHigh},
			domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh,
		},
		{
			domain.UpdateTaskDueDateCommand{TaskID: taskID, Previous: domain.Expect(domain.DueDate{}), DueDate: domain.DueDate{}},
			domain.DueDate{}, due, domain.DueDate{},
		},
	}
	for _, tc := range cases {
		r := requireRejection(t, Decide(st, tc.cmd), domain.ConcurrencyMismatch)
		if r.Mismatch == nil {
			t.Fatalf("%s: rejection has no mismatch", tc.cmd.CommandType())
		}
		if r.Mismatch.Expected != tc.expected || r.Mismatch.Actual != tc.actual || r.Mismatch.NewValue != tc.newValue {
			t.Fatalf("%s: mismatch = %+v, want {%v %v %v}", tc.cmd.CommandType(), *r.Mismatch, tc.expected, tc.actual, tc.newValue)
		}
	}
}

func TestUpdatesRejectedOnClosedTask(t *testing.T) {
	cmds := []domain.Command{
		domain.UpdateTaskDescriptionCommand{TaskID: taskID, Description: "Buy bread"},
		domain.UpdateTaskDueDateCommand{TaskID: taskID},
		domain.UpdateTaskPriorityCommand{TaskID: taskID, Priority: domain.PriorityHigh},
		domain.AssignLabelToTaskCommand{TaskID: taskID, LabelID: "l1"},
		domain.RemoveLabelFromTaskCommand{TaskID: taskID, LabelID: "l1"},
	}
	for _, status := range []domain.TaskStatus{domain.TaskStatusCompleted, domain.TaskStatusDeleted} {
		for _, cmd := range cmds {
			requireRejection(t, Decide(stateIn(status), cmd), domain.InvalidTransition)
		}
	}
}

func TestUpdatePriorityRejectsUndefined(t *testing.T) {
	d := Decide(stateIn(domain.TaskStatusFinalized), domain.UpdateTaskPriorityCommand{TaskID: taskID, Priority: domain.PriorityUndefined})
	requireRejection(t, d, domain.InappropriateInput)
}

func TestUpdateDueDateOnDraft(t *testing.T) {
	due := domain.DueOn(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	d := Decide(stateIn(domain.TaskStatusDraft), domain.UpdateTaskDueDateCommand{TaskID: taskID, DueDate: due})
	ev := requireEvent[domain.TaskDueDateUpdatedEvent](t, d)
	if ev.Change.Previous.IsSet() || ev.Change.New != due {
		t.Fatalf("change = %+v", ev.Change)
	}
}

func TestDeleteThenAssignLabelIsRejected(t *testing.T) {
	st := stateIn(domain.TaskStatusFinalized)
	ev := requireEvent[domain.TaskDeletedEvent](t, Decide(st, domain.DeleteTaskCommand{TaskID: taskID}))
	if ev.TaskID != taskID {
		t.Fatalf("deleted task = %s, want %s", ev.TaskID, taskID)
	}
	st = Fold(st, ev)
	if st.Status != domain.TaskStatusDeleted {
		t.Fatalf("status = %s, want DELETED", st.Status)
	}
	requireRejection(t, Decide(st, domain.AssignLabelToTaskCommand{TaskID: taskID, LabelID: "l1"}), domain.InvalidTransition)
}

func TestLabelAssignment(t *testing.T) {
	st := stateIn(domain.TaskStatusFinalized)
	ev := requireEvent[domain.LabelAssignedToTaskEvent](t, Decide(st, domain.AssignLabelToTaskCommand{TaskID: taskID, LabelID: "l1"}))
	if ev.Details.Description != "Buy milk" {
		t.Fatalf("assigned event must carry task details, got %+v", ev.Details)
	}
	st = Fold(st, ev)
	requireRejection(t, Decide(st, domain.AssignLabelToTaskCommand{TaskID: taskID, LabelID: "l1"}), domain.InappropriateInput)
	requireRejection(t, Decide(st, domain.RemoveLabelFromTaskCommand{TaskID: taskID, LabelID: "l2"}), domain.InappropriateInput)

	removed := requireEvent[domain.LabelRemovedFromTaskEvent](t, Decide(st, domain.RemoveLabelFromTaskCommand{TaskID: taskID, LabelID: "l1"}))
	if st2 := Fold(st, removed); st2.HasLabel("l1") {
		t.Fatalf("label still assigned after removal")
	}
	if !st.HasLabel("l1") {
		t.Fatalf("fold must not mutate the previous state's labels")
	}
	if len(removed.LabelIDs) != 0 {
		t.Fatalf("no labels remain, got %v", removed.LabelIDs)
	}
}

func TestLabelRemovalCarriesRemainingLabels(t *testing.T) {
	st := stateIn(domain.TaskStatusFinalized)
	for _, id := range []domain.LabelID{"l1", "l2", "l3"} {
		st = Fold(st, domain.LabelAssignedToTaskEvent{TaskID: taskID, LabelID: id})
	}
	removed := requireEvent[domain.LabelRemovedFromTaskEvent](t, Decide(st, domain.RemoveLabelFromTaskCommand{TaskID: taskID, LabelID: "l2"}))
	if len(removed.LabelIDs) != 2 || removed.LabelIDs[0] != "l1" || removed.LabelIDs[1] != "l3" {
		t.Fatalf("remaining = %v, want [l1 l3]", removed.LabelIDs)
	}
	if len(st.LabelIDs) != 3 {
		t.Fatalf("decide must not mutate state labels: %v", st.LabelIDs)
	}
}

func TestRestoreCarriesSnapshot(t *testing.T) {
	st := stateIn(domain.TaskStatusFinalized)
	st = Fold(st, domain.LabelAssignedToTaskEvent{TaskID: taskID, LabelID: "l1"})
	st = Fold(st, domain.TaskDeletedEvent{TaskID: taskID})
	ev := requireEvent[domain.DeletedTaskRestoredEvent](t, Decide(st, domain.RestoreDeletedTaskCommand{TaskID: taskID}))
	if ev.Details != st.Details || len(ev.LabelIDs) != 1 {
		t.Fatalf("restored = %+v, want snapshot of %+v", ev, st)
	}
}

func TestUnsupportedCommand(t *testing.T) {
	d := Decide(stateIn(domain.TaskStatusFinalized), domain.CreateBasicLabelCommand{LabelID: "l1", Title: "Work"})
	if d.Accepted() || d.Rejection == nil || d.Rejection.Code != rejectionCodeUnsupportedCommand {
		t.Fatalf("decision = %+v, want unsupported rejection", d)
	}
}

func TestDecideIsRepeatable(t *testing.T) {
	st := stateIn(domain.TaskStatusCompleted)
	cmd := domain.CompleteTaskCommand{TaskID: taskID}
	a := Decide(st, cmd)
	b := Decide(st, cmd)
	if *a.Rejection != *b.Rejection {
		t.Fatalf("same input produced different rejections: %v vs %v", a.Rejection, b.Rejection)
	}
}
