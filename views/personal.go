package views

import "github.com/spine-examples/todo-list/domain"

// PersonalListView lists every task that is neither a draft nor deleted.
type PersonalListView struct {
	Tasks []TaskView `json:"tasks"`
}

func (v PersonalListView) Fold(ev domain.Event) Folder { return v.Apply(ev) }

// Apply returns the view after ev.
func (v PersonalListView) Apply(ev domain.Event) PersonalListView {
	switch e := ev.(type) {
	case domain.TaskCreatedEvent:
		return v.insert(e.TaskID, domain.TaskDetails{Description: e.Description, Priority: e.Priority}, nil)
	case domain.TaskDraftFinalizedEvent:
		return v.insert(e.TaskID, e.Details, e.LabelIDs)
	case domain.DeletedTaskRestoredEvent:
		return v.insert(e.TaskID, e.Details, e.LabelIDs)
	case domain.TaskDeletedEvent:
		return PersonalListView{Tasks: RemoveByTaskID(v.Tasks, e.TaskID)}
	case domain.LabelAssignedToTaskEvent:
		return v.update(e.TaskID, SetLabelID(e.LabelID))
	case domain.LabelRemovedFromTaskEvent:
		return v.update(e.TaskID, ClearLabelID(e.LabelID, e.LabelIDs))
	}
	if id, upd, ok := taskFieldUpdate(ev); ok {
		return v.update(id, upd)
	}
	return v
}

func (v PersonalListView) insert(id domain.TaskID, d domain.TaskDetails, labels []domain.LabelID) PersonalListView {
	if Contains(v.Tasks, id) {
		return v
	}
	row := NewRow(id, d)
	if n := len(labels); n > 0 {
		row.LabelID = labels[n-1]
	}
	return PersonalListView{Tasks: Insert(v.Tasks, row)}
}

func (v PersonalListView) update(id domain.TaskID, upd FieldUpdate) PersonalListView {
	return PersonalListView{Tasks: UpdateField(v.Tasks, id, upd)}
}

// taskFieldUpdate maps the events that change a single task field to the
// matching row update.
func taskFieldUpdate(ev domain.Event) (domain.TaskID, FieldUpdate, bool) {
	switch e := ev.(type) {
	case domain.TaskDescriptionUpdatedEvent:
		return e.TaskID, SetDescription(e.Change.New), true
	case domain.TaskPriorityUpdatedEvent:
		return e.TaskID, SetPriority(e.Change.New), true
	case domain.TaskDueDateUpdatedEvent:
		return e.TaskID, SetDueDate(e.Change.New), true
	case domain.TaskCompletedEvent:
		return e.TaskID, SetCompleted(true), true
	case domain.TaskReopenedEvent:
		return e.TaskID, SetCompleted(false), true
	}
	return "", nil, false
}
