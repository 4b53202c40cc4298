package views

import "github.com/spine-examples/todo-list/domain"

// DraftListView lists the tasks still in DRAFT.
type DraftListView struct {
	Tasks []TaskView `json:"tasks"`
}

func (v DraftListView) Fold(ev domain.Event) Folder { return v.Apply(ev) }

// Apply returns the view after ev.
func (v DraftListView) Apply(ev domain.Event) DraftListView {
	switch e := ev.(type) {
	case domain.TaskDraftCreatedEvent:
		if Contains(v.Tasks, e.TaskID) {
			return v
		}
		return DraftListView{Tasks: Insert(v.Tasks, NewRow(e.TaskID, domain.TaskDetails{Priority: domain.PriorityUndefined}))}
	case domain.TaskDraftFinalizedEvent:
		return DraftListView{Tasks: RemoveByTaskID(v.Tasks, e.TaskID)}
	case domain.TaskDeletedEvent:
		return DraftListView{Tasks: RemoveByTaskID(v.Tasks, e.TaskID)}
	case domain.LabelAssignedToTaskEvent:
		return DraftListView{Tasks: UpdateField(v.Tasks, e.TaskID, SetLabelID(e.LabelID))}
	case domain.LabelRemovedFromTaskEvent:
		return DraftListView{Tasks: UpdateField(v.Tasks, e.TaskID, ClearLabelID(e.LabelID, e.LabelIDs))}
	}
	if id, upd, ok := taskFieldUpdate(ev); ok {
		return DraftListView{Tasks: UpdateField(v.Tasks, id, upd)}
	}
	return v
}
