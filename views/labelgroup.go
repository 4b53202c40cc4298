package views

import (
	"slices"

	"github.com/spine-examples/todo-list/domain"
)

// LabelGroupView lists the tasks carrying one label. Each row repeats the
// label title and color.
type LabelGroupView struct {
	LabelID domain.LabelID    `json:"labelId"`
	Title   string            `json:"title"`
	Color   domain.LabelColor `json:"color"`
	Tasks   []TaskView        `json:"tasks"`
}

// NewLabelGroupView returns the empty group for label id.
func NewLabelGroupView(id domain.LabelID) LabelGroupView {
	return LabelGroupView{LabelID: id}
}

func (v LabelGroupView) Fold(ev domain.Event) Folder { return v.Apply(ev) }

// Apply returns the view after ev. Label events for other labels are ignored.
func (v LabelGroupView) Apply(ev domain.Event) LabelGroupView {
	switch e := ev.(type) {
	case domain.LabelCreatedEvent:
		if e.LabelID != v.LabelID {
			return v
		}
		return v.withDetails(e.Details)
	case domain.LabelDetailsUpdatedEvent:
		if e.LabelID != v.LabelID {
			return v
		}
		return v.withDetails(e.Change.New)
	case domain.LabelAssignedToTaskEvent:
		if e.LabelID != v.LabelID {
			return v
		}
		return v.insert(e.TaskID, e.Details)
	case domain.LabelRemovedFromTaskEvent:
		if e.LabelID != v.LabelID {
			return v
		}
		return v.withTasks(RemoveByTaskID(v.Tasks, e.TaskID))
	case domain.TaskDraftFinalizedEvent:
		if !slices.Contains(e.LabelIDs, v.LabelID) {
			return v
		}
		return v.insert(e.TaskID, e.Details)
	case domain.DeletedTaskRestoredEvent:
		if !slices.Contains(e.LabelIDs, v.LabelID) {
			return v
		}
		return v.insert(e.TaskID, e.Details)
	case domain.TaskDeletedEvent:
		return v.withTasks(RemoveByTaskID(v.Tasks, e.TaskID))
	}
	if id, upd, ok := taskFieldUpdate(ev); ok {
		return v.withTasks(UpdateField(v.Tasks, id, upd))
	}
	return v
}

func (v LabelGroupView) details() domain.LabelDetails {
	return domain.LabelDetails{Title: v.Title, Color: v.Color}
}

func (v LabelGroupView) withDetails(d domain.LabelDetails) LabelGroupView {
	out := v
	out.Title = d.Title
	out.Color = d.Color
	out.Tasks = UpdateAll(v.Tasks, SetLabelDetails(d))
	return out
}

func (v LabelGroupView) withTasks(rows []TaskView) LabelGroupView {
	out := v
	out.Tasks = rows
	return out
}

func (v LabelGroupView) insert(id domain.TaskID, d domain.TaskDetails) LabelGroupView {
	if Contains(v.Tasks, id) {
		return v
	}
	row := SetLabelDetails(v.details())(NewRow(id, d))
	row.LabelID = v.LabelID
	return v.withTasks(Insert(v.Tasks, row))
}
