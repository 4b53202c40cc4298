package views

import "github.com/spine-examples/todo-list/domain"

// TaskView is one denormalized row of a task list view.
type TaskView struct {
	TaskID      domain.TaskID       `json:"taskId"`
	Description string              `json:"description"`
	Priority    domain.TaskPriority `json:"priority"`
	DueDate     domain.DueDate      `json:"dueDate"`
	Completed   bool                `json:"completed"`
	LabelID     domain.LabelID      `json:"labelId,omitempty"`
	LabelTitle  string              `json:"labelTitle,omitempty"`
	LabelColor  domain.LabelColor   `json:"labelColor,omitempty"`
}

// NewRow builds a row for task id from its details.
func NewRow(id domain.TaskID, d domain.TaskDetails) TaskView {
	return TaskView{
		TaskID:      id,
		Description: d.Description,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
	}
}

// Insert returns a new list with row appended. rows is not modified.
func Insert(rows []TaskView, row TaskView) []TaskView {
	out := make([]TaskView, len(rows), len(rows)+1)
	copy(out, rows)
	return append(out, row)
}

// Contains reports whether any row belongs to task id.
func Contains(rows []TaskView, id domain.TaskID) bool {
	for _, r := range rows {
		if r.TaskID == id {
			return true
		}
	}
	return false
}

// RemoveByTaskID drops every row of task id. When nothing matches rows is
// returned unchanged.
func RemoveByTaskID(rows []TaskView, id domain.TaskID) []TaskView {
	return removeWhere(rows, func(r TaskView) bool { return r.TaskID == id })
}

// RemoveByLabelID drops every row carrying label id.
func RemoveByLabelID(rows []TaskView, id domain.LabelID) []TaskView {
	return removeWhere(rows, func(r TaskView) bool { return r.LabelID == id })
}

func removeWhere(rows []TaskView, match func(TaskView) bool) []TaskView {
	n := 0
	for _, r := range rows {
		if match(r) {
			n++
		}
	}
	if n == 0 {
		return rows
	}
	out := make([]TaskView, 0, len(rows)-n)
	for _, r := range rows {
		if !match(r) {
			out = append(out, r)
		}
	}
	return out
}

// FieldUpdate rewrites one field of a row.
type FieldUpdate func(TaskView) TaskView

func SetDescription(s string) FieldUpdate {
	return func(r TaskView) TaskView { r.Description = s; return r }
}

func SetPriority(p domain.TaskPriority) FieldUpdate {
	return func(r TaskView) TaskView { r.Priority = p; return r }
}

func SetDueDate(d domain.DueDate) FieldUpdate {
	return func(r TaskView) TaskView { r.DueDate = d; return r }
}

func SetCompleted(done bool) FieldUpdate {
	return func(r TaskView) TaskView { r.Completed = done; return r }
}

func SetLabelID(id domain.LabelID) FieldUpdate {
	return func(r TaskView) TaskView { r.LabelID = id; return r }
}

// ClearLabelID replaces the label on rows that carry id with the most recently
// assigned of remaining, or unsets it when none remain.
func ClearLabelID(id domain.LabelID, remaining []domain.LabelID) FieldUpdate {
	return func(r TaskView) TaskView {
		if r.LabelID != id {
			return r
		}
		r.LabelID = ""
		if n := len(remaining); n > 0 {
			r.LabelID = remaining[n-1]
		}
		return r
	}
}

// SetLabelDetails rewrites the denormalized label title and color.
func SetLabelDetails(d domain.LabelDetails) FieldUpdate {
	return func(r TaskView) TaskView {
		r.LabelTitle = d.Title
		r.LabelColor = d.Color
		return r
	}
}

// UpdateField applies upd to every row of task id in one pass. Row order is
// kept and untouched rows are copied as is. When no row matches rows is
// returned unchanged.
func UpdateField(rows []TaskView, id domain.TaskID, upd FieldUpdate) []TaskView {
	if !Contains(rows, id) {
		return rows
	}
	return updateWhere(rows, func(r TaskView) bool { return r.TaskID == id }, upd)
}

// UpdateAll applies upd to every row.
func UpdateAll(rows []TaskView, upd FieldUpdate) []TaskView {
	if len(rows) == 0 {
		return rows
	}
	return updateWhere(rows, func(TaskView) bool { return true }, upd)
}

func updateWhere(rows []TaskView, match func(TaskView) bool, upd FieldUpdate) []TaskView {
	out := make([]TaskView, len(rows))
	for i, r := range rows {
		if match(r) {
			r = upd(r)
		}
		out[i] = r
	}
	return out
}
