package views

import (
	"slices"

	"github.com/spine-examples/todo-list/domain"
)

// Targets returns the views ev must be folded into. groups lists the label
// groups known to the caller; task events reach all of them, label events
// only the group of their label.
func Targets(ev domain.Event, groups []domain.LabelID) []Key {
	switch e := ev.(type) {
	case domain.LabelCreatedEvent:
		return []Key{LabelGroupKey(e.LabelID)}
	case domain.LabelDetailsUpdatedEvent:
		return []Key{LabelGroupKey(e.LabelID)}
	}
	keys := []Key{PersonalKey, DraftsKey}
	for _, id := range groups {
		keys = append(keys, LabelGroupKey(id))
	}
	if e, ok := ev.(domain.LabelAssignedToTaskEvent); ok && !slices.Contains(groups, e.LabelID) {
		keys = append(keys, LabelGroupKey(e.LabelID))
	}
	return keys
}

// Set holds one instance of every view.
type Set struct {
	Personal PersonalListView
	Drafts   DraftListView
	Groups   map[domain.LabelID]LabelGroupView
	// order keeps label groups in first-seen order.
	order []domain.LabelID
}

// Labels returns the ids of the label groups in first-seen order.
func (s Set) Labels() []domain.LabelID { return slices.Clone(s.order) }

// Apply folds ev into every view it targets and returns the new set.
func (s Set) Apply(ev domain.Event) Set {
	out := Set{
		Personal: s.Personal,
		Drafts:   s.Drafts,
		Groups:   make(map[domain.LabelID]LabelGroupView, len(s.Groups)+1),
		order:    slices.Clone(s.order),
	}
	for id, g := range s.Groups {
		out.Groups[id] = g
	}
	for _, key := range Targets(ev, s.order) {
		switch key.Kind {
		case KindPersonal:
			out.Personal = out.Personal.Apply(ev)
		case KindDrafts:
			out.Drafts = out.Drafts.Apply(ev)
		case KindLabelGroup:
			id := domain.LabelID(key.ID)
			g, ok := out.Groups[id]
			if !ok {
				g = NewLabelGroupView(id)
				out.order = append(out.order, id)
			}
			out.Groups[id] = g.Apply(ev)
		}
	}
	return out
}

// Replay rebuilds every view from an ordered event history.
func Replay(events []domain.Event) Set {
	var s Set
	for _, ev := range events {
		s = s.Apply(ev)
	}
	return s
}
