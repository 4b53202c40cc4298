package labels

import (
	"testing"

	"github.com/spine-examples/todo-list/domain"
)

const labelID domain.LabelID = "l1"

func work() State {
	return Replay([]domain.Event{domain.LabelCreatedEvent{
		LabelID: labelID,
		Details: domain.LabelDetails{Title: "Work", Color: domain.ColorGray},
	}})
}

func TestCreateBasicLabelIsGray(t *testing.T) {
	d := Decide(State{}, domain.CreateBasicLabelCommand{LabelID: labelID, Title: "Work"})
	ev, ok := d.Event.(domain.LabelCreatedEvent)
	if !ok || d.Rejection != nil {
		t.Fatalf("decision = %+v, want LabelCreatedEvent", d)
	}
	if ev.Details.Color != domain.ColorGray || ev.Details.Title != "Work" {
		t.Fatalf("details = %+v, want Work/GRAY", ev.Details)
	}
	if st := Fold(State{}, ev); !st.Created || st.ID != labelID {
		t.Fatalf("state = %+v", st)
	}
}

func TestUpdateLabelDetailsColorMismatch(t *testing.T) {
	expected := domain.LabelDetails{Title: "Work", Color: domain.ColorBlue}
	next := domain.LabelDetails{Title: "Office", Color: domain.ColorRed}
	d := Decide(work(), domain.UpdateLabelDetailsCommand{LabelID: labelID, Previous: domain.Expect(expected), Details: next})
	if d.Event != nil || d.Rejection == nil {
		t.Fatalf("decision = %+v, want rejection", d)
	}
	if d.Rejection.Kind != domain.ConcurrencyMismatch {
		t.Fatalf("kind = %s, want %s", d.Rejection.Kind, domain.ConcurrencyMismatch)
	}
	m := d.Rejection.Mismatch
	if m == nil {
		t.Fatalf("missing mismatch")
	}
	actual := domain.LabelDetails{Title: "Work", Color: domain.ColorGray}
	if m.Expected != expected || m.Actual != actual || m.NewValue != next {
		t.Fatalf("mismatch = %+v", *m)
	}
}

func TestUpdateLabelDetails(t *testing.T) {
	st := work()
	next := domain.LabelDetails{Title: "Office", Color: domain.ColorRed}
	for _, prev := range []domain.Expected[domain.LabelDetails]{
		domain.Expect(st.Details),
		domain.NotChecked[domain.LabelDetails](),
	} {
		d := Decide(st, domain.UpdateLabelDetailsCommand{LabelID: labelID, Previous: prev, Details: next})
		ev, ok := d.Event.(domain.LabelDetailsUpdatedEvent)
		if !ok {
			t.Fatalf("decision = %+v, want LabelDetailsUpdatedEvent", d)
		}
		if ev.Change.Previous != st.Details || ev.Change.New != next {
			t.Fatalf("change = %+v", ev.Change)
		}
		if got := Fold(st, ev); got.Details != next {
			t.Fatalf("details = %+v, want %+v", got.Details, next)
		}
	}
}

func TestUpdateLabelDetailsRejections(t *testing.T) {
	cases := []struct {
		name  string
		state State
		cmd   domain.UpdateLabelDetailsCommand
		kind  domain.RejectionKind
	}{
		{"missing label", State{}, domain.UpdateLabelDetailsCommand{LabelID: labelID, Details: domain.LabelDetails{Title: "A", Color: domain.ColorRed}}, domain.NotFound},
		{"empty title", work(), domain.UpdateLabelDetailsCommand{LabelID: labelID, Details: domain.LabelDetails{Title: " ", Color: domain.ColorRed}}, domain.InappropriateInput},
		{"undefined color", work(), domain.UpdateLabelDetailsCommand{LabelID: labelID, Details: domain.LabelDetails{Title: "A", Color: domain.ColorUndefined}}, domain.InappropriateInput},
	}
	for _, tc := range cases {
		d := Decide(tc.state, tc.cmd)
		if d.Rejection == nil || d.Rejection.Kind != tc.kind {
			t.Fatalf("%s: decision = %+v, want %s", tc.name, d, tc.kind)
		}
		if d.Rejection.EntityID != string(labelID) {
			t.Fatalf("%s: entity = %s", tc.name, d.Rejection.EntityID)
		}
	}
}
