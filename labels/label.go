// Package labels holds the write-side rules of the label aggregate.
package labels

import (
	"strings"

	"github.com/spine-examples/todo-list/domain"
)

const (
	rejectionCodeLabelNotFound      = "LABEL_NOT_FOUND"
	rejectionCodeCannotUpdateLabel  = "CANNOT_UPDATE_LABEL_DETAILS"
	rejectionCodeUnsupportedCommand = "UNSUPPORTED_COMMAND"
)

// State is the current state of one label.
type State struct {
	ID      domain.LabelID
	Details domain.LabelDetails
	Created bool
}

// Decide returns the decision for a label command against current state.
//
// UpdateLabelDetails compares the caller's asserted previous details with the
// real ones; NotChecked skips the comparison.
func Decide(state State, cmd domain.Command) domain.Decision {
	switch c := cmd.(type) {
	case domain.CreateBasicLabelCommand:
		return domain.Accept(domain.LabelCreatedEvent{
			LabelID: c.LabelID,
			Details: domain.LabelDetails{Title: c.Title, Color: domain.DefaultLabelColor},
		})

	case domain.UpdateLabelDetailsCommand:
		if !state.Created {
			return domain.Refuse(domain.Reject(c, domain.NotFound, rejectionCodeLabelNotFound, "label %s not found", c.LabelID))
		}
		if strings.TrimSpace(c.Details.Title) == "" {
			return domain.Refuse(domain.Reject(c, domain.InappropriateInput, rejectionCodeCannotUpdateLabel, "label %s title is empty", c.LabelID))
		}
		if !c.Details.Color.Valid() {
			return domain.Refuse(domain.Reject(c, domain.InappropriateInput, rejectionCodeCannotUpdateLabel, "label %s cannot take color %q", c.LabelID, c.Details.Color))
		}
		actual := state.Details
		if !c.Previous.Matches(actual) {
			expected, _ := c.Previous.Value()
			return domain.Refuse(domain.RejectMismatch(c, rejectionCodeCannotUpdateLabel, expected, actual, c.Details))
		}
		return domain.Accept(domain.LabelDetailsUpdatedEvent{
			LabelID: c.LabelID,
			Change:  domain.Change[domain.LabelDetails]{Previous: actual, New: c.Details},
		})
	}
	return domain.Refuse(domain.Reject(cmd, domain.InappropriateInput, rejectionCodeUnsupportedCommand,
		"command %s is not handled by labels", cmd.CommandType()))
}

// Fold applies one event to state.
func Fold(state State, ev domain.Event) State {
	switch e := ev.(type) {
	case domain.LabelCreatedEvent:
		state.ID = e.LabelID
		state.Details = e.Details
		state.Created = true
	case domain.LabelDetailsUpdatedEvent:
		state.Details = e.Change.New
	}
	return state
}

// Replay folds events in order from the empty state.
func Replay(events []domain.Event) State {
	var state State
	for _, ev := range events {
		state = Fold(state, ev)
	}
	return state
}
