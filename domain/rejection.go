package domain

import "fmt"

// RejectionKind classifies why a command was refused.
type RejectionKind string

const (
	InvalidTransition   RejectionKind = "invalid-transition"
	InappropriateInput  RejectionKind = "inappropriate-input"
	ConcurrencyMismatch RejectionKind = "concurrency-mismatch"
	NotFound            RejectionKind = "not-found"
	AlreadyExists       RejectionKind = "already-exists"
)

// ValueMismatch reports a failed optimistic concurrency check.
type ValueMismatch struct {
	// Expected is the value the caller asserted.
	Expected any `json:"expected"`
	// Actual is the value the aggregate really holds.
	Actual any `json:"actual"`
	// NewValue is the value the caller tried to set.
	NewValue any `json:"newValue"`
}

// Rejection is a typed refusal returned in place of an event. It is complete
// on its own and can be sent back to the command's author as is.
type Rejection struct {
	Kind       RejectionKind  `json:"kind"`
	Code       string         `json:"code"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Message    string         `json:"message"`
	Mismatch   *ValueMismatch `json:"mismatch,omitempty"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s %s rejected (%s): %s", r.EntityType, r.EntityID, r.Code, r.Message)
}

// Reject builds a rejection of kind for the aggregate addressed by cmd.
func Reject(cmd Command, kind RejectionKind, code, format string, args ...any) *Rejection {
	return &Rejection{
		Kind:       kind,
		Code:       code,
		EntityType: cmd.EntityType(),
		EntityID:   cmd.TargetID(),
		Message:    fmt.Sprintf(format, args...),
	}
}

// RejectMismatch builds a concurrency-mismatch rejection.
func RejectMismatch(cmd Command, code string, expected, actual, newValue any) *Rejection {
	r := Reject(cmd, ConcurrencyMismatch, code, "expected %v but found %v", expected, actual)
	r.Mismatch = &ValueMismatch{Expected: expected, Actual: actual, NewValue: newValue}
	return r
}
