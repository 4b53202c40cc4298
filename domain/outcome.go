package domain

// OutcomeStatus reports what happened to a command.
type OutcomeStatus string

const (
	OutcomePending  OutcomeStatus = "pending"
	OutcomeAccepted OutcomeStatus = "accepted"
	OutcomeRejected OutcomeStatus = "rejected"
)

// Outcome is the result recorded for a command under its idempotency key.
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	CommandType CommandType   `json:"commandType"`
	EventType   EventType     `json:"eventType,omitempty"`
	Version     int64         `json:"version,omitempty"`
	Rejection   *Rejection    `json:"rejection,omitempty"`
	Timestamp   int64         `json:"timestamp"`
}

// OutcomeOf summarizes d for the command of type ct.
func OutcomeOf(ct CommandType, d Decision, version, timestamp int64) Outcome {
	if d.Accepted() {
		return Outcome{
			Status:      OutcomeAccepted,
			CommandType: ct,
			EventType:   d.Event.EventType(),
			Version:     version,
			Timestamp:   timestamp,
		}
	}
	return Outcome{
		Status:      OutcomeRejected,
		CommandType: ct,
		Rejection:   d.Rejection,
		Timestamp:   timestamp,
	}
}
