package domain

// Decision is the result of handling one command: exactly one of Event and
// Rejection is set.
type Decision struct {
	Event     Event
	Rejection *Rejection
}

// Accept returns a decision carrying ev.
func Accept(ev Event) Decision { return Decision{Event: ev} }

// Refuse returns a decision carrying r.
func Refuse(r *Rejection) Decision { return Decision{Rejection: r} }

// Accepted reports whether the command produced an event.
func (d Decision) Accepted() bool { return d.Rejection == nil && d.Event != nil }
