package domain

import "errors"

// ErrConcurrencyConflict indicates that the underlying storage rejected a
// write because a newer version of the entity or view is already persisted.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// ErrUnknownType is returned when a message carries a type tag that has no
// registered Go type.
var ErrUnknownType = errors.New("unknown message type")
