package domain

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Expected is the caller's belief about the current value of a field.
//
// It is either NotChecked, which skips the optimistic concurrency check, or
// Expect(v), which requires the current value to equal v. NotChecked encodes
// as JSON null and Expect(v) as {"value": v}, so an expected zero value that
// itself encodes as null stays distinguishable from no check.
type Expected[T comparable] struct {
	value   T
	checked bool
}

// NotChecked returns an expectation that accepts any current value.
func NotChecked[T comparable]() Expected[T] { return Expected[T]{} }

// Expect returns an expectation that the current value equals v.
func Expect[T comparable](v T) Expected[T] { return Expected[T]{value: v, checked: true} }

// Value returns the expected value and whether a check was requested.
func (e Expected[T]) Value() (T, bool) { return e.value, e.checked }

// Matches reports whether actual satisfies the expectation.
func (e Expected[T]) Matches(actual T) bool {
	return !e.checked || e.value == actual
}

func (e Expected[T]) MarshalJSON() ([]byte, error) {
	if !e.checked {
		return []byte("null"), nil
	}
	return sonic.Marshal(expectedWire[T]{Value: e.value})
}

func (e *Expected[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = NotChecked[T]()
		return nil
	}
	node, err := sonic.Get(data, "value")
	if err != nil {
		return fmt.Errorf("expected value: %w", err)
	}
	raw, err := node.Raw()
	if err != nil {
		return fmt.Errorf("expected value: %w", err)
	}
	var v T
	if err := sonic.UnmarshalString(raw, &v); err != nil {
		return err
	}
	*e = Expect(v)
	return nil
}

type expectedWire[T comparable] struct {
	Value T `json:"value"`
}

// Change is an old/new value pair carried by update events.
type Change[T any] struct {
	Previous T `json:"previous"`
	New      T `json:"new"`
}
