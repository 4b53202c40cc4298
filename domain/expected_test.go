package domain

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestExpectedMatches(t *testing.T) {
	if !NotChecked[string]().Matches("anything") {
		t.Fatalf("not checked must match any value")
	}
	if !Expect("a").Matches("a") {
		t.Fatalf("expect(a) must match a")
	}
	if Expect("a").Matches("b") {
		t.Fatalf("expect(a) must not match b")
	}
}

func TestExpectedJSON(t *testing.T) {
	type payload struct {
		Previous Expected[TaskPriority] `json:"previous"`
	}
	data, err := sonic.Marshal(payload{Previous: NotChecked[TaskPriority]()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"previous":null}` {
		t.Fatalf("unexpected json %s", data)
	}

	var p payload
	if err := sonic.Unmarshal([]byte(`{"previous":{"value":"HIGH"}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, checked := p.Previous.Value()
	if !checked || v != PriorityHigh {
		t.Fatalf("previous = %v/%v, want HIGH/true", v, checked)
	}

	p = payload{Previous: Expect(PriorityLow)}
	if err := sonic.Unmarshal([]byte(`{"previous":null}`), &p); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if _, checked := p.Previous.Value(); checked {
		t.Fatalf("null must decode to not checked")
	}
}

func TestExpectedNoDueDateRoundTrip(t *testing.T) {
	type payload struct {
		Previous Expected[DueDate] `json:"previous"`
	}
	data, err := sonic.Marshal(payload{Previous: Expect(DueDate{})})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"previous":{"value":null}}` {
		t.Fatalf("unexpected json %s", data)
	}
	var p payload
	if err := sonic.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, checked := p.Previous.Value()
	if !checked || v.IsSet() {
		t.Fatalf("previous = %v/%v, want none/true", v, checked)
	}
	if p.Previous.Matches(DueOn(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))) {
		t.Fatalf("expect(no due date) must not match a set due date")
	}

	if err := sonic.Unmarshal([]byte(`{}`), &p); err != nil {
		t.Fatalf("unmarshal absent: %v", err)
	}
	if _, checked := p.Previous.Value(); checked {
		t.Fatalf("absent previous must decode to not checked")
	}
	if err := sonic.Unmarshal([]byte(`{"previous":"2026-01-01T00:00:00Z"}`), &p); err == nil {
		t.Fatalf("expected error for bare previous value")
	}
}

func TestDueDateNormalizesForEquality(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, loc)
	a := DueOn(at)
	b := DueOn(at.UTC())
	if a != b {
		t.Fatalf("due dates for the same instant differ: %s vs %s", a, b)
	}
	if DueOn(time.Time{}).IsSet() {
		t.Fatalf("zero time must mean no due date")
	}
}

func TestDueDateJSON(t *testing.T) {
	d := DueOn(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	data, err := sonic.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-05-01T10:00:00Z"` {
		t.Fatalf("unexpected json %s", data)
	}
	var got DueDate
	if err := sonic.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != d {
		t.Fatalf("due date = %s, want %s", got, d)
	}
	if err := sonic.Unmarshal([]byte(`null`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if got.IsSet() {
		t.Fatalf("null must clear the due date")
	}
	if err := sonic.Unmarshal([]byte(`"tomorrow"`), &got); err == nil {
		t.Fatalf("expected parse error")
	}
}
