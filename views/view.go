// Package views folds domain events into the read-optimized task lists.
//
// Every Apply returns a complete new snapshot; the receiver and its rows are
// never modified. Events that reference tasks or labels a view does not hold
// are no-ops.
package views

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/spine-examples/todo-list/domain"
)

// Kind names a family of views.
type Kind string

const (
	KindPersonal   Kind = "personal-list"
	KindDrafts     Kind = "draft-list"
	KindLabelGroup Kind = "label-group"
)

// Fixed ids of the singleton views.
const (
	PersonalID = "personal"
	DraftsID   = "drafts"
)

// Key addresses one view instance.
type Key struct {
	Kind Kind
	ID   string
}

func (k Key) String() string { return string(k.Kind) + "/" + k.ID }

var (
	PersonalKey = Key{Kind: KindPersonal, ID: PersonalID}
	DraftsKey   = Key{Kind: KindDrafts, ID: DraftsID}
)

// LabelGroupKey returns the key of the group view for label id.
func LabelGroupKey(id domain.LabelID) Key {
	return Key{Kind: KindLabelGroup, ID: string(id)}
}

// Folder is implemented by every view type.
type Folder interface {
	Fold(ev domain.Event) Folder
}

// Empty returns the initial view for key.
func Empty(key Key) (Folder, error) {
	switch key.Kind {
	case KindPersonal:
		return PersonalListView{}, nil
	case KindDrafts:
		return DraftListView{}, nil
	case KindLabelGroup:
		return NewLabelGroupView(domain.LabelID(key.ID)), nil
	}
	return nil, fmt.Errorf("view kind %q: %w", key.Kind, domain.ErrUnknownType)
}

// Decode parses a stored snapshot of the view addressed by key. Empty data
// yields the initial view.
func Decode(key Key, data []byte) (Folder, error) {
	if len(data) == 0 {
		return Empty(key)
	}
	var (
		v   Folder
		err error
	)
	switch key.Kind {
	case KindPersonal:
		var p PersonalListView
		err = sonic.Unmarshal(data, &p)
		v = p
	case KindDrafts:
		var d DraftListView
		err = sonic.Unmarshal(data, &d)
		v = d
	case KindLabelGroup:
		var g LabelGroupView
		err = sonic.Unmarshal(data, &g)
		if g.LabelID == "" {
			g.LabelID = domain.LabelID(key.ID)
		}
		v = g
	default:
		return nil, fmt.Errorf("view kind %q: %w", key.Kind, domain.ErrUnknownType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

// Encode serializes a view snapshot.
func Encode(v Folder) ([]byte, error) {
	return sonic.Marshal(v)
}
