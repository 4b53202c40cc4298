package domain

import "github.com/google/uuid"

// LabelID identifies a label aggregate.
type LabelID string

// NewLabelID returns a random label identifier.
func NewLabelID() LabelID { return LabelID(uuid.NewString()) }

// LabelColor is the display color of a label.
type LabelColor string

const (
	ColorUndefined LabelColor = "UNDEFINED"
	ColorGray      LabelColor = "GRAY"
	ColorRed       LabelColor = "RED"
	ColorGreen     LabelColor = "GREEN"
	ColorBlue      LabelColor = "BLUE"
)

// DefaultLabelColor is assigned to every new label.
const DefaultLabelColor = ColorGray

// Valid reports whether c is a color a label may be set to.
func (c LabelColor) Valid() bool {
	switch c {
	case ColorGray, ColorRed, ColorGreen, ColorBlue:
		return true
	}
	return false
}

// LabelDetails is the mutable part of a label.
type LabelDetails struct {
	Title string     `json:"title"`
	Color LabelColor `json:"color"`
}
