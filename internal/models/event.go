// Package models defines the timeline domain types shared across chronline.
package models

import "time"

// EventStatus tracks the follow-up state of a logged interaction.
type EventStatus string

const (
	// StatusCreated is the initial state of every event.
	StatusCreated EventStatus = "created"

	// StatusResolved marks an interaction the client responded to.
	StatusResolved EventStatus = "resolved"

	// StatusNoResponse marks an interaction the client never answered.
	StatusNoResponse EventStatus = "no_response"
)

// EventPosition is the vertical placement of an event relative to its
// line's base axis.
type EventPosition string

const (
	PositionTop    EventPosition = "top"
	PositionBottom EventPosition = "bottom"
)

// MaxDescriptionLen bounds the free-text description of an event.
const MaxDescriptionLen = 150

// Event is one status-bearing, dated interaction on a line.
type Event struct {
	// ID is unique system-wide. Events created in memory carry a
	// "tmp-" prefixed id until their first persist, at which point the
	// store assigns a durable one.
	ID string `json:"id"`

	// Icon is a short symbolic tag drawn from a closed, validated set.
	Icon string `json:"icon"`

	// Date is the display string, either "DD/MM" or the unset
	// sentinel "--/--". Year-less by contract; see ParseDisplayDate.
	Date string `json:"date"`

	// Time is an optional "HH:MM" display string.
	Time string `json:"time,omitempty"`

	// Description is bounded free text.
	Description string `json:"description"`

	Position EventPosition `json:"position"`
	Status   EventStatus   `json:"status"`

	// Order is dense and zero-based within the owning line. It defines
	// both storage order and rendering order.
	Order int `json:"order"`

	// CreatedAt is set once at creation and never updated.
	CreatedAt time.Time `json:"created_at"`
}

// IsTemporary reports whether the event still carries a client-generated id.
func (e *Event) IsTemporary() bool {
	return len(e.ID) > 4 && e.ID[:4] == "tmp-"
}

// ValidStatuses is the closed set of event statuses.
var ValidStatuses = map[EventStatus]bool{
	StatusCreated:    true,
	StatusResolved:   true,
	StatusNoResponse: true,
}

// ValidPositions is the closed set of event positions.
var ValidPositions = map[EventPosition]bool{
	PositionTop:    true,
	PositionBottom: true,
}

// Opposite returns the other side of the line's base axis.
func (p EventPosition) Opposite() EventPosition {
	if p == PositionTop {
		return PositionBottom
	}
	return PositionTop
}
