// Package timeline implements the per-client event timeline aggregate:
// line-level event operations, the status cycle, and the consolidation
// rules that keep a timeline free of orphan empty lines.
package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tracevall/chronline/internal/models"
)

// Aggregate errors.
var (
	ErrLineNotFound  = errors.New("line not found")
	ErrEventNotFound = errors.New("event not found")
	ErrLineLimit     = errors.New("line limit reached")
)

// EventInput carries the user-supplied fields for a new event.
type EventInput struct {
	Icon        string
	Date        string
	Time        string
	Description string
}

// NewEvent validates the input and builds an event ready to be added to
// the given line. The event starts in the created status with a
// temporary id; its position alternates against the line's most
// recently added event (the front of the slice). The first event of a
// line goes on top.
func NewEvent(input EventInput, lineEvents []models.Event, icons *models.IconSet, now time.Time) (models.Event, error) {
	position := models.PositionTop
	if len(lineEvents) > 0 {
		position = lineEvents[0].Position.Opposite()
	}

	event := models.Event{
		ID:          "tmp-" + uuid.New().String(),
		Icon:        input.Icon,
		Date:        input.Date,
		Time:        input.Time,
		Description: input.Description,
		Position:    position,
		Status:      models.StatusCreated,
		Order:       0,
		CreatedAt:   now,
	}

	if err := models.ValidateEvent(&event, icons, now); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// AddEvent unshifts the event to the front of the line and renumbers.
// New events always take order 0.
func AddEvent(lineEvents []models.Event, event models.Event) []models.Event {
	out := make([]models.Event, 0, len(lineEvents)+1)
	out = append(out, event)
	out = append(out, lineEvents...)
	return Renumber(out)
}

// UpdateEvent replaces the event with the same id, keeping its slot.
// Order and CreatedAt of the stored event are preserved; they are not
// editable fields.
func UpdateEvent(lineEvents []models.Event, updated models.Event) ([]models.Event, error) {
	out := make([]models.Event, len(lineEvents))
	copy(out, lineEvents)

	for i := range out {
		if out[i].ID == updated.ID {
			updated.Order = out[i].Order
			updated.CreatedAt = out[i].CreatedAt
			out[i] = updated
			return out, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", updated.ID, ErrEventNotFound)
}

// RemoveEvent drops the event and renumbers the remainder.
func RemoveEvent(lineEvents []models.Event, eventID string) ([]models.Event, error) {
	out := make([]models.Event, 0, len(lineEvents))
	found := false
	for _, event := range lineEvents {
		if event.ID == eventID {
			found = true
			continue
		}
		out = append(out, event)
	}
	if !found {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}
	return Renumber(out), nil
}

// ToggleStatus advances the event's status one step around the cycle
// created -> resolved -> no_response -> created.
//
//	created     -> resolved:    position forced to top (the resolved side)
//	resolved    -> no_response: position forced to bottom
//	no_response -> created:     position unchanged
//
// The cycle has period 3: three toggles restore (status, position).
func ToggleStatus(lineEvents []models.Event, eventID string) ([]models.Event, error) {
	out := make([]models.Event, len(lineEvents))
	copy(out, lineEvents)

	for i := range out {
		if out[i].ID != eventID {
			continue
		}
		switch out[i].Status {
		case models.StatusCreated:
			out[i].Status = models.StatusResolved
			out[i].Position = models.PositionTop
		case models.StatusResolved:
			out[i].Status = models.StatusNoResponse
			out[i].Position = models.PositionBottom
		case models.StatusNoResponse:
			out[i].Status = models.StatusCreated
		default:
			return nil, fmt.Errorf("event %s has unknown status %q", eventID, out[i].Status)
		}
		return out, nil
	}
	return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
}

// Renumber rewrites Order to a dense 0..n-1 sequence in slice order.
func Renumber(lineEvents []models.Event) []models.Event {
	for i := range lineEvents {
		lineEvents[i].Order = i
	}
	return lineEvents
}

// SegmentClass classifies the connector between two adjacent events.
type SegmentClass string

const (
	SegmentSameDay SegmentClass = "same_day"
	SegmentDefault SegmentClass = "default"
)

// Segments classifies each adjacent pair of events in order. The result
// has len(events)-1 entries (empty for fewer than two events) and is
// derived; it must be recomputed after any order or date change.
func Segments(lineEvents []models.Event, now time.Time) []SegmentClass {
	if len(lineEvents) < 2 {
		return nil
	}
	out := make([]SegmentClass, len(lineEvents)-1)
	for i := 0; i < len(lineEvents)-1; i++ {
		if models.SameDay(lineEvents[i].Date, lineEvents[i+1].Date, now) {
			out[i] = SegmentSameDay
		} else {
			out[i] = SegmentDefault
		}
	}
	return out
}
