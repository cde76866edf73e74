package models

import "time"

// MaxLines caps how many lines a single timeline may hold.
const MaxLines = 10

// Line is an ordered sub-sequence of events within a timeline.
type Line struct {
	ID string `json:"id"`

	// TimelineID is the owning timeline (client) identifier.
	TimelineID string `json:"timeline_id"`

	// Position is dense and zero-based within the timeline and defines
	// display/reading order.
	Position int `json:"position"`

	Events []Event `json:"events"`

	CreatedAt time.Time `json:"created_at"`
}

// IsEmpty reports whether the line holds no events.
func (l *Line) IsEmpty() bool {
	return len(l.Events) == 0
}

// Timeline is the aggregate of lines for one client entity.
type Timeline struct {
	// ID doubles as the client identifier.
	ID string `json:"id"`

	// OrganizationScope ties the timeline to the organization that
	// owns the client record.
	OrganizationScope string `json:"organization_scope"`

	// Lines are ordered by Position.
	Lines []Line `json:"lines"`
}

// LineByID returns the line with the given id, or nil.
func (t *Timeline) LineByID(id string) *Line {
	for i := range t.Lines {
		if t.Lines[i].ID == id {
			return &t.Lines[i]
		}
	}
	return nil
}

// LineCount returns the number of lines.
func (t *Timeline) LineCount() int {
	return len(t.Lines)
}
