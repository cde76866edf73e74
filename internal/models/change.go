package models

import "time"

// ChangeTable identifies which underlying table a change notification
// refers to.
type ChangeTable string

const (
	TableLines  ChangeTable = "lines"
	TableEvents ChangeTable = "events"
)

// Change is one change-feed notification. It deliberately carries no
// row data: subscribers react by reloading, not by merging.
type Change struct {
	// Table is the mutated table.
	Table ChangeTable `json:"table"`

	// TimelineID scopes the change to one client timeline. Empty means
	// the scope could not be determined and every subscriber should
	// consider itself affected.
	TimelineID string `json:"timeline_id,omitempty"`

	// Origin identifies the actor whose write produced the change.
	// Empty for changes observed from outside the process (a peer
	// writer detected through the database file).
	Origin string `json:"origin,omitempty"`

	// ObservedAt is when the notification was emitted.
	ObservedAt time.Time `json:"observed_at"`
}
