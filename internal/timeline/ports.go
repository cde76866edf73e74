package timeline

import (
	"context"

	"github.com/tracevall/chronline/internal/models"
)

// LineStore is the line persistence surface the aggregate depends on.
// Implemented by db.LineRepository.
type LineStore interface {
	ListByTimeline(ctx context.Context, timelineID string) ([]models.Line, error)
	Create(ctx context.Context, timelineID string, position int) (models.Line, error)
	Delete(ctx context.Context, lineID string) error
}

// EventStore is the event persistence surface the aggregate depends on.
// ReplaceEvents has delete-then-insert semantics: the slice becomes the
// full content of the line. Implemented by db.EventRepository.
type EventStore interface {
	ListByLine(ctx context.Context, lineID string) ([]models.Event, error)
	ReplaceEvents(ctx context.Context, lineID string, events []models.Event) ([]models.Event, error)
}
