package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tracevall/chronline/internal/logging"
	"github.com/tracevall/chronline/internal/models"
)

// Service owns every mutation of a timeline aggregate. Mutations are
// applied to the in-memory Timeline first (optimistic), then persisted
// through the stores; if persistence fails the optimistic change is
// discarded and the aggregate reloaded from the store, which is
// authoritative.
type Service struct {
	lines  LineStore
	events EventStore
	icons  *models.IconSet
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a timeline service. icons may be nil to skip icon
// validation (events from older stores may predate the configured set).
func NewService(lines LineStore, events EventStore, icons *models.IconSet) *Service {
	return &Service{
		lines:  lines,
		events: events,
		icons:  icons,
		logger: logging.Component("timeline"),
		now:    time.Now,
	}
}

// Load fetches the full aggregate: lines by position, events by order.
func (s *Service) Load(ctx context.Context, timelineID string) (*models.Timeline, error) {
	lines, err := s.lines.ListByTimeline(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}

	for i := range lines {
		events, err := s.events.ListByLine(ctx, lines[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load events for line %s: %w", lines[i].ID, err)
		}
		lines[i].Events = events
	}

	return &models.Timeline{ID: timelineID, Lines: lines}, nil
}

// AddLine appends a new empty line at the end of the timeline. It is
// rejected with ErrLineLimit when the timeline already holds MaxLines;
// nothing is persisted in that case.
func (s *Service) AddLine(ctx context.Context, tl *models.Timeline) error {
	if tl.LineCount() >= models.MaxLines {
		return fmt.Errorf("timeline %s has %d lines: %w", tl.ID, tl.LineCount(), ErrLineLimit)
	}

	line, err := s.lines.Create(ctx, tl.ID, tl.LineCount())
	if err != nil {
		return s.discard(ctx, tl, fmt.Errorf("failed to create line: %w", err))
	}

	tl.Lines = append(tl.Lines, line)
	return nil
}

// DeleteLine removes a line and its events outright.
func (s *Service) DeleteLine(ctx context.Context, tl *models.Timeline, lineID string) error {
	idx := lineIndex(tl, lineID)
	if idx < 0 {
		return fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
	}

	if err := s.lines.Delete(ctx, lineID); err != nil {
		return s.discard(ctx, tl, fmt.Errorf("failed to delete line: %w", err))
	}

	tl.Lines = append(tl.Lines[:idx], tl.Lines[idx+1:]...)
	renumberLines(tl)
	return nil
}

// AddEvent validates the input, builds the event against the target
// line, and persists the line's new authoritative event set.
func (s *Service) AddEvent(ctx context.Context, tl *models.Timeline, lineID string, input EventInput) error {
	line := tl.LineByID(lineID)
	if line == nil {
		return fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
	}

	event, err := NewEvent(input, line.Events, s.icons, s.now())
	if err != nil {
		return err
	}

	if err := s.persistLine(ctx, tl, line, AddEvent(line.Events, event)); err != nil {
		return err
	}

	// Descriptions are free text about a debtor; mask contact details
	// before they reach the log.
	s.logger.Debug().
		Str("timeline_id", tl.ID).
		Str("line_id", line.ID).
		Str("description", logging.Redact(event.Description)).
		Msg("event added")
	return nil
}

// UpdateEvent replaces the stored copy of an edited event.
func (s *Service) UpdateEvent(ctx context.Context, tl *models.Timeline, lineID string, updated models.Event) error {
	line := tl.LineByID(lineID)
	if line == nil {
		return fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
	}

	if err := models.ValidateEvent(&updated, s.icons, s.now()); err != nil {
		return err
	}

	events, err := UpdateEvent(line.Events, updated)
	if err != nil {
		return err
	}
	return s.persistLine(ctx, tl, line, events)
}

// ToggleStatus advances an event one step around the status cycle and
// persists the line.
func (s *Service) ToggleStatus(ctx context.Context, tl *models.Timeline, lineID, eventID string) error {
	line := tl.LineByID(lineID)
	if line == nil {
		return fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
	}

	events, err := ToggleStatus(line.Events, eventID)
	if err != nil {
		return err
	}
	return s.persistLine(ctx, tl, line, events)
}

// DeleteEvent removes an event and, when that empties a line that has
// siblings, consolidates the emptied line into a neighbor so the
// timeline never keeps an orphan empty line.
//
// The merge target is the next line by position; only when the emptied
// line is last does the previous line serve instead. The tie-break
// decides which line id survives, so it must not change: the emptied
// line's id always dies, the neighbor's id always lives.
func (s *Service) DeleteEvent(ctx context.Context, tl *models.Timeline, lineID, eventID string) error {
	idx := lineIndex(tl, lineID)
	if idx < 0 {
		return fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
	}
	line := &tl.Lines[idx]

	remaining, err := RemoveEvent(line.Events, eventID)
	if err != nil {
		return err
	}

	// A line that still has events, or is the timeline's only line,
	// is persisted as-is. A sole empty line is valid.
	if len(remaining) > 0 || tl.LineCount() == 1 {
		return s.persistLine(ctx, tl, line, remaining)
	}

	targetIdx := idx + 1
	if targetIdx >= tl.LineCount() {
		targetIdx = idx - 1
	}
	target := &tl.Lines[targetIdx]

	// Prepend the emptied line's events (none remain) to the target's,
	// persist under the target's id, then delete the emptied line.
	merged := Renumber(append(remaining, target.Events...))

	persisted, err := s.events.ReplaceEvents(ctx, target.ID, merged)
	if err != nil {
		return s.discard(ctx, tl, fmt.Errorf("failed to persist merged line: %w", err))
	}
	target.Events = persisted

	if err := s.lines.Delete(ctx, line.ID); err != nil {
		return s.discard(ctx, tl, fmt.Errorf("failed to delete emptied line: %w", err))
	}

	s.logger.Debug().
		Str("timeline_id", tl.ID).
		Str("emptied_line", line.ID).
		Str("merge_target", tl.Lines[targetIdx].ID).
		Msg("consolidated emptied line")

	tl.Lines = append(tl.Lines[:idx], tl.Lines[idx+1:]...)
	renumberLines(tl)
	return nil
}

// persistLine makes events the line's authoritative content in both the
// store and the in-memory aggregate.
func (s *Service) persistLine(ctx context.Context, tl *models.Timeline, line *models.Line, events []models.Event) error {
	persisted, err := s.events.ReplaceEvents(ctx, line.ID, events)
	if err != nil {
		return s.discard(ctx, tl, fmt.Errorf("failed to persist line %s: %w", line.ID, err))
	}
	line.Events = persisted
	return nil
}

// discard drops the optimistic in-memory state after a failed write and
// re-fetches the authoritative aggregate. A blind retry could double
// apply order shifts or resurrect a consolidated line, so the store
// always wins.
func (s *Service) discard(ctx context.Context, tl *models.Timeline, cause error) error {
	fresh, loadErr := s.Load(ctx, tl.ID)
	if loadErr != nil {
		s.logger.Error().Err(loadErr).
			Str("timeline_id", tl.ID).
			Msg("failed to reload after write failure; in-memory state may be stale")
		return cause
	}
	tl.Lines = fresh.Lines
	return cause
}

func lineIndex(tl *models.Timeline, lineID string) int {
	for i := range tl.Lines {
		if tl.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func renumberLines(tl *models.Timeline) {
	for i := range tl.Lines {
		tl.Lines[i].Position = i
	}
}
