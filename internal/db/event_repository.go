package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tracevall/chronline/internal/feed"
	"github.com/tracevall/chronline/internal/models"
)

// Event repository errors.
var (
	ErrLineNotFound = errors.New("line not found")
)

// EventRepository handles event persistence for lines.
type EventRepository struct {
	db        *DB
	publisher feed.Publisher
	origin    string
}

// NewEventRepository creates a new EventRepository. origin identifies
// this client process on the change feed; publisher may be nil for
// consumers that do not participate in synchronization.
func NewEventRepository(db *DB, publisher feed.Publisher, origin string) *EventRepository {
	return &EventRepository{db: db, publisher: publisher, origin: origin}
}

const eventColumns = `id, line_id, icon, date, time, description, position, status, ord, created_at`

// ListByLine retrieves a line's events ordered by their dense order.
func (r *EventRepository) ListByLine(ctx context.Context, lineID string) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE line_id = ?
		ORDER BY ord
	`, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// ReplaceEvents makes the given slice the full, authoritative content
// of the line: prior rows are deleted and the slice inserted in order,
// all inside one transaction. Temporary client ids are rewritten to
// store-assigned uuids. The returned slice carries the durable ids.
func (r *EventRepository) ReplaceEvents(ctx context.Context, lineID string, events []models.Event) ([]models.Event, error) {
	persisted := make([]models.Event, len(events))
	copy(persisted, events)

	now := time.Now().UTC()
	for i := range persisted {
		persisted[i].Order = i
		if persisted[i].ID == "" || persisted[i].IsTemporary() {
			persisted[i].ID = uuid.New().String()
		}
		if persisted[i].CreatedAt.IsZero() {
			persisted[i].CreatedAt = now
		}
	}

	var timelineID string
	err := r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT timeline_id FROM lines WHERE id = ?`, lineID,
		).Scan(&timelineID); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
			}
			return fmt.Errorf("failed to resolve line: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE line_id = ?`, lineID); err != nil {
			return fmt.Errorf("failed to clear line events: %w", err)
		}

		for _, event := range persisted {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO events (`+eventColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				event.ID,
				lineID,
				event.Icon,
				event.Date,
				event.Time,
				event.Description,
				string(event.Position),
				string(event.Status),
				event.Order,
				event.CreatedAt.Format(time.RFC3339),
			); err != nil {
				return fmt.Errorf("failed to insert event %s: %w", event.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if r.publisher != nil {
		r.publisher.Publish(models.Change{
			Table:      models.TableEvents,
			TimelineID: timelineID,
			Origin:     r.origin,
			ObservedAt: time.Now(),
		})
	}

	return persisted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.Event, error) {
	var event models.Event
	var lineID, position, status, createdAt string

	err := row.Scan(
		&event.ID,
		&lineID,
		&event.Icon,
		&event.Date,
		&event.Time,
		&event.Description,
		&position,
		&status,
		&event.Order,
		&createdAt,
	)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to scan event: %w", err)
	}

	event.Position = models.EventPosition(position)
	event.Status = models.EventStatus(status)
	event.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to parse event created_at: %w", err)
	}

	return event, nil
}
