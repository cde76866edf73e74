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

// Line repository errors.
var (
	ErrTimelineNotFound = errors.New("timeline not found")
)

// LineRepository handles line persistence.
type LineRepository struct {
	db        *DB
	publisher feed.Publisher
	origin    string
}

// NewLineRepository creates a new LineRepository.
func NewLineRepository(db *DB, publisher feed.Publisher, origin string) *LineRepository {
	return &LineRepository{db: db, publisher: publisher, origin: origin}
}

// ListByTimeline retrieves a timeline's lines ordered by position.
// Events are not loaded; use EventRepository.ListByLine per line.
func (r *LineRepository) ListByTimeline(ctx context.Context, timelineID string) ([]models.Line, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timeline_id, position, created_at
		FROM lines
		WHERE timeline_id = ?
		ORDER BY position
	`, timelineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var lines []models.Line
	for rows.Next() {
		var line models.Line
		var createdAt string
		if err := rows.Scan(&line.ID, &line.TimelineID, &line.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		line.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse line created_at: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lines: %w", err)
	}

	return lines, nil
}

// Create inserts a new line at the given position.
func (r *LineRepository) Create(ctx context.Context, timelineID string, position int) (models.Line, error) {
	line := models.Line{
		ID:         uuid.New().String(),
		TimelineID: timelineID,
		Position:   position,
		CreatedAt:  time.Now().UTC(),
	}

	err := r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM timelines WHERE id = ?`, timelineID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check timeline: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("timeline %s: %w", timelineID, ErrTimelineNotFound)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lines (id, timeline_id, position, created_at)
			VALUES (?, ?, ?, ?)
		`, line.ID, line.TimelineID, line.Position, line.CreatedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to insert line: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Line{}, err
	}

	r.publishChange(timelineID)
	return line, nil
}

// Delete removes a line (its events cascade) and renumbers the
// remaining lines of the timeline to keep positions dense.
func (r *LineRepository) Delete(ctx context.Context, lineID string) error {
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

		if _, err := tx.ExecContext(ctx, `DELETE FROM lines WHERE id = ?`, lineID); err != nil {
			return fmt.Errorf("failed to delete line: %w", err)
		}

		return renumberPositions(ctx, tx, timelineID)
	})
	if err != nil {
		return err
	}

	r.publishChange(timelineID)
	return nil
}

// renumberPositions rewrites line positions to a dense 0..n-1 sequence
// in current position order.
func renumberPositions(ctx context.Context, tx *sql.Tx, timelineID string) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM lines WHERE timeline_id = ? ORDER BY position
	`, timelineID)
	if err != nil {
		return fmt.Errorf("failed to list lines for renumber: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan line id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating line ids: %w", err)
	}
	rows.Close()

	for position, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lines SET position = ? WHERE id = ?`, position, id,
		); err != nil {
			return fmt.Errorf("failed to renumber line %s: %w", id, err)
		}
	}
	return nil
}

func (r *LineRepository) publishChange(timelineID string) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(models.Change{
		Table:      models.TableLines,
		TimelineID: timelineID,
		Origin:     r.origin,
		ObservedAt: time.Now(),
	})
}
