package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TimelineRepository handles the timeline root rows. Full client CRM
// records live elsewhere; the store only needs the aggregate root and
// its organization scope.
type TimelineRepository struct {
	db *DB
}

// NewTimelineRepository creates a new TimelineRepository.
func NewTimelineRepository(db *DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Ensure creates the timeline row if it does not exist yet.
func (r *TimelineRepository) Ensure(ctx context.Context, timelineID, organizationScope string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO timelines (id, organization_scope, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, timelineID, organizationScope, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to ensure timeline: %w", err)
	}
	return nil
}

// OrganizationScope returns the organization a timeline belongs to.
func (r *TimelineRepository) OrganizationScope(ctx context.Context, timelineID string) (string, error) {
	var scope string
	err := r.db.QueryRowContext(ctx,
		`SELECT organization_scope FROM timelines WHERE id = ?`, timelineID,
	).Scan(&scope)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("timeline %s: %w", timelineID, ErrTimelineNotFound)
		}
		return "", fmt.Errorf("failed to load timeline: %w", err)
	}
	return scope, nil
}

// Delete removes a timeline and, through cascades, its lines and events.
func (r *TimelineRepository) Delete(ctx context.Context, timelineID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timelines WHERE id = ?`, timelineID)
	if err != nil {
		return fmt.Errorf("failed to delete timeline: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("timeline %s: %w", timelineID, ErrTimelineNotFound)
	}
	return nil
}
