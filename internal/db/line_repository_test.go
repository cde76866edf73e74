package db

import (
	"context"
	"errors"
	"testing"

	"github.com/tracevall/chronline/internal/models"
)

func TestLineRepository_CreateListDelete(t *testing.T) {
	database := setupTestDB(t)
	recorder := &changeRecorder{}
	ctx := context.Background()

	if err := NewTimelineRepository(database).Ensure(ctx, "client-1", "org-1"); err != nil {
		t.Fatalf("Ensure timeline failed: %v", err)
	}

	repo := NewLineRepository(database, recorder, "actor-1")

	var lineIDs []string
	for i := 0; i < 3; i++ {
		line, err := repo.Create(ctx, "client-1", i)
		if err != nil {
			t.Fatalf("Create line %d failed: %v", i, err)
		}
		lineIDs = append(lineIDs, line.ID)
	}

	lines, err := repo.ListByTimeline(ctx, "client-1")
	if err != nil {
		t.Fatalf("ListByTimeline failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if line.Position != i {
			t.Errorf("line %d has position %d", i, line.Position)
		}
	}

	// Deleting the middle line must keep positions dense.
	if err := repo.Delete(ctx, lineIDs[1]); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	lines, err = repo.ListByTimeline(ctx, "client-1")
	if err != nil {
		t.Fatalf("ListByTimeline after delete failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ID != lineIDs[0] || lines[1].ID != lineIDs[2] {
		t.Fatalf("wrong surviving lines: %+v", lines)
	}
	if lines[0].Position != 0 || lines[1].Position != 1 {
		t.Fatalf("positions not dense after delete: %d, %d", lines[0].Position, lines[1].Position)
	}

	changes := recorder.all()
	if len(changes) != 4 {
		t.Fatalf("expected 4 line changes, got %d", len(changes))
	}
	for _, change := range changes {
		if change.Table != models.TableLines {
			t.Errorf("expected lines change, got %s", change.Table)
		}
	}
}

func TestLineRepository_CreateUnknownTimeline(t *testing.T) {
	database := setupTestDB(t)
	repo := NewLineRepository(database, nil, "actor-1")

	_, err := repo.Create(context.Background(), "ghost", 0)
	if !errors.Is(err, ErrTimelineNotFound) {
		t.Fatalf("expected ErrTimelineNotFound, got %v", err)
	}
}

func TestLineRepository_DeleteUnknownLine(t *testing.T) {
	database := setupTestDB(t)
	repo := NewLineRepository(database, nil, "actor-1")

	err := repo.Delete(context.Background(), "ghost")
	if !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestLineRepository_DeleteCascadesEvents(t *testing.T) {
	database := setupTestDB(t)
	recorder := &changeRecorder{}
	_, lineID := seedTimelineAndLine(t, database, recorder)
	ctx := context.Background()

	events := NewEventRepository(database, recorder, "actor-1")
	seed := []models.Event{{Icon: "call", Date: "01/02", Position: models.PositionTop, Status: models.StatusCreated}}
	if _, err := events.ReplaceEvents(ctx, lineID, seed); err != nil {
		t.Fatalf("ReplaceEvents failed: %v", err)
	}

	if err := NewLineRepository(database, recorder, "actor-1").Delete(ctx, lineID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var count int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cascade to remove events, %d remain", count)
	}
}

func TestTimelineRepository_EnsureIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	repo := NewTimelineRepository(database)
	ctx := context.Background()

	if err := repo.Ensure(ctx, "client-1", "org-1"); err != nil {
		t.Fatalf("first Ensure failed: %v", err)
	}
	if err := repo.Ensure(ctx, "client-1", "org-other"); err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}

	scope, err := repo.OrganizationScope(ctx, "client-1")
	if err != nil {
		t.Fatalf("OrganizationScope failed: %v", err)
	}
	if scope != "org-1" {
		t.Fatalf("Ensure must not overwrite scope, got %q", scope)
	}
}
