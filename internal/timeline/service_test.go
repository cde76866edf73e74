package timeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracevall/chronline/internal/models"
)

var errStoreDown = errors.New("store down")

// fakeStore backs both ports with plain maps so the aggregate logic can
// be exercised without a database. failNext makes the next write fail
// once, which is how the discard path is driven.
type fakeStore struct {
	nextID   int
	lines    map[string][]models.Line  // timelineID -> lines by position
	events   map[string][]models.Event // lineID -> events by order
	failNext bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lines:  make(map[string][]models.Line),
		events: make(map[string][]models.Event),
	}
}

func (f *fakeStore) fail() error {
	if f.failNext {
		f.failNext = false
		return errStoreDown
	}
	return nil
}

func (f *fakeStore) ListByTimeline(_ context.Context, timelineID string) ([]models.Line, error) {
	out := make([]models.Line, len(f.lines[timelineID]))
	copy(out, f.lines[timelineID])
	for i := range out {
		out[i].Events = nil
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, timelineID string, position int) (models.Line, error) {
	if err := f.fail(); err != nil {
		return models.Line{}, err
	}
	f.nextID++
	line := models.Line{ID: fmt.Sprintf("line-%d", f.nextID), TimelineID: timelineID, Position: position}
	f.lines[timelineID] = append(f.lines[timelineID], line)
	return line, nil
}

func (f *fakeStore) Delete(_ context.Context, lineID string) error {
	if err := f.fail(); err != nil {
		return err
	}
	for tlID, lines := range f.lines {
		for i := range lines {
			if lines[i].ID == lineID {
				f.lines[tlID] = append(lines[:i], lines[i+1:]...)
				for j := range f.lines[tlID] {
					f.lines[tlID][j].Position = j
				}
				delete(f.events, lineID)
				return nil
			}
		}
	}
	return ErrLineNotFound
}

func (f *fakeStore) ListByLine(_ context.Context, lineID string) ([]models.Event, error) {
	out := make([]models.Event, len(f.events[lineID]))
	copy(out, f.events[lineID])
	return out, nil
}

func (f *fakeStore) ReplaceEvents(_ context.Context, lineID string, events []models.Event) ([]models.Event, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	out := make([]models.Event, len(events))
	copy(out, events)
	for i := range out {
		out[i].Order = i
		if out[i].ID == "" || out[i].IsTemporary() {
			f.nextID++
			out[i].ID = fmt.Sprintf("ev-%d", f.nextID)
		}
	}
	f.events[lineID] = out
	return append([]models.Event(nil), out...), nil
}

// addLine seeds a line directly in the store, bypassing the service.
func (f *fakeStore) addLine(timelineID string, events ...models.Event) models.Line {
	f.nextID++
	line := models.Line{
		ID:         fmt.Sprintf("line-%d", f.nextID),
		TimelineID: timelineID,
		Position:   len(f.lines[timelineID]),
	}
	f.lines[timelineID] = append(f.lines[timelineID], line)
	f.events[line.ID] = Renumber(events)
	return line
}

func newTestService(store *fakeStore) *Service {
	svc := NewService(store, store, models.NewIconSet())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestService_LoadAssemblesAggregate(t *testing.T) {
	store := newFakeStore()
	a := store.addLine("tl-1", event("e1", 0, models.StatusCreated, models.PositionTop))
	b := store.addLine("tl-1")

	tl, err := newTestService(store).Load(context.Background(), "tl-1")
	require.NoError(t, err)
	require.Equal(t, 2, tl.LineCount())
	assert.Equal(t, a.ID, tl.Lines[0].ID)
	assert.Len(t, tl.Lines[0].Events, 1)
	assert.Equal(t, b.ID, tl.Lines[1].ID)
	assert.Empty(t, tl.Lines[1].Events)
}

func TestService_AddLineAppendsAtEnd(t *testing.T) {
	store := newFakeStore()
	store.addLine("tl-1")
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)
	require.NoError(t, svc.AddLine(context.Background(), tl))

	require.Equal(t, 2, tl.LineCount())
	assert.Equal(t, 1, tl.Lines[1].Position)
	assert.Empty(t, tl.Lines[1].Events)
}

func TestService_AddLineRejectedAtLimit(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < models.MaxLines; i++ {
		store.addLine("tl-1")
	}
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	err = svc.AddLine(context.Background(), tl)
	assert.ErrorIs(t, err, ErrLineLimit)
	assert.Equal(t, models.MaxLines, tl.LineCount(), "rejection leaves the count unchanged")
	assert.Len(t, store.lines["tl-1"], models.MaxLines, "nothing reached the store")
}

func TestService_AddEventPersistsAndAdoptsDurableIDs(t *testing.T) {
	store := newFakeStore()
	line := store.addLine("tl-1", event("e1", 0, models.StatusCreated, models.PositionTop))
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	require.NoError(t, svc.AddEvent(context.Background(), tl, line.ID, EventInput{Icon: "call", Date: "05/03"}))

	events := tl.Lines[0].Events
	require.Len(t, events, 2)
	assert.False(t, events[0].IsTemporary(), "temporary id swapped for a durable one on persist")
	assert.Equal(t, models.PositionBottom, events[0].Position)
	assert.Equal(t, "e1", events[1].ID)
	requireDenseOrder(t, events)
	require.Len(t, store.events[line.ID], 2)
}

func TestService_AddEventUnknownLine(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tl := &models.Timeline{ID: "tl-1"}

	err := svc.AddEvent(context.Background(), tl, "ghost", EventInput{Icon: "call", Date: "05/03"})
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestService_ToggleStatusPersists(t *testing.T) {
	store := newFakeStore()
	line := store.addLine("tl-1", event("e1", 0, models.StatusCreated, models.PositionBottom))
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	require.NoError(t, svc.ToggleStatus(context.Background(), tl, line.ID, "e1"))
	assert.Equal(t, models.StatusResolved, tl.Lines[0].Events[0].Status)
	assert.Equal(t, models.PositionTop, tl.Lines[0].Events[0].Position)
	assert.Equal(t, models.StatusResolved, store.events[line.ID][0].Status)
}

func TestService_DeleteEventKeepsNonEmptyLine(t *testing.T) {
	store := newFakeStore()
	line := store.addLine("tl-1",
		event("e1", 0, models.StatusCreated, models.PositionTop),
		event("e2", 1, models.StatusCreated, models.PositionBottom),
	)
	store.addLine("tl-1")
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(context.Background(), tl, line.ID, "e1"))
	require.Equal(t, 2, tl.LineCount(), "no consolidation while events remain")
	require.Len(t, tl.Lines[0].Events, 1)
	assert.Equal(t, "e2", tl.Lines[0].Events[0].ID)
	requireDenseOrder(t, tl.Lines[0].Events)
}

func TestService_DeleteEventSoleLineStaysEmpty(t *testing.T) {
	store := newFakeStore()
	line := store.addLine("tl-1", event("e1", 0, models.StatusCreated, models.PositionTop))
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(context.Background(), tl, line.ID, "e1"))
	require.Equal(t, 1, tl.LineCount(), "the only line survives empty")
	assert.Equal(t, line.ID, tl.Lines[0].ID)
	assert.Empty(t, tl.Lines[0].Events)
}

func TestService_ConsolidationPrefersNextLine(t *testing.T) {
	store := newFakeStore()
	a := store.addLine("tl-1", event("a1", 0, models.StatusCreated, models.PositionTop))
	b := store.addLine("tl-1", event("b1", 0, models.StatusCreated, models.PositionTop))
	c := store.addLine("tl-1", event("c1", 0, models.StatusCreated, models.PositionTop))
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(context.Background(), tl, a.ID, "a1"))

	require.Equal(t, 2, tl.LineCount())
	assert.Equal(t, b.ID, tl.Lines[0].ID, "the next line's id survives the merge")
	assert.Equal(t, c.ID, tl.Lines[1].ID)
	assert.Nil(t, tl.LineByID(a.ID), "the emptied line's id is gone")
	assert.Equal(t, []int{0, 1}, []int{tl.Lines[0].Position, tl.Lines[1].Position})

	require.Len(t, tl.Lines[0].Events, 1)
	assert.Equal(t, "b1", tl.Lines[0].Events[0].ID)
	_, ok := store.events[a.ID]
	assert.False(t, ok, "store dropped the emptied line")
}

func TestService_ConsolidationFallsBackToPrevious(t *testing.T) {
	store := newFakeStore()
	x := store.addLine("tl-1", event("x1", 0, models.StatusCreated, models.PositionTop))
	y := store.addLine("tl-1", event("y1", 0, models.StatusCreated, models.PositionTop))
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(context.Background(), tl, y.ID, "y1"))

	require.Equal(t, 1, tl.LineCount())
	assert.Equal(t, x.ID, tl.Lines[0].ID, "the previous line's id survives when no next exists")
	assert.Nil(t, tl.LineByID(y.ID))
	require.Len(t, tl.Lines[0].Events, 1)
	assert.Equal(t, "x1", tl.Lines[0].Events[0].ID)
}

func TestService_ConsolidationMergesSurvivingEvents(t *testing.T) {
	store := newFakeStore()
	a := store.addLine("tl-1",
		event("a1", 0, models.StatusCreated, models.PositionTop),
		event("a2", 1, models.StatusCreated, models.PositionBottom),
	)
	b := store.addLine("tl-1", event("b1", 0, models.StatusCreated, models.PositionTop))
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	// Consolidation only fires when the delete empties the line, so a
	// two-event line needs two deletes.
	require.NoError(t, svc.DeleteEvent(context.Background(), tl, a.ID, "a1"))
	require.Equal(t, 2, tl.LineCount())
	require.NoError(t, svc.DeleteEvent(context.Background(), tl, a.ID, "a2"))

	require.Equal(t, 1, tl.LineCount())
	assert.Equal(t, b.ID, tl.Lines[0].ID)
	require.Len(t, tl.Lines[0].Events, 1)
	assert.Equal(t, "b1", tl.Lines[0].Events[0].ID)
	requireDenseOrder(t, tl.Lines[0].Events)
}

func TestService_WriteFailureDiscardsOptimisticState(t *testing.T) {
	store := newFakeStore()
	line := store.addLine("tl-1", event("e1", 0, models.StatusCreated, models.PositionTop))
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	store.failNext = true
	err = svc.AddEvent(context.Background(), tl, line.ID, EventInput{Icon: "call", Date: "05/03"})
	require.ErrorIs(t, err, errStoreDown)

	require.Len(t, tl.Lines[0].Events, 1, "aggregate reloaded to the stored state")
	assert.Equal(t, "e1", tl.Lines[0].Events[0].ID)
	require.Len(t, store.events[line.ID], 1, "store untouched by the failed write")
}

func TestService_FailedConsolidationReloads(t *testing.T) {
	store := newFakeStore()
	a := store.addLine("tl-1", event("a1", 0, models.StatusCreated, models.PositionTop))
	b := store.addLine("tl-1", event("b1", 0, models.StatusCreated, models.PositionTop))
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	store.failNext = true
	err = svc.DeleteEvent(context.Background(), tl, a.ID, "a1")
	require.ErrorIs(t, err, errStoreDown)

	require.Equal(t, 2, tl.LineCount(), "both lines restored from the store")
	assert.Equal(t, a.ID, tl.Lines[0].ID)
	assert.Equal(t, b.ID, tl.Lines[1].ID)
	require.Len(t, tl.Lines[0].Events, 1)
	assert.Equal(t, "a1", tl.Lines[0].Events[0].ID)
}

func TestService_DeleteLine(t *testing.T) {
	store := newFakeStore()
	a := store.addLine("tl-1")
	b := store.addLine("tl-1")
	c := store.addLine("tl-1")
	svc := newTestService(store)

	tl, err := svc.Load(context.Background(), "tl-1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLine(context.Background(), tl, b.ID))
	require.Equal(t, 2, tl.LineCount())
	assert.Equal(t, a.ID, tl.Lines[0].ID)
	assert.Equal(t, c.ID, tl.Lines[1].ID)
	assert.Equal(t, 1, tl.Lines[1].Position)
}
