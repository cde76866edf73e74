// Package snapshot renders a timeline as a deterministic JSON document
// for read-only consumers, such as report generators. It never mutates
// anything.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tracevall/chronline/internal/models"
	"github.com/tracevall/chronline/internal/timeline"
)

// Loader fetches the aggregate to export. Implemented by
// timeline.Service.
type Loader interface {
	Load(ctx context.Context, timelineID string) (*models.Timeline, error)
}

// Document is the exported shape. Lines appear in position order and
// events in their stored order, so content layout never depends on map
// iteration or load order. ExportedAt is stamped per export.
type Document struct {
	TimelineID string `json:"timeline_id"`
	ExportedAt string `json:"exported_at"`
	LineCount  int    `json:"line_count"`
	EventCount int    `json:"event_count"`
	Lines      []Line `json:"lines"`
}

type Line struct {
	ID       string   `json:"id"`
	Position int      `json:"position"`
	Events   []Event  `json:"events"`
	Segments []string `json:"segments,omitempty"`
}

type Event struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Description string `json:"description,omitempty"`
	Position    string `json:"position"`
	Status      string `json:"status"`
	Order       int    `json:"order"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Exporter builds Documents from stored timelines.
type Exporter struct {
	loader Loader
	now    func() time.Time
}

func NewExporter(loader Loader) *Exporter {
	return &Exporter{loader: loader, now: time.Now}
}

// Export loads the timeline and renders it as JSON.
func (e *Exporter) Export(ctx context.Context, timelineID string) ([]byte, error) {
	doc, err := e.Build(ctx, timelineID)
	if err != nil {
		return nil, err
	}

	data, err := sonic.ConfigStd.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// Build assembles the document without serializing it.
func (e *Exporter) Build(ctx context.Context, timelineID string) (*Document, error) {
	tl, err := e.loader.Load(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline for export: %w", err)
	}

	now := e.now()
	doc := &Document{
		TimelineID: tl.ID,
		ExportedAt: now.UTC().Format(time.RFC3339),
		LineCount:  tl.LineCount(),
		Lines:      make([]Line, 0, tl.LineCount()),
	}

	for _, line := range tl.Lines {
		out := Line{
			ID:       line.ID,
			Position: line.Position,
			Events:   make([]Event, 0, len(line.Events)),
		}
		for _, class := range timeline.Segments(line.Events, now) {
			out.Segments = append(out.Segments, string(class))
		}
		for _, ev := range line.Events {
			out.Events = append(out.Events, exportEvent(ev, now))
		}
		doc.EventCount += len(out.Events)
		doc.Lines = append(doc.Lines, out)
	}

	return doc, nil
}

func exportEvent(ev models.Event, now time.Time) Event {
	out := Event{
		ID:          ev.ID,
		Icon:        ev.Icon,
		Date:        ev.Date,
		Time:        ev.Time,
		Description: ev.Description,
		Position:    string(ev.Position),
		Status:      string(ev.Status),
		Order:       ev.Order,
	}
	// Dates are normalized to the canonical zero-padded display form;
	// "5/3" and "05/03" must export identically.
	if parsed, unset, err := models.ParseDisplayDate(ev.Date, now); err == nil && !unset {
		out.Date = models.FormatDisplayDate(parsed)
	}
	if !ev.CreatedAt.IsZero() {
		out.CreatedAt = ev.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}
