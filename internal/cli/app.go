package cli

import (
	"fmt"
	"os"

	"github.com/tracevall/chronline/internal/config"
	"github.com/tracevall/chronline/internal/db"
	"github.com/tracevall/chronline/internal/feed"
	"github.com/tracevall/chronline/internal/logging"
	"github.com/tracevall/chronline/internal/models"
	"github.com/tracevall/chronline/internal/snapshot"
	"github.com/tracevall/chronline/internal/timeline"
)

// app bundles the wired components every subcommand needs. Commands
// open it, use it, and close it inside their RunE.
type app struct {
	cfg       *config.Config
	database  *db.DB
	publisher *feed.MemoryPublisher
	timelines *db.TimelineRepository
	lines     *db.LineRepository
	events    *db.EventRepository
	service   *timeline.Service
	exporter  *snapshot.Exporter
	origin    string
}

func openApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DatabasePath(), cfg.Database.BusyTimeoutMs)
	if err != nil {
		return nil, err
	}

	origin := cfg.Global.Origin
	if origin == "" {
		origin = fmt.Sprintf("cli-%d", os.Getpid())
	}

	publisher := feed.NewMemoryPublisher()
	lines := db.NewLineRepository(database, publisher, origin)
	events := db.NewEventRepository(database, publisher, origin)
	icons := models.NewIconSet(cfg.Timeline.ExtraIcons...)
	service := timeline.NewService(lines, events, icons)

	return &app{
		cfg:       cfg,
		database:  database,
		publisher: publisher,
		timelines: db.NewTimelineRepository(database),
		lines:     lines,
		events:    events,
		service:   service,
		exporter:  snapshot.NewExporter(service),
		origin:    origin,
	}, nil
}

func (a *app) Close() {
	a.publisher.Close()
	_ = a.database.Close()
}

// resolveTimelineID prefers the --timeline flag, then the saved
// context. Commands that mutate need a definite target.
func resolveTimelineID() (string, error) {
	if flagTimeline != "" {
		return flagTimeline, nil
	}

	ctx, err := config.NewContextStore("").Load()
	if err != nil {
		return "", err
	}
	if ctx.IsEmpty() {
		return "", fmt.Errorf("no timeline selected: pass --timeline or run 'chronline use <id>'")
	}
	return ctx.TimelineID, nil
}
