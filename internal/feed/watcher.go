package feed

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tracevall/chronline/internal/logging"
	"github.com/tracevall/chronline/internal/models"
)

// FileWatcher observes the SQLite database file and publishes coarse
// change notifications when a peer process writes to it. Notifications
// from the watcher carry no origin and no timeline scope: the local
// process cannot tell which peer wrote what, only that the store moved.
//
// Writes by the local process also touch the file; the resulting
// notifications land inside the writer's suppression window and are
// dropped there, so the watcher does not need to tell the two apart.
type FileWatcher struct {
	dbPath    string
	publisher Publisher
	quiet     time.Duration
	watcher   *fsnotify.Watcher
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewFileWatcher creates a watcher for the given database path. quiet
// is the minimum interval between published notifications; bursts of
// filesystem events inside it collapse into one.
func NewFileWatcher(dbPath string, publisher Publisher, quiet time.Duration) *FileWatcher {
	if quiet <= 0 {
		quiet = 100 * time.Millisecond
	}
	return &FileWatcher{
		dbPath:    dbPath,
		publisher: publisher,
		quiet:     quiet,
	}
}

// Start begins watching. It fails if the watcher is already running or
// the filesystem watch cannot be established.
func (w *FileWatcher) Start(ctx context.Context) error {
	if w.done != nil {
		return fmt.Errorf("file watcher already started")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory, not the file: SQLite creates and removes
	// -wal/-shm siblings, and some platforms drop file-level watches
	// across those renames.
	if err := watcher.Add(filepath.Dir(w.dbPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch database directory: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.watcher = watcher
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx)
	return nil
}

// Stop tears the watcher down and waits for its goroutine to exit.
func (w *FileWatcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	w.done = nil
}

func (w *FileWatcher) run(ctx context.Context) {
	logger := logging.Component("feed.watcher")
	defer close(w.done)
	defer w.watcher.Close()

	var lastPublish time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isDatabaseFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			now := time.Now()
			if now.Sub(lastPublish) < w.quiet {
				continue
			}
			lastPublish = now

			logger.Debug().Str("file", event.Name).Msg("store file changed")
			w.publisher.Publish(models.Change{
				Table:      models.TableEvents,
				ObservedAt: now,
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// isDatabaseFile matches the database file itself and its -wal sibling.
func (w *FileWatcher) isDatabaseFile(name string) bool {
	base := filepath.Base(w.dbPath)
	got := filepath.Base(name)
	return got == base || got == base+"-wal"
}
