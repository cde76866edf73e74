// Package sync keeps an in-memory timeline aggregate converged with the
// store while other writers mutate it. It debounces change
// notifications into reloads and suppresses the echo of its own writes.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tracevall/chronline/internal/feed"
	"github.com/tracevall/chronline/internal/logging"
	"github.com/tracevall/chronline/internal/models"
)

// State is the controller's reaction mode to incoming notifications.
type State string

const (
	// StateIdle means no local write is pending and no reload is scheduled.
	StateIdle State = "idle"
	// StateLocalWriteInFlight means a local write started and its echo,
	// plus anything arriving inside the suppression window, is dropped.
	StateLocalWriteInFlight State = "local_write_in_flight"
	// StateReloadPending means a foreign change arrived and a reload
	// fires once the debounce interval passes without further changes.
	StateReloadPending State = "reload_pending"
)

// Defaults for the two timing windows. Both exist to coalesce bursts:
// a store write lands as several notifications (local feed, WAL file
// touch, checkpoint), and a peer edit session produces many in a row.
const (
	DefaultSuppressionWindow = 300 * time.Millisecond
	DefaultDebounceInterval  = 500 * time.Millisecond
)

// ReloadFunc re-fetches the authoritative aggregate. It must be safe to
// call from the controller's timer goroutine.
type ReloadFunc func(ctx context.Context) error

// Config carries the controller's identity and timing windows.
type Config struct {
	// TimelineID scopes the subscription; changes for other timelines
	// never reach the controller. Unscoped changes always do.
	TimelineID string
	// Origin is this process's writer id. Changes carrying it are
	// echoes of our own writes and are dropped outright.
	Origin string

	SuppressionWindow time.Duration
	DebounceInterval  time.Duration
}

func (c *Config) applyDefaults() {
	if c.SuppressionWindow <= 0 {
		c.SuppressionWindow = DefaultSuppressionWindow
	}
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = DefaultDebounceInterval
	}
}

// Controller turns change notifications into at most one reload per
// quiet period. Reloads never run concurrently; a notification that
// arrives while one is running schedules the next instead of stacking.
type Controller struct {
	cfg       Config
	publisher feed.Publisher
	reload    ReloadFunc
	logger    zerolog.Logger

	mu            stdsync.Mutex
	state         State
	suppressUntil time.Time
	timer         *time.Timer
	subID         string
	closed        bool
	now           func() time.Time

	reloadMu stdsync.Mutex
}

// NewController subscribes to the publisher and starts reacting to
// changes immediately.
func NewController(publisher feed.Publisher, reload ReloadFunc, cfg Config) (*Controller, error) {
	if reload == nil {
		return nil, fmt.Errorf("reload func is required")
	}
	cfg.applyDefaults()

	c := &Controller{
		cfg:       cfg,
		publisher: publisher,
		reload:    reload,
		logger:    logging.Component("sync").With().Str("timeline_id", cfg.TimelineID).Logger(),
		state:     StateIdle,
		now:       time.Now,
	}

	if err := c.subscribe(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) subscribe() error {
	c.subID = fmt.Sprintf("sync-%s-%d", c.cfg.TimelineID, c.now().UnixNano())
	filter := feed.Filter{TimelineID: c.cfg.TimelineID}
	if err := c.publisher.Subscribe(c.subID, filter, c.handleChange); err != nil {
		return fmt.Errorf("failed to subscribe to change feed: %w", err)
	}
	return nil
}

// State reports the current reaction mode.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeginLocalWrite must be called before a local store write. It opens
// the suppression window so the write's own notifications are not
// mistaken for a peer change. Any reload already pending is cancelled;
// the local write will leave memory and store consistent anyway.
func (c *Controller) BeginLocalWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimerLocked()
	c.state = StateLocalWriteInFlight
	c.suppressUntil = c.now().Add(c.cfg.SuppressionWindow)
}

// EndLocalWrite must be called after the write returns, failed or not.
// The suppression window restarts from completion time because the
// store's notifications trail the write.
func (c *Controller) EndLocalWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.suppressUntil = c.now().Add(c.cfg.SuppressionWindow)
	c.state = StateIdle
}

// WriteFailed reports that a local write failed after BeginLocalWrite.
// A failed write reaches the store no further than its rollback, so
// there is no echo to suppress: the window is cleared outright and the
// next peer notification debounces normally. The optimistic in-memory
// state is suspect, so a reload runs immediately instead of waiting
// for a notification.
func (c *Controller) WriteFailed(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.suppressUntil = time.Time{}
	c.state = StateIdle
	c.mu.Unlock()

	return c.ReloadNow(ctx)
}

// ReloadNow bypasses the debounce and reloads synchronously. Serialized
// with timer-driven reloads.
func (c *Controller) ReloadNow(ctx context.Context) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()
	if err := c.reload(ctx); err != nil {
		return fmt.Errorf("failed to reload timeline: %w", err)
	}
	return nil
}

// handleChange is invoked by the publisher for every matching change.
func (c *Controller) handleChange(change models.Change) {
	if change.Origin != "" && change.Origin == c.cfg.Origin {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if c.now().Before(c.suppressUntil) {
		c.logger.Debug().
			Str("table", string(change.Table)).
			Msg("change dropped inside suppression window")
		return
	}

	// Every further change restarts the debounce, so a burst of writes
	// costs one reload after the burst goes quiet.
	c.state = StateReloadPending
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.cfg.DebounceInterval, c.debounceExpired)
}

func (c *Controller) debounceExpired() {
	c.mu.Lock()
	if c.closed || c.state != StateReloadPending {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.timer = nil
	c.mu.Unlock()

	if err := c.ReloadNow(context.Background()); err != nil {
		c.logger.Error().Err(err).Msg("debounced reload failed")
	}
}

// Resubscribe tears down and re-creates the feed subscription. Used
// after the publisher's upstream source restarts.
func (c *Controller) Resubscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("controller is closed")
	}
	if err := c.publisher.Unsubscribe(c.subID); err != nil {
		return fmt.Errorf("failed to drop old subscription: %w", err)
	}
	return c.subscribe()
}

// Close unsubscribes and cancels any pending reload. A reload already
// running is allowed to finish.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateIdle
	c.stopTimerLocked()
	subID := c.subID
	c.mu.Unlock()

	if err := c.publisher.Unsubscribe(subID); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
