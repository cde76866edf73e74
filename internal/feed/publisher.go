// Package feed provides change-notification publishing and subscription
// for the timeline store.
package feed

import (
	"sync"

	"github.com/tracevall/chronline/internal/models"
)

// Handler is a callback invoked when a change matches a subscription.
// Handlers run on the publisher's goroutine and must not block.
type Handler func(change models.Change)

// Filter defines criteria for matching changes.
type Filter struct {
	// Tables filters by mutated table (nil = all tables).
	Tables []models.ChangeTable

	// TimelineID filters to one client timeline (empty = all). Changes
	// whose timeline scope is unknown always match.
	TimelineID string
}

// Matches returns true if the change matches the filter criteria.
func (f *Filter) Matches(change models.Change) bool {
	if len(f.Tables) > 0 {
		matched := false
		for _, table := range f.Tables {
			if change.Table == table {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.TimelineID != "" && change.TimelineID != "" && change.TimelineID != f.TimelineID {
		return false
	}

	return true
}

// subscription represents an active change subscription.
type subscription struct {
	id      string
	filter  Filter
	handler Handler
}

// Publisher defines the interface for change publishing and subscription.
type Publisher interface {
	// Publish sends a change to all matching subscribers.
	Publish(change models.Change)

	// Subscribe registers a handler for changes matching the filter.
	Subscribe(id string, filter Filter, handler Handler) error

	// Unsubscribe removes a subscription by ID.
	Unsubscribe(id string) error

	// SubscriberCount returns the number of active subscribers.
	SubscriberCount() int
}

// MemoryPublisher implements Publisher using in-process pub/sub.
type MemoryPublisher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewMemoryPublisher creates a new in-memory change publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		subscriptions: make(map[string]*subscription),
	}
}

// Publish sends a change to all matching subscribers.
func (p *MemoryPublisher) Publish(change models.Change) {
	p.mu.RLock()
	var handlers []Handler
	for _, sub := range p.subscriptions {
		if sub.filter.Matches(change) {
			handlers = append(handlers, sub.handler)
		}
	}
	p.mu.RUnlock()

	// Invoke handlers outside the lock to avoid deadlocks.
	for _, handler := range handlers {
		handler(change)
	}
}

// Subscribe registers a handler for changes matching the filter.
func (p *MemoryPublisher) Subscribe(id string, filter Filter, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}

	p.subscriptions[id] = &subscription{
		id:      id,
		filter:  filter,
		handler: handler,
	}
	return nil
}

// Unsubscribe removes a subscription by ID.
func (p *MemoryPublisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(p.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (p *MemoryPublisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions)
}

// Close removes all subscriptions.
func (p *MemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions = make(map[string]*subscription)
}

// Errors for publisher operations.
var (
	ErrInvalidSubscriptionID = &PublisherError{Message: "subscription ID is required"}
	ErrNilHandler            = &PublisherError{Message: "handler cannot be nil"}
	ErrSubscriptionExists    = &PublisherError{Message: "subscription with this ID already exists"}
	ErrSubscriptionNotFound  = &PublisherError{Message: "subscription not found"}
)

// PublisherError represents an error from publisher operations.
type PublisherError struct {
	Message string
}

func (e *PublisherError) Error() string {
	return e.Message
}
