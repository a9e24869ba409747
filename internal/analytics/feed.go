package analytics

import (
	"context"
	"sync"
	"time"
)

// DefaultFeedCapacity bounds the in-memory activity feed.
const DefaultFeedCapacity = 256

// FeedEntry is one item of the recent-activity feed.
type FeedEntry struct {
	Kind       string    `json:"kind"` // created, clicked or deleted
	Code       string    `json:"code"`
	OccurredAt time.Time `json:"occurredAt"`
	Detail     string    `json:"detail,omitempty"`
}

// Feed keeps the most recent activity in a fixed-capacity ring. It is
// fed by event consumers and read by the activity endpoint; no state
// leaks outside the struct and nothing is ever persisted.
type Feed struct {
	mu      sync.RWMutex
	entries []FeedEntry
	next    int
	filled  int
}

// NewFeed creates a feed holding up to capacity entries. Non-positive
// capacities fall back to the default.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}

	return &Feed{entries: make([]FeedEntry, capacity)}
}

// Record appends an entry, evicting the oldest once the ring is full.
func (f *Feed) Record(entry FeedEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[f.next] = entry
	f.next = (f.next + 1) % len(f.entries)

	if f.filled < len(f.entries) {
		f.filled++
	}
}

// Recent returns up to limit entries, newest first. A non-positive
// limit returns everything buffered.
func (f *Feed) Recent(limit int) []FeedEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if limit <= 0 || limit > f.filled {
		limit = f.filled
	}

	out := make([]FeedEntry, 0, limit)

	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.entries)) % len(f.entries)
		out = append(out, f.entries[idx])
	}

	return out
}

// HandleCreated, HandleClicked and HandleDeleted are the consumer
// handlers feeding the ring. They never fail: a full ring just evicts.

func (f *Feed) HandleCreated(_ context.Context, event *LinkCreatedEvent) error {
	f.Record(FeedEntry{
		Kind:       "created",
		Code:       event.Code,
		OccurredAt: event.CreatedAt,
		Detail:     event.TargetURL,
	})

	return nil
}

func (f *Feed) HandleClicked(_ context.Context, event *LinkClickedEvent) error {
	f.Record(FeedEntry{
		Kind:       "clicked",
		Code:       event.Code,
		OccurredAt: event.OccurredAt,
		Detail:     event.ReferrerClass,
	})

	return nil
}

func (f *Feed) HandleDeleted(_ context.Context, event *LinkDeletedEvent) error {
	f.Record(FeedEntry{
		Kind:       "deleted",
		Code:       event.Code,
		OccurredAt: event.DeletedAt,
	})

	return nil
}
