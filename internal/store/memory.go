package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/VelisCore/velink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository and
// shortener.Sweeper. One mutex guards every operation, so RecordClick
// keeps the same counter/event atomicity the Postgres transaction gives.
// Meant for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	links  map[shortener.Code]*shortener.Link
	clicks map[shortener.Code][]*shortener.ClickEvent
}

// NewMemoryStore creates an empty in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:  make(map[shortener.Code]*shortener.Link),
		clicks: make(map[shortener.Code][]*shortener.ClickEvent),
	}
}

var (
	_ shortener.Repository = (*MemoryStore)(nil)
	_ shortener.Sweeper    = (*MemoryStore)(nil)
)

func (m *MemoryStore) Insert(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Code]; ok {
		return shortener.ErrDuplicateCode
	}

	m.links[link.Code] = cloneLink(link)

	return nil
}

func (m *MemoryStore) ExistsByCode(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.links[code]

	return ok, nil
}

func (m *MemoryStore) FindByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return cloneLink(link), nil
}

func (m *MemoryStore) FindByURLHash(_ context.Context, hash shortener.URLHash) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var newest *shortener.Link

	for _, link := range m.links {
		if link.URLHash != hash {
			continue
		}

		if newest == nil || link.CreatedAt.After(newest.CreatedAt) {
			newest = link
		}
	}

	if newest == nil {
		return nil, shortener.ErrNotFound
	}

	return cloneLink(newest), nil
}

func (m *MemoryStore) List(_ context.Context, filter shortener.Filter, page shortener.Page) ([]*shortener.Link, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()

	var matches []*shortener.Link

	for _, link := range m.links {
		if filter.Active != nil && link.Active != *filter.Active {
			continue
		}

		if filter.Live && (!link.Active || link.Expired(now)) {
			continue
		}

		if filter.Search != "" && !matchesSearch(link, filter.Search) {
			continue
		}

		matches = append(matches, cloneLink(link))
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].Code < matches[j].Code
		}

		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := int64(len(matches))

	if page.Offset >= len(matches) {
		return nil, total, nil
	}

	matches = matches[page.Offset:]
	if page.Limit > 0 && page.Limit < len(matches) {
		matches = matches[:page.Limit]
	}

	return matches, total, nil
}

func (m *MemoryStore) Delete(_ context.Context, code shortener.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[code]; !ok {
		return shortener.ErrNotFound
	}

	delete(m.links, code)
	delete(m.clicks, code)

	return nil
}

func (m *MemoryStore) SetActive(_ context.Context, code shortener.Code, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return shortener.ErrNotFound
	}

	link.Active = active

	return nil
}

func (m *MemoryStore) UpdateMetadata(_ context.Context, code shortener.Code, meta shortener.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return shortener.ErrNotFound
	}

	link.Metadata = cloneMetadata(meta)

	return nil
}

func (m *MemoryStore) RecordClick(_ context.Context, code shortener.Code, event *shortener.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return shortener.ErrNotFound
	}

	link.ClickCount++

	cp := *event
	m.clicks[code] = append(m.clicks[code], &cp)

	return nil
}

func (m *MemoryStore) Clicks(_ context.Context, code shortener.Code, page shortener.Page) ([]*shortener.ClickEvent, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*shortener.ClickEvent, 0, len(m.clicks[code]))

	for _, e := range m.clicks[code] {
		cp := *e
		events = append(events, &cp)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.After(events[j].OccurredAt)
	})

	total := int64(len(events))

	if page.Offset >= len(events) {
		return nil, total, nil
	}

	events = events[page.Offset:]
	if page.Limit > 0 && page.Limit < len(events) {
		events = events[:page.Limit]
	}

	return events, total, nil
}

func (m *MemoryStore) PruneClicks(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned int64

	for code, events := range m.clicks {
		kept := events[:0]

		for _, e := range events {
			if e.OccurredAt.Before(before) {
				pruned++
				continue
			}

			kept = append(kept, e)
		}

		if len(kept) == 0 {
			delete(m.clicks, code)
			continue
		}

		m.clicks[code] = kept
	}

	return pruned, nil
}

func (m *MemoryStore) SweepStaleLinks(_ context.Context, createdBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var swept int64

	for code, link := range m.links {
		if link.ClickCount == 0 && link.CreatedAt.Before(createdBefore) {
			delete(m.links, code)
			delete(m.clicks, code)
			swept++
		}
	}

	return swept, nil
}

func matchesSearch(link *shortener.Link, search string) bool {
	needle := strings.ToLower(search)

	return strings.Contains(strings.ToLower(link.TargetURL), needle) ||
		strings.Contains(strings.ToLower(link.Metadata.Description), needle)
}

func cloneLink(link *shortener.Link) *shortener.Link {
	cp := *link

	if link.ExpiresAt != nil {
		at := *link.ExpiresAt
		cp.ExpiresAt = &at
	}

	cp.Metadata = cloneMetadata(link.Metadata)

	return &cp
}

func cloneMetadata(meta shortener.Metadata) shortener.Metadata {
	cp := meta

	if meta.Options != nil {
		cp.Options = make(map[string]string, len(meta.Options))
		for k, v := range meta.Options {
			cp.Options[k] = v
		}
	}

	return cp
}
