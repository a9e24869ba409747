package shortener_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/VelisCore/velink/internal/shortener"
)

var errMock = errors.New("mock error")

// fakeRepo is a map-backed Repository for exercising the resolver and
// service against the storage contract. Error fields force fault paths;
// forceExists blinds the existence pre-check so insert races can be
// simulated.
type fakeRepo struct {
	mu     sync.Mutex
	links  map[shortener.Code]*shortener.Link
	clicks map[shortener.Code][]*shortener.ClickEvent

	insertErr   error
	existsErr   error
	findErr     error
	clickErr    error
	forceExists *bool

	existsCalls int
	insertCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		links:  make(map[shortener.Code]*shortener.Link),
		clicks: make(map[shortener.Code][]*shortener.ClickEvent),
	}
}

var _ shortener.Repository = (*fakeRepo)(nil)

func (f *fakeRepo) Insert(_ context.Context, link *shortener.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++

	if f.insertErr != nil {
		return f.insertErr
	}

	if _, ok := f.links[link.Code]; ok {
		return shortener.ErrDuplicateCode
	}

	cp := *link
	f.links[link.Code] = &cp

	return nil
}

func (f *fakeRepo) ExistsByCode(_ context.Context, code shortener.Code) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.existsCalls++

	if f.existsErr != nil {
		return false, f.existsErr
	}

	if f.forceExists != nil {
		return *f.forceExists, nil
	}

	_, ok := f.links[code]

	return ok, nil
}

func (f *fakeRepo) FindByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}

	link, ok := f.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	cp := *link

	return &cp, nil
}

func (f *fakeRepo) FindByURLHash(_ context.Context, hash shortener.URLHash) (*shortener.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}

	var newest *shortener.Link

	for _, link := range f.links {
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

	cp := *newest

	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, filter shortener.Filter, page shortener.Page) ([]*shortener.Link, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()

	var matches []*shortener.Link

	for _, link := range f.links {
		if filter.Active != nil && link.Active != *filter.Active {
			continue
		}
		if filter.Live && (!link.Active || link.Expired(now)) {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(link.TargetURL, filter.Search) &&
			!strings.Contains(link.Metadata.Description, filter.Search) {
			continue
		}

		cp := *link
		matches = append(matches, &cp)
	}

	sort.Slice(matches, func(i, j int) bool {
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

func (f *fakeRepo) Delete(_ context.Context, code shortener.Code) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.links[code]; !ok {
		return shortener.ErrNotFound
	}

	delete(f.links, code)
	delete(f.clicks, code)

	return nil
}

func (f *fakeRepo) SetActive(_ context.Context, code shortener.Code, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	link, ok := f.links[code]
	if !ok {
		return shortener.ErrNotFound
	}

	link.Active = active

	return nil
}

func (f *fakeRepo) UpdateMetadata(_ context.Context, code shortener.Code, meta shortener.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	link, ok := f.links[code]
	if !ok {
		return shortener.ErrNotFound
	}

	link.Metadata = meta

	return nil
}

func (f *fakeRepo) RecordClick(_ context.Context, code shortener.Code, event *shortener.ClickEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.clickErr != nil {
		return f.clickErr
	}

	link, ok := f.links[code]
	if !ok {
		return shortener.ErrNotFound
	}

	link.ClickCount++

	cp := *event
	f.clicks[code] = append(f.clicks[code], &cp)

	return nil
}

func (f *fakeRepo) Clicks(_ context.Context, code shortener.Code, page shortener.Page) ([]*shortener.ClickEvent, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make([]*shortener.ClickEvent, len(f.clicks[code]))
	for i, e := range f.clicks[code] {
		cp := *e
		events[i] = &cp
	}

	sort.Slice(events, func(i, j int) bool {
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
