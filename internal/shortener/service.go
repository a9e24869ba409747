package shortener

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ShortenRequest carries everything needed to mint a link.
type ShortenRequest struct {
	TargetURL string
	ExpiresAt *time.Time
	Metadata  Metadata
}

// ShortenResult is the outcome of Shorten. Deduplicated is set when an
// existing link was returned instead of minting a new code.
type ShortenResult struct {
	Link         *Link
	Deduplicated bool
}

// Resolution is the read-only view the redirect path consumes. Resolving
// never mutates the link; expiry and active gating is the caller's call.
type Resolution struct {
	Code       Code
	TargetURL  string
	Active     bool
	Expired    bool
	ClickCount int64
}

// Service owns the link lifecycle: creation with dedup, resolution, click
// accounting and the admin operations. It is storage-agnostic; event
// publication stays at the edge with the transport.
type Service struct {
	store    Repository
	resolver *Resolver
}

// NewService creates a Service on top of store, allocating codes with
// generate.
func NewService(store Repository, generate CodeGenerator) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store, generate),
	}
}

// Shorten validates and normalizes the target, reuses an existing link
// when one with the same normalized target and expiry policy exists, and
// otherwise mints a fresh code. A hash match with a different expiry
// policy always gets a new code.
func (s *Service) Shorten(ctx context.Context, req ShortenRequest) (*ShortenResult, error) {
	normalized, err := NormalizeURL(req.TargetURL)
	if err != nil {
		return nil, err
	}

	hash := HashURL(normalized)

	existing, err := s.store.FindByURLHash(ctx, hash)
	if err == nil {
		if SamePolicy(existing.ExpiresAt, req.ExpiresAt) {
			return &ShortenResult{Link: existing, Deduplicated: true}, nil
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	link := &Link{
		TargetURL: req.TargetURL,
		URLHash:   hash,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: req.ExpiresAt,
		Active:    true,
		Metadata:  req.Metadata,
	}

	if err := s.resolver.Reserve(ctx, link); err != nil {
		return nil, err
	}

	return &ShortenResult{Link: link}, nil
}

// Resolve looks up a code for redirecting. Expired and inactive links
// resolve fine; the flags tell the caller what to do with them.
func (s *Service) Resolve(ctx context.Context, code Code) (*Resolution, error) {
	link, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Code:       link.Code,
		TargetURL:  link.TargetURL,
		Active:     link.Active,
		Expired:    link.Expired(time.Now()),
		ClickCount: link.ClickCount,
	}, nil
}

// RecordClick stores one click: counter increment and event row in a
// single storage transaction. The returned event is what was stored.
func (s *Service) RecordClick(ctx context.Context, code Code, click ClickContext) (*ClickEvent, error) {
	event := &ClickEvent{
		ID:            uuid.NewString(),
		Code:          code,
		OccurredAt:    time.Now().UTC(),
		ReferrerClass: click.ReferrerClass,
		Device:        click.Device,
		Browser:       click.Browser,
	}

	if err := s.store.RecordClick(ctx, code, event); err != nil {
		return nil, err
	}

	return event, nil
}

// Get returns a single link, expired ones included.
func (s *Service) Get(ctx context.Context, code Code) (*Link, error) {
	return s.store.FindByCode(ctx, code)
}

// List returns links matching filter plus the total match count.
func (s *Service) List(ctx context.Context, filter Filter, page Page) ([]*Link, int64, error) {
	return s.store.List(ctx, filter, page)
}

// Delete removes a link and all its click events.
func (s *Service) Delete(ctx context.Context, code Code) error {
	return s.store.Delete(ctx, code)
}

// SetActive toggles a link without touching expiry or anything else.
func (s *Service) SetActive(ctx context.Context, code Code, active bool) error {
	return s.store.SetActive(ctx, code, active)
}

// UpdateMetadata replaces a link's metadata and returns the updated link.
func (s *Service) UpdateMetadata(ctx context.Context, code Code, meta Metadata) (*Link, error) {
	if err := s.store.UpdateMetadata(ctx, code, meta); err != nil {
		return nil, err
	}

	return s.store.FindByCode(ctx, code)
}

// Clicks lists a link's click events for exports. Unknown codes are
// reported as ErrNotFound rather than an empty page.
func (s *Service) Clicks(ctx context.Context, code Code, page Page) ([]*ClickEvent, int64, error) {
	exists, err := s.store.ExistsByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}

	if !exists {
		return nil, 0, ErrNotFound
	}

	return s.store.Clicks(ctx, code, page)
}
