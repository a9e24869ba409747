package shortener

import (
	"context"
	"time"
)

// Filter narrows admin listings.
type Filter struct {
	Active *bool  // nil matches both
	Live   bool   // only active, unexpired links
	Search string // substring match on target URL or description
}

// Page bounds listings.
type Page struct {
	Limit  int
	Offset int
}

// Repository is the persistence contract for links and their click
// events. Implementations enforce code uniqueness; everything above this
// interface treats that constraint as the single authority.
type Repository interface {
	// Insert stores a new link. Returns ErrDuplicateCode when the code is
	// already taken.
	Insert(ctx context.Context, link *Link) error

	// ExistsByCode reports whether a link with the code is stored.
	ExistsByCode(ctx context.Context, code Code) (bool, error)

	// FindByCode returns the link for code, expired links included.
	// Returns ErrNotFound when no such link exists.
	FindByCode(ctx context.Context, code Code) (*Link, error)

	// FindByURLHash returns the most recently created link whose target
	// hashes to hash. Returns ErrNotFound when none match.
	FindByURLHash(ctx context.Context, hash URLHash) (*Link, error)

	// List returns links matching filter, newest first, plus the total
	// match count ignoring pagination.
	List(ctx context.Context, filter Filter, page Page) ([]*Link, int64, error)

	// Delete removes a link and, by cascade, its click events. Returns
	// ErrNotFound when the code is unknown.
	Delete(ctx context.Context, code Code) error

	// SetActive toggles a link. Returns ErrNotFound when the code is
	// unknown.
	SetActive(ctx context.Context, code Code, active bool) error

	// UpdateMetadata replaces a link's metadata. Code, target URL and
	// creation time are not updatable through any path.
	UpdateMetadata(ctx context.Context, code Code, meta Metadata) error

	// RecordClick increments the link's click count and stores the event
	// in a single transaction. Both happen or neither does. Returns
	// ErrNotFound when the code is unknown.
	RecordClick(ctx context.Context, code Code, event *ClickEvent) error

	// Clicks lists a link's click events, newest first, plus the total
	// event count.
	Clicks(ctx context.Context, code Code, page Page) ([]*ClickEvent, int64, error)
}

// Sweeper is the retention contract used by batch tooling, never by
// request paths.
type Sweeper interface {
	// PruneClicks deletes click events that occurred before the cutoff
	// and reports how many went. Click counts stay untouched, so counters
	// survive event pruning.
	PruneClicks(ctx context.Context, before time.Time) (int64, error)

	// SweepStaleLinks deletes links created before the cutoff that never
	// received a click.
	SweepStaleLinks(ctx context.Context, createdBefore time.Time) (int64, error)
}
