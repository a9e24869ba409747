package shortener

import "time"

// Code is a short link code drawn from Alphabet.
type Code string

// URLHash is the hex SHA-256 digest of a normalized target URL, used for
// dedup lookups.
type URLHash string

// Metadata carries admin-editable descriptive fields. It never affects
// redirect behavior.
type Metadata struct {
	Description string            `json:"description,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

// Link is a stored short link. Code and TargetURL are immutable after
// creation; ClickCount is mutated only through Repository.RecordClick.
type Link struct {
	Code       Code
	TargetURL  string
	URLHash    URLHash
	CreatedAt  time.Time
	ExpiresAt  *time.Time // nil = never expires
	Active     bool
	ClickCount int64
	Metadata   Metadata
}

// Expired reports whether the link's expiry has passed at now. Expiry
// soft-disables a link; it is never deleted for being expired.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// SamePolicy reports whether two expiry policies are equal, treating nil
// as "never expires".
func SamePolicy(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}

// ClickEvent is one recorded click. Events are append-only and leave the
// store only via cascade on link deletion or retention pruning.
type ClickEvent struct {
	ID            string
	Code          Code
	OccurredAt    time.Time
	ReferrerClass string
	Device        string
	Browser       string
}

// ClickContext is the classified request context recorded with a click.
// Classification happens at the edge; nothing here identifies a visitor.
type ClickContext struct {
	ReferrerClass string
	Device        string
	Browser       string
}
