package analytics

import "time"

// Topics for link lifecycle events. State changes publish after they
// commit; subscribers are collaborators and never gate the request.
const (
	TopicLinkCreated = "link.created"
	TopicLinkClicked = "link.clicked"
	TopicLinkDeleted = "link.deleted"
)

// LinkCreatedEvent is emitted when a shorten request stored a link, or
// returned an existing one (Deduplicated set).
type LinkCreatedEvent struct {
	Code         string     `json:"code"`
	TargetURL    string     `json:"targetUrl"`
	URLHash      string     `json:"urlHash"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	Deduplicated bool       `json:"deduplicated"`
}

// LinkClickedEvent is emitted after a click transaction committed. It
// mirrors the stored click event; nothing here identifies the visitor.
type LinkClickedEvent struct {
	EventID       string    `json:"eventId"`
	Code          string    `json:"code"`
	OccurredAt    time.Time `json:"occurredAt"`
	ReferrerClass string    `json:"referrerClass"`
	Device        string    `json:"device"`
	Browser       string    `json:"browser"`
}

// LinkDeletedEvent is emitted after a link and its click history were
// removed.
type LinkDeletedEvent struct {
	Code      string    `json:"code"`
	DeletedAt time.Time `json:"deletedAt"`
}
