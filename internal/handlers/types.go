package handlers

import (
	"time"

	"github.com/VelisCore/velink/internal/analytics"
)

// LinkBody is the JSON view of a link shared across responses.
type LinkBody struct {
	Code        string            `doc:"The short code"                      example:"Ab3xYz"                             json:"code"`
	ShortURL    string            `doc:"The full short link"                 example:"http://localhost:8888/Ab3xYz"       json:"shortUrl"`
	TargetURL   string            `doc:"The destination URL"                 example:"https://example.com/very/long/path" json:"targetUrl"`
	CreatedAt   time.Time         `doc:"Creation time"                       json:"createdAt"`
	ExpiresAt   *time.Time        `doc:"Expiry time, absent for permanent"   json:"expiresAt,omitempty"`
	Active      bool              `doc:"Whether the link redirects"          json:"active"`
	ClickCount  int64             `doc:"Total recorded clicks"               json:"clickCount"`
	Description string            `doc:"Free-form description"               json:"description,omitempty"`
	Options     map[string]string `doc:"Free-form key-value options"         json:"options,omitempty"`
}

// ClickBody is the JSON view of a stored click event.
type ClickBody struct {
	ID            string    `doc:"Event id"                        json:"id"`
	OccurredAt    time.Time `doc:"Click time"                      json:"occurredAt"`
	ReferrerClass string    `doc:"Coarse referrer class"           json:"referrerClass"`
	Device        string    `doc:"Coarse device class"             json:"device"`
	Browser       string    `doc:"Browser family"                  json:"browser"`
}

// ShortenRequest is the request body for shortening a URL.
type ShortenRequest struct {
	Body struct {
		URL         string            `doc:"The URL to shorten"                example:"https://example.com/very/long/path" json:"url"`
		ExpiresAt   *time.Time        `doc:"Optional expiry time"              json:"expiresAt,omitempty"`
		Description string            `doc:"Free-form description"             json:"description,omitempty"`
		Options     map[string]string `doc:"Free-form key-value options"       json:"options,omitempty"`
	}
}

// ShortenResponse is the response for a shorten request. Status is 201
// for a fresh link and 200 when an equivalent one was reused.
type ShortenResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The short link location" header:"Location"`
	}
	Body struct {
		LinkBody
		Deduplicated bool `doc:"Whether an existing link was reused" json:"deduplicated"`
	}
}

// RedirectRequest is the request for following a short link.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"Ab3xYz" path:"code"`
}

// RedirectResponse carries the redirect target. No body; the click was
// already counted by the time this goes out.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location     string `doc:"The destination URL" header:"Location"`
		CacheControl string `doc:"Caching policy"      header:"Cache-Control"`
	}
}

// ListLinksRequest is the admin list query.
type ListLinksRequest struct {
	Active string `doc:"Filter by active flag"                        enum:"true,false" query:"active"`
	Live   bool   `doc:"Only links that currently redirect"           query:"live"`
	Q      string `doc:"Substring match on target URL or description" query:"q"`
	Limit  int    `default:"50" doc:"Page size"                       maximum:"500" minimum:"1" query:"limit"`
	Offset int    `doc:"Page offset"                                  minimum:"0" query:"offset"`
}

// ListLinksResponse is the admin list result.
type ListLinksResponse struct {
	Body struct {
		Links []LinkBody `doc:"One page of links"                json:"links"`
		Total int64      `doc:"Total links matching the filter"  json:"total"`
	}
}

// GetLinkRequest addresses a single link.
type GetLinkRequest struct {
	Code string `doc:"The short code" example:"Ab3xYz" path:"code"`
}

// LinkResponse is the single-link view.
type LinkResponse struct {
	Body LinkBody
}

// UpdateLinkRequest is the partial-update request. Absent fields keep
// their current value; a non-nil Options replaces the stored map.
type UpdateLinkRequest struct {
	Code string `doc:"The short code" example:"Ab3xYz" path:"code"`
	Body struct {
		Active      *bool             `doc:"Enable or disable the link"  json:"active,omitempty"`
		Description *string           `doc:"New description"             json:"description,omitempty"`
		Options     map[string]string `doc:"New key-value options"       json:"options,omitempty"`
	}
}

// DeleteLinkRequest addresses the link to erase.
type DeleteLinkRequest struct {
	Code string `doc:"The short code" example:"Ab3xYz" path:"code"`
}

// StatsRequest is the per-link stats query.
type StatsRequest struct {
	Code string `doc:"The short code"                       example:"Ab3xYz" path:"code"`
	Days int    `default:"30" doc:"Days of daily series"    maximum:"365" minimum:"1" query:"days"`
}

// StatsResponse is the per-link stats report.
type StatsResponse struct {
	Body analytics.LinkStats
}

// OverviewRequest is the service-wide stats query.
type OverviewRequest struct {
	Top int `default:"10" doc:"Leaderboard size" maximum:"100" minimum:"1" query:"top"`
}

// OverviewResponse is the service-wide stats report.
type OverviewResponse struct {
	Body analytics.Overview
}

// ExportRequest addresses the link to export.
type ExportRequest struct {
	Code string `doc:"The short code" example:"Ab3xYz" path:"code"`
}

// ExportResponse is the data-subject export: the link plus every stored
// click event.
type ExportResponse struct {
	Body struct {
		Link   LinkBody    `doc:"The link"              json:"link"`
		Clicks []ClickBody `doc:"All stored clicks"     json:"clicks"`
	}
}

// ActivityRequest is the recent-activity query.
type ActivityRequest struct {
	Limit int `default:"50" doc:"Maximum entries" maximum:"256" minimum:"1" query:"limit"`
}

// ActivityResponse is the recent-activity feed, newest first.
type ActivityResponse struct {
	Body struct {
		Entries []analytics.FeedEntry `doc:"Recent activity, newest first" json:"entries"`
	}
}
