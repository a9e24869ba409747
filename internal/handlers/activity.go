package handlers

import (
	"context"

	"github.com/VelisCore/velink/internal/analytics"
)

// ActivityHandler serves the recent-activity feed.
type ActivityHandler struct {
	feed *analytics.Feed
}

// NewActivityHandler creates an activity handler over the shared feed.
func NewActivityHandler(feed *analytics.Feed) *ActivityHandler {
	return &ActivityHandler{feed: feed}
}

func (h *ActivityHandler) Recent(_ context.Context, req *ActivityRequest) (*ActivityResponse, error) {
	resp := &ActivityResponse{}
	resp.Body.Entries = h.feed.Recent(req.Limit)

	return resp, nil
}
