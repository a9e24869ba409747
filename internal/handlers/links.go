package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/VelisCore/velink/internal/analytics"
	"github.com/VelisCore/velink/internal/messaging"
	"github.com/VelisCore/velink/internal/shortener"
	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// LinkHandler handles link lifecycle operations.
type LinkHandler struct {
	service        *shortener.Service
	stats          analytics.StatsProvider
	baseURL        string
	ownHost        string
	publishCreated messaging.Publish[analytics.LinkCreatedEvent]
	publishClicked messaging.Publish[analytics.LinkClickedEvent]
	publishDeleted messaging.Publish[analytics.LinkDeletedEvent]
	logger         *zap.Logger
}

// NewLinkHandler creates a link handler. baseURL is the public prefix
// short links are minted under; its host marks same-site referrers.
func NewLinkHandler(
	service *shortener.Service,
	stats analytics.StatsProvider,
	baseURL string,
	publishCreated messaging.Publish[analytics.LinkCreatedEvent],
	publishClicked messaging.Publish[analytics.LinkClickedEvent],
	publishDeleted messaging.Publish[analytics.LinkDeletedEvent],
	logger *zap.Logger,
) *LinkHandler {
	ownHost := ""
	if u, err := url.Parse(baseURL); err == nil {
		ownHost = u.Hostname()
	}

	return &LinkHandler{
		service:        service,
		stats:          stats,
		baseURL:        baseURL,
		ownHost:        ownHost,
		publishCreated: publishCreated,
		publishClicked: publishClicked,
		publishDeleted: publishDeleted,
		logger:         logger,
	}
}

func (h *LinkHandler) shortURL(code shortener.Code) string {
	return fmt.Sprintf("%s/%s", h.baseURL, code)
}

func (h *LinkHandler) linkBody(link *shortener.Link) LinkBody {
	return LinkBody{
		Code:        string(link.Code),
		ShortURL:    h.shortURL(link.Code),
		TargetURL:   link.TargetURL,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
		Active:      link.Active,
		ClickCount:  link.ClickCount,
		Description: link.Metadata.Description,
		Options:     link.Metadata.Options,
	}
}

func clampPage(limit, offset int) shortener.Page {
	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return shortener.Page{Limit: limit, Offset: offset}
}

func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	result, err := h.service.Shorten(ctx, shortener.ShortenRequest{
		TargetURL: req.Body.URL,
		ExpiresAt: req.Body.ExpiresAt,
		Metadata: shortener.Metadata{
			Description: req.Body.Description,
			Options:     req.Body.Options,
		},
	})
	if err != nil {
		if errors.Is(err, shortener.ErrInvalidURL) {
			return nil, huma.Error422UnprocessableEntity("invalid url: must be absolute http or https")
		}

		if errors.Is(err, shortener.ErrGenerationExhausted) {
			return nil, huma.Error503ServiceUnavailable("could not allocate a code, try again")
		}

		return nil, huma.Error500InternalServerError("failed to save link")
	}

	link := result.Link

	event := &analytics.LinkCreatedEvent{
		Code:         string(link.Code),
		TargetURL:    link.TargetURL,
		URLHash:      string(link.URLHash),
		CreatedAt:    link.CreatedAt,
		ExpiresAt:    link.ExpiresAt,
		Deduplicated: result.Deduplicated,
	}

	if err := h.publishCreated(event); err != nil {
		h.logger.Error("failed to publish event",
			zap.String("topic", analytics.TopicLinkCreated),
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &ShortenResponse{Status: http.StatusCreated}
	if result.Deduplicated {
		resp.Status = http.StatusOK
	}

	resp.Headers.Location = h.shortURL(link.Code)
	resp.Body.LinkBody = h.linkBody(link)
	resp.Body.Deduplicated = result.Deduplicated

	return resp, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, req *ListLinksRequest) (*ListLinksResponse, error) {
	filter := shortener.Filter{Live: req.Live, Search: req.Q}

	switch req.Active {
	case "true":
		active := true
		filter.Active = &active
	case "false":
		active := false
		filter.Active = &active
	}

	links, total, err := h.service.List(ctx, filter, clampPage(req.Limit, req.Offset))
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list links")
	}

	resp := &ListLinksResponse{}
	resp.Body.Links = make([]LinkBody, 0, len(links))
	resp.Body.Total = total

	for _, link := range links {
		resp.Body.Links = append(resp.Body.Links, h.linkBody(link))
	}

	return resp, nil
}

func (h *LinkHandler) GetLink(ctx context.Context, req *GetLinkRequest) (*LinkResponse, error) {
	link, err := h.service.Get(ctx, shortener.Code(req.Code))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		return nil, huma.Error500InternalServerError("failed to get link")
	}

	return &LinkResponse{Body: h.linkBody(link)}, nil
}

func (h *LinkHandler) UpdateLink(ctx context.Context, req *UpdateLinkRequest) (*LinkResponse, error) {
	code := shortener.Code(req.Code)

	if req.Body.Active != nil {
		if err := h.service.SetActive(ctx, code, *req.Body.Active); err != nil {
			if errors.Is(err, shortener.ErrNotFound) {
				return nil, huma.Error404NotFound("short link not found")
			}

			return nil, huma.Error500InternalServerError("failed to update link")
		}
	}

	if req.Body.Description != nil || req.Body.Options != nil {
		current, err := h.service.Get(ctx, code)
		if err != nil {
			if errors.Is(err, shortener.ErrNotFound) {
				return nil, huma.Error404NotFound("short link not found")
			}

			return nil, huma.Error500InternalServerError("failed to update link")
		}

		meta := current.Metadata
		if req.Body.Description != nil {
			meta.Description = *req.Body.Description
		}

		if req.Body.Options != nil {
			meta.Options = req.Body.Options
		}

		if _, err := h.service.UpdateMetadata(ctx, code, meta); err != nil {
			if errors.Is(err, shortener.ErrNotFound) {
				return nil, huma.Error404NotFound("short link not found")
			}

			return nil, huma.Error500InternalServerError("failed to update link")
		}
	}

	link, err := h.service.Get(ctx, code)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		return nil, huma.Error500InternalServerError("failed to get link")
	}

	return &LinkResponse{Body: h.linkBody(link)}, nil
}

func (h *LinkHandler) DeleteLink(ctx context.Context, req *DeleteLinkRequest) (*struct{}, error) {
	if err := h.service.Delete(ctx, shortener.Code(req.Code)); err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		return nil, huma.Error500InternalServerError("failed to delete link")
	}

	event := &analytics.LinkDeletedEvent{
		Code:      req.Code,
		DeletedAt: time.Now().UTC(),
	}

	if err := h.publishDeleted(event); err != nil {
		h.logger.Error("failed to publish event",
			zap.String("topic", analytics.TopicLinkDeleted),
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return &struct{}{}, nil
}

func (h *LinkHandler) LinkStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	report, err := h.stats.Link(ctx, req.Code, req.Days)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		return nil, huma.Error500InternalServerError("failed to build stats")
	}

	return &StatsResponse{Body: *report}, nil
}

func (h *LinkHandler) OverviewStats(ctx context.Context, req *OverviewRequest) (*OverviewResponse, error) {
	overview, err := h.stats.Overview(ctx, req.Top)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to build stats")
	}

	return &OverviewResponse{Body: *overview}, nil
}
