package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/VelisCore/velink/internal/analytics"
	"github.com/VelisCore/velink/internal/shortener"
	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

type requestMetaKey struct{}

// RequestMeta holds the request headers the redirect path classifies.
// Raw values stay in the context; only coarse classes are stored.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// Redirect follows a short link. The click is counted before the
// response goes out, so the counter never lags the redirect. Disabled
// links answer like unknown ones; expired links answer 410. Neither
// counts a click, so frozen links keep frozen counters.
func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	code := shortener.Code(req.Code)

	res, err := h.service.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		return nil, huma.Error500InternalServerError("failed to resolve link")
	}

	if !res.Active {
		return nil, huma.Error404NotFound("short link not found")
	}

	if res.Expired {
		return nil, huma.Error410Gone("short link expired")
	}

	meta := RequestMetaFromContext(ctx)
	click := analytics.ClassifyRequest(meta.Referrer, meta.UserAgent, h.ownHost)

	event, err := h.service.RecordClick(ctx, code, click)
	if err != nil {
		// The link can vanish between resolve and count.
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		return nil, huma.Error500InternalServerError("failed to record click")
	}

	e := &analytics.LinkClickedEvent{
		EventID:       event.ID,
		Code:          string(event.Code),
		OccurredAt:    event.OccurredAt,
		ReferrerClass: event.ReferrerClass,
		Device:        event.Device,
		Browser:       event.Browser,
	}

	if err := h.publishClicked(e); err != nil {
		h.logger.Error("failed to publish event",
			zap.String("topic", analytics.TopicLinkClicked),
			zap.String("code", e.Code),
			zap.Error(err),
		)
	}

	h.logger.Debug("redirect served",
		zap.String("code", req.Code),
		zap.String("clientIp", meta.ClientIP),
		zap.String("referrerClass", click.ReferrerClass),
	)

	resp := &RedirectResponse{Status: http.StatusFound}
	resp.Headers.Location = res.TargetURL
	resp.Headers.CacheControl = "no-store"

	return resp, nil
}
