package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/VelisCore/velink/internal/shortener"
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// exportPageSize bounds one store round-trip while collecting a full
// click history.
const exportPageSize = 500

func (h *LinkHandler) collectClicks(ctx context.Context, code shortener.Code) ([]*shortener.ClickEvent, error) {
	var all []*shortener.ClickEvent

	for offset := 0; ; offset += exportPageSize {
		events, total, err := h.service.Clicks(ctx, code, shortener.Page{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}

		all = append(all, events...)

		if int64(len(all)) >= total || len(events) == 0 {
			return all, nil
		}
	}
}

// ExportLink is the data-subject export: the link and every stored
// click event in one JSON document.
func (h *LinkHandler) ExportLink(ctx context.Context, req *ExportRequest) (*ExportResponse, error) {
	code := shortener.Code(req.Code)

	link, err := h.service.Get(ctx, code)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		return nil, huma.Error500InternalServerError("failed to export link")
	}

	events, err := h.collectClicks(ctx, code)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to export link")
	}

	resp := &ExportResponse{}
	resp.Body.Link = h.linkBody(link)
	resp.Body.Clicks = make([]ClickBody, 0, len(events))

	for _, event := range events {
		resp.Body.Clicks = append(resp.Body.Clicks, ClickBody{
			ID:            event.ID,
			OccurredAt:    event.OccurredAt,
			ReferrerClass: event.ReferrerClass,
			Device:        event.Device,
			Browser:       event.Browser,
		})
	}

	return resp, nil
}

// ClicksCSV streams the click history as CSV. Registered as a raw
// route; CSV is not a content type the API layer negotiates.
func (h *LinkHandler) ClicksCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := shortener.Code(chi.URLParam(r, "code"))

	if _, err := h.service.Get(ctx, code); err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			http.Error(w, "short link not found", http.StatusNotFound)
			return
		}

		http.Error(w, "failed to export clicks", http.StatusInternalServerError)
		return
	}

	events, err := h.collectClicks(ctx, code)
	if err != nil {
		http.Error(w, "failed to export clicks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(code)+"-clicks.csv"))

	cw := csv.NewWriter(w)

	records := [][]string{{"id", "code", "occurred_at", "referrer_class", "device", "browser"}}
	for _, event := range events {
		records = append(records, []string{
			event.ID,
			string(event.Code),
			event.OccurredAt.Format(time.RFC3339),
			event.ReferrerClass,
			event.Device,
			event.Browser,
		})
	}

	if err := cw.WriteAll(records); err != nil {
		h.logger.Error("failed to write csv export",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}
}
