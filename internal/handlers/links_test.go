package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/VelisCore/velink/internal/analytics"
	"github.com/VelisCore/velink/internal/handlers"
	"github.com/VelisCore/velink/internal/messaging"
	"github.com/VelisCore/velink/internal/shortener"
	"github.com/VelisCore/velink/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testURL = "https://example.com/very/long/path"

// noopPublish returns a publish function that always succeeds.
func noopPublish[T any]() messaging.Publish[T] {
	return func(_ *T) error { return nil }
}

// errorPublish returns a publish function that always fails.
func errorPublish[T any](err error) messaging.Publish[T] {
	return func(_ *T) error { return err }
}

// capturePublish returns a publish function that records every event.
func capturePublish[T any](events *[]*T) messaging.Publish[T] {
	return func(e *T) error {
		*events = append(*events, e)

		return nil
	}
}

func newTestService(t *testing.T, repo shortener.Repository) *shortener.Service {
	t.Helper()

	gen, err := shortener.NewCodeGenerator(shortener.DefaultCodeLength)
	require.NoError(t, err)

	return shortener.NewService(repo, gen)
}

func newTestHandler(t *testing.T, repo shortener.Repository) *handlers.LinkHandler {
	t.Helper()

	return handlers.NewLinkHandler(
		newTestService(t, repo),
		&stubStats{},
		"http://localhost:8888",
		noopPublish[analytics.LinkCreatedEvent](),
		noopPublish[analytics.LinkClickedEvent](),
		noopPublish[analytics.LinkDeletedEvent](),
		zap.NewNop(),
	)
}

func shorten(t *testing.T, handler *handlers.LinkHandler, target string) *handlers.ShortenResponse {
	t.Helper()

	req := &handlers.ShortenRequest{}
	req.Body.URL = target

	resp, err := handler.Shorten(context.Background(), req)
	require.NoError(t, err)

	return resp
}

func TestShorten(t *testing.T) {
	t.Run("creates a link", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		resp := shorten(t, handler, testURL)

		assert.Equal(t, http.StatusCreated, resp.Status)
		assert.Len(t, resp.Body.Code, shortener.DefaultCodeLength)
		assert.Equal(t, testURL, resp.Body.TargetURL)
		assert.Contains(t, resp.Body.ShortURL, resp.Body.Code)
		assert.Equal(t, resp.Body.ShortURL, resp.Headers.Location)
		assert.True(t, resp.Body.Active)
		assert.False(t, resp.Body.Deduplicated)
		assert.Zero(t, resp.Body.ClickCount)
	})

	t.Run("carries expiry and metadata", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())
		expiry := time.Now().Add(24 * time.Hour).UTC()

		req := &handlers.ShortenRequest{}
		req.Body.URL = testURL
		req.Body.ExpiresAt = &expiry
		req.Body.Description = "launch campaign"
		req.Body.Options = map[string]string{"channel": "mail"}

		resp, err := handler.Shorten(context.Background(), req)

		require.NoError(t, err)
		require.NotNil(t, resp.Body.ExpiresAt)
		assert.True(t, expiry.Equal(*resp.Body.ExpiresAt))
		assert.Equal(t, "launch campaign", resp.Body.Description)
		assert.Equal(t, "mail", resp.Body.Options["channel"])
	})

	t.Run("same url returns the existing link with 200", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		first := shorten(t, handler, testURL)
		second := shorten(t, handler, testURL)

		assert.Equal(t, http.StatusOK, second.Status)
		assert.Equal(t, first.Body.Code, second.Body.Code)
		assert.True(t, second.Body.Deduplicated)
	})

	t.Run("equivalent spellings share a link", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		first := shorten(t, handler, "https://Example.com/path/")
		second := shorten(t, handler, "https://example.com/path")

		assert.Equal(t, first.Body.Code, second.Body.Code)
		assert.True(t, second.Body.Deduplicated)
	})

	t.Run("different urls get different codes", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		first := shorten(t, handler, "https://example.com/one")
		second := shorten(t, handler, "https://example.com/two")

		assert.NotEqual(t, first.Body.Code, second.Body.Code)
	})

	t.Run("rejects invalid urls", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		for _, target := range []string{"", "not a url", "ftp://example.com/file"} {
			req := &handlers.ShortenRequest{}
			req.Body.URL = target

			resp, err := handler.Shorten(context.Background(), req)

			assert.Nil(t, resp, "target %q", target)
			require.Error(t, err, "target %q", target)

			var statusErr huma.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, http.StatusUnprocessableEntity, statusErr.GetStatus())
		}
	})

	t.Run("unavailable when every code collides", func(t *testing.T) {
		repo := &errStore{Repository: store.NewMemoryStore(), insertErr: shortener.ErrDuplicateCode}
		handler := newTestHandler(t, repo)

		req := &handlers.ShortenRequest{}
		req.Body.URL = testURL

		resp, err := handler.Shorten(context.Background(), req)

		assert.Nil(t, resp)
		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.GetStatus())
	})

	t.Run("store fault becomes 500", func(t *testing.T) {
		repo := &errStore{Repository: store.NewMemoryStore(), insertErr: errMock}
		handler := newTestHandler(t, repo)

		req := &handlers.ShortenRequest{}
		req.Body.URL = testURL

		resp, err := handler.Shorten(context.Background(), req)

		assert.Nil(t, resp)
		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.GetStatus())
	})

	t.Run("publishes the created event", func(t *testing.T) {
		var events []*analytics.LinkCreatedEvent

		handler := handlers.NewLinkHandler(
			newTestService(t, store.NewMemoryStore()),
			&stubStats{},
			"http://localhost:8888",
			capturePublish(&events),
			noopPublish[analytics.LinkClickedEvent](),
			noopPublish[analytics.LinkDeletedEvent](),
			zap.NewNop(),
		)

		first := shorten(t, handler, testURL)
		shorten(t, handler, testURL)

		require.Len(t, events, 2)
		assert.Equal(t, first.Body.Code, events[0].Code)
		assert.False(t, events[0].Deduplicated)
		assert.True(t, events[1].Deduplicated)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		handler := handlers.NewLinkHandler(
			newTestService(t, store.NewMemoryStore()),
			&stubStats{},
			"http://localhost:8888",
			errorPublish[analytics.LinkCreatedEvent](errMock),
			noopPublish[analytics.LinkClickedEvent](),
			noopPublish[analytics.LinkDeletedEvent](),
			zap.NewNop(),
		)

		resp := shorten(t, handler, testURL)

		assert.Equal(t, http.StatusCreated, resp.Status)
	})
}

func TestListLinks(t *testing.T) {
	seed := func(t *testing.T) (*handlers.LinkHandler, *handlers.ShortenResponse, *handlers.ShortenResponse) {
		t.Helper()

		handler := newTestHandler(t, store.NewMemoryStore())

		first := shorten(t, handler, "https://example.com/first")
		second := shorten(t, handler, "https://example.com/second")

		disable := &handlers.UpdateLinkRequest{Code: second.Body.Code}
		off := false
		disable.Body.Active = &off

		_, err := handler.UpdateLink(context.Background(), disable)
		require.NoError(t, err)

		return handler, first, second
	}

	t.Run("lists everything by default", func(t *testing.T) {
		handler, _, _ := seed(t)

		resp, err := handler.ListLinks(context.Background(), &handlers.ListLinksRequest{})

		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Body.Total)
		assert.Len(t, resp.Body.Links, 2)
	})

	t.Run("filters by active flag", func(t *testing.T) {
		handler, first, second := seed(t)

		resp, err := handler.ListLinks(context.Background(), &handlers.ListLinksRequest{Active: "false"})

		require.NoError(t, err)
		require.Len(t, resp.Body.Links, 1)
		assert.Equal(t, second.Body.Code, resp.Body.Links[0].Code)

		resp, err = handler.ListLinks(context.Background(), &handlers.ListLinksRequest{Active: "true"})

		require.NoError(t, err)
		require.Len(t, resp.Body.Links, 1)
		assert.Equal(t, first.Body.Code, resp.Body.Links[0].Code)
	})

	t.Run("live filter hides disabled links", func(t *testing.T) {
		handler, first, _ := seed(t)

		resp, err := handler.ListLinks(context.Background(), &handlers.ListLinksRequest{Live: true})

		require.NoError(t, err)
		require.Len(t, resp.Body.Links, 1)
		assert.Equal(t, first.Body.Code, resp.Body.Links[0].Code)
	})

	t.Run("search matches target url", func(t *testing.T) {
		handler, first, _ := seed(t)

		resp, err := handler.ListLinks(context.Background(), &handlers.ListLinksRequest{Q: "first"})

		require.NoError(t, err)
		require.Len(t, resp.Body.Links, 1)
		assert.Equal(t, first.Body.Code, resp.Body.Links[0].Code)
	})

	t.Run("pagination keeps the total", func(t *testing.T) {
		handler, _, _ := seed(t)

		resp, err := handler.ListLinks(context.Background(), &handlers.ListLinksRequest{Limit: 1})

		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Body.Total)
		assert.Len(t, resp.Body.Links, 1)
	})

	t.Run("store fault becomes 500", func(t *testing.T) {
		repo := &errStore{Repository: store.NewMemoryStore(), listErr: errMock}
		handler := newTestHandler(t, repo)

		resp, err := handler.ListLinks(context.Background(), &handlers.ListLinksRequest{})

		assert.Nil(t, resp)
		assert.Error(t, err)
	})
}

func TestGetLink(t *testing.T) {
	t.Run("returns the link", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())
		created := shorten(t, handler, testURL)

		resp, err := handler.GetLink(context.Background(), &handlers.GetLinkRequest{Code: created.Body.Code})

		require.NoError(t, err)
		assert.Equal(t, created.Body.Code, resp.Body.Code)
		assert.Equal(t, testURL, resp.Body.TargetURL)
	})

	t.Run("unknown code is 404", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		resp, err := handler.GetLink(context.Background(), &handlers.GetLinkRequest{Code: "nope42"})

		assert.Nil(t, resp)
		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.GetStatus())
	})
}

func TestUpdateLink(t *testing.T) {
	t.Run("disables and re-enables", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())
		created := shorten(t, handler, testURL)

		off := false
		req := &handlers.UpdateLinkRequest{Code: created.Body.Code}
		req.Body.Active = &off

		resp, err := handler.UpdateLink(context.Background(), req)

		require.NoError(t, err)
		assert.False(t, resp.Body.Active)

		on := true
		req = &handlers.UpdateLinkRequest{Code: created.Body.Code}
		req.Body.Active = &on

		resp, err = handler.UpdateLink(context.Background(), req)

		require.NoError(t, err)
		assert.True(t, resp.Body.Active)
	})

	t.Run("updates description and options", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())
		created := shorten(t, handler, testURL)

		desc := "updated"
		req := &handlers.UpdateLinkRequest{Code: created.Body.Code}
		req.Body.Description = &desc
		req.Body.Options = map[string]string{"channel": "social"}

		resp, err := handler.UpdateLink(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "updated", resp.Body.Description)
		assert.Equal(t, "social", resp.Body.Options["channel"])
		assert.True(t, resp.Body.Active)
	})

	t.Run("absent fields keep their value", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		req := &handlers.ShortenRequest{}
		req.Body.URL = testURL
		req.Body.Description = "original"

		created, err := handler.Shorten(context.Background(), req)
		require.NoError(t, err)

		update := &handlers.UpdateLinkRequest{Code: created.Body.Code}
		update.Body.Options = map[string]string{"k": "v"}

		resp, err := handler.UpdateLink(context.Background(), update)

		require.NoError(t, err)
		assert.Equal(t, "original", resp.Body.Description)
		assert.Equal(t, "v", resp.Body.Options["k"])
	})

	t.Run("unknown code is 404", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		off := false
		req := &handlers.UpdateLinkRequest{Code: "nope42"}
		req.Body.Active = &off

		resp, err := handler.UpdateLink(context.Background(), req)

		assert.Nil(t, resp)
		assert.Error(t, err)
	})
}

func TestDeleteLink(t *testing.T) {
	t.Run("deletes and publishes", func(t *testing.T) {
		var events []*analytics.LinkDeletedEvent

		repo := store.NewMemoryStore()
		handler := handlers.NewLinkHandler(
			newTestService(t, repo),
			&stubStats{},
			"http://localhost:8888",
			noopPublish[analytics.LinkCreatedEvent](),
			noopPublish[analytics.LinkClickedEvent](),
			capturePublish(&events),
			zap.NewNop(),
		)

		created := shorten(t, handler, testURL)

		_, err := handler.DeleteLink(context.Background(), &handlers.DeleteLinkRequest{Code: created.Body.Code})
		require.NoError(t, err)

		_, err = repo.FindByCode(context.Background(), shortener.Code(created.Body.Code))
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		require.Len(t, events, 1)
		assert.Equal(t, created.Body.Code, events[0].Code)
	})

	t.Run("unknown code is 404", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore())

		resp, err := handler.DeleteLink(context.Background(), &handlers.DeleteLinkRequest{Code: "nope42"})

		assert.Nil(t, resp)
		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.GetStatus())
	})
}

func TestStatsHandlers(t *testing.T) {
	t.Run("per-link stats pass through", func(t *testing.T) {
		stats := &stubStats{link: &analytics.LinkStats{Code: "Ab3xYz", TotalClicks: 7}}
		handler := handlers.NewLinkHandler(
			newTestService(t, store.NewMemoryStore()),
			stats,
			"http://localhost:8888",
			noopPublish[analytics.LinkCreatedEvent](),
			noopPublish[analytics.LinkClickedEvent](),
			noopPublish[analytics.LinkDeletedEvent](),
			zap.NewNop(),
		)

		resp, err := handler.LinkStats(context.Background(), &handlers.StatsRequest{Code: "Ab3xYz"})

		require.NoError(t, err)
		assert.Equal(t, int64(7), resp.Body.TotalClicks)
	})

	t.Run("unknown code is 404", func(t *testing.T) {
		stats := &stubStats{err: shortener.ErrNotFound}
		handler := handlers.NewLinkHandler(
			newTestService(t, store.NewMemoryStore()),
			stats,
			"http://localhost:8888",
			noopPublish[analytics.LinkCreatedEvent](),
			noopPublish[analytics.LinkClickedEvent](),
			noopPublish[analytics.LinkDeletedEvent](),
			zap.NewNop(),
		)

		resp, err := handler.LinkStats(context.Background(), &handlers.StatsRequest{Code: "nope42"})

		assert.Nil(t, resp)
		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.GetStatus())
	})

	t.Run("overview passes through", func(t *testing.T) {
		stats := &stubStats{overview: &analytics.Overview{TotalLinks: 3, TotalClicks: 12}}
		handler := handlers.NewLinkHandler(
			newTestService(t, store.NewMemoryStore()),
			stats,
			"http://localhost:8888",
			noopPublish[analytics.LinkCreatedEvent](),
			noopPublish[analytics.LinkClickedEvent](),
			noopPublish[analytics.LinkDeletedEvent](),
			zap.NewNop(),
		)

		resp, err := handler.OverviewStats(context.Background(), &handlers.OverviewRequest{Top: 5})

		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.Body.TotalLinks)
		assert.Equal(t, int64(12), resp.Body.TotalClicks)
	})

	t.Run("stats fault becomes 500", func(t *testing.T) {
		stats := &stubStats{err: errMock}
		handler := handlers.NewLinkHandler(
			newTestService(t, store.NewMemoryStore()),
			stats,
			"http://localhost:8888",
			noopPublish[analytics.LinkCreatedEvent](),
			noopPublish[analytics.LinkClickedEvent](),
			noopPublish[analytics.LinkDeletedEvent](),
			zap.NewNop(),
		)

		_, err := handler.LinkStats(context.Background(), &handlers.StatsRequest{Code: "Ab3xYz"})
		assert.Error(t, err)

		_, err = handler.OverviewStats(context.Background(), &handlers.OverviewRequest{})
		assert.Error(t, err)
	})
}
