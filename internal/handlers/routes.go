package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all link routes on the API.
func RegisterRoutes(api huma.API, links *LinkHandler, activity *ActivityHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "shorten-link",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Shorten a URL",
		Description:   "Creates a short link, or returns the existing one when an equivalent link is already stored.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, links.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/api/links",
		Summary:     "List links",
		Description: "Lists links with optional active, live and search filters.",
		Tags:        []string{"Links"},
	}, links.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/api/links/{code}",
		Summary:     "Get a link",
		Description: "Returns one link, including disabled and expired ones.",
		Tags:        []string{"Links"},
	}, links.GetLink)

	huma.Register(api, huma.Operation{
		OperationID: "update-link",
		Method:      http.MethodPatch,
		Path:        "/api/links/{code}",
		Summary:     "Update a link",
		Description: "Enables or disables a link and updates its metadata. Absent fields keep their value.",
		Tags:        []string{"Links"},
	}, links.UpdateLink)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/api/links/{code}",
		Summary:       "Delete a link",
		Description:   "Deletes a link and its whole click history.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
	}, links.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "link-stats",
		Method:      http.MethodGet,
		Path:        "/api/links/{code}/stats",
		Summary:     "Link statistics",
		Description: "Returns click totals, a daily series and coarse breakdowns for one link.",
		Tags:        []string{"Stats"},
	}, links.LinkStats)

	huma.Register(api, huma.Operation{
		OperationID: "overview-stats",
		Method:      http.MethodGet,
		Path:        "/api/stats",
		Summary:     "Service statistics",
		Description: "Returns service-wide totals and the most clicked links.",
		Tags:        []string{"Stats"},
	}, links.OverviewStats)

	huma.Register(api, huma.Operation{
		OperationID: "export-link",
		Method:      http.MethodGet,
		Path:        "/api/links/{code}/export",
		Summary:     "Export a link",
		Description: "Returns the link and every stored click event as one JSON document.",
		Tags:        []string{"Links"},
	}, links.ExportLink)

	huma.Register(api, huma.Operation{
		OperationID: "recent-activity",
		Method:      http.MethodGet,
		Path:        "/api/activity",
		Summary:     "Recent activity",
		Description: "Returns the most recent link activity, newest first.",
		Tags:        []string{"Stats"},
	}, activity.Recent)

	// GET /{code} - the redirect itself. Registered last so the docs
	// list the API surface first.
	huma.Register(api, huma.Operation{
		OperationID:   "redirect",
		Method:        http.MethodGet,
		Path:          "/{code}",
		Summary:       "Follow a short link",
		Description:   "Counts the click and redirects to the destination URL.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusFound,
	}, links.Redirect)
}

// RegisterRawRoutes registers the routes served outside the API layer.
func RegisterRawRoutes(router chi.Router, links *LinkHandler) {
	router.Get("/api/links/{code}/clicks.csv", links.ClicksCSV)
}
