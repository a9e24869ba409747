package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/VelisCore/velink/internal/shortener"
	"github.com/go-chi/chi/v5"
)

// DefaultTTL is how long a built sitemap is served before the next
// rebuild.
const DefaultTTL = 5 * time.Minute

// pageSize bounds one store round-trip while walking the live links.
const pageSize = 500

type linkSource interface {
	List(ctx context.Context, filter shortener.Filter, page shortener.Page) ([]*shortener.Link, int64, error)
}

type urlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// Builder renders the sitemap of live links and caches the result.
// Crawlers hit this often; the listing is paged out of the store at
// most once per TTL.
type Builder struct {
	source  linkSource
	baseURL string
	ttl     time.Duration

	mu      sync.Mutex
	cached  []byte
	builtAt time.Time
}

// NewBuilder creates a sitemap builder. Non-positive TTLs fall back to
// the default.
func NewBuilder(source linkSource, baseURL string, ttl time.Duration) *Builder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Builder{source: source, baseURL: baseURL, ttl: ttl}
}

// Build returns the sitemap XML, rebuilding it when the cached copy
// aged out. Failed rebuilds fall back to the last good copy.
func (b *Builder) Build(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cached != nil && time.Since(b.builtAt) < b.ttl {
		return b.cached, nil
	}

	data, err := b.build(ctx)
	if err != nil {
		if b.cached != nil {
			return b.cached, nil
		}

		return nil, err
	}

	b.cached = data
	b.builtAt = time.Now()

	return data, nil
}

func (b *Builder) build(ctx context.Context) ([]byte, error) {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	for offset := 0; ; offset += pageSize {
		links, total, err := b.source.List(ctx, shortener.Filter{Live: true}, shortener.Page{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list live links: %w", err)
		}

		for _, link := range links {
			set.URLs = append(set.URLs, urlEntry{
				Loc:     fmt.Sprintf("%s/%s", b.baseURL, link.Code),
				LastMod: link.CreatedAt.Format("2006-01-02"),
			})
		}

		if int64(len(set.URLs)) >= total || len(links) == 0 {
			break
		}
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}

// Serve writes the sitemap to the response.
func (b *Builder) Serve(w http.ResponseWriter, r *http.Request) {
	data, err := b.Build(r.Context())
	if err != nil {
		http.Error(w, "failed to build sitemap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(data)
}

// RegisterRoutes registers the sitemap route.
func RegisterRoutes(router chi.Router, b *Builder) {
	router.Get("/sitemap.xml", b.Serve)
}
