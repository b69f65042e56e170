package handler

import (
	"log/slog"
	"net/http"

	"github.com/templui/spacenews/internal/service"
)

type SEOHandler struct {
	sitemapService *service.SitemapService
}

// NewSEOHandler creates a new SEO handler
func NewSEOHandler(posts service.PostLister, baseURL string) *SEOHandler {
	return &SEOHandler{
		sitemapService: service.NewSitemapService(posts, baseURL),
	}
}

// Robots serves robots.txt pointing at the sitemap
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := w.Write(h.sitemapService.Robots())
	if err != nil {
		slog.WarnContext(r.Context(), "failed to write robots.txt", "error", err)
	}
}

// Sitemap generates and serves the sitemap.xml dynamically
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	sitemap, err := h.sitemapService.GenerateSitemap()
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to generate sitemap", "error", err)
		http.Error(w, "Failed to generate sitemap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, err = w.Write(sitemap)
	if err != nil {
		slog.WarnContext(r.Context(), "failed to write sitemap", "error", err)
	}
}
