package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/model"
	"github.com/templui/spacenews/internal/service"
	"github.com/templui/spacenews/internal/ui"
	"github.com/templui/spacenews/internal/ui/components"
	"github.com/templui/spacenews/internal/ui/pages"
)

const loadingRetryAfter = 2

// crawlerMarkers identify user agents that get the finished post instead of the loading page.
var crawlerMarkers = []string{"bot", "crawler", "spider", "slurp", "facebookexternalhit", "embedly"}

type BlogIndex interface {
	Index() (model.PaginationState, bool)
}

type Paginator interface {
	FirstPage(ctx context.Context) (model.PaginationState, error)
	LoadNextPage(ctx context.Context, state model.PaginationState) (model.PaginationState, error)
}

type PostResolver interface {
	Resolve(ctx context.Context, slug string) service.Resolution
	Wait(ctx context.Context, slug string) (service.Resolution, error)
}

type BlogHandler struct {
	index    BlogIndex
	listing  Paginator
	resolver PostResolver
}

func NewBlogHandler(index BlogIndex, listing Paginator, resolver PostResolver) *BlogHandler {
	return &BlogHandler{
		index:    index,
		listing:  listing,
		resolver: resolver,
	}
}

// ListPosts serves the pre-built first listing page, querying the CMS only
// when no build has completed yet.
func (h *BlogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	state, built := h.index.Index()
	if !built {
		var err error
		state, err = h.listing.FirstPage(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to load listing", "error", err)
			ui.RenderStatus(w, r, http.StatusBadGateway, pages.Error())
			return
		}
	}

	ui.Render(w, r, pages.Home(state))
}

// LoadMore appends the page behind the cursor. htmx requests get the new
// cards plus an out-of-band swap of the load-more control; plain requests get
// a full page with that page's posts.
func (h *BlogHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	if cursor == "" {
		http.Error(w, "missing cursor", http.StatusBadRequest)
		return
	}

	next, err := h.listing.LoadNextPage(r.Context(), model.PaginationState{NextCursor: cursor})
	if err != nil {
		if errors.Is(err, cms.ErrForeignCursor) {
			slog.WarnContext(r.Context(), "rejected load more cursor", "error", err)
			http.Error(w, "invalid cursor", http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "failed to load next page", "error", err)
		http.Error(w, "failed to load posts", http.StatusBadGateway)
		return
	}

	if r.Header.Get("HX-Request") != "true" {
		ui.Render(w, r, pages.Home(next))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	ui.Render(w, r, components.PostCards(next.Loaded))
	ui.RenderOOB(w, r, components.LoadMoreButton(next.NextCursor), "innerHTML:#"+components.LoadMoreID)
}

// ShowPost serves a post page. Posts outside the build are resolved on demand:
// browsers get a self-refreshing loading page (202) until the post is ready,
// crawlers wait for the final page.
func (h *BlogHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
		return
	}

	res := h.resolver.Resolve(r.Context(), slug)
	if res.Status == service.StatusPending && isCrawler(r.UserAgent()) {
		waited, err := h.resolver.Wait(r.Context(), slug)
		if err == nil {
			res = waited
		}
	}

	switch res.Status {
	case service.StatusReady:
		ui.Render(w, r, pages.Post(res.Post))
	case service.StatusPending:
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Retry-After", strconv.Itoa(loadingRetryAfter))
		ui.RenderStatus(w, r, http.StatusAccepted, pages.Loading())
	case service.StatusNotFound:
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
	default:
		slog.ErrorContext(r.Context(), "failed to resolve post", "slug", slug, "error", res.Err)
		w.Header().Set("Cache-Control", "no-store")
		ui.RenderStatus(w, r, http.StatusBadGateway, pages.Error())
	}
}

func isCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, marker := range crawlerMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
