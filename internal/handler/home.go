package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/templui/spacenews/internal/ui"
	"github.com/templui/spacenews/internal/ui/pages"
)

// BuildInfo reports when the blog was last built.
type BuildInfo interface {
	BuiltAt() time.Time
}

type HomeHandler struct {
	build BuildInfo
}

func NewHomeHandler(build BuildInfo) *HomeHandler {
	return &HomeHandler{
		build: build,
	}
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
}

type healthResponse struct {
	Status  string     `json:"status"`
	BuiltAt *time.Time `json:"built_at,omitempty"`
}

// Healthz always answers 200; built_at is absent until the first build succeeded.
func (h *HomeHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if builtAt := h.build.BuiltAt(); !builtAt.IsZero() {
		resp.BuiltAt = &builtAt
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(resp)
}
