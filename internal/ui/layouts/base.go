package layouts

import (
	"context"

	"github.com/templui/spacenews/internal/ctxkeys"
)

const htmxSrc = "https://cdn.jsdelivr.net/npm/htmx.org@2.0.4/dist/htmx.min.js"

type BaseProps struct {
	Title       string
	Description string
	// RefreshSeconds > 0 makes the browser reload the page, used while a post is being fetched.
	RefreshSeconds int
	NoIndex        bool
}

// pageTitle suffixes title with the app name, or returns the app name alone.
func pageTitle(ctx context.Context, title string) string {
	appName := "spacenews"
	if cfg := ctxkeys.Config(ctx); cfg != nil && cfg.AppName != "" {
		appName = cfg.AppName
	}
	if title == "" {
		return appName
	}
	return title + " | " + appName
}
