package pages

import (
	"context"

	"github.com/templui/spacenews/internal/ctxkeys"
)

// loadingRefreshSeconds is how often the interim page reloads while a post is fetched.
const loadingRefreshSeconds = 2

func tagline(ctx context.Context) string {
	if cfg := ctxkeys.Config(ctx); cfg != nil {
		return cfg.AppTagline
	}
	return ""
}
