package routes

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/templui/spacenews/assets"
	"github.com/templui/spacenews/internal/app"
	"github.com/templui/spacenews/internal/handler"
	"github.com/templui/spacenews/internal/middleware"
)

// Per client IP and minute. A loading post page refreshes every 2 seconds.
const (
	loadMoreRateLimit = 30
	postRateLimit     = 120
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.BlogService)
	seo := handler.NewSEOHandler(app.BlogService, app.Cfg.AppURL)
	blog := handler.NewBlogHandler(app.BlogService, app.ListingService, app.FallbackResolver)

	mux := http.NewServeMux()

	// Static files
	sub, _ := fs.Sub(assets.AssetsFS, ".")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(sub))))

	// SEO
	mux.HandleFunc("GET /robots.txt", seo.Robots)
	mux.HandleFunc("GET /sitemap.xml", seo.Sitemap)

	// Blog
	mux.HandleFunc("GET /{$}", blog.ListPosts)
	mux.HandleFunc("GET /posts/more", middleware.RateLimit(loadMoreRateLimit, time.Minute)(blog.LoadMore))
	mux.HandleFunc("GET /post/{slug}", middleware.RateLimit(postRateLimit, time.Minute)(blog.ShowPost))

	// Operations
	mux.HandleFunc("GET /healthz", home.Healthz)
	mux.Handle("GET /metrics", app.Metrics.Handler())

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Config(app.Cfg), // Config must come before anything rendering pages
		middleware.NonceMiddleware, // Generate CSP nonce for each request (must be before SecurityHeaders)
		middleware.SecurityHeaders, // Security headers for all responses (XSS, clickjacking, etc.)
		middleware.RequestLogging,
		middleware.Language,
		middleware.WithURLPath,
	)

	return handler
}
