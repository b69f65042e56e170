package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/templui/spacenews/internal/config"
	"github.com/templui/spacenews/internal/ctxkeys"
	"github.com/templui/spacenews/internal/model"
	"github.com/templui/spacenews/internal/service"
	"github.com/templui/spacenews/internal/storage"
	"github.com/templui/spacenews/internal/ui/pages"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	saveConcurrency = 8
)

// Listing walks the paginated listing.
type Listing interface {
	FirstPage(ctx context.Context) (model.PaginationState, error)
	LoadAll(ctx context.Context, state model.PaginationState) (model.PaginationState, error)
}

// Result summarizes one export run.
type Result struct {
	Files    int
	Posts    int
	Listed   int
	Duration time.Duration
}

// Exporter renders the whole blog to static files: an index holding every
// post summary, one page per post, a 404 page, the sitemap and robots.txt.
type Exporter struct {
	cfg      *config.Config
	listing  Listing
	posts    service.PostLister
	sitemap  *service.SitemapService
	storage  storage.Storage
	language language.Tag
}

func NewExporter(cfg *config.Config, listing Listing, posts service.PostLister, sitemap *service.SitemapService, store storage.Storage) *Exporter {
	return &Exporter{
		cfg:      cfg,
		listing:  listing,
		posts:    posts,
		sitemap:  sitemap,
		storage:  store,
		language: language.BrazilianPortuguese,
	}
}

// Export writes every file through the storage. The listing is loaded up
// front, so a CMS failure aborts the export before anything is written.
func (e *Exporter) Export(ctx context.Context) (Result, error) {
	start := time.Now()

	state, err := e.listing.FirstPage(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load listing: %w", err)
	}
	state, err = e.listing.LoadAll(ctx, state)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load listing: %w", err)
	}

	renderCtx := ctxkeys.WithConfig(ctx, e.cfg.Sanitized())
	renderCtx = ctxkeys.WithLanguage(renderCtx, e.language)

	posts := e.posts.Posts()
	var files atomic.Int64

	g, gctx := errgroup.WithContext(renderCtx)
	g.SetLimit(saveConcurrency)

	save := func(path string, c templ.Component) {
		g.Go(func() error {
			err := e.saveComponent(gctx, path, c)
			if err != nil {
				return err
			}
			files.Add(1)
			return nil
		})
	}

	save("index.html", pages.Home(state))
	save("404.html", pages.NotFound())
	for _, post := range posts {
		save(PostFile(post.UID), pages.Post(post))
	}

	g.Go(func() error {
		sitemap, err := e.sitemap.GenerateSitemap()
		if err != nil {
			return fmt.Errorf("failed to generate sitemap: %w", err)
		}
		err = e.storage.Save(gctx, "sitemap.xml", bytes.NewReader(sitemap), "application/xml; charset=utf-8")
		if err != nil {
			return fmt.Errorf("failed to save sitemap.xml: %w", err)
		}
		files.Add(1)
		return nil
	})

	g.Go(func() error {
		err := e.storage.Save(gctx, "robots.txt", bytes.NewReader(e.sitemap.Robots()), "text/plain; charset=utf-8")
		if err != nil {
			return fmt.Errorf("failed to save robots.txt: %w", err)
		}
		files.Add(1)
		return nil
	})

	err = g.Wait()
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Files:    int(files.Load()),
		Posts:    len(posts),
		Listed:   len(state.Loaded),
		Duration: time.Since(start),
	}
	slog.InfoContext(ctx, "export finished",
		"files", result.Files,
		"posts", result.Posts,
		"listed", result.Listed,
		"duration_ms", result.Duration.Milliseconds(),
		"index", e.storage.URL("index.html"),
	)
	return result, nil
}

func (e *Exporter) saveComponent(ctx context.Context, path string, c templ.Component) error {
	var buf bytes.Buffer
	err := c.Render(ctx, &buf)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	err = e.storage.Save(ctx, path, bytes.NewReader(buf.Bytes()), htmlContentType)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// PostFile is the storage path of a post page, matching its site path.
func PostFile(uid string) string {
	return strings.TrimPrefix(model.PostPath(uid), "/") + "/index.html"
}
