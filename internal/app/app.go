package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/config"
	"github.com/templui/spacenews/internal/metrics"
	"github.com/templui/spacenews/internal/service"
)

type App struct {
	Cfg              *config.Config
	CMS              *cms.Client
	Metrics          *metrics.PrometheusRecorder
	ListingService   *service.ListingService
	PostService      *service.PostService
	BlogService      *service.BlogService
	FallbackResolver *service.FallbackResolver

	scheduler gocron.Scheduler
}

func New(cfg *config.Config) (*App, error) {
	recorder := metrics.NewPrometheusRecorder(nil)

	client, err := cms.New(cms.Options{
		APIURL:       cfg.CMSAPIURL,
		AccessToken:  cfg.CMSAccessToken,
		DocumentType: cfg.CMSDocumentType,
		Timeout:      cfg.CMSTimeout,
		Recorder:     recorder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cms client: %w", err)
	}

	// Services
	listingService := service.NewListingService(client, cfg.CMSPageSize)
	postService := service.NewPostService(client)
	blogService := service.NewBlogService(client, listingService, postService, recorder)
	fallbackResolver := service.NewFallbackResolver(postService, blogService, recorder, cfg.FallbackTimeout, cfg.NotFoundTTL)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &App{
		Cfg:              cfg,
		CMS:              client,
		Metrics:          recorder,
		ListingService:   listingService,
		PostService:      postService,
		BlogService:      blogService,
		FallbackResolver: fallbackResolver,
		scheduler:        scheduler,
	}, nil
}

// Start runs the initial build when configured and schedules revalidation.
// A failed initial build is logged; pages are then resolved on demand until
// the next scheduled build succeeds.
func (a *App) Start(ctx context.Context) error {
	if a.Cfg.PrerenderOnStart {
		a.rebuild(ctx)
	}

	if a.Cfg.RevalidateInterval <= 0 {
		slog.Info("revalidation disabled")
		return nil
	}

	_, err := a.scheduler.NewJob(
		gocron.DurationJob(a.Cfg.RevalidateInterval),
		gocron.NewTask(a.rebuild, context.WithoutCancel(ctx)),
		gocron.WithName("revalidate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule revalidation: %w", err)
	}

	a.scheduler.Start()
	slog.Info("revalidation scheduled", "interval", a.Cfg.RevalidateInterval)
	return nil
}

func (a *App) rebuild(ctx context.Context) {
	start := time.Now()
	if err := a.BlogService.Build(ctx); err != nil {
		slog.ErrorContext(ctx, "page build failed, keeping previous pages", "error", err)
		return
	}
	slog.InfoContext(ctx, "pages built",
		"posts", len(a.BlogService.Posts()),
		"duration", time.Since(start),
	)
}

func (a *App) Close() error {
	if a.scheduler != nil {
		return a.scheduler.Shutdown()
	}
	return nil
}
