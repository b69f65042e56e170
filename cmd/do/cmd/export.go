package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/templui/spacenews/internal/app"
	"github.com/templui/spacenews/internal/config"
	"github.com/templui/spacenews/internal/export"
	"github.com/templui/spacenews/internal/logger"
	"github.com/templui/spacenews/internal/service"
	"github.com/templui/spacenews/internal/storage"
)

func ExportCmd() *cobra.Command {
	var dir string
	var toS3 bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Pre-render every page into a directory or an S3 bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runExport(ctx, dir, toS3)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default EXPORT_DIR)")
	cmd.Flags().BoolVar(&toS3, "s3", false, "upload to the S3 bucket from S3_BUCKET instead of a directory")
	return cmd
}

func runExport(ctx context.Context, dir string, toS3 bool) error {
	cfg := config.Load()
	logger.Init(logger.Options{
		Development: true,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.AppEnv,
		AppName:     cfg.AppName,
	})
	defer logger.Flush()

	if toS3 && !cfg.UseS3() {
		return errors.New("--s3 needs S3_BUCKET to be set")
	}
	if !toS3 {
		local := *cfg
		local.S3Bucket = ""
		cfg = &local
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.BlogService.Build(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	store, err := storage.New(cfg, dir)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	exporter := export.NewExporter(
		cfg,
		a.ListingService,
		a.BlogService,
		service.NewSitemapService(a.BlogService, cfg.AppURL),
		store,
	)
	result, err := exporter.Export(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("exported %d files (%d posts, %d listed) in %s to %s\n",
		result.Files, result.Posts, result.Listed, result.Duration.Round(time.Millisecond), store.URL("index.html"))
	return nil
}
