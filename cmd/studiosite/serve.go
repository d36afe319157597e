package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"

	"studiosite/internal/assets"
	"studiosite/internal/cms"
	"studiosite/internal/config"
	"studiosite/internal/content"
	"studiosite/internal/errorlog"
	"studiosite/internal/handlers"
	"studiosite/internal/middleware"
	"studiosite/internal/router"
	"studiosite/internal/storage"
	"studiosite/internal/storage/sqlite"
	"studiosite/internal/submissions"
	"studiosite/internal/telemetry"
)

// forms are far cheaper to abuse than page views
const (
	formRPS   = 1
	formBurst = 5
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cfg))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("application starting", "pid", os.Getpid(), "version", version)
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"content", cfg.App.ContentDir,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"storage", cfg.Storage.Driver,
		"rate_limit_rps", cfg.Limiter.RPS,
		"trusted_proxy", cfg.Proxy.Trusted,
	)

	tel, err := telemetry.Init(ctx, cfg.App.Name, version, cfg.App.Environment,
		cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeouts.Shutdown)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown", "err", err)
		}
	}()

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	db, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	schemaVersion, err := db.Migrate(cfg.DB.MigrationsPath)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready", "db", cfg.DB.Path, "schema_version", schemaVersion)

	reporter := errorlog.New(logger, db,
		errorlog.WithWebhook(cfg.Errors.WebhookURL, cfg.Errors.WebhookToken),
		errorlog.WithIPHashKey(cfg.Errors.IPHashKey),
		errorlog.WithMetrics(metrics),
	)
	errorlog.Install(logger, reporter)

	files, err := newFileStore(cfg)
	if err != nil {
		return err
	}

	manager := assets.NewManager(files, uuid.FromStringOrNil(cfg.App.AssetNamespace))
	if n, err := assets.Sync(ctx, files, manager, cfg.Assets.SourceDir, logger); err != nil {
		// pages still render with the original paths
		logger.Error("initial asset sync failed", "err", err)
	} else {
		logger.Info("assets synced", "uploaded", n, "registered", manager.Len())
	}

	cache := storage.NewLocalStorage(cfg.Assets.CacheDir, "/assets")
	workerCtx, stopWorkers := context.WithCancel(ctx)
	processor := assets.NewProcessor(workerCtx, files, cache, cfg.Assets.Workers, reporter, logger)
	defer func() {
		stopWorkers()
		processor.Wait()
	}()

	if cfg.Assets.Watch {
		w, err := assets.NewWatcher(cfg.Assets.SourceDir, files, cache, manager, logger)
		if err != nil {
			return fmt.Errorf("asset watcher: %w", err)
		}
		errorlog.Go(ctx, reporter, "asset-watcher", w.Run)
	}

	resync := assets.NewResync(logger)
	if err := resync.Start(ctx, cfg.Assets.ResyncSchedule, files, manager, cfg.Assets.SourceDir); err != nil {
		return err
	}
	defer resync.Stop()

	svc := content.New(cms.NewDiskReader(cfg.App.ContentDir, logger), logger)
	subs := submissions.New(files, db, metrics, logger)

	limiter := middleware.NewIPRateLimiter(ctx, cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Proxy.Trusted, metrics)
	formLimiter := middleware.NewIPRateLimiter(ctx, formRPS, formBurst, cfg.Proxy.Trusted, metrics)
	visitors := middleware.NewVisitorStats(ctx, cfg.Proxy.Trusted)

	imageSources := append([]string(nil), cfg.CSP.ImageSources...)
	if cfg.Storage.Driver == "s3" && cfg.Storage.S3.PublicURL != "" {
		imageSources = append(imageSources, cfg.Storage.S3.PublicURL)
	}

	site := handlers.NewSiteHandler(cfg.App.Name, svc, subs, manager, reporter, metrics, logger)
	site.Visitors = visitors
	site.TrustedProxy = cfg.Proxy.Trusted

	assetHandler := &handlers.AssetHandler{
		Assets:    manager,
		Processor: processor,
		Tracer:    tel.Tracer,
		Metrics:   metrics,
		Logger:    logger,
	}

	handler := router.NewRouter(router.RouterDependencies{
		Cfg:          cfg,
		Logger:       logger,
		SiteHandler:  site,
		AssetHandler: assetHandler,
		Limiter:      limiter,
		FormLimiter:  formLimiter,
		Visitors:     visitors,
		Errors:       reporter,
		Tracer:       tel.Tracer,
		Metrics:      metrics,
		CSRF:         middleware.NewCSRF(!cfg.IsDev(), "/api/errors"),
		CSP:          middleware.NewCSP(!cfg.IsDev(), imageSources...),
	})

	if err := NewApp(cfg, logger, handler).Run(ctx); err != nil {
		return err
	}
	logger.Info("application exited successfully")
	return nil
}
