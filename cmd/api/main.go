package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"crudview/internal/config"
	"crudview/internal/database"
	"crudview/internal/database/migration"
	handlers "crudview/internal/http/handler"
	"crudview/internal/http/middleware"
	"crudview/internal/logging"
	"crudview/internal/otel"
	"crudview/internal/repository/postgres"
	"crudview/internal/service"
	"crudview/internal/storage"
	"crudview/internal/templates"
)

// @title crudview
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.Default(logging.Location(cfg.TimeZone))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Str("event", "tracing_init_failed").Msg("")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Str("event", "database_connect_failed").Msg("")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log); err != nil {
		log.Fatal().Err(err).Str("event", "migration_failed").Msg("")
	}

	deps := handlers.Deps{
		DB:         db,
		Bookmarks:  postgres.NewBookmarkPostgres(db),
		PaginateBy: cfg.Views.PaginateBy,
		Logger:     log,
	}

	// Object storage is optional; without it the document pages are not mounted.
	if cfg.MinIO.Enabled() {
		objStore, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatal().Err(err).Str("event", "storage_init_failed").Msg("")
		}
		deps.Documents = service.NewDocumentStore(objStore, postgres.NewDocumentPostgres(db))
		deps.Uploader = service.NewUploader(objStore, "documents")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Gatherer = reg
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal().Err(err).Str("event", "metrics_init_failed").Msg("")
	}

	engine := templates.New(
		templates.WithDirs(cfg.Views.TemplateDirs...),
		templates.WithReload(cfg.Views.Reload),
	)
	deps.Templates = engine

	app := fiber.New(fiber.Config{
		Views:                 engine,
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	if _, err := handlers.RegisterRoutes(app, deps); err != nil {
		log.Fatal().Err(err).Str("event", "routes_init_failed").Msg("")
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error().Err(err).Str("event", "shutdown_failed").Msg("")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().
		Str("event", "server_started").
		Str("addr", addr).
		Bool("documents", deps.Documents != nil).
		Strs("template_dirs", cfg.Views.TemplateDirs).
		Msg("")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Str("event", "server_failed").Msg("")
	}
	log.Info().Str("event", "server_stopped").Msg("")
}
