package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"crudview/docs"
	"crudview/internal/crud"
	"crudview/internal/database"
	"crudview/internal/form"
	"crudview/internal/http/middleware"
	"crudview/internal/model"
	"crudview/internal/repository"
	"crudview/internal/service"
	"crudview/internal/templates"
)

// DownloadExpiry is how long presigned document links stay valid.
const DownloadExpiry = 15 * time.Minute

// Deps are the collaborators the routes are built from. Documents and Uploader are
// nil when object storage is not configured; the document pages are then skipped.
// A nil Templates falls back to the app's Views.
type Deps struct {
	DB         database.Pinger
	Gatherer   prometheus.Gatherer
	Bookmarks  repository.Store[*model.Bookmark]
	Documents  *service.DocumentStore
	Uploader   form.Uploader
	Templates  crud.TemplateResolver
	PaginateBy int
	Logger     zerolog.Logger
}

// HealthCheck godoc
// @Summary     Readiness probe
// @Description Pings the database.
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]string
// @Failure     503 {object} errorPayload
// @Router      /health [get]
func HealthCheck(db database.Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if db == nil || db.PingContext(ctx) != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags    health
// @Success 200
// @Router  /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Metrics exposes the gatherer in the Prometheus text format.
func Metrics(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// DownloadDocument redirects to a presigned link for the document's file.
func DownloadDocument(docs *service.DocumentStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := docs.Get(c.UserContext(), repository.Query{}, repository.Lookup{Field: "id", Value: c.Params("id")})
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "No document matches the given query.")
		}
		if err != nil {
			return err
		}
		u, err := docs.DownloadURL(c.UserContext(), doc, DownloadExpiry)
		if errors.Is(err, service.ErrNoFile) {
			return fiber.NewError(fiber.StatusNotFound, "This document has no file.")
		}
		if err != nil {
			return err
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}

// Swagger serves the API docs for the JSON endpoints, using the request's host.
func Swagger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get(fiber.HeaderXForwardedProto); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Hostname()
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	}
}

// RegisterRoutes attaches the probes, metrics, API docs and the CRUD pages. When the
// templates are a *templates.Engine, the url, object_list, object_detail and
// action_links functions are registered on it.
func RegisterRoutes(app *fiber.App, d Deps) (*crud.Router, error) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get(middleware.MetricsPath, Metrics(d.Gatherer))
	}
	app.Get("/swagger/*", Swagger())

	rt := crud.NewRouter(app, "")
	if d.Bookmarks != nil {
		if err := BookmarkView(d).Mount(rt); err != nil {
			return nil, err
		}
	}
	if d.Documents != nil {
		if err := DocumentView(d).Mount(rt); err != nil {
			return nil, err
		}
		rt.Get("document-download", "/document/:id<guid>/download/", DownloadDocument(d.Documents))
	}
	if e, ok := d.Templates.(*templates.Engine); ok && e != nil {
		for name, fn := range rt.TemplateFuncs(e) {
			e.AddFunc(name, fn)
		}
	}
	app.Get("/", func(c *fiber.Ctx) error {
		if d.Bookmarks == nil {
			return fiber.ErrNotFound
		}
		u, err := rt.Reverse("bookmark-list")
		if err != nil {
			return err
		}
		return c.Redirect(u, fiber.StatusFound)
	})
	return rt, nil
}
