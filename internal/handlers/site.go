package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"studiosite/internal/assets"
	"studiosite/internal/components"
	"studiosite/internal/content"
	"studiosite/internal/errorlog"
	"studiosite/internal/middleware"
	"studiosite/internal/submissions"
	"studiosite/internal/telemetry"
)

// SiteHandler serves the pages and the JSON API.
type SiteHandler struct {
	Title        string
	Content      *content.Service
	Submissions  *submissions.Service
	Assets       *assets.Manager // nil serves CMS image paths unchanged
	Errors       errorlog.Reporter
	Visitors     *middleware.VisitorStats
	Metrics      *telemetry.Metrics
	Logger       *slog.Logger
	TrustedProxy bool
}

func NewSiteHandler(title string, svc *content.Service, subs *submissions.Service, am *assets.Manager, reporter errorlog.Reporter, metrics *telemetry.Metrics, logger *slog.Logger) *SiteHandler {
	if metrics == nil {
		metrics = telemetry.NoopMetrics()
	}
	return &SiteHandler{
		Title:       title,
		Content:     svc,
		Submissions: subs,
		Assets:      am,
		Errors:      reporter,
		Metrics:     metrics,
		Logger:      logger,
	}
}

func (h *SiteHandler) newCommonData(r *http.Request) components.Common {
	return components.NewCommon(h.Title, r.URL.Path, middleware.CSRFToken(r))
}

func (h *SiteHandler) logger(r *http.Request) *slog.Logger {
	return middleware.LoggerFrom(r.Context(), h.Logger)
}

func (h *SiteHandler) render(w http.ResponseWriter, r *http.Request, code int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger(r).Warn("render interrupted", "path", r.URL.Path, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fetched counts a collection read and, on failure, its error code.
func (h *SiteHandler) fetched(ctx context.Context, collection string, err error) {
	h.Metrics.ContentFetchesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", collection)))
	if err != nil {
		h.Metrics.ContentErrorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("code", string(content.CodeOf(err))),
		))
	}
}

// The helpers below point CMS image paths at /assets URLs.

func (h *SiteHandler) image(img content.ImageAsset) content.ImageAsset {
	if h.Assets == nil {
		return img
	}
	return h.Assets.Resolve(img)
}

func (h *SiteHandler) blog(b content.Blog) content.Blog {
	if h.Assets != nil {
		b.CoverImage = h.image(b.CoverImage)
		b.Content = h.Assets.RewriteTree(b.Content)
	}
	return b
}

func (h *SiteHandler) game(g content.Game) content.Game {
	if h.Assets != nil {
		g.CoverImage = h.image(g.CoverImage)
		g.Content = h.Assets.RewriteTree(g.Content)
	}
	return g
}

func (h *SiteHandler) job(j content.Job) content.Job {
	if h.Assets != nil {
		j.Content = h.Assets.RewriteTree(j.Content)
	}
	return j
}

func (h *SiteHandler) legal(d content.Legal) content.Legal {
	if h.Assets != nil {
		d.Content = h.Assets.RewriteTree(d.Content)
	}
	return d
}

func (h *SiteHandler) slide(s content.Slide) content.Slide {
	s.BackgroundImage = h.image(s.BackgroundImage)
	if s.TitleImage != nil {
		img := h.image(*s.TitleImage)
		s.TitleImage = &img
	}
	return s
}

func (h *SiteHandler) media(m content.Media) content.Media {
	m.File = h.image(m.File)
	return m
}

func (h *SiteHandler) home(c content.HomepageContent) content.HomepageContent {
	c.FeaturedGames = each(c.FeaturedGames, h.game)
	c.RecentBlogs = each(c.RecentBlogs, h.blog)
	c.ActiveSlides = each(c.ActiveSlides, h.slide)
	c.OpenJobs = each(c.OpenJobs, h.job)
	return c
}

func each[T any](items []T, fn func(T) T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}
