package router

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/config"
	"studiosite/internal/errorlog"
	"studiosite/internal/handlers"
	"studiosite/internal/middleware"
	"studiosite/internal/telemetry"
)

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg          *config.Config
	Logger       *slog.Logger
	SiteHandler  *handlers.SiteHandler
	AssetHandler http.Handler
	Limiter      *middleware.IPRateLimiter
	FormLimiter  *middleware.IPRateLimiter
	Visitors     *middleware.VisitorStats
	Errors       errorlog.Reporter
	Tracer       trace.Tracer
	Metrics      *telemetry.Metrics
	CSRF         *middleware.CSRF
	CSP          *middleware.CSP
}

func NewRouter(deps RouterDependencies) http.Handler {
	site := deps.SiteHandler

	// routing
	appMux := http.NewServeMux()

	// static files
	static := http.FileServer(http.Dir("static"))
	appMux.Handle("GET /static/", http.StripPrefix("/static/", static))
	appMux.Handle("GET /assets/{key}", deps.AssetHandler)

	apiStack := func(h http.Handler) http.Handler {
		return deps.Limiter.Middleware(deps.Logger)(h)
	}
	formStack := func(h http.Handler) http.Handler {
		return deps.FormLimiter.Middleware(deps.Logger)(apiStack(h))
	}

	// forms
	appMux.Handle("POST /api/contact", formStack(site.HandleContact()))
	appMux.Handle("POST /api/job-applications", formStack(site.HandleJobApplication()))
	appMux.Handle("POST /api/errors", formStack(site.HandleClientError()))
	appMux.Handle("GET /api/errors", apiStack(site.HandleClientErrorHealth()))
	appMux.Handle("GET /api/csrf-token", apiStack(site.HandleCSRFToken()))

	// content api
	appMux.Handle("GET /api/blogs", apiStack(site.HandleBlogsAPI()))
	appMux.Handle("GET /api/blogs/range", apiStack(site.HandleBlogRangeAPI()))
	appMux.Handle("GET /api/blogs/{slug}", apiStack(site.HandleBlogAPI()))
	appMux.Handle("GET /api/games", apiStack(site.HandleGamesAPI()))
	appMux.Handle("GET /api/games/filter", apiStack(site.HandleGameFilterAPI()))
	appMux.Handle("GET /api/games/{slug}", apiStack(site.HandleGameAPI()))
	appMux.Handle("GET /api/jobs", apiStack(site.HandleJobsAPI()))
	appMux.Handle("GET /api/jobs/filter", apiStack(site.HandleJobFilterAPI()))
	appMux.Handle("GET /api/jobs/{slug}", apiStack(site.HandleJobAPI()))
	appMux.Handle("GET /api/media", apiStack(site.HandleMediaListAPI()))
	appMux.Handle("GET /api/media/{slug}", apiStack(site.HandleMediaAPI()))
	appMux.Handle("GET /api/legal", apiStack(site.HandleLegalListAPI()))
	appMux.Handle("GET /api/legal/{slug}", apiStack(site.HandleLegalAPI()))
	appMux.Handle("GET /api/slides", apiStack(site.HandleSlidesAPI()))
	appMux.Handle("GET /api/search", apiStack(site.HandleSearchAPI()))
	appMux.Handle("GET /api/home", apiStack(site.HandleHomeAPI()))
	appMux.Handle("GET /api/stats", apiStack(site.HandleStatsAPI()))
	appMux.Handle("GET /api/related/{kind}/{slug}", apiStack(site.HandleRelatedAPI()))
	appMux.Handle("/api/", apiStack(http.HandlerFunc(site.APINotFound)))

	// pages
	appMux.Handle("GET /{$}", site.HandleIndex())
	appMux.Handle("GET /news", site.HandleNews())
	appMux.Handle("GET /news/{slug}", site.HandleNewsPost())
	appMux.Handle("GET /games", site.HandleGames())
	appMux.Handle("GET /games/{slug}", site.HandleGame())
	appMux.Handle("GET /jobs", site.HandleJobs())
	appMux.Handle("GET /jobs/{slug}", site.HandleJob())
	appMux.Handle("GET /legal", site.HandleLegalIndex())
	appMux.Handle("GET /legal/{slug}", site.HandleLegal())
	appMux.Handle("GET /services", site.HandleServices())

	appMux.Handle("/", publicFiles(deps.Cfg.App.PublicDir, http.HandlerFunc(site.NotFound)))

	middlewareStack := []middleware.Middleware{
		// order matters: the request logger and trace id are set first
		middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger),
		middleware.Recover(deps.Errors, site.PanicPage()),
		deps.CSP.Middleware(),
		deps.Visitors.Middleware(),
		deps.CSRF.Middleware(deps.Logger),
	}

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	rootMux.Handle("GET /metrics", site.HandleMetrics())

	// lightweight for docker keepalive
	rootMux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	rootMux.Handle("/", appHandler)

	return rootMux
}

// publicFiles serves regular files under dir from the site root and hands
// every other path to notFound.
func publicFiles(dir string, notFound http.Handler) http.Handler {
	if dir == "" {
		return notFound
	}
	fsys := os.DirFS(dir)
	files := http.FileServerFS(fsys)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			if info, err := fs.Stat(fsys, name); err == nil && info.Mode().IsRegular() {
				files.ServeHTTP(w, r)
				return
			}
		}
		notFound.ServeHTTP(w, r)
	})
}
