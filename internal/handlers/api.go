package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"studiosite/internal/content"
	"studiosite/internal/middleware"
	"studiosite/internal/richtext"
)

const (
	maxListLimit    = 100
	defaultRelated  = 3
	maxSearchLength = 200
)

var errBadPagination = errors.New("limit and offset must be non-negative integers")

func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errBadPagination
	}
	return n, nil
}

func listOptions(r *http.Request) (content.ListOptions, error) {
	limit, err := intParam(r, "limit")
	if err != nil {
		return content.ListOptions{}, err
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		return content.ListOptions{}, err
	}
	return content.ListOptions{Limit: min(limit, maxListLimit), Offset: offset}, nil
}

// multiParam collects repeated and comma separated values of name.
func multiParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func listHandler[T any](h *SiteHandler, collection string, list func(context.Context, content.ListOptions) (content.ListResult[T], error), fix func(T) T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opts, err := listOptions(r)
		if err != nil {
			badRequest(w, "Invalid pagination parameters")
			return
		}

		res, err := list(r.Context(), opts)
		h.fetched(r.Context(), collection, err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		res.Items = each(res.Items, fix)
		writeJSON(w, http.StatusOK, res)
	})
}

type detail[T any] struct {
	Item        T                  `json:"item"`
	ContentHTML string             `json:"contentHtml,omitempty"`
	ReadingTime int                `json:"readingTime,omitempty"`
	Headings    []richtext.Heading `json:"headings,omitempty"`
}

// detailHandler serves one entry by slug. doc may be nil for collections
// without a rich-text body.
func detailHandler[T any](h *SiteHandler, collection string, get func(context.Context, string) (T, error), fix func(T) T, doc func(T) *richtext.Node) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item, err := get(r.Context(), r.PathValue("slug"))
		h.fetched(r.Context(), collection, err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}

		item = fix(item)
		out := detail[T]{Item: item}
		if doc != nil {
			if n := doc(item); n != nil {
				out.ContentHTML = richtext.RenderHTML(n)
				out.ReadingTime = richtext.EstimateReadingTime(n)
				out.Headings = richtext.Headings(n)
			}
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func (h *SiteHandler) HandleBlogsAPI() http.Handler {
	return listHandler(h, "blogs", h.Content.Blogs.GetAll, h.blog)
}

func (h *SiteHandler) HandleBlogAPI() http.Handler {
	return detailHandler(h, "blogs", h.Content.Blogs.GetBySlug, h.blog,
		func(b content.Blog) *richtext.Node { return b.Content })
}

func (h *SiteHandler) HandleGamesAPI() http.Handler {
	return listHandler(h, "games", h.Content.Games.GetAll, h.game)
}

func (h *SiteHandler) HandleGameAPI() http.Handler {
	return detailHandler(h, "games", h.Content.Games.GetBySlug, h.game,
		func(g content.Game) *richtext.Node { return g.Content })
}

func (h *SiteHandler) HandleJobsAPI() http.Handler {
	return listHandler(h, "jobs", h.Content.Jobs.GetAll, h.job)
}

func (h *SiteHandler) HandleJobAPI() http.Handler {
	return detailHandler(h, "jobs", h.Content.Jobs.GetBySlug, h.job,
		func(j content.Job) *richtext.Node { return j.Content })
}

func (h *SiteHandler) HandleMediaListAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category := content.MediaCategory(r.URL.Query().Get("category"))
		if category == "" {
			listHandler(h, "media", h.Content.Media.GetAll, h.media).ServeHTTP(w, r)
			return
		}
		if !category.Valid() {
			badRequest(w, "Invalid media category")
			return
		}

		items, err := h.Content.Media.GetByCategory(r.Context(), category)
		h.fetched(r.Context(), "media", err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		items = each(items, h.media)
		writeJSON(w, http.StatusOK, content.ListResult[content.Media]{Items: items, Total: len(items)})
	})
}

func (h *SiteHandler) HandleMediaAPI() http.Handler {
	return detailHandler(h, "media", h.Content.Media.GetBySlug, h.media, nil)
}

func (h *SiteHandler) HandleLegalListAPI() http.Handler {
	return listHandler(h, "legal", h.Content.Legal.GetAll, h.legal)
}

func (h *SiteHandler) HandleLegalAPI() http.Handler {
	return detailHandler(h, "legal", h.Content.Legal.GetBySlug, h.legal,
		func(d content.Legal) *richtext.Node { return d.Content })
}

// HandleSlidesAPI lists carousel slides. ?all=true includes inactive ones.
func (h *SiteHandler) HandleSlidesAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		get := h.Content.Slides.GetActive
		if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
			get = h.Content.Slides.GetAllIncludingInactive
		}
		slides, err := get(r.Context())
		h.fetched(r.Context(), "slides", err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		if slides == nil {
			slides = []content.Slide{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": each(slides, h.slide)})
	})
}

func (h *SiteHandler) HandleSearchAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			badRequest(w, "Missing search query")
			return
		}
		if len(q) > maxSearchLength {
			badRequest(w, "Search query too long")
			return
		}
		limit, err := intParam(r, "limit")
		if err != nil {
			badRequest(w, "Invalid limit")
			return
		}

		res, err := h.Content.GlobalSearch(r.Context(), q, min(limit, maxListLimit))
		h.fetched(r.Context(), "search", err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		res.Blogs = each(res.Blogs, h.blog)
		res.Games = each(res.Games, h.game)
		res.Jobs = each(res.Jobs, h.job)
		writeJSON(w, http.StatusOK, res)
	})
}

func (h *SiteHandler) HandleGameFilterAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		games, err := h.Content.FilterGames(r.Context(), content.GameFilter{
			Genres:    multiParam(r, "genre"),
			Platforms: multiParam(r, "platform"),
			ArtStyles: multiParam(r, "artStyle"),
		})
		h.fetched(r.Context(), "games", err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		games = each(games, h.game)
		writeJSON(w, http.StatusOK, content.ListResult[content.Game]{Items: games, Total: len(games)})
	})
}

func (h *SiteHandler) HandleJobFilterAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := content.JobFilter{Locations: multiParam(r, "location")}
		for _, t := range multiParam(r, "type") {
			jt := content.JobType(strings.ToLower(t))
			if !jt.Valid() {
				badRequest(w, "Invalid job type")
				return
			}
			f.JobTypes = append(f.JobTypes, jt)
		}
		if s := r.URL.Query().Get("remote"); s != "" {
			remote, err := strconv.ParseBool(s)
			if err != nil {
				badRequest(w, "Invalid remote flag")
				return
			}
			f.Remote = &remote
		}

		jobs, err := h.Content.FilterJobs(r.Context(), f)
		h.fetched(r.Context(), "jobs", err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		jobs = each(jobs, h.job)
		writeJSON(w, http.StatusOK, content.ListResult[content.Job]{Items: jobs, Total: len(jobs)})
	})
}

func dateParam(r *http.Request, name string) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid date " + name)
}

func (h *SiteHandler) HandleBlogRangeAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := dateParam(r, "start")
		if err != nil {
			badRequest(w, "Invalid start date")
			return
		}
		end, err := dateParam(r, "end")
		if err != nil {
			badRequest(w, "Invalid end date")
			return
		}

		blogs, err := h.Content.FilterBlogsByDateRange(r.Context(), start, end)
		h.fetched(r.Context(), "blogs", err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		blogs = each(blogs, h.blog)
		writeJSON(w, http.StatusOK, content.ListResult[content.Blog]{Items: blogs, Total: len(blogs)})
	})
}

func (h *SiteHandler) HandleHomeAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		home, err := h.Content.HomepageContent(r.Context())
		h.fetched(r.Context(), "home", err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, h.home(home))
	})
}

func (h *SiteHandler) HandleStatsAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.Content.ContentStats(r.Context())
		h.fetched(r.Context(), "stats", err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})
}

func (h *SiteHandler) HandleRelatedAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind := content.RelatedKind(r.PathValue("kind"))
		switch kind {
		case content.RelatedBlogs, content.RelatedGames, content.RelatedJobs:
		default:
			badRequest(w, "Invalid content kind")
			return
		}
		limit, err := intParam(r, "limit")
		if err != nil {
			badRequest(w, "Invalid limit")
			return
		}
		if limit == 0 {
			limit = defaultRelated
		}

		related, err := h.Content.RelatedContent(r.Context(), kind, r.PathValue("slug"), min(limit, maxListLimit))
		h.fetched(r.Context(), string(kind), err)
		if err != nil {
			h.apiContentError(w, r, err)
			return
		}
		related.Blogs = each(related.Blogs, h.blog)
		related.Games = each(related.Games, h.game)
		related.Jobs = each(related.Jobs, h.job)
		writeJSON(w, http.StatusOK, related)
	})
}

// HandleCSRFToken hands the token to scripts that post forms.
func (h *SiteHandler) HandleCSRFToken() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": middleware.CSRFToken(r)})
	})
}
