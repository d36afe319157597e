package handlers

import (
	"net/http"

	"studiosite/internal/components"
	"studiosite/internal/content"
	"studiosite/internal/richtext"
)

const relatedOnPage = 3

// List pages never fail: a broken collection renders as empty and is logged.

func (h *SiteHandler) HandleIndex() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		home, err := h.Content.HomepageContent(r.Context())
		h.fetched(r.Context(), "home", err)
		if err != nil {
			h.logger(r).Error("loading home page content", "err", err)
			home = content.HomepageContent{}
		}
		h.render(w, r, http.StatusOK, components.Home(h.newCommonData(r), h.home(home)))
	})
}

func (h *SiteHandler) HandleNews() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.Content.Blogs.GetAll(r.Context(), content.ListOptions{})
		h.fetched(r.Context(), "blogs", err)
		if err != nil {
			h.logger(r).Error("listing blogs", "err", err)
		}
		h.render(w, r, http.StatusOK, components.NewsList(h.newCommonData(r), each(res.Items, h.blog)))
	})
}

func (h *SiteHandler) HandleNewsPost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		b, err := h.Content.Blogs.GetBySlug(r.Context(), slug)
		h.fetched(r.Context(), "blogs", err)
		if err != nil {
			h.pageError(w, r, err)
			return
		}

		related, err := h.Content.RelatedBlogs(r.Context(), slug, relatedOnPage)
		if err != nil {
			h.logger(r).Warn("loading related blogs", "slug", slug, "err", err)
		}

		b = h.blog(b)
		h.render(w, r, http.StatusOK, components.NewsPost(h.newCommonData(r), b,
			richtext.EstimateReadingTime(b.Content), each(related, h.blog)))
	})
}

func (h *SiteHandler) HandleGames() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.Content.Games.GetAll(r.Context(), content.ListOptions{})
		h.fetched(r.Context(), "games", err)
		if err != nil {
			h.logger(r).Error("listing games", "err", err)
		}
		h.render(w, r, http.StatusOK, components.GameList(h.newCommonData(r), each(res.Items, h.game)))
	})
}

func (h *SiteHandler) HandleGame() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		g, err := h.Content.Games.GetBySlug(r.Context(), slug)
		h.fetched(r.Context(), "games", err)
		if err != nil {
			h.pageError(w, r, err)
			return
		}

		related, err := h.Content.RelatedGames(r.Context(), slug, relatedOnPage)
		if err != nil {
			h.logger(r).Warn("loading related games", "slug", slug, "err", err)
		}
		h.render(w, r, http.StatusOK, components.GameDetail(h.newCommonData(r), h.game(g), each(related, h.game)))
	})
}

func (h *SiteHandler) HandleJobs() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.Content.Jobs.GetAll(r.Context(), content.ListOptions{})
		h.fetched(r.Context(), "jobs", err)
		if err != nil {
			h.logger(r).Error("listing jobs", "err", err)
		}
		h.render(w, r, http.StatusOK, components.JobList(h.newCommonData(r), each(res.Items, h.job)))
	})
}

func (h *SiteHandler) HandleJob() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		j, err := h.Content.Jobs.GetBySlug(r.Context(), r.PathValue("slug"))
		h.fetched(r.Context(), "jobs", err)
		if err != nil {
			h.pageError(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.JobDetail(h.newCommonData(r), h.job(j)))
	})
}

func (h *SiteHandler) HandleLegalIndex() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.Content.Legal.GetAll(r.Context(), content.ListOptions{})
		h.fetched(r.Context(), "legal", err)
		if err != nil {
			h.logger(r).Error("listing legal documents", "err", err)
		}
		h.render(w, r, http.StatusOK, components.LegalList(h.newCommonData(r), res.Items))
	})
}

func (h *SiteHandler) HandleLegal() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := h.Content.Legal.GetBySlug(r.Context(), r.PathValue("slug"))
		h.fetched(r.Context(), "legal", err)
		if err != nil {
			h.pageError(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.LegalDoc(h.newCommonData(r), h.legal(d)))
	})
}

func (h *SiteHandler) HandleServices() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, components.Services(h.newCommonData(r)))
	})
}
