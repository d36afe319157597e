package handlers

import (
	"errors"
	"net/http"

	"studiosite/internal/components"
	"studiosite/internal/content"
)

// InternalError handles 500 errors
func (h *SiteHandler) InternalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Errors.LogError(r.Context(), err, "path", r.URL.Path, "method", r.Method)
	h.render(w, r, http.StatusInternalServerError, components.ErrorPage(h.newCommonData(r),
		http.StatusInternalServerError,
		"Something went wrong",
		"We couldn't load this page. We've logged the error and will look into it.",
	))
}

// NotFound serves the 404 page with suggestions based on the requested path.
func (h *SiteHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.logger(r).Warn("404 not found", "path", r.URL.Path, "method", r.Method)
	h.render(w, r, http.StatusNotFound, components.NotFoundPage(h.newCommonData(r)))
}

func (h *SiteHandler) APINotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, apiError{Error: "Not found"})
}

// PanicPage is the fallback rendered after a recovered panic.
func (h *SiteHandler) PanicPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusInternalServerError, components.ErrorPage(h.newCommonData(r),
			http.StatusInternalServerError,
			"Something went wrong",
			"An unexpected error occurred. Please try again.",
		))
	})
}

// pageError picks the error page for a failed detail fetch.
func (h *SiteHandler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	switch content.CodeOf(err) {
	case content.CodeNotFound, content.CodeInvalidSlug:
		h.NotFound(w, r)
	default:
		h.InternalError(w, r, err)
	}
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// apiContentError maps content errors to JSON responses. Upstream CMS
// failures are a 502, anything unclassified a 500.
func (h *SiteHandler) apiContentError(w http.ResponseWriter, r *http.Request, err error) {
	code := content.CodeOf(err)
	msg := err.Error()
	var ce *content.ContentError
	if errors.As(err, &ce) && ce.Message != "" {
		msg = ce.Message
	}

	switch code {
	case content.CodeNotFound, content.CodeInvalidSlug:
		writeJSON(w, http.StatusNotFound, apiError{Error: msg, Code: string(code)})
	case content.CodeFetchError:
		h.Errors.LogError(r.Context(), err, "path", r.URL.Path)
		writeJSON(w, http.StatusBadGateway, apiError{Error: "Failed to fetch content", Code: string(code)})
	default:
		h.Errors.LogError(r.Context(), err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Internal server error", Code: string(code)})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, apiError{Error: msg})
}
