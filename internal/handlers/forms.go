package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"studiosite/internal/errorlog"
	"studiosite/internal/middleware"
	"studiosite/internal/submissions"
)

const (
	// multipart overhead allowed on top of the attachment limit
	formOverhead     = 256 << 10
	formMemory       = 2 << 20
	maxClientReport  = 64 << 10
	genericFormError = "Something went wrong. Please try again."
)

type formResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ContactID     string `json:"contactId,omitempty"`
	ApplicationID string `json:"applicationId,omitempty"`
}

// parseForm reads a multipart body of at most limit bytes and returns the
// optional "file" part.
func parseForm(w http.ResponseWriter, r *http.Request, limit int64) (*submissions.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		return nil, func() {}, err
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cleanup, nil
	}
	if err != nil {
		return nil, cleanup, err
	}
	return upload(file, header), func() { file.Close(); cleanup() }, nil
}

func upload(f multipart.File, h *multipart.FileHeader) *submissions.Upload {
	return &submissions.Upload{
		Filename:    h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Body:        f,
	}
}

// badForm answers a body that could not be parsed as a multipart form.
func badForm(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "File too large", Message: "The upload exceeds the size limit"})
		return
	}
	badRequest(w, "Invalid form data")
}

// formError answers a failed submission. Validation problems go back to the
// visitor, anything else is reported.
func (h *SiteHandler) formError(w http.ResponseWriter, r *http.Request, err error, withMessage bool) {
	var verr *submissions.ValidationError
	if errors.As(err, &verr) {
		resp := apiError{Error: verr.Title}
		if withMessage {
			resp.Message = verr.Message
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	h.Errors.LogError(r.Context(), err, "path", r.URL.Path)
	resp := apiError{Error: "Internal server error"}
	if withMessage {
		resp.Message = genericFormError
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

// HandleContact accepts the "work together" form.
func (h *SiteHandler) HandleContact() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, cleanup, err := parseForm(w, r, submissions.MaxContactFileSize)
		defer cleanup()
		if err != nil {
			badForm(w, err)
			return
		}

		rec, err := h.Submissions.SubmitContact(r.Context(), submissions.ContactInput{
			Name:         r.FormValue("name"),
			Email:        r.FormValue("email"),
			Mobile:       r.FormValue("mobile"),
			Topic:        r.FormValue("topic"),
			Requirements: r.FormValue("requirements"),
			File:         file,
		})
		if err != nil {
			h.formError(w, r, err, true)
			return
		}

		writeJSON(w, http.StatusOK, formResponse{
			Success:   true,
			Message:   "Contact form submitted successfully",
			ContactID: rec.ID,
		})
	})
}

func (h *SiteHandler) HandleJobApplication() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resume, cleanup, err := parseForm(w, r, submissions.MaxResumeSize)
		defer cleanup()
		if err != nil {
			badForm(w, err)
			return
		}

		rec, err := h.Submissions.SubmitApplication(r.Context(), submissions.ApplicationInput{
			Name:        r.FormValue("name"),
			Email:       r.FormValue("email"),
			Mobile:      r.FormValue("mobile"),
			Portfolio:   r.FormValue("portfolio"),
			CoverLetter: r.FormValue("coverLetter"),
			JobSlug:     r.FormValue("jobSlug"),
			Resume:      resume,
		})
		if err != nil {
			h.formError(w, r, err, false)
			return
		}

		writeJSON(w, http.StatusOK, formResponse{
			Success:       true,
			Message:       "Application submitted successfully",
			ApplicationID: rec.ID,
		})
	})
}

// HandleClientError stores error reports sent by the browser.
func (h *SiteHandler) HandleClientError() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var report errorlog.ClientReport
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClientReport))
		if err := dec.Decode(&report); err != nil {
			badRequest(w, "Invalid error report")
			return
		}

		_, err := h.Errors.ReportClientError(r.Context(), report, errorlog.Origin{
			IP:           middleware.ClientIP(r, h.TrustedProxy),
			UserAgent:    r.UserAgent(),
			Referer:      r.Referer(),
			ForwardedFor: r.Header.Get("X-Forwarded-For"),
		})
		switch {
		case errors.Is(err, errorlog.ErrInvalidReport):
			badRequest(w, "Missing required fields: message and timestamp")
		case err != nil:
			h.logger(r).Error("storing client error", "err", err)
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "Failed to process error log"})
		default:
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		}
	})
}

// HandleClientErrorHealth answers GET /api/errors.
func (h *SiteHandler) HandleClientErrorHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}
