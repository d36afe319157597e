package middleware

import (
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
)

// CSRF guards the form endpoints. Browsers fetch a token from
// /api/csrf-token and send it back in the X-CSRF-Token header or a
// csrf_token form field.
type CSRF struct {
	isProd bool
	exempt []string
}

// NewCSRF exempts the given paths, e.g. the error beacon which fires from
// pages that never fetched a token.
func NewCSRF(isProd bool, exemptPaths ...string) *CSRF {
	return &CSRF{isProd: isProd, exempt: exemptPaths}
}

func (c *CSRF) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		csrfHandler := nosurf.New(next)

		csrfHandler.SetBaseCookie(http.Cookie{
			HttpOnly: true,
			Path:     "/",
			Secure:   c.isProd,
			SameSite: http.SameSiteLaxMode,
		})
		csrfHandler.ExemptPaths(c.exempt...)

		csrfHandler.SetFailureHandler(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				LoggerFrom(r.Context(), logger).Warn("CSRF validation failed",
					"path", r.URL.Path, "reason", nosurf.Reason(r))
				writeJSONError(w, http.StatusForbidden, "Invalid CSRF token")
			}))

		return csrfHandler
	}
}

// CSRFToken returns the token for the current request.
func CSRFToken(r *http.Request) string {
	return nosurf.Token(r)
}
