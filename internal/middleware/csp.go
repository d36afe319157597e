package middleware

import (
	"net/http"
	"strings"
)

// CSP sets the content security policy and the other security headers on
// every response.
type CSP struct {
	isProd bool
	header string
}

// NewCSP builds the policy. imageSources are extra origins images may load
// from, such as the public bucket URL or a CDN. Blank entries are skipped.
func NewCSP(isProd bool, imageSources ...string) *CSP {
	images := []string{"'self'", "data:"}
	for _, s := range imageSources {
		if s = strings.TrimSpace(s); s != "" {
			images = append(images, s)
		}
	}

	directives := [][]string{
		{"default-src", "'self'"},
		{"script-src", "'self'"},
		{"style-src", "'self'", "'unsafe-inline'", "https://fonts.googleapis.com"},
		append([]string{"img-src"}, images...),
		{"font-src", "'self'", "https://fonts.gstatic.com"},
		{"connect-src", "'self'"},
		{"frame-ancestors", "'none'"},
		{"base-uri", "'self'"},
		{"form-action", "'self'"},
	}
	parts := make([]string, len(directives))
	for i, d := range directives {
		parts[i] = strings.Join(d, " ")
	}

	return &CSP{isProd: isProd, header: strings.Join(parts, "; ")}
}

func (c *CSP) Header() string { return c.header }

func (c *CSP) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", c.header)
			if c.isProd {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
