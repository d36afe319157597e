// Package components renders the site's HTML pages as templ components.
package components

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// Common is the data every page needs.
type Common struct {
	SiteTitle string
	Path      string
	CSRFToken string
	Year      int
}

func NewCommon(siteTitle, path, csrfToken string) Common {
	return Common{
		SiteTitle: siteTitle,
		Path:      path,
		CSRFToken: csrfToken,
		Year:      time.Now().Year(),
	}
}

type Link struct {
	Href  string
	Label string
}

// writer keeps the first write error so templates can be written without
// checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (h *writer) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes escaped text.
func (h *writer) text(s string) {
	h.raw(templ.EscapeString(s))
}

// printf formats with every argument escaped.
func (h *writer) printf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			escaped[i] = templ.EscapeString(v)
		default:
			escaped[i] = v
		}
	}
	h.raw(fmt.Sprintf(format, escaped...))
}

func (h *writer) render(ctx context.Context, c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
}

func component(fn func(ctx context.Context, h *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{w: w}
		fn(ctx, h)
		return h.err
	})
}

// safeURL drops javascript: and similar URLs coming from CMS data.
func safeURL(u string) string {
	return string(templ.URL(u))
}
