package components

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

var popularPages = []Link{
	{Href: "/games", Label: "Games"},
	{Href: "/news", Label: "News & Blog"},
	{Href: "/jobs", Label: "Careers"},
	{Href: "/services", Label: "Services"},
}

// Suggestions picks links related to a path that did not resolve.
func Suggestions(path string) []Link {
	p := strings.ToLower(path)
	var out []Link
	if strings.Contains(p, "game") {
		out = append(out, Link{Href: "/games", Label: "Browse Games"})
	}
	if strings.Contains(p, "blog") || strings.Contains(p, "news") || strings.Contains(p, "article") {
		out = append(out, Link{Href: "/news", Label: "Latest News"})
	}
	if strings.Contains(p, "job") || strings.Contains(p, "career") {
		out = append(out, Link{Href: "/jobs", Label: "Job Openings"})
	}
	if strings.Contains(p, "service") || strings.Contains(p, "contact") {
		out = append(out, Link{Href: "/services", Label: "Our Services"})
	}
	if len(out) == 0 {
		out = []Link{
			{Href: "/games", Label: "Browse Games"},
			{Href: "/news", Label: "Latest News"},
		}
	}
	return out
}

// NotFoundPage shows the requested path and suggestions based on it.
func NotFoundPage(c Common) templ.Component {
	return Layout(c, "Page Not Found", component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="error-page not-found"><p class="code">404</p><h1>Page Not Found</h1>`)
		h.raw(`<p>Sorry, we couldn't find the page you're looking for.</p>`)
		h.printf(`<p class="requested">Requested path: <code>%s</code></p>`, c.Path)
		h.raw(`<div class="actions"><a class="btn" href="/">Go Home</a><a class="btn" href="/games">Browse Games</a></div>`)
		h.raw(`<h2>You might be looking for</h2><ul class="suggestions">`)
		for _, l := range Suggestions(c.Path) {
			h.printf(`<li><a href="%s">%s</a></li>`, l.Href, l.Label)
		}
		h.raw(`</ul></section>`)
	}))
}

// ErrorPage is shown when a page fails to load. "Try again" reloads the
// requested path.
func ErrorPage(c Common, code int, title, message string) templ.Component {
	return Layout(c, title, component(func(ctx context.Context, h *writer) {
		h.printf(`<section class="error-page"><p class="code">%d</p><h1>%s</h1><p>%s</p>`, code, title, message)
		h.printf(`<div class="actions"><a class="btn btn-primary" href="%s">Try again</a><a class="btn" href="/">Go home</a></div>`,
			safeURL(c.Path))
		h.raw(`<h2>Try these popular pages instead</h2><ul class="popular">`)
		for _, l := range popularPages {
			h.printf(`<li><a href="%s">%s</a></li>`, l.Href, l.Label)
		}
		h.raw(`</ul></section>`)
	}))
}
