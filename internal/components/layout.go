package components

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

var navLinks = []Link{
	{Href: "/games", Label: "Games"},
	{Href: "/news", Label: "News"},
	{Href: "/jobs", Label: "Careers"},
	{Href: "/services", Label: "Services"},
}

// Layout wraps body in the page shell.
func Layout(c Common, title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		fullTitle := c.SiteTitle
		if title != "" {
			fullTitle = title + " | " + c.SiteTitle
		}

		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		if c.CSRFToken != "" {
			h.printf(`<meta name="csrf-token" content="%s">`, c.CSRFToken)
		}
		h.printf(`<title>%s</title>`, fullTitle)
		h.raw(`<link rel="stylesheet" href="/static/site.css"></head><body>`)

		h.printf(`<header class="site-header"><a class="brand" href="/">%s</a><nav>`, c.SiteTitle)
		for _, l := range navLinks {
			class := "nav-link"
			if strings.HasPrefix(c.Path, l.Href) {
				class += " active"
			}
			h.printf(`<a class="%s" href="%s">%s</a>`, class, l.Href, l.Label)
		}
		h.raw(`</nav></header><main>`)

		h.render(ctx, body)

		h.raw(`</main><footer class="site-footer">`)
		h.printf(`<p>&copy; %d %s</p>`, c.Year, c.SiteTitle)
		h.raw(`<a href="/legal">Legal</a></footer>`)
		h.raw(`<script src="/static/site.js" defer></script></body></html>`)
	})
}
