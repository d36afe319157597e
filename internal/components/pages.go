package components

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"studiosite/internal/content"
	"studiosite/internal/richtext"
)

func image(h *writer, img content.ImageAsset, kind content.ImageKind, class string) {
	r := img.Resolve(kind)
	h.printf(`<img class="%s" src="%s" alt="%s" width="%d" height="%d" loading="lazy">`,
		class, safeURL(r.Src), r.Alt, r.Width, r.Height)
}

// date trims timestamps to the calendar day.
func date(s string) string {
	if d, _, ok := strings.Cut(s, "T"); ok {
		return d
	}
	return s
}

func Home(c Common, home content.HomepageContent) templ.Component {
	return Layout(c, "", component(func(ctx context.Context, h *writer) {
		if len(home.ActiveSlides) > 0 {
			h.raw(`<section class="hero-carousel">`)
			for _, s := range home.ActiveSlides {
				slide(h, s)
			}
			h.raw(`</section>`)
		}

		h.raw(`<section class="featured-games"><h2>Our Games</h2><div class="grid">`)
		for _, g := range home.FeaturedGames {
			gameCard(h, g)
		}
		h.raw(`</div><a class="more" href="/games">Browse Games</a></section>`)

		h.raw(`<section class="recent-news"><h2>Latest News</h2><div class="grid">`)
		for _, b := range home.RecentBlogs {
			blogCard(h, b)
		}
		h.raw(`</div><a class="more" href="/news">All News</a></section>`)

		if len(home.OpenJobs) > 0 {
			h.raw(`<section class="open-jobs"><h2>Join the Team</h2><ul>`)
			for _, j := range home.OpenJobs {
				jobCard(h, j)
			}
			h.raw(`</ul><a class="more" href="/jobs">Job Openings</a></section>`)
		}
	}))
}

func slide(h *writer, s content.Slide) {
	h.raw(`<div class="slide">`)
	image(h, s.BackgroundImage, content.ImageCarousel, "slide-bg")
	h.raw(`<div class="slide-body">`)
	if s.TitleImage != nil && !s.TitleImage.IsZero() {
		image(h, *s.TitleImage, content.ImageLogo, "slide-title-image")
	} else {
		h.printf(`<h2>%s</h2>`, s.Title)
	}
	if s.OverlayText != "" {
		h.printf(`<p>%s</p>`, s.OverlayText)
	}
	for _, b := range s.CTAButtons {
		target := ""
		if b.Target != "" {
			target = ` target="` + templ.EscapeString(b.Target) + `"`
			if b.Target == "_blank" {
				target += ` rel="noopener noreferrer"`
			}
		}
		h.printf(`<a class="btn btn-%s" href="%s"`, string(b.Style), safeURL(b.URL))
		h.raw(target)
		h.printf(`>%s</a>`, b.Text)
	}
	h.raw(`</div></div>`)
}

func gameCard(h *writer, g content.Game) {
	h.printf(`<article class="card game-card"><a href="/games/%s">`, g.Slug)
	image(h, g.CoverImage, content.ImageGame, "card-image")
	h.printf(`<h3>%s</h3>`, g.Title)
	if g.Tagline != "" {
		h.printf(`<p class="tagline">%s</p>`, g.Tagline)
	}
	h.raw(`</a></article>`)
}

func blogCard(h *writer, b content.Blog) {
	h.printf(`<article class="card blog-card"><a href="/news/%s">`, b.Slug)
	image(h, b.CoverImage, content.ImageBlog, "card-image")
	h.printf(`<time datetime="%s">%s</time><h3>%s</h3>`, b.PublishedAt, date(b.PublishedAt), b.Title)
	if b.Excerpt != "" {
		h.printf(`<p>%s</p>`, b.Excerpt)
	}
	h.raw(`</a></article>`)
}

func jobCard(h *writer, j content.Job) {
	h.printf(`<li class="job-card"><a href="/jobs/%s"><h3>%s</h3>`, j.Slug, j.Title)
	h.printf(`<span class="job-type">%s</span>`, jobTypeLabel(j.JobType))
	if j.Location != "" {
		h.printf(`<span class="location">%s</span>`, j.Location)
	}
	h.raw(`</a></li>`)
}

func jobTypeLabel(t content.JobType) string {
	switch t {
	case content.JobPartTime:
		return "Part-time"
	case content.JobContract:
		return "Contract"
	case content.JobInternship:
		return "Internship"
	default:
		return "Full-time"
	}
}

func NewsList(c Common, blogs []content.Blog) templ.Component {
	return Layout(c, "News", component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="news"><h1>News &amp; Blog</h1>`)
		if len(blogs) == 0 {
			h.raw(`<p class="empty">No posts yet. Check back soon.</p>`)
		}
		h.raw(`<div class="grid">`)
		for _, b := range blogs {
			blogCard(h, b)
		}
		h.raw(`</div></section>`)
	}))
}

func NewsPost(c Common, b content.Blog, readingTime int, related []content.Blog) templ.Component {
	return Layout(c, b.Title, component(func(ctx context.Context, h *writer) {
		h.raw(`<article class="blog-post">`)
		image(h, b.CoverImage, content.ImageBlog, "cover")
		h.printf(`<h1>%s</h1><p class="meta"><time datetime="%s">%s</time>`, b.Title, b.PublishedAt, date(b.PublishedAt))
		if readingTime > 0 {
			h.printf(` &middot; %d min read`, readingTime)
		}
		h.raw(`</p>`)
		h.raw(`<div class="prose">`)
		h.render(ctx, richtext.Component(b.Content))
		h.raw(`</div></article>`)

		if len(related) > 0 {
			h.raw(`<aside class="related"><h2>More News</h2><div class="grid">`)
			for _, r := range related {
				blogCard(h, r)
			}
			h.raw(`</div></aside>`)
		}
	}))
}

func GameList(c Common, games []content.Game) templ.Component {
	return Layout(c, "Games", component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="games"><h1>Our Games</h1>`)
		if len(games) == 0 {
			h.raw(`<p class="empty">No games to show yet.</p>`)
		}
		h.raw(`<div class="grid">`)
		for _, g := range games {
			gameCard(h, g)
		}
		h.raw(`</div></section>`)
	}))
}

var platformLabels = map[content.DownloadPlatform]string{
	content.PlatformSteam:      "Steam",
	content.PlatformEpic:       "Epic Games Store",
	content.PlatformAppStore:   "App Store",
	content.PlatformGooglePlay: "Google Play",
}

func GameDetail(c Common, g content.Game, related []content.Game) templ.Component {
	return Layout(c, g.Title, component(func(ctx context.Context, h *writer) {
		h.raw(`<article class="game-detail">`)
		image(h, g.CoverImage, content.ImageGame, "cover")
		h.printf(`<h1>%s</h1>`, g.Title)
		if g.Tagline != "" {
			h.printf(`<p class="tagline">%s</p>`, g.Tagline)
		}

		h.raw(`<dl class="facts">`)
		for _, f := range []struct{ label, value string }{
			{"Genres", g.Genres},
			{"Art style", g.ArtStyles},
			{"Platforms", g.Platforms},
		} {
			if f.value != "" {
				h.printf(`<dt>%s</dt><dd>%s</dd>`, f.label, f.value)
			}
		}
		h.raw(`</dl>`)

		if len(g.DownloadLinks) > 0 {
			h.raw(`<div class="downloads">`)
			for _, l := range g.DownloadLinks {
				h.printf(`<a class="btn btn-download" href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
					safeURL(l.URL), platformLabels[l.Platform])
			}
			h.raw(`</div>`)
		}

		h.raw(`<div class="prose">`)
		h.render(ctx, richtext.Component(g.Content))
		h.raw(`</div></article>`)

		if len(related) > 0 {
			h.raw(`<aside class="related"><h2>More Games</h2><div class="grid">`)
			for _, r := range related {
				gameCard(h, r)
			}
			h.raw(`</div></aside>`)
		}
	}))
}

func JobList(c Common, jobs []content.Job) templ.Component {
	return Layout(c, "Careers", component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="jobs"><h1>Job Openings</h1>`)
		if len(jobs) == 0 {
			h.raw(`<p class="empty">There are no open positions right now.</p>`)
		}
		h.raw(`<ul class="job-list">`)
		for _, j := range jobs {
			jobCard(h, j)
		}
		h.raw(`</ul></section>`)
	}))
}

func JobDetail(c Common, j content.Job) templ.Component {
	return Layout(c, j.Title, component(func(ctx context.Context, h *writer) {
		h.printf(`<article class="job-detail"><h1>%s</h1><p class="meta"><span class="job-type">%s</span>`,
			j.Title, jobTypeLabel(j.JobType))
		if j.Location != "" {
			h.printf(` &middot; <span class="location">%s</span>`, j.Location)
		}
		h.raw(`</p>`)
		if j.Description != "" {
			h.printf(`<p class="lead">%s</p>`, j.Description)
		}
		if len(j.Requirements) > 0 {
			h.raw(`<h2>Requirements</h2><ul class="requirements">`)
			for _, req := range j.Requirements {
				h.printf(`<li>%s</li>`, req)
			}
			h.raw(`</ul>`)
		}
		h.raw(`<div class="prose">`)
		h.render(ctx, richtext.Component(j.Content))
		h.raw(`</div></article>`)

		h.render(ctx, ApplyForm(c, j.Slug))
	}))
}

func LegalList(c Common, docs []content.Legal) templ.Component {
	return Layout(c, "Legal", component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="legal"><h1>Legal</h1><ul>`)
		for _, d := range docs {
			h.printf(`<li><a href="/legal/%s">%s</a> <span class="updated">Last updated %s</span></li>`,
				d.Slug, d.Title, date(d.LastUpdated))
		}
		h.raw(`</ul></section>`)
	}))
}

func LegalDoc(c Common, d content.Legal) templ.Component {
	return Layout(c, d.Title, component(func(ctx context.Context, h *writer) {
		h.printf(`<article class="legal-doc"><h1>%s</h1><p class="meta">Last updated %s</p>`, d.Title, date(d.LastUpdated))
		h.raw(`<div class="prose">`)
		h.render(ctx, richtext.Component(d.Content))
		h.raw(`</div></article>`)
	}))
}
