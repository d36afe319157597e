package components

import (
	"context"

	"github.com/a-h/templ"
)

type service struct {
	title, desc, icon string
}

var services = []service{
	{
		title: "Unity game development",
		desc:  "2D and 3D games built in Unity, from prototype to launch, with gameplay and visuals tuned for every target platform.",
		icon:  "/unity-69.svg",
	},
	{
		title: "Unreal Engine development",
		desc:  "Immersive Unreal Engine games with high-end visuals, large worlds and responsive action.",
		icon:  "/unreal-1.svg",
	},
	{
		title: "PC and mobile games",
		desc:  "Games crafted for mouse and keyboard or for play on the go, tailored to each platform.",
		icon:  "/icons/service.png",
	},
}

var contactTopics = []string{"Game development", "Porting", "Art and animation", "Partnership", "Other"}

// Services is the services page with the "work together" contact form.
func Services(c Common) templ.Component {
	return Layout(c, "Services", component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="services"><h2>Why us for</h2><h1>Game Development</h1><div class="grid">`)
		for _, s := range services {
			h.printf(`<div class="card service"><img src="%s" alt="%s" width="50" height="50"><h3>%s</h3><p>%s</p></div>`,
				s.icon, s.title, s.title, s.desc)
		}
		h.raw(`</div></section>`)

		h.raw(`<section class="work-together"><h2>Let's work together</h2>`)
		h.raw(`<form class="js-api-form" method="post" action="/api/contact" enctype="multipart/form-data">`)
		csrfField(h, c)
		field(h, "text", "name", "Name", true)
		field(h, "email", "email", "Email", true)
		field(h, "tel", "mobile", "Mobile", true)
		h.raw(`<label>Topic <select name="topic" required><option value="">Choose a topic</option>`)
		for _, t := range contactTopics {
			h.printf(`<option value="%s">%s</option>`, t, t)
		}
		h.raw(`</select></label>`)
		h.raw(`<label>Requirements <textarea name="requirements" rows="5" required></textarea></label>`)
		h.raw(`<label>Brief (PDF, max 1MB) <input type="file" name="file" accept="application/pdf"></label>`)
		h.raw(`<button type="submit" class="btn btn-primary">Send</button><p class="form-status" role="status"></p></form></section>`)
	}))
}

// ApplyForm posts a job application for jobSlug.
func ApplyForm(c Common, jobSlug string) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="apply"><h2>Apply for this position</h2>`)
		h.raw(`<form class="js-api-form" method="post" action="/api/job-applications" enctype="multipart/form-data">`)
		csrfField(h, c)
		h.printf(`<input type="hidden" name="jobSlug" value="%s">`, jobSlug)
		field(h, "text", "name", "Full name", true)
		field(h, "email", "email", "Email", true)
		field(h, "tel", "mobile", "Phone", true)
		field(h, "url", "portfolio", "Portfolio URL", false)
		h.raw(`<label>Cover letter <textarea name="coverLetter" rows="6"></textarea></label>`)
		h.raw(`<label>Resume (PDF, DOC or DOCX, max 10MB) <input type="file" name="file" required ` +
			`accept=".pdf,.doc,.docx,application/pdf,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document"></label>`)
		h.raw(`<button type="submit" class="btn btn-primary">Submit application</button><p class="form-status" role="status"></p></form></section>`)
	})
}

func csrfField(h *writer, c Common) {
	if c.CSRFToken != "" {
		h.printf(`<input type="hidden" name="csrf_token" value="%s">`, c.CSRFToken)
	}
}

func field(h *writer, typ, name, label string, required bool) {
	req := ""
	if required {
		req = " required"
	}
	h.printf(`<label>%s <input type="%s" name="%s"`, label, typ, name)
	h.raw(req + `></label>`)
}
