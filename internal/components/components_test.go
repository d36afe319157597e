package components

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"studiosite/internal/content"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatal(err)
	}
	return b.String()
}

func testCommon(path string) Common {
	return Common{SiteTitle: "Studio", Path: path, CSRFToken: "tok", Year: 2024}
}

func TestSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want []string
	}{
		{"/games/unknown", []string{"/games"}},
		{"/blog/post", []string{"/news"}},
		{"/articles/1", []string{"/news"}},
		{"/careers", []string{"/jobs"}},
		{"/contact-us", []string{"/services"}},
		{"/game-news", []string{"/games", "/news"}},
		{"/nothing-here", []string{"/games", "/news"}},
	}

	for _, tt := range tests {
		got := Suggestions(tt.path)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.path, got, tt.want)
			continue
		}
		for i, l := range got {
			if l.Href != tt.want[i] {
				t.Errorf("%s: link %d = %s, want %s", tt.path, i, l.Href, tt.want[i])
			}
		}
	}
}

func TestPagesEscapeCMSText(t *testing.T) {
	t.Parallel()
	g := content.Game{
		Slug:    "x",
		Title:   `<script>alert(1)</script>`,
		Tagline: `"quoted" & more`,
	}

	out := render(t, GameList(testCommon("/games"), []content.Game{g}))
	if strings.Contains(out, "<script>alert") {
		t.Error("title was not escaped")
	}
	if !strings.Contains(out, "&#34;quoted&#34; &amp; more") {
		t.Errorf("tagline not escaped as expected: %s", out)
	}
}

func TestUnsafeURLsAreSanitized(t *testing.T) {
	t.Parallel()
	g := content.Game{
		Slug:          "x",
		Title:         "X",
		DownloadLinks: []content.DownloadLink{{Platform: content.PlatformSteam, URL: "javascript:alert(1)"}},
	}

	out := render(t, GameDetail(testCommon("/games/x"), g, nil))
	if strings.Contains(out, "javascript:") {
		t.Error("javascript URL reached the page")
	}
	if !strings.Contains(out, "Steam") {
		t.Error("download button missing")
	}
}

func TestMissingImagesUseFallback(t *testing.T) {
	t.Parallel()
	out := render(t, NewsList(testCommon("/news"), []content.Blog{{Slug: "a", Title: "A"}}))
	if !strings.Contains(out, content.FallbackImage(content.ImageBlog)) {
		t.Errorf("fallback image missing: %s", out)
	}
}

func TestLayoutMarksActiveNav(t *testing.T) {
	t.Parallel()
	out := render(t, JobList(testCommon("/jobs"), nil))

	if !strings.Contains(out, `<a class="nav-link active" href="/jobs">`) {
		t.Error("careers link not active")
	}
	if !strings.Contains(out, `<meta name="csrf-token" content="tok">`) {
		t.Error("csrf meta tag missing")
	}
	if !strings.Contains(out, "There are no open positions") {
		t.Error("empty state missing")
	}
}

func TestServicesFormCarriesToken(t *testing.T) {
	t.Parallel()
	out := render(t, Services(testCommon("/services")))

	for _, want := range []string{
		`action="/api/contact"`,
		`enctype="multipart/form-data"`,
		`<input type="hidden" name="csrf_token" value="tok">`,
		`name="requirements"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("services page missing %q", want)
		}
	}
}

func TestErrorPageActions(t *testing.T) {
	t.Parallel()
	out := render(t, ErrorPage(testCommon("/news/broken"), 500, "Something went wrong", "oops"))

	for _, want := range []string{`href="/news/broken">Try again`, `href="/">Go home`, "News &amp; Blog"} {
		if !strings.Contains(out, want) {
			t.Errorf("error page missing %q", want)
		}
	}
}
