package richtext

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

const (
	classWrapper   = "prose prose-gray max-w-none"
	classParagraph = "mb-4"
	classOrdered   = "list-decimal pl-5 mb-4"
	classUnordered = "list-disc pl-5 mb-4"
	classListItem  = "mb-1"
	classStrong    = "font-bold"
	classEm        = "italic"
	classCode      = "bg-gray-100 rounded px-1 py-0.5 font-mono text-sm"
	classLink      = "text-blue-600 hover:underline"
	classFence     = "bg-gray-900 text-gray-100 rounded p-4 mb-4 overflow-x-auto"
	classQuote     = "border-l-4 border-gray-300 pl-4 italic mb-4"
	classImage     = "rounded mb-4"
)

var headingClasses = [...]string{
	"text-4xl font-bold mb-4 mt-6",
	"text-3xl font-semibold mb-3 mt-5",
	"text-2xl font-semibold mb-2 mt-4",
	"text-xl font-semibold mb-2 mt-3",
	"text-lg font-semibold mb-2 mt-3",
	"text-base font-semibold mb-2 mt-3",
}

var policy = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9:._\- ]*$`)).Globally()
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	return p
})

// RenderHTML renders the tree to sanitized HTML. A nil tree renders as the empty string.
func RenderHTML(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	write(&b, n, 0)
	return policy().Sanitize(b.String())
}

func Render(w io.Writer, n *Node) error {
	_, err := io.WriteString(w, RenderHTML(n))
	return err
}

// RenderSource parses markdown/markdoc source and renders it.
func RenderSource(source string) string {
	return RenderHTML(Parse(source))
}

// Component adapts a tree for page composition.
func Component(n *Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Render(w, n)
	})
}

func write(b *strings.Builder, n *Node, depth int) {
	if n == nil || depth > maxDepth {
		return
	}

	switch n.Kind {
	case KindText:
		b.WriteString(html.EscapeString(n.Value))
		return
	case KindTag:
	default:
		return
	}

	switch n.Name {
	case TagDocument:
		fmt.Fprintf(b, `<div class="%s">`, classWrapper)
		writeChildren(b, n, depth)
		b.WriteString("</div>")
	case TagParagraph:
		element(b, "p", classParagraph, n, depth)
	case TagHeading:
		level := headingLevel(n.Attr("level"))
		element(b, "h"+strconv.Itoa(level), headingClasses[level-1], n, depth)
	case TagList:
		if truthy(n.Attr("ordered")) {
			start := ""
			if s, ok := intAttr(n.Attr("start")); ok && s != 1 {
				start = fmt.Sprintf(` start="%d"`, s)
			}
			fmt.Fprintf(b, `<ol class="%s"%s>`, classOrdered, start)
			writeChildren(b, n, depth)
			b.WriteString("</ol>")
			return
		}
		element(b, "ul", classUnordered, n, depth)
	case TagListItem, TagItem:
		element(b, "li", classListItem, n, depth)
	case TagStrong:
		element(b, "strong", classStrong, n, depth)
	case TagEm:
		element(b, "em", classEm, n, depth)
	case TagCode:
		if content, ok := n.Attr("content").(string); ok && len(n.Children) == 0 {
			fmt.Fprintf(b, `<code class="%s">%s</code>`, classCode, html.EscapeString(content))
			return
		}
		element(b, "code", classCode, n, depth)
	case TagLink:
		href, _ := n.Attr("href").(string)
		fmt.Fprintf(b, `<a href="%s" class="%s"`, html.EscapeString(href), classLink)
		if title, ok := n.Attr("title").(string); ok && title != "" {
			fmt.Fprintf(b, ` title="%s"`, html.EscapeString(title))
		}
		b.WriteString(">")
		writeChildren(b, n, depth)
		b.WriteString("</a>")
	case TagFence:
		lang, _ := n.Attr("language").(string)
		fmt.Fprintf(b, `<pre class="%s"><code`, classFence)
		if lang != "" {
			fmt.Fprintf(b, ` class="language-%s"`, html.EscapeString(lang))
		}
		b.WriteString(">")
		if content, ok := n.Attr("content").(string); ok && len(n.Children) == 0 {
			b.WriteString(html.EscapeString(content))
		} else {
			writeChildren(b, n, depth)
		}
		b.WriteString("</code></pre>")
	case TagQuote:
		element(b, "blockquote", classQuote, n, depth)
	case TagRule:
		b.WriteString("<hr>")
	case TagBreak:
		b.WriteString("<br>")
	case "softbreak":
		b.WriteString("\n")
	case TagImage:
		src, _ := n.Attr("src").(string)
		alt, _ := n.Attr("alt").(string)
		fmt.Fprintf(b, `<img src="%s" alt="%s" class="%s" loading="lazy">`,
			html.EscapeString(src), html.EscapeString(alt), classImage)
	case TagStrike:
		element(b, "del", "", n, depth)
	default:
		element(b, "div", "", n, depth)
	}
}

func element(b *strings.Builder, tag, class string, n *Node, depth int) {
	b.WriteString("<" + tag)
	if class != "" {
		fmt.Fprintf(b, ` class="%s"`, class)
	}
	b.WriteString(">")
	writeChildren(b, n, depth)
	b.WriteString("</" + tag + ">")
}

func writeChildren(b *strings.Builder, n *Node, depth int) {
	for _, c := range n.Children {
		write(b, c, depth+1)
	}
}

func headingLevel(v any) int {
	level, ok := intAttr(v)
	if !ok {
		return 1
	}
	return min(max(level, 1), 6)
}

func intAttr(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}
