package richtext

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	emojiast "github.com/yuin/goldmark-emoji/ast"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ImageResolver maps an image destination found in source to the path the site serves it under.
type ImageResolver func(src string) (string, error)

type Parser struct {
	engine goldmark.Markdown
}

type ParserOption func(*parserOptions)

type parserOptions struct {
	images ImageResolver
}

// WithImageResolver rewrites local image destinations while parsing.
func WithImageResolver(r ImageResolver) ParserOption {
	return func(o *parserOptions) { o.images = r }
}

func NewParser(opts ...ParserOption) *Parser {
	var o parserOptions
	for _, opt := range opts {
		opt(&o)
	}

	parserOpts := []parser.Option{}
	if o.images != nil {
		parserOpts = append(parserOpts,
			parser.WithASTTransformers(util.Prioritized(&imageTransformer{resolve: o.images}, 100)))
	}

	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Linkify,
			emoji.Emoji,
		),
		goldmark.WithParserOptions(parserOpts...),
	)
	return &Parser{engine: engine}
}

var defaultParser = sync.OnceValue(func() *Parser { return NewParser() })

// Parse turns markdown/markdoc source into a document tree using the default parser.
func Parse(source string) *Node {
	return defaultParser().Parse(source)
}

// Parse never fails: anything the engine chokes on yields Placeholder.
func (p *Parser) Parse(source string) (doc *Node) {
	defer func() {
		if r := recover(); r != nil {
			doc = Placeholder()
		}
	}()

	src := []byte(source)
	root := p.engine.Parser().Parse(text.NewReader(src))
	if root == nil {
		return Placeholder()
	}

	doc = convertBlock(root, src)
	if doc == nil || doc.Name != TagDocument {
		return Placeholder()
	}
	return doc
}

func convertBlock(n ast.Node, src []byte) *Node {
	switch v := n.(type) {
	case *ast.Document:
		return Tag(TagDocument, nil, convertChildren(v, src)...)
	case *ast.Paragraph:
		return Tag(TagParagraph, nil, convertChildren(v, src)...)
	case *ast.TextBlock:
		// tight list items carry their inline content directly
		return Tag(TagParagraph, nil, convertChildren(v, src)...)
	case *ast.Heading:
		return Tag(TagHeading, map[string]any{"level": v.Level}, convertChildren(v, src)...)
	case *ast.List:
		attrs := map[string]any{"ordered": v.IsOrdered()}
		if v.IsOrdered() && v.Start != 1 {
			attrs["start"] = v.Start
		}
		return Tag(TagList, attrs, convertChildren(v, src)...)
	case *ast.ListItem:
		return Tag(TagListItem, nil, unwrapTight(convertChildren(v, src))...)
	case *ast.Blockquote:
		return Tag(TagQuote, nil, convertChildren(v, src)...)
	case *ast.ThematicBreak:
		return Tag(TagRule, nil)
	case *ast.FencedCodeBlock:
		attrs := map[string]any{}
		if lang := v.Language(src); len(lang) > 0 {
			attrs["language"] = string(lang)
		}
		return Tag(TagFence, attrs, Text(blockLines(v, src)))
	case *ast.CodeBlock:
		return Tag(TagFence, nil, Text(blockLines(v, src)))
	case *ast.HTMLBlock:
		// raw html never reaches the tree
		return nil
	case *ast.Emphasis:
		name := TagEm
		if v.Level >= 2 {
			name = TagStrong
		}
		return Tag(name, nil, convertChildren(v, src)...)
	case *ast.CodeSpan:
		return Tag(TagCode, nil, Text(plainText(v, src)))
	case *ast.Link:
		attrs := map[string]any{"href": string(v.Destination)}
		if len(v.Title) > 0 {
			attrs["title"] = string(v.Title)
		}
		return Tag(TagLink, attrs, convertChildren(v, src)...)
	case *ast.AutoLink:
		url := string(v.URL(src))
		href := url
		if v.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			href = "mailto:" + url
		}
		return Tag(TagLink, map[string]any{"href": href}, Text(string(v.Label(src))))
	case *ast.Image:
		attrs := map[string]any{
			"src": string(v.Destination),
			"alt": plainText(v, src),
		}
		if len(v.Title) > 0 {
			attrs["title"] = string(v.Title)
		}
		return Tag(TagImage, attrs)
	case *ast.RawHTML:
		return nil
	case *ast.String:
		return Text(string(v.Value))
	case *extast.Strikethrough:
		return Tag(TagStrike, nil, convertChildren(v, src)...)
	case *emojiast.Emoji:
		if v.Value == nil {
			return Text(":" + string(v.ShortName) + ":")
		}
		return Text(string(v.Value.Unicode))
	default:
		return Tag(strings.ToLower(n.Kind().String()), nil, convertChildren(n, src)...)
	}
}

func convertChildren(parent ast.Node, src []byte) []*Node {
	var out []*Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			out = append(out, Text(string(t.Segment.Value(src))))
			switch {
			case t.HardLineBreak():
				out = append(out, Tag(TagBreak, nil))
			case t.SoftLineBreak():
				out = append(out, Text("\n"))
			}
			continue
		}
		if node := convertBlock(c, src); node != nil {
			out = append(out, node)
		}
	}
	return out
}

// unwrapTight flattens the paragraph goldmark wraps around tight list item text.
func unwrapTight(children []*Node) []*Node {
	if len(children) != 1 || children[0].Name != TagParagraph {
		return children
	}
	return children[0].Children
}

func blockLines(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

type imageTransformer struct {
	resolve ImageResolver
}

func (t *imageTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dst := string(img.Destination)
		if isExternalLink(dst) {
			return ast.WalkContinue, nil
		}

		resolved, err := t.resolve(dst)
		if err != nil {
			// keep the original destination
			return ast.WalkContinue, nil
		}
		img.Destination = []byte(resolved)

		return ast.WalkContinue, nil
	})
}

func isExternalLink(s string) bool {
	s = strings.ToLower(s)

	for _, prefix := range []string{"http://", "https://", "ftp://", "ftps://", "sftp://", "//", "data:"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
