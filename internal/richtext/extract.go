package richtext

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

const wordsPerMinute = 200

// ExtractText concatenates every text leaf in document order, collapses runs of
// whitespace and trims. When maxLength > 0 and the text is longer, it is cut to
// maxLength runes, trimmed again and suffixed with "...".
func ExtractText(n *Node, maxLength int) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collect(&b, n, 0)

	text := strings.Join(strings.Fields(b.String()), " ")
	if maxLength <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return strings.TrimSpace(string(runes[:maxLength])) + "..."
}

// ExtractSourceText parses source first.
func ExtractSourceText(source string, maxLength int) string {
	return ExtractText(Parse(source), maxLength)
}

func collect(b *strings.Builder, n *Node, depth int) {
	if n == nil || depth > maxDepth {
		return
	}
	if n.Kind == KindText {
		b.WriteString(n.Value)
		return
	}
	switch n.Name {
	case TagBreak, "softbreak":
		b.WriteString(" ")
	case TagCode:
		if content, ok := n.Attr("content").(string); ok && len(n.Children) == 0 {
			b.WriteString(content)
		}
	}
	for _, c := range n.Children {
		collect(b, c, depth+1)
	}
}

// EstimateReadingTime returns whole minutes at 200 words per minute.
func EstimateReadingTime(n *Node) int {
	words := len(strings.Fields(ExtractText(n, 0)))
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// Headings lists the document's headings in order, with anchor ids unique within the document.
func Headings(n *Node) []Heading {
	var out []Heading
	seen := map[string]int{}

	var walk func(*Node, int)
	walk = func(node *Node, depth int) {
		if node == nil || depth > maxDepth || node.Kind != KindTag {
			return
		}
		if node.Name == TagHeading {
			text := ExtractText(node, 0)
			id := anchor(text)
			if c := seen[id]; c > 0 {
				seen[id] = c + 1
				id = id + "-" + strconv.Itoa(c)
			} else {
				seen[id] = 1
			}
			out = append(out, Heading{Level: headingLevel(node.Attr("level")), Text: text, ID: id})
			return
		}
		for _, c := range node.Children {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return out
}

func anchor(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	id := strings.TrimSuffix(b.String(), "-")
	if id == "" {
		return "section"
	}
	return id
}
