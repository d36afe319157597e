// Package richtext models CMS rich-text documents as a closed tree of text and
// tag nodes, and turns them into HTML or plain text.
package richtext

import (
	"encoding/json"
	"errors"
)

// Kind discriminates the two node variants.
type Kind int

const (
	KindText Kind = iota
	KindTag
)

func (k Kind) String() string {
	if k == KindText {
		return "Text"
	}
	return "Tag"
}

// Tag names the renderer knows about. Anything else falls back to a generic container.
const (
	TagDocument  = "document"
	TagParagraph = "paragraph"
	TagHeading   = "heading"
	TagList      = "list"
	TagListItem  = "listItem"
	TagItem      = "item"
	TagStrong    = "strong"
	TagEm        = "em"
	TagCode      = "code"
	TagLink      = "link"
	TagFence     = "fence"
	TagQuote     = "blockquote"
	TagRule      = "hr"
	TagImage     = "image"
	TagBreak     = "hardbreak"
	TagStrike    = "s"
	TagDiv       = "div"
)

// maxDepth bounds conversion of untrusted trees.
const maxDepth = 256

var ErrMalformed = errors.New("malformed rich text")

// Node is a single element of a rich-text document.
type Node struct {
	Kind       Kind
	Name       string
	Attributes map[string]any
	Children   []*Node
	Value      string
}

// Text returns a text leaf.
func Text(value string) *Node {
	return &Node{Kind: KindText, Value: value}
}

// Tag returns a tag node with the given children.
func Tag(name string, attrs map[string]any, children ...*Node) *Node {
	return &Node{Kind: KindTag, Name: name, Attributes: attrs, Children: children}
}

// Document wraps children in a document root.
func Document(children ...*Node) *Node {
	return Tag(TagDocument, nil, children...)
}

// Placeholder is the empty tree returned whenever source cannot be turned into a document.
func Placeholder() *Node {
	return Document(Tag(TagDiv, nil))
}

// Attr returns the named attribute or nil.
func (n *Node) Attr(name string) any {
	if n == nil || n.Attributes == nil {
		return nil
	}
	return n.Attributes[name]
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	out, err := cloneNode(n, 0)
	if err != nil {
		return Placeholder()
	}
	return out
}

func cloneNode(n *Node, depth int) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	if depth > maxDepth {
		return nil, ErrMalformed
	}
	out := &Node{Kind: n.Kind, Name: n.Name, Value: n.Value}
	if n.Attributes != nil {
		attrs, err := copyValue(n.Attributes, depth+1)
		if err != nil {
			return nil, err
		}
		out.Attributes = attrs.(map[string]any)
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			cc, err := cloneNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			if cc != nil {
				out.Children = append(out.Children, cc)
			}
		}
	}
	return out, nil
}

type wireNode struct {
	Type       string         `json:"$$mdtype"`
	Name       string         `json:"name,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Children   []*Node        `json:"children,omitempty"`
	Value      string         `json:"value,omitempty"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Kind == KindText {
		return json.Marshal(wireNode{Type: "Text", Value: n.Value})
	}
	return json.Marshal(wireNode{
		Type:       "Tag",
		Name:       n.Name,
		Attributes: n.Attributes,
		Children:   n.Children,
	})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromValue(raw)
	if err != nil {
		return err
	}
	if parsed == nil {
		*n = Node{}
		return nil
	}
	*n = *parsed
	return nil
}
