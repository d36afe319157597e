package richtext

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FromValue turns a raw document as handed out by the CMS into a plain,
// cycle-free tree. Strings are treated as markdown source.
func FromValue(v any) (*Node, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *Node:
		return cloneNode(val, 0)
	case Node:
		return cloneNode(&val, 0)
	case string:
		return Parse(val), nil
	case []byte:
		return fromJSON(val)
	case json.RawMessage:
		return fromJSON(val)
	case map[string]any:
		return fromMap(val, 0)
	case []any:
		children, err := fromSlice(val, 0)
		if err != nil {
			return nil, err
		}
		return Document(children...), nil
	default:
		return nil, fmt.Errorf("%w: unsupported value %T", ErrMalformed, v)
	}
}

// ParseValue is FromValue for callers that need a tree no matter what:
// malformed input yields Placeholder.
func ParseValue(v any) *Node {
	n, err := FromValue(v)
	if err != nil || n == nil {
		return Placeholder()
	}
	return n
}

func fromJSON(data []byte) (*Node, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if s, ok := raw.(string); ok {
		// a JSON string is source, not a tree
		return Parse(s), nil
	}
	return FromValue(raw)
}

func fromMap(m map[string]any, depth int) (*Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: tree deeper than %d", ErrMalformed, maxDepth)
	}

	mdType, _ := m["$$mdtype"].(string)
	if mdType == "" {
		mdType, _ = m["$mdtype"].(string)
	}

	switch {
	case strings.EqualFold(mdType, "Text"):
		return Text(textValue(m)), nil
	case mdType == "":
		// untagged leaf in the shape {"text": "..."}
		if s, ok := m["text"].(string); ok && m["children"] == nil {
			return Text(s), nil
		}
		if _, hasName := m["name"]; !hasName {
			if _, hasChildren := m["children"]; !hasChildren {
				return nil, fmt.Errorf("%w: node without type, name or children", ErrMalformed)
			}
		}
	case !strings.EqualFold(mdType, "Tag"):
		return nil, fmt.Errorf("%w: unknown node type %q", ErrMalformed, mdType)
	}

	name, _ := m["name"].(string)
	if name == "" {
		name = TagDiv
	}

	node := &Node{Kind: KindTag, Name: name}

	if rawAttrs, ok := m["attributes"]; ok && rawAttrs != nil {
		attrs, ok := rawAttrs.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: attributes of %q are %T", ErrMalformed, name, rawAttrs)
		}
		copied, err := copyValue(attrs, depth+1)
		if err != nil {
			return nil, err
		}
		node.Attributes = copied.(map[string]any)
	}

	if rawChildren, ok := m["children"]; ok && rawChildren != nil {
		list, ok := rawChildren.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: children of %q are %T", ErrMalformed, name, rawChildren)
		}
		children, err := fromSlice(list, depth+1)
		if err != nil {
			return nil, err
		}
		node.Children = children
	}

	return node, nil
}

func fromSlice(list []any, depth int) ([]*Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: tree deeper than %d", ErrMalformed, maxDepth)
	}
	out := make([]*Node, 0, len(list))
	for _, item := range list {
		switch c := item.(type) {
		case nil:
			continue
		case string:
			out = append(out, Text(c))
		case map[string]any:
			n, err := fromMap(c, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		case []any:
			nested, err := fromSlice(c, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		case *Node:
			n, err := cloneNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			if n != nil {
				out = append(out, n)
			}
		default:
			return nil, fmt.Errorf("%w: unsupported child %T", ErrMalformed, item)
		}
	}
	return out, nil
}

func textValue(m map[string]any) string {
	for _, key := range []string{"value", "content", "text"} {
		if s, ok := m[key].(string); ok {
			return s
		}
	}
	if attrs, ok := m["attributes"].(map[string]any); ok {
		if s, ok := attrs["content"].(string); ok {
			return s
		}
	}
	return ""
}

// copyValue deep copies JSON-like values, refusing anything that nests too far.
func copyValue(v any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: attribute nesting deeper than %d", ErrMalformed, maxDepth)
	}
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			c, err := copyValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			c, err := copyValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	default:
		return val, nil
	}
}
