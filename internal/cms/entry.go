// Package cms reads raw, loosely typed entries out of the headless CMS store.
package cms

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound     = errors.New("entry not found")
	ErrInvalidKey        = errors.New("invalid entry key")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrReadingEntry      = errors.New("error reading entry")
	ErrEntryTooLarge     = errors.New("entry exceeds max size")
)

type Collection string

const (
	Blogs  Collection = "blogs"
	Games  Collection = "games"
	Jobs   Collection = "jobs"
	Slides Collection = "slides"
	Media  Collection = "media"
	Legal  Collection = "legal"
)

// Collections lists every collection the site reads.
var Collections = []Collection{Blogs, Games, Jobs, Slides, Media, Legal}

func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// Reader is the CMS collaborator. All returns every entry of a collection;
// Read returns ErrEntryNotFound when nothing is stored under slug.
type Reader interface {
	All(ctx context.Context, c Collection) ([]*Entry, error)
	Read(ctx context.Context, c Collection, slug string) (*Entry, error)
}

// DocumentFunc resolves a rich-text field on demand.
type DocumentFunc func(ctx context.Context) (any, error)

// Entry is a raw CMS record. Field values are whatever the store decoded:
// strings, numbers, bools, maps, slices or nil.
type Entry struct {
	Slug   string
	Fields map[string]any

	documents map[string]DocumentFunc
}

func NewEntry(slug string, fields map[string]any) *Entry {
	if fields == nil {
		fields = map[string]any{}
	}
	return &Entry{Slug: slug, Fields: fields}
}

// WithDocument registers a lazy accessor for a rich-text field.
func (e *Entry) WithDocument(field string, fn DocumentFunc) *Entry {
	if e.documents == nil {
		e.documents = make(map[string]DocumentFunc)
	}
	e.documents[field] = fn
	return e
}

func (e *Entry) Field(name string) (any, bool) {
	v, ok := e.Fields[name]
	return v, ok && v != nil
}

// Document resolves a rich-text field. Registered accessors win over inline
// values; a field that is neither yields nil.
func (e *Entry) Document(ctx context.Context, field string) (doc any, err error) {
	if fn, ok := e.documents[field]; ok {
		defer func() {
			if r := recover(); r != nil {
				doc, err = nil, fmt.Errorf("%w: %s.%s: %v", ErrReadingEntry, e.Slug, field, r)
			}
		}()
		return fn(ctx)
	}
	if v, ok := e.Fields[field]; ok {
		return v, nil
	}
	return nil, nil
}
