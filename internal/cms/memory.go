package cms

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryReader keeps entries in process. Safe for concurrent use.
type MemoryReader struct {
	mu      sync.RWMutex
	entries map[Collection]map[string]*Entry
}

func NewMemoryReader() *MemoryReader {
	return &MemoryReader{entries: make(map[Collection]map[string]*Entry)}
}

// Put stores or replaces an entry.
func (m *MemoryReader) Put(c Collection, e *Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entries[c] == nil {
		m.entries[c] = make(map[string]*Entry)
	}
	m.entries[c][e.Slug] = e
}

func (m *MemoryReader) Delete(c Collection, slug string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries[c], slug)
}

func (m *MemoryReader) All(ctx context.Context, c Collection) ([]*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, ErrUnknownCollection
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Entry, 0, len(m.entries[c]))
	for _, e := range m.entries[c] {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entry) int { return strings.Compare(a.Slug, b.Slug) })
	return out, nil
}

func (m *MemoryReader) Read(ctx context.Context, c Collection, slug string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, ErrUnknownCollection
	}
	if !validKey(slug) {
		return nil, ErrInvalidKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[c][slug]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// validKey rejects slugs that could never name a stored entry.
func validKey(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`) && !strings.ContainsRune(slug, 0)
}
