// Package assets serves CMS images behind opaque keys and keeps resized WebP
// variants of them in a cache.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"

	"studiosite/internal/content"
	"studiosite/internal/richtext"
	"studiosite/internal/storage"
)

// Widths are the variant sizes served under /assets. The first one is what
// page markup links to.
var Widths = []int{800, 1200, 1920}

// SourcePrefix is where original images live in blob storage.
const SourcePrefix = "assets"

var (
	ErrInvalidPath  = errors.New("invalid asset path")
	ErrNilID        = errors.New("asset id must not be nil")
	ErrUnknownAsset = errors.New("asset not found")
)

type Manager struct {
	store      storage.Provider
	mu         sync.RWMutex
	uuidToPath map[uuid.UUID]string
	pathToUUID map[string]uuid.UUID
	namespace  uuid.UUID
}

func NewManager(store storage.Provider, ns uuid.UUID) *Manager {
	return &Manager{
		store:      store,
		uuidToPath: make(map[uuid.UUID]string),
		pathToUUID: make(map[string]uuid.UUID),
		namespace:  ns,
	}
}

// normalize maps "/images/a.png", "images/a.png" and "./images/a.png" to the
// same key.
func normalize(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains("/"+p+"/", "/../") {
		return "", ErrInvalidPath
	}
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" {
		return "", ErrInvalidPath
	}
	return clean, nil
}

// Obfuscate returns the stable id for an image path, registering it on first
// use.
func (m *Manager) Obfuscate(p string) (uuid.UUID, error) {
	clean, err := normalize(p)
	if err != nil {
		return uuid.Nil, err
	}

	m.mu.RLock()
	id, ok := m.pathToUUID[clean]
	m.mu.RUnlock()
	if ok {
		return id, nil
	}

	id = uuid.NewV5(m.namespace, clean)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.pathToUUID[clean]; ok {
		return existing, nil
	}
	m.pathToUUID[clean] = id
	m.uuidToPath[id] = clean
	return id, nil
}

// URL is where the site serves the image at src. External sources are
// returned as they are.
func (m *Manager) URL(src string) (string, error) {
	if isExternal(src) {
		return src, nil
	}
	id, err := m.Obfuscate(src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/assets/%s_%d", id, Widths[0]), nil
}

// Resolve rewrites an image asset to its served URL, keeping the original
// source when it cannot be mapped.
func (m *Manager) Resolve(img content.ImageAsset) content.ImageAsset {
	if img.IsZero() {
		return img
	}
	if u, err := m.URL(img.Src); err == nil {
		img.Src = u
	}
	return img
}

// RewriteTree returns a copy of n whose image nodes point at served URLs.
func (m *Manager) RewriteTree(n *richtext.Node) *richtext.Node {
	if n == nil {
		return nil
	}
	out := n.Clone()
	m.rewrite(out)
	return out
}

func (m *Manager) rewrite(n *richtext.Node) {
	if n.Kind == richtext.KindTag && n.Name == richtext.TagImage {
		if src, ok := n.Attr("src").(string); ok {
			if u, err := m.URL(src); err == nil {
				n.Attributes["src"] = u
			}
		}
	}
	for _, c := range n.Children {
		m.rewrite(c)
	}
}

// SourceKey is the blob key holding the original image for id.
func (m *Manager) SourceKey(id uuid.UUID) (string, error) {
	if id.IsNil() {
		return "", ErrNilID
	}
	m.mu.RLock()
	p, ok := m.uuidToPath[id]
	m.mu.RUnlock()
	if !ok {
		return "", ErrUnknownAsset
	}
	return path.Join(SourcePrefix, p), nil
}

// Retrieve opens the original image for id.
func (m *Manager) Retrieve(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	key, err := m.SourceKey(id)
	if err != nil {
		return nil, err
	}
	return m.store.Open(ctx, key)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.uuidToPath)
}

func isExternal(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, prefix := range []string{"http://", "https://", "//", "data:"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
