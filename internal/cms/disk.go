package cms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const maxEntrySize = 10 * 1024 * 1024
const maxBufferSize = 32 * 1024

var (
	entryExts    = []string{".json", ".yaml", ".yml", ".mdoc", ".md"}
	documentExts = []string{".mdoc", ".md"}
)

// yaml.v3 keeps nested mappings as map[string]any, which the normalizer expects.
var yamlFrontmatter = frontmatter.NewFormat("---", "---", unmarshalYAML)

// unmarshalYAML decodes like yaml.Unmarshal but keeps timestamps as the
// strings written in the file, the way JSON entries carry them.
func unmarshalYAML(data []byte, v any) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 {
		return nil
	}
	retagTimestamps(&doc)
	return doc.Decode(v)
}

func retagTimestamps(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		retagTimestamps(c)
	}
}

// DiskReader serves entries from a directory tree laid out as
// <root>/<collection>/<slug>.{json,yaml,yml,mdoc,md} or <root>/<collection>/<slug>/index.*.
// Markdoc/markdown files carry their fields as YAML frontmatter and their body
// as the "content" document. Files named <slug>/<field>.mdoc become lazily
// loaded documents for that field.
type DiskReader struct {
	root   string
	logger *slog.Logger
}

func NewDiskReader(root string, logger *slog.Logger) *DiskReader {
	return &DiskReader{root: root, logger: logger}
}

func (d *DiskReader) All(ctx context.Context, c Collection) ([]*Entry, error) {
	if !c.Valid() {
		return nil, ErrUnknownCollection
	}

	dir := filepath.Join(d.root, string(c))
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []*Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadingEntry, dir, err)
	}

	seen := make(map[string]bool, len(dirEntries))
	var slugs []string
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		slug := name
		if !de.IsDir() {
			ext := filepath.Ext(name)
			if !slices.Contains(entryExts, ext) {
				continue
			}
			slug = strings.TrimSuffix(name, ext)
		}

		if !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	slices.Sort(slugs)

	out := make([]*Entry, 0, len(slugs))
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e, err := d.Read(ctx, c, slug)
		if errors.Is(err, ErrEntryNotFound) {
			// directory without an index file
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *DiskReader) Read(ctx context.Context, c Collection, slug string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, ErrUnknownCollection
	}
	if !validKey(slug) {
		return nil, ErrInvalidKey
	}

	dir := filepath.Join(d.root, string(c))
	root, err := os.OpenRoot(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadingEntry, dir, err)
	}
	defer root.Close()

	var candidates []string
	for _, ext := range entryExts {
		candidates = append(candidates, slug+ext)
	}
	for _, ext := range entryExts {
		candidates = append(candidates, path.Join(slug, "index"+ext))
	}

	for _, name := range candidates {
		data, err := readFile(root, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %v", ErrReadingEntry, c, name, err)
		}

		entry, err := d.decode(slug, name, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %v", ErrReadingEntry, c, name, err)
		}

		d.attachDocuments(root, dir, entry)
		d.logger.Debug("cms entry loaded", "collection", c, "slug", slug, "file", name)
		return entry, nil
	}

	return nil, ErrEntryNotFound
}

func (d *DiskReader) decode(slug, name string, data []byte) (*Entry, error) {
	fields := map[string]any{}

	switch ext := filepath.Ext(name); ext {
	case ".json":
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
		return NewEntry(slug, fields), nil
	case ".yaml", ".yml":
		if err := unmarshalYAML(data, &fields); err != nil {
			return nil, err
		}
		return NewEntry(slug, fields), nil
	default:
		body, err := frontmatter.Parse(bytes.NewReader(data), &fields, yamlFrontmatter)
		if err != nil {
			// broken or missing frontmatter, keep the whole file as the body
			d.logger.Warn("cms frontmatter unreadable", "slug", slug, "file", name, "err", err)
			body = data
			fields = map[string]any{}
		}
		if fields == nil {
			fields = map[string]any{}
		}

		source := string(body)
		return NewEntry(slug, fields).WithDocument("content", func(context.Context) (any, error) {
			return source, nil
		}), nil
	}
}

// attachDocuments registers <slug>/<field>.mdoc siblings as lazy documents.
func (d *DiskReader) attachDocuments(root *os.Root, dir string, e *Entry) {
	f, err := root.Open(e.Slug)
	if err != nil {
		return
	}
	defer f.Close()

	files, err := f.ReadDir(-1)
	if err != nil {
		d.logger.Warn("cms entry directory unreadable", "slug", e.Slug, "err", err)
		return
	}

	for _, de := range files {
		name := de.Name()
		ext := filepath.Ext(name)
		if de.IsDir() || !slices.Contains(documentExts, ext) {
			continue
		}
		field := strings.TrimSuffix(name, ext)
		if field == "index" {
			continue
		}

		rel := path.Join(e.Slug, name)
		e.WithDocument(field, func(ctx context.Context) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := os.OpenRoot(dir)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrReadingEntry, rel, err)
			}
			defer r.Close()

			data, err := readFile(r, rel)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrReadingEntry, rel, err)
			}
			return string(data), nil
		})
	}
}

func readFile(root *os.Root, name string) ([]byte, error) {
	file, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stats, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stats.IsDir() {
		return nil, fs.ErrNotExist
	}
	if stats.Size() > maxEntrySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, stats.Size())
	}

	bufReader := bufio.NewReaderSize(file, max(16, min(maxBufferSize, int(stats.Size()))))
	return io.ReadAll(bufReader)
}
