package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/uuid/v5"

	"studiosite/internal/content"
	"studiosite/internal/richtext"
	"studiosite/internal/storage"
)

var testNamespace = uuid.Must(uuid.FromString("6ba7b811-9dad-11d1-80b4-00c04fd430c8"))

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestObfuscateIsStable(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, testNamespace)

	a, err := m.Obfuscate("/images/hero.png")
	if err != nil {
		t.Fatalf("Obfuscate failed: %v", err)
	}
	for _, alias := range []string{"images/hero.png", "./images/hero.png", "images//hero.png"} {
		b, err := m.Obfuscate(alias)
		if err != nil {
			t.Fatalf("Obfuscate(%q) failed: %v", alias, err)
		}
		if a != b {
			t.Errorf("Obfuscate(%q) = %s, want %s", alias, b, a)
		}
	}

	other := NewManager(nil, testNamespace)
	c, _ := other.Obfuscate("images/hero.png")
	if a != c {
		t.Error("ids must not depend on registration order or instance")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestObfuscateRejects(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, testNamespace)
	for _, p := range []string{"", "   ", "/", "../secret.png"} {
		if _, err := m.Obfuscate(p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Obfuscate(%q): got %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestURL(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, testNamespace)
	id, _ := m.Obfuscate("images/hero.png")

	tests := []struct {
		src  string
		want string
	}{
		{"/images/hero.png", "/assets/" + id.String() + "_800"},
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"//cdn.example.com/a.png", "//cdn.example.com/a.png"},
		{"data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
	}
	for _, tt := range tests {
		got, err := m.URL(tt.src)
		if err != nil {
			t.Fatalf("URL(%q) failed: %v", tt.src, err)
		}
		if got != tt.want {
			t.Errorf("URL(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, testNamespace)

	if got := m.Resolve(content.ImageAsset{}); !got.IsZero() {
		t.Errorf("zero asset should stay zero, got %+v", got)
	}

	got := m.Resolve(content.ImageAsset{Src: "images/cover.jpg", Alt: "Cover", Width: 1200, Height: 675})
	if !strings.HasPrefix(got.Src, "/assets/") || got.Alt != "Cover" || got.Width != 1200 {
		t.Errorf("unexpected resolved asset: %+v", got)
	}
}

func TestRewriteTree(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, testNamespace)
	doc := richtext.Document(
		richtext.Tag(richtext.TagParagraph, nil,
			richtext.Tag(richtext.TagImage, map[string]any{"src": "images/shot.png", "alt": "shot"}),
			richtext.Tag(richtext.TagImage, map[string]any{"src": "https://example.com/x.png"}),
		),
	)

	out := m.RewriteTree(doc)
	imgs := out.Children[0].Children
	if src := imgs[0].Attr("src").(string); !strings.HasPrefix(src, "/assets/") {
		t.Errorf("local image not rewritten: %q", src)
	}
	if src := imgs[1].Attr("src").(string); src != "https://example.com/x.png" {
		t.Errorf("external image changed: %q", src)
	}
	if src := doc.Children[0].Children[0].Attr("src").(string); src != "images/shot.png" {
		t.Error("RewriteTree must not modify its input")
	}
	if m.RewriteTree(nil) != nil {
		t.Error("nil tree should stay nil")
	}
}

func TestSourceKey(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, testNamespace)

	if _, err := m.SourceKey(uuid.Nil); !errors.Is(err, ErrNilID) {
		t.Errorf("got %v, want ErrNilID", err)
	}
	if _, err := m.SourceKey(uuid.Must(uuid.NewV4())); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("got %v, want ErrUnknownAsset", err)
	}

	id, _ := m.Obfuscate("/images/games/logo.png")
	key, err := m.SourceKey(id)
	if err != nil {
		t.Fatalf("SourceKey failed: %v", err)
	}
	if key != "assets/images/games/logo.png" {
		t.Errorf("key = %q", key)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSync(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "images", "hero.png"), 4, 4)
	writePNG(t, filepath.Join(src, "images", "games", "cover.png"), 4, 4)
	if err := os.WriteFile(filepath.Join(src, "images", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := storage.NewLocalStorage(t.TempDir(), "")
	m := NewManager(store, testNamespace)
	ctx := context.Background()

	n, err := Sync(ctx, store, m, src, discardLogger())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if n != 2 {
		t.Errorf("uploaded %d, want 2", n)
	}
	if !store.Exists(ctx, "assets/images/games/cover.png") {
		t.Error("nested image not uploaded")
	}
	if store.Exists(ctx, "assets/images/notes.txt") {
		t.Error("non-image uploaded")
	}

	id, _ := m.Obfuscate("/images/hero.png")
	rc, err := m.Retrieve(ctx, id)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	rc.Close()

	n, err = Sync(ctx, store, m, src, discardLogger())
	if err != nil || n != 0 {
		t.Errorf("second sync: n=%d err=%v, want nothing uploaded", n, err)
	}
}

func TestSyncMissingDir(t *testing.T) {
	t.Parallel()
	store := storage.NewLocalStorage(t.TempDir(), "")
	if _, err := Sync(context.Background(), store, NewManager(store, testNamespace), filepath.Join(t.TempDir(), "nope"), discardLogger()); err == nil {
		t.Error("expected an error for a missing source dir")
	}
}

func TestResizeImage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		w, h, limit  int
		wantW, wantH int
	}{
		{"scales down", 2400, 1200, 800, 800, 400},
		{"keeps smaller", 640, 480, 800, 640, 480},
		{"keeps equal", 800, 450, 800, 800, 450},
		{"thin strip keeps one row", 4000, 1, 800, 800, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := resizeImage(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.limit).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	t.Parallel()
	// no workers, so jobs stay queued
	p := &Processor{jobs: make(chan Job, 2), logger: discardLogger()}
	ctx := context.Background()

	job := Job{SourceKey: "assets/a.png", ID: "abc", Width: 800}
	if err := p.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := p.Enqueue(ctx, job); err != nil {
		t.Fatalf("duplicate Enqueue failed: %v", err)
	}
	if len(p.jobs) != 1 {
		t.Errorf("queued %d jobs, want 1", len(p.jobs))
	}

	if err := p.Enqueue(ctx, Job{ID: "abc", Width: 1200}); err != nil {
		t.Fatal(err)
	}
	if err := p.Enqueue(ctx, Job{ID: "abc", Width: 1920}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("got %v, want ErrQueueFull", err)
	}
	if _, ok := p.inFlight.Load(VariantKey("abc", 1920)); ok {
		t.Error("rejected job must not stay in flight")
	}
}

func TestWatcherHandle(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w := &Watcher{dir: dir, logger: discardLogger(), pending: map[string]struct{}{}}

	if w.handle(fsnotify.Event{Name: filepath.Join(dir, "images", "a.png"), Op: fsnotify.Remove}) {
		t.Error("removals should be ignored")
	}
	if w.handle(fsnotify.Event{Name: filepath.Join(dir, "notes.md"), Op: fsnotify.Write}) {
		t.Error("non-images should be ignored")
	}
	if !w.handle(fsnotify.Event{Name: filepath.Join(dir, "images", "a.png"), Op: fsnotify.Write}) {
		t.Error("image writes should trigger a flush")
	}
	if _, ok := w.pending["images/a.png"]; !ok {
		t.Errorf("pending = %v", w.pending)
	}
}

func TestWatcherUploadsNewImages(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	store := storage.NewLocalStorage(t.TempDir(), "")
	cache := storage.NewLocalStorage(t.TempDir(), "")
	m := NewManager(store, testNamespace)

	w, err := NewWatcher(src, store, cache, m, discardLogger())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// a stale variant from an earlier version of the image
	id, _ := m.Obfuscate("images/new.png")
	if err := cache.Save(ctx, VariantKey(id.String(), 800), bytes.NewReader([]byte("old"))); err != nil {
		t.Fatal(err)
	}

	writePNG(t, filepath.Join(src, "images", "new.png"), 2, 2)

	deadline := time.Now().Add(5 * time.Second)
	for !store.Exists(ctx, "assets/images/new.png") && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !store.Exists(ctx, "assets/images/new.png") {
		t.Fatal("watcher did not upload the new image")
	}
	for cache.Exists(ctx, VariantKey(id.String(), 800)) && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if cache.Exists(ctx, VariantKey(id.String(), 800)) {
		t.Error("stale variant not removed")
	}
}

func TestResyncRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	r := NewResync(discardLogger())
	store := storage.NewLocalStorage(t.TempDir(), "")
	if err := r.Start(context.Background(), "not a schedule", store, NewManager(store, testNamespace), t.TempDir()); err == nil {
		t.Error("expected an error for a malformed schedule")
	}
}
