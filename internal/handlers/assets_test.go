package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel/trace/noop"

	"studiosite/internal/assets"
	"studiosite/internal/storage"
	"studiosite/internal/telemetry"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newAssetHandler(t *testing.T) (*AssetHandler, storage.Provider, uuid.UUID) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	sources := storage.NewLocalStorage(t.TempDir(), "/files")
	cache := storage.NewLocalStorage(t.TempDir(), "/cache")
	if err := sources.Save(ctx, "assets/images/a.png", bytes.NewReader(pngBytes(t))); err != nil {
		t.Fatal(err)
	}

	m := assets.NewManager(sources, uuid.Must(uuid.NewV4()))
	id, err := m.Obfuscate("/images/a.png")
	if err != nil {
		t.Fatal(err)
	}

	p := assets.NewProcessor(ctx, sources, cache, 1, &recordingReporter{}, discardLogger())
	t.Cleanup(func() {
		cancel()
		p.Wait()
	})

	return &AssetHandler{
		Assets:    m,
		Processor: p,
		Tracer:    noop.NewTracerProvider().Tracer("test"),
		Metrics:   telemetry.NoopMetrics(),
		Logger:    discardLogger(),
	}, cache, id
}

func assetRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/assets/"+key, nil)
	req.SetPathValue("key", key)
	return req
}

func TestAssetHandlerServesOriginalOnMiss(t *testing.T) {
	t.Parallel()
	h, _, id := newAssetHandler(t)

	rec := serve(h, assetRequest(fmt.Sprintf("%s_800", id)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngBytes(t)) {
		t.Error("body is not the original image")
	}
}

func TestAssetHandlerServesCachedVariant(t *testing.T) {
	t.Parallel()
	h, cache, id := newAssetHandler(t)

	variant := []byte("RIFF....WEBP")
	if err := cache.Save(context.Background(), assets.VariantKey(id.String(), 1200), bytes.NewReader(variant)); err != nil {
		t.Fatal(err)
	}

	rec := serve(h, assetRequest(fmt.Sprintf("%s_1200", id)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("X-Cache = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/webp" {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "immutable") {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
	if !bytes.Equal(rec.Body.Bytes(), variant) {
		t.Error("body is not the cached variant")
	}
}

func TestAssetHandlerRejectsBadKeys(t *testing.T) {
	t.Parallel()
	h, _, id := newAssetHandler(t)

	tests := []struct {
		key  string
		want int
	}{
		{"no-width", http.StatusNotFound},
		{id.String() + "_640", http.StatusNotFound},
		{id.String() + "_wide", http.StatusNotFound},
		{"not-a-uuid_800", http.StatusBadRequest},
		{uuid.Must(uuid.NewV4()).String() + "_800", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := serve(h, assetRequest(tt.key)); rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.key, rec.Code, tt.want)
		}
	}
}
