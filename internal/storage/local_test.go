package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"), "/uploads")

	key := "contact-forms/contact_Ada_1700000000000.pdf"
	if store.Exists(ctx, key) {
		t.Fatal("blob should not exist yet")
	}

	if err := store.Save(ctx, key, strings.NewReader("%PDF-1.7")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.Exists(ctx, key) {
		t.Fatal("blob should exist after save")
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("could not read blob: %v", err)
	}
	if string(got) != "%PDF-1.7" {
		t.Errorf("expected %q, got %q", "%PDF-1.7", string(got))
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Exists(ctx, key) {
		t.Error("blob should be gone after delete")
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("deleting a missing blob should be a no-op, got %v", err)
	}
}

func TestLocalStoreLeavesNoPartialFiles(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	store := NewLocalStorage(base, "")

	if err := store.Save(context.Background(), "a/b.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(base, "a"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "b.txt" {
		t.Errorf("unexpected directory content: %v", entries)
	}
}

func TestLocalStoreRejectsEscapes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewLocalStorage(t.TempDir(), "")

	if err := store.Save(ctx, "../escape.txt", strings.NewReader("x")); err == nil {
		t.Error("expected saving outside the root to fail")
	}
	if _, err := store.Open(ctx, "../../etc/passwd"); err == nil {
		t.Error("expected opening outside the root to fail")
	}
	if err := store.Save(ctx, "", strings.NewReader("x")); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}

func TestLocalStoreURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		publicURL string
		key       string
		want      string
	}{
		{publicURL: "/uploads", key: "a/b.pdf", want: "/uploads/a/b.pdf"},
		{publicURL: "https://cdn.example.com/files/", key: "x.webp", want: "https://cdn.example.com/files/x.webp"},
		{publicURL: "", key: "a/../b.pdf", want: "/b.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			got := NewLocalStorage(t.TempDir(), tt.publicURL).URL(tt.key)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"resume.pdf":              "application/pdf",
		"a3f1c2d4-variant":        "image/webp",
		"archive.unknownext12345": "application/octet-stream",
	}
	for key, want := range tests {
		if got := contentTypeFor(key); got != want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", key, got, want)
		}
	}
}
