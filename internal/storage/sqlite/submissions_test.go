package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"studiosite/internal/storage"
)

func ptr(s string) *string { return &s }

func TestCreateContactSubmission(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      storage.ContactSubmission
		wantErr error
	}{
		{
			name: "nominal",
			in: storage.ContactSubmission{
				Name: "Ada", Email: "ada@example.com", Mobile: "+33 6 00 00 00 00",
				Topic: "porting", Requirements: "Switch port of our title",
				FileName: ptr("brief.pdf"), FilePath: ptr("contact-forms/contact_Ada_1.pdf"),
			},
		},
		{
			name: "no attachment",
			in:   storage.ContactSubmission{Name: "Ada", Email: "ada@example.com", Mobile: "0600"},
		},
		{
			name:    "empty name",
			in:      storage.ContactSubmission{Name: "", Email: "ada@example.com", Mobile: "0600"},
			wantErr: storage.ErrCheckViolation,
		},
		{
			name:    "name too long",
			in:      storage.ContactSubmission{Name: strings.Repeat("a", 201), Email: "ada@example.com", Mobile: "0600"},
			wantErr: storage.ErrCheckViolation,
		},
		{
			name:    "unknown status",
			in:      storage.ContactSubmission{Name: "Ada", Email: "ada@example.com", Mobile: "0600", Status: "archived"},
			wantErr: storage.ErrCheckViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()

			t.Parallel()

			got, gotErr := store.CreateContactSubmission(ctx, &tt.in)
			if !errors.Is(gotErr, tt.wantErr) {
				t.Fatalf("error creating submission: got %v, want %v", gotErr, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got.ID == "" {
				t.Error("missing id")
			}
			if got.Status != storage.StatusPending {
				t.Errorf("invalid status: got %q, want %q", got.Status, storage.StatusPending)
			}
			if got.Name != tt.in.Name || got.Email != tt.in.Email {
				t.Errorf("invalid submission: got %+v", got)
			}
			if (got.FilePath == nil) != (tt.in.FilePath == nil) {
				t.Errorf("invalid file path: got %v, want %v", got.FilePath, tt.in.FilePath)
			}
			if time.Since(got.SubmittedAt) > 5*time.Second {
				t.Errorf("invalid submission time: %s", got.SubmittedAt)
			}

			found, err := store.GetContactSubmission(ctx, got.ID)
			if err != nil {
				t.Fatalf("get submission: %v", err)
			}
			if found.ID != got.ID {
				t.Errorf("id does not match: want %s, got %s", got.ID, found.ID)
			}
		})
	}
}

func TestGetContactSubmissionNotFound(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	_, err := store.GetContactSubmission(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJobApplications(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := store.CreateJobApplication(ctx, &storage.JobApplication{
			JobSlug: "gameplay-programmer", Name: name, Email: name + "@example.com",
			Phone: "0600", ResumePath: "job-applications/" + name + ".pdf",
			Portfolio: ptr("  "),
		})
		if err != nil {
			t.Fatalf("create application %s: %v", name, err)
		}
	}
	other, err := store.CreateJobApplication(ctx, &storage.JobApplication{
		JobSlug: "level-designer", Name: "other", Email: "other@example.com",
		Phone: "0600", ResumePath: "job-applications/other.pdf", CoverLetter: ptr("hello"),
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	if other.Status != storage.StatusSubmitted {
		t.Errorf("invalid status: got %q", other.Status)
	}
	if other.CoverLetter == nil || *other.CoverLetter != "hello" {
		t.Errorf("cover letter not stored: %v", other.CoverLetter)
	}

	t.Run("filters by job and orders newest first", func(t *testing.T) {
		got, err := store.GetApplicationsForJob(ctx, "gameplay-programmer", 0, 10)
		if err != nil {
			t.Fatalf("list applications: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("want 3 applications, got %d", len(got))
		}
		if got[0].Name != "third" || got[2].Name != "first" {
			t.Errorf("unexpected order: %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
		}
		if got[0].Portfolio != nil {
			t.Errorf("blank portfolio should be stored as NULL, got %q", *got[0].Portfolio)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		got, err := store.GetApplicationsForJob(ctx, "gameplay-programmer", 2, 10)
		if err != nil {
			t.Fatalf("list applications: %v", err)
		}
		if len(got) != 1 || got[0].Name != "first" {
			t.Errorf("unexpected page: %+v", got)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := store.GetJobApplication(ctx, other.ID)
		if err != nil {
			t.Fatalf("get application: %v", err)
		}
		if got.JobSlug != "level-designer" {
			t.Errorf("job slug does not match: got %q", got.JobSlug)
		}
	})

	t.Run("missing resume path", func(t *testing.T) {
		_, err := store.CreateJobApplication(ctx, &storage.JobApplication{
			JobSlug: "x", Name: "x", Email: "x@example.com", Phone: "1",
		})
		if !errors.Is(err, storage.ErrCheckViolation) {
			t.Errorf("expected ErrCheckViolation for empty resume path, got %v", err)
		}
	})
}

func TestClientErrors(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, msg := range []string{"boom", "bang"} {
		_, err := store.CreateClientError(ctx, &storage.ClientError{
			Message:         msg,
			Stack:           ptr("at render (page.js:1:1)"),
			Browser:         ptr("Firefox"),
			ClientTimestamp: base.Format(time.RFC3339),
			ServerTimestamp: base.Add(time.Duration(i) * time.Minute),
			IPHash:          ptr("abc123"),
			Context:         []byte(`{"route":"/games"}`),
		})
		if err != nil {
			t.Fatalf("create client error: %v", err)
		}
	}

	got, err := store.ListClientErrors(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list client errors: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 client errors, got %d", len(got))
	}
	if got[0].Message != "bang" {
		t.Errorf("want newest first, got %q", got[0].Message)
	}
	if !strings.Contains(string(got[0].Context), "/games") {
		t.Errorf("context not stored: %s", got[0].Context)
	}
	if got[0].IPHash == nil || *got[0].IPHash != "abc123" {
		t.Errorf("ip hash not stored: %v", got[0].IPHash)
	}

	_, err = store.CreateClientError(ctx, &storage.ClientError{Message: "", ClientTimestamp: "now"})
	if !errors.Is(err, storage.ErrCheckViolation) {
		t.Errorf("expected ErrCheckViolation for empty message, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetContactSubmission(ctx, "whatever")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation error, got: %v", err)
	}
}
