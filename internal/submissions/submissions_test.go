package submissions

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiosite/internal/storage"
)

// journal records the order in which collaborators are called.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

type fakeFiles struct {
	j       *journal
	blobs   map[string][]byte
	saveErr error
}

func (f *fakeFiles) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("unused")
}
func (f *fakeFiles) Delete(context.Context, string) error { return nil }
func (f *fakeFiles) URL(key string) string                { return "https://blob.example.com/" + key }

func (f *fakeFiles) Exists(_ context.Context, key string) bool {
	_, ok := f.blobs[key]
	return ok
}

func (f *fakeFiles) Save(_ context.Context, key string, body io.ReadSeeker) error {
	f.j.add("save " + key)
	if f.saveErr != nil {
		return f.saveErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.blobs[key] = b
	return nil
}

type fakeRecords struct {
	j        *journal
	err      error
	contacts []*storage.ContactSubmission
	jobs     []*storage.JobApplication
}

func (r *fakeRecords) CreateContactSubmission(_ context.Context, c *storage.ContactSubmission) (*storage.ContactSubmission, error) {
	r.j.add("record contact")
	if r.err != nil {
		return nil, r.err
	}
	cp := *c
	cp.ID = "contact-1"
	r.contacts = append(r.contacts, &cp)
	return &cp, nil
}

func (r *fakeRecords) CreateJobApplication(_ context.Context, a *storage.JobApplication) (*storage.JobApplication, error) {
	r.j.add("record application")
	if r.err != nil {
		return nil, r.err
	}
	cp := *a
	cp.ID = "application-1"
	r.jobs = append(r.jobs, &cp)
	return &cp, nil
}

func newTestService(t *testing.T) (*Service, *fakeFiles, *fakeRecords, *journal) {
	t.Helper()
	j := &journal{}
	files := &fakeFiles{j: j, blobs: map[string][]byte{}}
	records := &fakeRecords{j: j}
	svc := New(files, records, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, files, records, j
}

func pdf(size int) *Upload {
	body := bytes.Repeat([]byte("x"), size)
	return &Upload{Filename: "brief.pdf", ContentType: "application/pdf", Size: int64(size), Body: bytes.NewReader(body)}
}

func validContact() ContactInput {
	return ContactInput{
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Mobile:       "+44 20 0000 0000",
		Topic:        "Co-development",
		Requirements: "We need help with a console port.",
	}
}

func validApplication() ApplicationInput {
	return ApplicationInput{
		Name:    "Grace Hopper",
		Email:   "grace@example.com",
		Mobile:  "0600000000",
		JobSlug: "gameplay-programmer",
		Resume:  pdf(2048),
	}
}

func TestSubmitContact(t *testing.T) {
	t.Parallel()

	t.Run("without attachment", func(t *testing.T) {
		t.Parallel()
		svc, files, records, _ := newTestService(t)

		got, err := svc.SubmitContact(context.Background(), validContact())
		require.NoError(t, err)

		assert.Equal(t, "contact-1", got.ID)
		assert.Equal(t, storage.StatusPending, got.Status)
		assert.Nil(t, got.FileName)
		assert.Nil(t, got.FilePath)
		assert.Empty(t, files.blobs)
		assert.Len(t, records.contacts, 1)
	})

	t.Run("attachment is uploaded before the record is written", func(t *testing.T) {
		t.Parallel()
		svc, files, _, j := newTestService(t)
		in := validContact()
		in.File = pdf(512)

		got, err := svc.SubmitContact(context.Background(), in)
		require.NoError(t, err)

		wantKey := "contact-forms/contact_Ada_Lovelace_1700000000000.pdf"
		assert.Equal(t, []string{"save " + wantKey, "record contact"}, j.events)
		assert.Contains(t, files.blobs, wantKey)
		require.NotNil(t, got.FileName)
		assert.Equal(t, "contact_Ada_Lovelace_1700000000000.pdf", *got.FileName)
		require.NotNil(t, got.FilePath)
		assert.Equal(t, "https://blob.example.com/"+wantKey, *got.FilePath)
	})

	t.Run("empty file is ignored", func(t *testing.T) {
		t.Parallel()
		svc, files, _, _ := newTestService(t)
		in := validContact()
		in.File = &Upload{Filename: "empty.pdf", ContentType: "application/pdf", Body: bytes.NewReader(nil)}

		got, err := svc.SubmitContact(context.Background(), in)
		require.NoError(t, err)
		assert.Nil(t, got.FilePath)
		assert.Empty(t, files.blobs)
	})

	t.Run("markup is stripped from text fields", func(t *testing.T) {
		t.Parallel()
		svc, _, records, _ := newTestService(t)
		in := validContact()
		in.Requirements = `<script>alert(1)</script>Port to <b>Switch</b> & PS5`

		_, err := svc.SubmitContact(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "Port to Switch & PS5", records.contacts[0].Requirements)
	})
}

func TestSubmitContactRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		mutate    func(*ContactInput)
		wantErr   error
		wantTitle string
	}{
		{
			name:      "missing topic",
			mutate:    func(in *ContactInput) { in.Topic = "  " },
			wantErr:   ErrMissingFields,
			wantTitle: "Missing required fields",
		},
		{
			name:      "name made only of markup",
			mutate:    func(in *ContactInput) { in.Name = "<b></b>" },
			wantErr:   ErrMissingFields,
			wantTitle: "Missing required fields",
		},
		{
			name:      "bad email",
			mutate:    func(in *ContactInput) { in.Email = "ada@example" },
			wantErr:   ErrInvalidEmail,
			wantTitle: "Invalid email format",
		},
		{
			name:      "file over 1MB",
			mutate:    func(in *ContactInput) { in.File = pdf(MaxContactFileSize + 1) },
			wantErr:   ErrFileTooLarge,
			wantTitle: "File too large",
		},
		{
			name: "not a pdf",
			mutate: func(in *ContactInput) {
				in.File = &Upload{Filename: "brief.docx", ContentType: "application/msword", Size: 10, Body: strings.NewReader("0123456789")}
			},
			wantErr:   ErrInvalidFileType,
			wantTitle: "Invalid file type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, files, records, j := newTestService(t)
			in := validContact()
			tt.mutate(&in)

			_, err := svc.SubmitContact(context.Background(), in)
			require.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantTitle, verr.Title)
			assert.NotEmpty(t, verr.Message)

			// rejected before touching any collaborator
			assert.Empty(t, j.events)
			assert.Empty(t, files.blobs)
			assert.Empty(t, records.contacts)
		})
	}
}

func TestSubmitApplication(t *testing.T) {
	t.Parallel()

	t.Run("nominal", func(t *testing.T) {
		t.Parallel()
		svc, files, _, j := newTestService(t)
		in := validApplication()
		in.Portfolio = "https://grace.dev"

		got, err := svc.SubmitApplication(context.Background(), in)
		require.NoError(t, err)

		wantKey := "job-applications/gameplay-programmer_Grace_Hopper_1700000000000.pdf"
		assert.Equal(t, []string{"save " + wantKey, "record application"}, j.events)
		assert.Len(t, files.blobs[wantKey], 2048)
		assert.Equal(t, "application-1", got.ID)
		assert.Equal(t, storage.StatusSubmitted, got.Status)
		assert.Equal(t, "0600000000", got.Phone)
		assert.Equal(t, "https://blob.example.com/"+wantKey, got.ResumePath)
		require.NotNil(t, got.Portfolio)
		assert.Equal(t, "https://grace.dev", *got.Portfolio)
		assert.Nil(t, got.CoverLetter)
	})

	t.Run("docx accepted", func(t *testing.T) {
		t.Parallel()
		svc, files, _, _ := newTestService(t)
		in := validApplication()
		in.Resume = &Upload{
			Filename:    "cv.docx",
			ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			Size:        4,
			Body:        strings.NewReader("PK.."),
		}

		_, err := svc.SubmitApplication(context.Background(), in)
		require.NoError(t, err)
		assert.Contains(t, files.blobs, "job-applications/gameplay-programmer_Grace_Hopper_1700000000000.docx")
	})

	t.Run("type inferred from extension when missing", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newTestService(t)
		in := validApplication()
		in.Resume.ContentType = ""

		_, err := svc.SubmitApplication(context.Background(), in)
		require.NoError(t, err)
	})

	t.Run("record failure leaves the upload in place", func(t *testing.T) {
		t.Parallel()
		svc, files, records, j := newTestService(t)
		records.err = storage.ErrCheckViolation

		_, err := svc.SubmitApplication(context.Background(), validApplication())
		require.ErrorIs(t, err, storage.ErrCheckViolation)
		assert.Len(t, j.events, 2)
		assert.Len(t, files.blobs, 1)
	})

	t.Run("upload failure skips the record", func(t *testing.T) {
		t.Parallel()
		svc, files, _, j := newTestService(t)
		files.saveErr = storage.ErrBlobAccess

		_, err := svc.SubmitApplication(context.Background(), validApplication())
		require.ErrorIs(t, err, storage.ErrBlobAccess)
		assert.Equal(t, []string{"save job-applications/gameplay-programmer_Grace_Hopper_1700000000000.pdf"}, j.events)
	})
}

func TestSubmitApplicationRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		mutate    func(*ApplicationInput)
		wantErr   error
		wantTitle string
	}{
		{
			name:      "missing resume",
			mutate:    func(in *ApplicationInput) { in.Resume = nil },
			wantErr:   ErrMissingFields,
			wantTitle: "Missing required fields",
		},
		{
			name:      "missing job",
			mutate:    func(in *ApplicationInput) { in.JobSlug = "" },
			wantErr:   ErrMissingFields,
			wantTitle: "Missing required fields",
		},
		{
			name:      "job slug with path",
			mutate:    func(in *ApplicationInput) { in.JobSlug = "../admin" },
			wantErr:   ErrInvalidJob,
			wantTitle: "Invalid job slug",
		},
		{
			name:      "resume over 10MB",
			mutate:    func(in *ApplicationInput) { in.Resume = pdf(MaxResumeSize + 1) },
			wantErr:   ErrFileTooLarge,
			wantTitle: "File size exceeds 10MB limit",
		},
		{
			name: "image resume",
			mutate: func(in *ApplicationInput) {
				in.Resume = &Upload{Filename: "cv.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}
			},
			wantErr:   ErrInvalidFileType,
			wantTitle: "Invalid file type. Only PDF, DOC, and DOCX files are allowed.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _, j := newTestService(t)
			in := validApplication()
			tt.mutate(&in)

			_, err := svc.SubmitApplication(context.Background(), in)
			require.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantTitle, verr.Title)
			assert.Empty(t, j.events)
		})
	}
}

func TestKeyPart(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Ada Lovelace":     "Ada_Lovelace",
		"  José   Núñez ":  "Jose_Nunez",
		"../../etc/passwd": "....etcpasswd",
		"<>":               "anonymous",
		"Zoë\tde la Cruz":  "Zoe_de_la_Cruz",
	}
	for in, want := range tests {
		assert.Equal(t, want, keyPart(in), "keyPart(%q)", in)
	}
}
