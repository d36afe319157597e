// Package submissions accepts contact forms and job applications: it
// validates the fields, stores the attachment in blob storage and then
// writes the record.
package submissions

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"mime"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mozillazg/go-unidecode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/content"
	"studiosite/internal/storage"
	"studiosite/internal/telemetry"
)

const (
	MaxContactFileSize = 1 << 20
	MaxResumeSize      = 10 << 20

	contactPrefix     = "contact-forms"
	applicationPrefix = "job-applications"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrInvalidJob      = errors.New("invalid job slug")
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	spacePattern  = regexp.MustCompile(`\s+`)
	unsafePattern = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

var contactTypes = []string{"application/pdf"}

var resumeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ValidationError is a rejected submission. Title and Message are safe to
// show to the visitor.
type ValidationError struct {
	Err     error
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Title
	}
	return e.Title + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Upload is an attachment as received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

type ContactInput struct {
	Name         string
	Email        string
	Mobile       string
	Topic        string
	Requirements string
	File         *Upload
}

type ApplicationInput struct {
	Name        string
	Email       string
	Mobile      string
	Portfolio   string
	CoverLetter string
	JobSlug     string
	Resume      *Upload
}

// Recorder is the part of storage.Store the form endpoints write to.
type Recorder interface {
	CreateContactSubmission(ctx context.Context, c *storage.ContactSubmission) (*storage.ContactSubmission, error)
	CreateJobApplication(ctx context.Context, a *storage.JobApplication) (*storage.JobApplication, error)
}

type Service struct {
	files   storage.Provider
	records Recorder
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
	now     func() time.Time
}

func New(files storage.Provider, records Recorder, metrics *telemetry.Metrics, logger *slog.Logger) *Service {
	if metrics == nil {
		metrics = telemetry.NoopMetrics()
	}
	return &Service{
		files:   files,
		records: records,
		logger:  logger,
		tracer:  otel.Tracer("studiosite/submissions"),
		metrics: metrics,
		now:     time.Now,
	}
}

// SubmitContact validates a contact form, uploads the optional PDF brief and
// records the submission with status "pending".
func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (*storage.ContactSubmission, error) {
	ctx, span := s.tracer.Start(ctx, "Submissions.SubmitContact")
	defer span.End()

	in.Name = cleanText(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = cleanText(in.Mobile)
	in.Topic = cleanText(in.Topic)
	in.Requirements = cleanText(in.Requirements)

	if in.Name == "" || in.Email == "" || in.Mobile == "" || in.Topic == "" || in.Requirements == "" {
		return nil, &ValidationError{ErrMissingFields, "Missing required fields", "Please fill in all required fields"}
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, &ValidationError{ErrInvalidEmail, "Invalid email format", "Please enter a valid email address"}
	}

	record := &storage.ContactSubmission{
		Name:         in.Name,
		Email:        in.Email,
		Mobile:       in.Mobile,
		Topic:        in.Topic,
		Requirements: in.Requirements,
		Status:       storage.StatusPending,
	}

	var key string
	if f := in.File; f != nil && f.Size > 0 {
		if f.Size > MaxContactFileSize {
			s.rejected(ctx, "contact", "size")
			return nil, &ValidationError{ErrFileTooLarge, "File too large", "File size must be less than 1MB"}
		}
		if !allowedType(f, contactTypes) {
			s.rejected(ctx, "contact", "type")
			return nil, &ValidationError{ErrInvalidFileType, "Invalid file type", "Only PDF files are allowed"}
		}

		fileName := fmt.Sprintf("contact_%s_%d.%s", keyPart(in.Name), s.now().UnixMilli(), extension(f))
		key = path.Join(contactPrefix, fileName)
		if err := s.upload(ctx, key, f); err != nil {
			span.SetStatus(codes.Error, "upload failed")
			return nil, err
		}

		u := s.files.URL(key)
		record.FileName = &fileName
		record.FilePath = &u
	}

	created, err := s.records.CreateContactSubmission(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
		if key != "" {
			s.logger.Error("contact submission not recorded, attachment left orphaned", "key", key, "err", err)
		}
		return nil, fmt.Errorf("recording contact submission: %w", err)
	}

	s.metrics.SubmissionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("form", "contact")))
	s.logger.Info("new contact form submission", "id", created.ID, "topic", created.Topic, "attachment", key != "")
	return created, nil
}

// SubmitApplication validates a job application, uploads the resume and
// records the application with status "submitted".
func (s *Service) SubmitApplication(ctx context.Context, in ApplicationInput) (*storage.JobApplication, error) {
	ctx, span := s.tracer.Start(ctx, "Submissions.SubmitApplication",
		trace.WithAttributes(attribute.String("job.slug", in.JobSlug)))
	defer span.End()

	in.Name = cleanText(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = cleanText(in.Mobile)
	in.Portfolio = strings.TrimSpace(in.Portfolio)
	in.CoverLetter = cleanText(in.CoverLetter)
	in.JobSlug = strings.TrimSpace(in.JobSlug)

	if in.Name == "" || in.Email == "" || in.Mobile == "" || in.JobSlug == "" || in.Resume == nil {
		return nil, &ValidationError{Err: ErrMissingFields, Title: "Missing required fields"}
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, &ValidationError{Err: ErrInvalidEmail, Title: "Invalid email format"}
	}
	if !content.ValidateSlug(in.JobSlug) {
		return nil, &ValidationError{Err: ErrInvalidJob, Title: "Invalid job slug"}
	}

	f := in.Resume
	if f.Size > MaxResumeSize {
		s.rejected(ctx, "application", "size")
		return nil, &ValidationError{Err: ErrFileTooLarge, Title: "File size exceeds 10MB limit"}
	}
	if !allowedType(f, resumeTypes) {
		s.rejected(ctx, "application", "type")
		return nil, &ValidationError{Err: ErrInvalidFileType, Title: "Invalid file type. Only PDF, DOC, and DOCX files are allowed."}
	}

	key := path.Join(applicationPrefix,
		fmt.Sprintf("%s_%s_%d.%s", in.JobSlug, keyPart(in.Name), s.now().UnixMilli(), extension(f)))
	if err := s.upload(ctx, key, f); err != nil {
		span.SetStatus(codes.Error, "upload failed")
		return nil, err
	}

	record := &storage.JobApplication{
		JobSlug:    in.JobSlug,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Mobile,
		ResumePath: s.files.URL(key),
		Status:     storage.StatusSubmitted,
	}
	if in.Portfolio != "" {
		record.Portfolio = &in.Portfolio
	}
	if in.CoverLetter != "" {
		record.CoverLetter = &in.CoverLetter
	}

	created, err := s.records.CreateJobApplication(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
		s.logger.Error("job application not recorded, resume left orphaned", "key", key, "job", in.JobSlug, "err", err)
		return nil, fmt.Errorf("recording job application: %w", err)
	}

	s.metrics.SubmissionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("form", "application")))
	s.logger.Info("new job application", "id", created.ID, "job", created.JobSlug)
	return created, nil
}

func (s *Service) upload(ctx context.Context, key string, f *Upload) error {
	if _, err := f.Body.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding upload: %w", err)
	}
	if err := s.files.Save(ctx, key, f.Body); err != nil {
		s.logger.Error("attachment upload failed", "key", key, "err", err)
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (s *Service) rejected(ctx context.Context, form, reason string) {
	s.metrics.RejectedUploadsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("form", form),
		attribute.String("reason", reason),
	))
}

var strictPolicy = sync.OnceValue(bluemonday.StrictPolicy)

// cleanText drops markup from free-text fields and trims them.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy().Sanitize(s)))
}

// keyPart makes a visitor supplied name usable inside a blob key.
func keyPart(name string) string {
	s := spacePattern.ReplaceAllString(strings.TrimSpace(unidecode.Unidecode(name)), "_")
	s = unsafePattern.ReplaceAllString(s, "")
	if s == "" {
		return "anonymous"
	}
	return s
}

// allowedType checks the declared type, falling back to the extension when
// the client sent none.
func allowedType(f *Upload, allowed []string) bool {
	ct := f.ContentType
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if ct == "" || ct == "application/octet-stream" {
		ct, _, _ = strings.Cut(mime.TypeByExtension(path.Ext(f.Filename)), ";")
	}
	for _, a := range allowed {
		if strings.EqualFold(ct, a) {
			return true
		}
	}
	return false
}

var extensions = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
}

func extension(f *Upload) string {
	if ext := strings.TrimPrefix(path.Ext(f.Filename), "."); ext != "" {
		return unsafePattern.ReplaceAllString(strings.ToLower(ext), "")
	}
	mt, _, _ := mime.ParseMediaType(f.ContentType)
	if ext, ok := extensions[mt]; ok {
		return ext
	}
	return "bin"
}
