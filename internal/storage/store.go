package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Store persists form submissions and client error reports.
type Store interface {
	// contact form
	CreateContactSubmission(ctx context.Context, c *ContactSubmission) (*ContactSubmission, error)
	GetContactSubmission(ctx context.Context, id string) (*ContactSubmission, error)

	// job applications
	CreateJobApplication(ctx context.Context, a *JobApplication) (*JobApplication, error)
	GetJobApplication(ctx context.Context, id string) (*JobApplication, error)
	GetApplicationsForJob(ctx context.Context, jobSlug string, offset, limit int64) ([]*JobApplication, error)

	// client errors
	CreateClientError(ctx context.Context, e *ClientError) (*ClientError, error)
	ListClientErrors(ctx context.Context, offset, limit int64) ([]*ClientError, error)

	Close() error
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
)

type ContactSubmission struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Mobile       string    `db:"mobile" json:"mobile"`
	Topic        string    `db:"topic" json:"topic"`
	Requirements string    `db:"requirements" json:"requirements"`
	FileName     *string   `db:"file_name" json:"fileName,omitempty"`
	FilePath     *string   `db:"file_path" json:"filePath,omitempty"`
	Status       string    `db:"status" json:"status"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submittedAt"`
}

type JobApplication struct {
	ID          string    `db:"id" json:"id"`
	JobSlug     string    `db:"job_slug" json:"jobSlug"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Portfolio   *string   `db:"portfolio" json:"portfolio,omitempty"`
	CoverLetter *string   `db:"cover_letter" json:"coverLetter,omitempty"`
	ResumePath  string    `db:"resume_path" json:"resumePath"`
	Status      string    `db:"status" json:"status"`
	SubmittedAt time.Time `db:"submitted_at" json:"submittedAt"`
}

type ClientError struct {
	ID              string         `db:"id" json:"id"`
	Message         string         `db:"message" json:"message"`
	Stack           *string        `db:"stack" json:"stack,omitempty"`
	Digest          *string        `db:"digest" json:"digest,omitempty"`
	URL             *string        `db:"url" json:"url,omitempty"`
	UserAgent       *string        `db:"user_agent" json:"userAgent,omitempty"`
	Browser         *string        `db:"browser" json:"browser,omitempty"`
	OS              *string        `db:"os" json:"os,omitempty"`
	Component       *string        `db:"component" json:"component,omitempty"`
	ClientTimestamp string         `db:"client_timestamp" json:"timestamp"`
	ServerTimestamp time.Time      `db:"server_timestamp" json:"serverTimestamp"`
	IPHash          *string        `db:"ip_hash" json:"-"`
	Context         types.JSONText `db:"context" json:"context,omitempty"`
}
