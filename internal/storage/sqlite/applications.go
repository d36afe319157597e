package sqlite

import (
	"context"
	"fmt"

	"studiosite/internal/storage"
)

func (s *Store) CreateJobApplication(ctx context.Context, a *storage.JobApplication) (*storage.JobApplication, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	status := a.Status
	if status == "" {
		status = storage.StatusSubmitted
	}

	query := `INSERT INTO job_applications (id, job_slug, name, email, phone, portfolio, cover_letter, resume_path, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, job_slug, name, email, phone, portfolio, cover_letter, resume_path, status, submitted_at`

	var created storage.JobApplication
	err = s.db.GetContext(ctx, &created, query,
		id, a.JobSlug, a.Name, a.Email, a.Phone, nullable(a.Portfolio), nullable(a.CoverLetter), a.ResumePath, status)
	if err != nil {
		return nil, fmt.Errorf("could not create job application: %w", mapSqlError(err))
	}

	return &created, nil
}

func (s *Store) GetJobApplication(ctx context.Context, id string) (*storage.JobApplication, error) {
	query := `SELECT id, job_slug, name, email, phone, portfolio, cover_letter, resume_path, status, submitted_at
		FROM job_applications
		WHERE id = ?
		LIMIT 1`

	var a storage.JobApplication
	if err := s.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, fmt.Errorf("cannot find job application %s: %w", id, mapSqlError(err))
	}

	return &a, nil
}

func (s *Store) GetApplicationsForJob(ctx context.Context, jobSlug string, offset, limit int64) ([]*storage.JobApplication, error) {
	offset, limit = clampPage(offset, limit)

	query := `SELECT id, job_slug, name, email, phone, portfolio, cover_letter, resume_path, status, submitted_at
		FROM job_applications
		WHERE job_slug = ?
		ORDER BY id DESC
		LIMIT ?
		OFFSET ?`

	var apps []*storage.JobApplication
	if err := s.db.SelectContext(ctx, &apps, query, jobSlug, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get applications: %w", mapSqlError(err))
	}

	return apps, nil
}
