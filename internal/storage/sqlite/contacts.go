package sqlite

import (
	"context"
	"fmt"

	"studiosite/internal/storage"
)

func (s *Store) CreateContactSubmission(ctx context.Context, c *storage.ContactSubmission) (*storage.ContactSubmission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	status := c.Status
	if status == "" {
		status = storage.StatusPending
	}

	query := `INSERT INTO contact_submissions (id, name, email, mobile, topic, requirements, file_name, file_path, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, name, email, mobile, topic, requirements, file_name, file_path, status, submitted_at`

	var created storage.ContactSubmission
	err = s.db.GetContext(ctx, &created, query,
		id, c.Name, c.Email, c.Mobile, c.Topic, c.Requirements, nullable(c.FileName), nullable(c.FilePath), status)
	if err != nil {
		return nil, fmt.Errorf("could not create contact submission: %w", mapSqlError(err))
	}

	return &created, nil
}

func (s *Store) GetContactSubmission(ctx context.Context, id string) (*storage.ContactSubmission, error) {
	query := `SELECT id, name, email, mobile, topic, requirements, file_name, file_path, status, submitted_at
		FROM contact_submissions
		WHERE id = ?
		LIMIT 1`

	var c storage.ContactSubmission
	if err := s.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, fmt.Errorf("cannot find contact submission %s: %w", id, mapSqlError(err))
	}

	return &c, nil
}
