package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"studiosite/internal/storage"
)

func (s *Store) CreateClientError(ctx context.Context, e *storage.ClientError) (*storage.ClientError, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	serverTS := e.ServerTimestamp
	if serverTS.IsZero() {
		serverTS = time.Now().UTC()
	}

	var errContext any
	if len(e.Context) > 0 {
		errContext = string(e.Context)
	}

	query := `INSERT INTO client_errors (id, message, stack, digest, url, user_agent, browser, os, component,
			client_timestamp, server_timestamp, ip_hash, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, message, stack, digest, url, user_agent, browser, os, component,
			client_timestamp, server_timestamp, ip_hash, context`

	var created storage.ClientError
	err = s.db.GetContext(ctx, &created, query,
		id, e.Message, nullable(e.Stack), nullable(e.Digest), nullable(e.URL), nullable(e.UserAgent),
		nullable(e.Browser), nullable(e.OS), nullable(e.Component),
		e.ClientTimestamp, serverTS, nullable(e.IPHash), errContext)
	if err != nil {
		return nil, fmt.Errorf("could not record client error: %w", mapSqlError(err))
	}

	return &created, nil
}

func (s *Store) ListClientErrors(ctx context.Context, offset, limit int64) ([]*storage.ClientError, error) {
	offset, limit = clampPage(offset, limit)

	query := `SELECT id, message, stack, digest, url, user_agent, browser, os, component,
			client_timestamp, server_timestamp, ip_hash, context
		FROM client_errors
		ORDER BY server_timestamp DESC, id DESC
		LIMIT ?
		OFFSET ?`

	var out []*storage.ClientError
	if err := s.db.SelectContext(ctx, &out, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list client errors: %w", mapSqlError(err))
	}

	return out, nil
}

func mapSqlError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	// sqlite specific errors
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {

		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return storage.ErrUniqueViolation

		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return storage.ErrCheckViolation
		}
	}
	return err
}
