package content

import (
	"errors"
	"fmt"

	"studiosite/internal/cms"
)

type ErrorCode string

const (
	CodeNotFound    ErrorCode = "NOT_FOUND"
	CodeInvalidSlug ErrorCode = "INVALID_SLUG"
	CodeFetchError  ErrorCode = "FETCH_ERROR"
	CodeParseError  ErrorCode = "PARSE_ERROR"
)

// Sentinels for errors.Is; any *ContentError with the same code matches.
var (
	ErrNotFound    = &ContentError{Code: CodeNotFound}
	ErrInvalidSlug = &ContentError{Code: CodeInvalidSlug}
	ErrFetch       = &ContentError{Code: CodeFetchError}
	ErrParse       = &ContentError{Code: CodeParseError}
)

type ContentError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ContentError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ContentError) Unwrap() error { return e.Err }

func (e *ContentError) Is(target error) bool {
	t, ok := target.(*ContentError)
	return ok && t.Code == e.Code
}

func notFound(kind, slug string) error {
	return &ContentError{Code: CodeNotFound, Message: fmt.Sprintf("%s with slug %q not found", kind, slug)}
}

func fetchError(message string, err error) error {
	// already classified
	var ce *ContentError
	if errors.As(err, &ce) {
		return ce
	}
	return &ContentError{Code: CodeFetchError, Message: message, Err: err}
}

// readError classifies a failed single-entry read.
func readError(kind, slug string, err error) error {
	var ce *ContentError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, cms.ErrEntryNotFound):
		return notFound(kind, slug)
	case errors.Is(err, cms.ErrInvalidKey):
		return &ContentError{Code: CodeInvalidSlug, Message: fmt.Sprintf("invalid %s slug %q", kind, slug), Err: err}
	default:
		return &ContentError{Code: CodeFetchError, Message: fmt.Sprintf("failed to fetch %s %q", kind, slug), Err: err}
	}
}

// CodeOf reports the code of a content error, or "" for anything else.
func CodeOf(err error) ErrorCode {
	var ce *ContentError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
